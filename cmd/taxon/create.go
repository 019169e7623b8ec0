package main

import (
	"github.com/spf13/cobra"

	"github.com/hejijunhao/taxon/internal/engine/mutator"
	"github.com/hejijunhao/taxon/internal/model"
)

var (
	createDepartment  string
	createDescription string
	createAliases     []string
	createExamples    []string
	createCategory    string
	createSeverity    string
	createApplicable  []string
	proposalKind      string
	proposalContext   string
)

var createKeywordCmd = &cobra.Command{
	Use:   "create-keyword LABEL",
	Short: "Admit a new keyword",
	Long: `Validate, check for duplicates, embed and append a keyword, then bump
the taxonomy version. A duplicate is reported with the existing entry.

Examples:
  taxon create-keyword "Limpeza - Toalhas" --department Limpeza --example "toalhas sujas"`,
	Args: cobra.ExactArgs(1),
	RunE: runCreateKeyword,
}

var createProblemCmd = &cobra.Command{
	Use:   "create-problem LABEL",
	Short: "Admit a new problem",
	Long: `Validate, check for duplicates, embed and append a problem. Problems
without --department apply to every department.

Examples:
  taxon create-problem "Cheiro de mofo" --severity medium --department Governanca`,
	Args: cobra.ExactArgs(1),
	RunE: runCreateProblem,
}

var proposeCmd = &cobra.Command{
	Use:   "propose LABEL",
	Short: "Record a label suggestion for review",
	Args:  cobra.ExactArgs(1),
	RunE:  runPropose,
}

func init() {
	kf := createKeywordCmd.Flags()
	kf.StringVar(&createDepartment, "department", "", "Owning department id")
	kf.StringVar(&createDescription, "description", "", "Free-text description")
	kf.StringSliceVar(&createAliases, "alias", nil, "Alternative phrasing (repeatable)")
	kf.StringSliceVar(&createExamples, "example", nil, "Example feedback (repeatable)")
	_ = createKeywordCmd.MarkFlagRequired("department")

	pf := createProblemCmd.Flags()
	pf.StringVar(&createDescription, "description", "", "Free-text description")
	pf.StringVar(&createCategory, "category", "", "Problem category")
	pf.StringVar(&createSeverity, "severity", "", "Severity: low, medium, high, critical")
	pf.StringSliceVar(&createApplicable, "department", nil, "Applicable department id (repeatable)")
	pf.StringSliceVar(&createExamples, "example", nil, "Example feedback (repeatable)")

	proposeCmd.Flags().StringVar(&proposalKind, "kind", string(model.KindKeyword), "Entity kind (keyword, problem)")
	proposeCmd.Flags().StringVar(&createDepartment, "department", "", "Suggested department id")
	proposeCmd.Flags().StringVar(&proposalContext, "context", "", "Feedback that prompted the proposal")

	rootCmd.AddCommand(createKeywordCmd, createProblemCmd, proposeCmd)
}

type created struct {
	ID string `json:"id"`
}

func runCreateKeyword(cmd *cobra.Command, args []string) error {
	eng, err := rt.engine()
	if err != nil {
		return err
	}
	kwID, err := eng.CreateKeyword(cmd.Context(), mutator.KeywordInput{
		Label:        args[0],
		DepartmentID: createDepartment,
		Description:  createDescription,
		Aliases:      createAliases,
		Examples:     createExamples,
	}, actor)
	if err != nil {
		return err
	}
	return rt.emit(cmd.Context(), "create-keyword", created{ID: kwID})
}

func runCreateProblem(cmd *cobra.Command, args []string) error {
	eng, err := rt.engine()
	if err != nil {
		return err
	}
	pbID, err := eng.CreateProblem(cmd.Context(), mutator.ProblemInput{
		Label:                 args[0],
		Description:           createDescription,
		Category:              createCategory,
		Severity:              model.Severity(createSeverity),
		ApplicableDepartments: createApplicable,
		Examples:              createExamples,
	}, actor)
	if err != nil {
		return err
	}
	return rt.emit(cmd.Context(), "create-problem", created{ID: pbID})
}

func runPropose(cmd *cobra.Command, args []string) error {
	eng, err := rt.engine()
	if err != nil {
		return err
	}
	propID, err := eng.CreateProposal(cmd.Context(), mutator.ProposalInput{
		Kind:         model.Kind(proposalKind),
		Label:        args[0],
		DepartmentID: createDepartment,
		Context:      proposalContext,
	}, actor)
	if err != nil {
		return err
	}
	return rt.emit(cmd.Context(), "propose", created{ID: propID})
}
