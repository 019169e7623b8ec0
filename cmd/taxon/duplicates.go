package main

import (
	"github.com/spf13/cobra"

	"github.com/hejijunhao/taxon/internal/model"
)

var (
	dupKind       string
	dupDepartment string
)

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates LABEL",
	Short: "List active entries that collide with a proposed label",
	Long: `Check a label the way create-keyword and create-problem do, without
writing anything. Matches are printed best first.

Examples:
  taxon duplicates "A&B - Café da manhã" --department "A&B"
  taxon duplicates "Demora no atendimento" --kind problem`,
	Args: cobra.ExactArgs(1),
	RunE: runDuplicates,
}

func init() {
	duplicatesCmd.Flags().StringVar(&dupKind, "kind", string(model.KindKeyword), "Entity kind (keyword, problem)")
	duplicatesCmd.Flags().StringVar(&dupDepartment, "department", "", "Department scope for keywords")
	rootCmd.AddCommand(duplicatesCmd)
}

func runDuplicates(cmd *cobra.Command, args []string) error {
	eng, err := rt.engine()
	if err != nil {
		return err
	}
	dups, err := eng.FindDuplicates(cmd.Context(), args[0], model.Kind(dupKind), dupDepartment)
	if err != nil {
		return err
	}
	return rt.emit(cmd.Context(), "duplicates", dups)
}
