package main

import (
	"github.com/spf13/cobra"

	"github.com/hejijunhao/taxon/internal/model"
)

var archiveKind string

var archiveCmd = &cobra.Command{
	Use:   "archive ID",
	Short: "Retire a keyword or problem",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchive,
}

var mergeCmd = &cobra.Command{
	Use:   "merge ID CANONICAL_ID",
	Short: "Archive an entry as a duplicate of another",
	Long: `Archive ID and record it on CANONICAL_ID as merged. The canonical
entry must be active and of the same kind.

Examples:
  taxon merge kw-V1StGXR8_Z5jdHi6B kw-breakfast --kind keyword`,
	Args: cobra.ExactArgs(2),
	RunE: runMerge,
}

type archived struct {
	ID          string `json:"id"`
	CanonicalID string `json:"canonical_id,omitempty"`
}

func init() {
	for _, c := range []*cobra.Command{archiveCmd, mergeCmd} {
		c.Flags().StringVar(&archiveKind, "kind", string(model.KindKeyword), "Entity kind (keyword, problem)")
		rootCmd.AddCommand(c)
	}
}

func runArchive(cmd *cobra.Command, args []string) error {
	eng, err := rt.engine()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	switch model.Kind(archiveKind) {
	case model.KindProblem:
		err = eng.ArchiveProblem(ctx, args[0], actor)
	default:
		err = eng.ArchiveKeyword(ctx, args[0], actor)
	}
	if err != nil {
		return err
	}
	return rt.emit(ctx, "archive", archived{ID: args[0]})
}

func runMerge(cmd *cobra.Command, args []string) error {
	eng, err := rt.engine()
	if err != nil {
		return err
	}
	if err := eng.MarkDuplicate(cmd.Context(), model.Kind(archiveKind), args[0], args[1], actor); err != nil {
		return err
	}
	return rt.emit(cmd.Context(), "merge", archived{ID: args[0], CanonicalID: args[1]})
}
