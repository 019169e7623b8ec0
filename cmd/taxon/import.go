package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace the stored taxonomy with a JSON export",
	Long: `Load a taxonomy document shaped like
{"meta":{...},"departments":[...],"keywords":[...],"problems":[...]}.
Missing sections are left as they are. Use - to read stdin.

Examples:
  taxon import taxonomy.json --store data/taxonomy`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	if err := rt.db.Import(cmd.Context(), data, actor); err != nil {
		return err
	}
	return rt.emit(cmd.Context(), "import", map[string]any{"file": args[0], "bytes": len(data)})
}
