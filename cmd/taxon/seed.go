package main

import "github.com/spf13/cobra"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the default hotel departments into an empty store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := rt.engine()
		if err != nil {
			return err
		}
		n, err := eng.SeedDepartments(cmd.Context(), actor)
		if err != nil {
			return err
		}
		return rt.emit(cmd.Context(), "seed", map[string]int{"seeded": n})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show taxonomy version, counts and embedding coverage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := rt.engine()
		if err != nil {
			return err
		}
		st, err := eng.Stats(cmd.Context())
		if err != nil {
			return err
		}
		return rt.emit(cmd.Context(), "stats", st)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd, statsCmd)
}
