package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/hejijunhao/taxon/internal/engine"
	"github.com/hejijunhao/taxon/internal/pipeline"
)

var (
	retrieveTopN       int
	retrieveReload     bool
	retrieveStdin      bool
	retrieveBatchSize  int
	retrieveSkipErrors bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve TEXT...",
	Short: "Retrieve keyword and problem candidates for feedback text",
	Long: `Expand, embed and score feedback text against the active taxonomy.

Each argument is one feedback fragment. Several fragments are retrieved
concurrently and printed one result per line, in argument order. With
--stdin, fragments are read one per line and retrieved in batches.

Examples:
  taxon retrieve "o café da manhã estava frio"
  taxon retrieve --top-n 5 "wifi caiu" "quarto sujo"
  taxon retrieve --stdin --envelope < feedback.txt`,
	Args: func(cmd *cobra.Command, args []string) error {
		if retrieveStdin {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().IntVar(&retrieveTopN, "top-n", 0, "Candidates per category (default $TAXON_RECALL_TOP_N)")
	retrieveCmd.Flags().BoolVar(&retrieveReload, "reload", false, "Reload the taxonomy before scoring")
	retrieveCmd.Flags().BoolVar(&retrieveStdin, "stdin", false, "Read fragments from stdin, one per line")
	retrieveCmd.Flags().IntVar(&retrieveBatchSize, "batch-size", 32, "Lines per batch with --stdin")
	retrieveCmd.Flags().BoolVar(&retrieveSkipErrors, "skip-errors", false, "With --stdin, skip failed batches instead of stopping")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	eng, err := rt.engine()
	if err != nil {
		return err
	}
	var opts []engine.RetrieveOption
	if retrieveTopN > 0 {
		opts = append(opts, engine.WithTopN(retrieveTopN))
	}
	if retrieveReload {
		opts = append(opts, engine.WithForceReload())
	}

	ctx := cmd.Context()
	if retrieveStdin {
		return runRetrieveStream(cmd, eng, opts)
	}
	results, err := eng.RetrieveBatch(ctx, args, opts...)
	if err != nil {
		return err
	}
	for i, r := range results {
		if err := rt.emitFor(ctx, "retrieve", args[i], r); err != nil {
			return err
		}
	}
	return nil
}

func runRetrieveStream(cmd *cobra.Command, eng *engine.Engine, opts []engine.RetrieveOption) error {
	popts := []pipeline.Option{
		pipeline.WithBatchSize(retrieveBatchSize),
		pipeline.WithRetrieveOptions(opts...),
		pipeline.WithLogger(rt.logger),
	}
	if retrieveSkipErrors {
		popts = append(popts, pipeline.WithSkipErrors())
	}
	sum, err := pipeline.New(eng, rt.out, popts...).Run(cmd.Context(), cmd.InOrStdin())
	rt.logger.Info("stream finished",
		"lines", sum.Lines,
		"retrieved", sum.Retrieved,
		"failed", sum.Failed,
		"batches", sum.Batches)
	if err != nil {
		return err
	}
	if sum.Failed > 0 {
		return errors.New("some batches failed; see log")
	}
	return nil
}
