package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/hejijunhao/taxon/internal/config"
	"github.com/hejijunhao/taxon/internal/engine"
	"github.com/hejijunhao/taxon/internal/engine/embedder"
	"github.com/hejijunhao/taxon/internal/logging"
	"github.com/hejijunhao/taxon/internal/output"
	"github.com/hejijunhao/taxon/internal/output/file"
	"github.com/hejijunhao/taxon/internal/output/multi"
	"github.com/hejijunhao/taxon/internal/output/stdout"
	"github.com/hejijunhao/taxon/internal/store"
)

var (
	storePath string
	logLevel  string
	logJSON   bool
	pretty    bool
	minimal   bool
	auditPath string
	envelope  bool
	actor     string
)

var rootCmd = &cobra.Command{
	Use:   "taxon",
	Short: "Retrieve and curate the hotel feedback taxonomy",
	Long: `taxon retrieves candidate keywords and problems for guest feedback
and curates the taxonomy they come from.

Configuration is read from TAXON_* environment variables; flags override
the store location and logging.

Examples:
  taxon seed
  taxon import taxonomy.json
  taxon retrieve "o café da manhã estava frio"
  taxon create-keyword "A&B - Café da manhã" --department "A&B"
  taxon duplicates "Limpeza - Toalhas" --kind keyword --department Limpeza`,
	Version:           config.Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&storePath, "store", "", "Badger directory (default $TAXON_STORE_PATH, in-memory when empty)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default $TAXON_LOG_LEVEL)")
	pf.BoolVar(&logJSON, "log-json", false, "Write logs as JSON")
	pf.BoolVar(&pretty, "pretty", false, "Indent JSON output")
	pf.BoolVar(&minimal, "minimal", false, "Omit descriptions, examples and departments from candidate output")
	pf.StringVar(&auditPath, "audit", "", "Also append every result to this NDJSON file")
	pf.BoolVar(&envelope, "envelope", false, "Wrap each result with its command, input and timestamp")
	pf.StringVar(&actor, "by", "cli", "Actor recorded on mutations")
}

// runtime holds what a command needs once flags are parsed.
type runtime struct {
	cfg    config.Config
	logger *slog.Logger
	db     *store.DB
	out    output.Output
	emb    embedder.Embedder
	eng    *engine.Engine
}

var rt = &runtime{}

func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("store") {
		cfg.Store.Path = storePath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logJSON {
		cfg.Log.JSON = true
	}

	rt.cfg = cfg
	rt.logger = logging.Init(cfg.Log.JSON, logging.ParseLevel(cfg.Log.Level))

	verbosity := output.Standard
	if minimal {
		verbosity = output.Minimal
	}
	sopts := []stdout.Option{stdout.WithWriter(cmd.OutOrStdout())}
	if !envelope {
		sopts = append(sopts, stdout.WithBare())
	}
	var out output.Output = stdout.New(verbosity, pretty, sopts...)
	if auditPath != "" {
		audit, err := file.New(auditPath, verbosity)
		if err != nil {
			return err
		}
		out = multi.New(out, audit)
	}
	rt.out = out

	rt.db, err = store.Open(cfg.Store.Path,
		store.WithLogger(rt.logger),
		store.WithSyncWrites(cfg.Store.SyncWrites))
	return err
}

// engine builds the embedding provider and engine on first use, so
// commands that only touch the store run without provider credentials.
func (r *runtime) engine() (*engine.Engine, error) {
	if r.eng != nil {
		return r.eng, nil
	}
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}
	emb, err := embedder.New(r.cfg.Embedder)
	if err != nil {
		return nil, err
	}
	eng, err := engine.New(r.db, emb, engine.ConfigFrom(r.cfg.Engine), engine.WithLogger(r.logger))
	if err != nil {
		closeEmbedder(emb)
		return nil, err
	}
	r.emb, r.eng = emb, eng
	return eng, nil
}

func (r *runtime) emit(ctx context.Context, command string, result any) error {
	return r.emitFor(ctx, command, "", result)
}

func (r *runtime) emitFor(ctx context.Context, command, input string, result any) error {
	return r.out.Write(ctx, output.Record{Command: command, Input: input, At: time.Now().UTC(), Result: result})
}

func (r *runtime) close() error {
	var errs []error
	if r.out != nil {
		errs = append(errs, r.out.Close())
	}
	if r.emb != nil {
		errs = append(errs, closeEmbedder(r.emb))
	}
	if r.db != nil {
		errs = append(errs, r.db.Close())
	}
	return errors.Join(errs...)
}

func closeEmbedder(e embedder.Embedder) error {
	if c, ok := e.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
