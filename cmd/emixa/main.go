package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"emixa/internal/catalog"
	"emixa/internal/characterization"
	"emixa/internal/classify"
	"emixa/internal/config"
	"emixa/internal/emit"
	"emixa/internal/model"
	"emixa/internal/plot"
	"emixa/internal/sweep"
)

var (
	// Global flags
	genFunction bool
	genPlot     bool
	verbose     bool
	cfgPath     string
	timeoutFlag time.Duration
	historyN    int

	// Logger
	logger *zap.Logger
)

// rootCmd drives a full characterization: sweep, synthesis, emission.
var rootCmd = &cobra.Command{
	Use:   "emixa [flags] <test> [params...]",
	Short: "emixa - Error Modeling of Inexact Arithmetic",
	Long: `emixa characterizes approximate arithmetic circuits through an external
hardware test harness and synthesizes compact error-correction models from
the measurements.

Parameters are bound positionally, by name (name=value), or from the
defaults the harness declares. Integer parameters can be swept as ranges in
the form start:stop[:step], inclusive of stop; the sweep runs the harness
once per combination.

Examples:
  emixa -f ApproxAdderSpec 32 8
  emixa -f -p ApproxAdderSpec 16:33 approxBits=4:8:2`,
	Args: cobra.MinimumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE:          runCharacterization,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// historyCmd lists recent characterizations recorded in the catalog.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent characterizations from the catalog",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "pass harness info and warning lines through")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "emixa.yaml", "path to the emixa config file")
	rootCmd.Flags().BoolVarP(&genFunction, "function", "f", false, "emit Python operator artifacts")
	rootCmd.Flags().BoolVarP(&genPlot, "plot", "p", false, "render result charts")
	rootCmd.Flags().DurationVar(&timeoutFlag, "timeout", 0, "per-invocation harness timeout (overrides config)")
	historyCmd.Flags().IntVarP(&historyN, "limit", "n", 20, "number of entries to list")
	rootCmd.AddCommand(historyCmd)
}

func runCharacterization(cmd *cobra.Command, args []string) error {
	scheme := classify.DefaultScheme()

	if !genFunction && !genPlot {
		fmt.Printf("%s No outputs (-f or -p) requested, skipping further processing\n", scheme.Info)
		return nil
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	timeout := cfg.Harness.TimeoutDuration()
	if timeoutFlag > 0 {
		timeout = timeoutFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := &sweep.HarnessRunner{
		Command: cfg.Harness.Command,
		Args:    cfg.Harness.Args,
		Dir:     cfg.Harness.Dir,
		Timeout: timeout,
		Log:     logger,
	}
	orch := sweep.New(runner, logger, sweep.Options{
		OutputDir: cfg.Output.Dir,
		Verbose:   verbose,
		Status:    os.Stdout,
		Scheme:    scheme,
	})

	name, tokens := args[0], args[1:]
	batch, err := orch.Sweep(ctx, name, tokens)
	if err != nil {
		return err
	}

	// Artifacts for different sweep points must be distinctly named, so
	// labeling uses the parameter positions that vary across the batch.
	diffIdx := characterization.DiffParamIndices(batch.Results)

	// Synthesis, emission, and rendering are pure per-result work;
	// results are processed concurrently, outputs kept in batch order.
	funcPaths := make([]string, len(batch.Results))
	plotPaths := make([][]string, len(batch.Results))
	g, gctx := errgroup.WithContext(ctx)
	for i, res := range batch.Results {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, err := model.Synthesize(res, logger)
			if err != nil {
				return err
			}
			if genFunction {
				path, err := emit.WriteModule(cfg.Output.Dir, m, diffIdx)
				if err != nil {
					return err
				}
				funcPaths[i] = path
			}
			if genPlot {
				paths, err := plot.Render(cfg.Output.Dir, res, m, diffIdx)
				if err != nil {
					return err
				}
				plotPaths[i] = paths
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if cfg.Catalog.Enabled {
		recordBatch(ctx, cfg.Catalog.Path, batch)
	}

	if genFunction {
		reportPaths(scheme, "Python output", funcPaths)
	}
	if genPlot {
		var flat []string
		for _, ps := range plotPaths {
			flat = append(flat, ps...)
		}
		reportPaths(scheme, "plot output", flat)
	}
	fmt.Printf("%s Finished processing, exiting\n", scheme.Info)
	return nil
}

// recordBatch stores the batch in the history catalog; failures are
// logged, never fatal to a completed sweep.
func recordBatch(ctx context.Context, path string, batch *sweep.Batch) {
	cat, err := catalog.Open(path)
	if err != nil {
		logger.Warn("could not open catalog", zap.String("path", path), zap.Error(err))
		return
	}
	defer cat.Close()
	if err := cat.RecordBatch(ctx, batch.RunID, batch.Results); err != nil {
		logger.Warn("could not record batch", zap.Error(err))
	}
}

func reportPaths(scheme classify.Scheme, kind string, paths []string) {
	var written []string
	for _, p := range paths {
		if p != "" {
			written = append(written, p)
		}
	}
	if len(written) == 0 {
		fmt.Printf("%s No %s files written\n", scheme.Info, kind)
		return
	}
	fmt.Printf("%s Wrote %s files to:\n", scheme.Info, kind)
	for _, p := range written {
		fmt.Printf("%s  - %s\n", scheme.Info, p)
	}
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	cat, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	defer cat.Close()

	entries, err := cat.Recent(cmd.Context(), historyN)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no characterizations recorded yet")
		return nil
	}
	for _, e := range entries {
		sign := "unsigned"
		if e.Signed {
			sign = "signed"
		}
		fmt.Printf("%s  %-24s %-10s %-8s %s w=%d params=(%s)\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.Test, e.Kind, sign, e.Module, e.Width, joinParams(e.Params))
	}
	return nil
}

func joinParams(params []string) string {
	out := ""
	for i, p := range params {
		if i > 0 {
			out += " "
		}
		out += p
	}
	return out
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", classify.DefaultScheme().Error, err)
		os.Exit(1)
	}
}
