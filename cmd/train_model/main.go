package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mindsurvey/config"
	"mindsurvey/db"
	"mindsurvey/logging"
	"mindsurvey/ml"
	"mindsurvey/pipeline"
)

type options struct {
	configPath string
	dataPath   string
	outPath    string
	testRatio  float64
	seed       int64
	maxIter    int
	watch      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "train_model",
		Short:         "train the treatment classifier and write the model artifact",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}
			logger, err := logging.New(cfg.Log)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := train(ctx, cfg, opts.watch, logger); err != nil {
				logger.Error("Training failed", zap.Error(err))
				return err
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "config.yaml", "path to the YAML config file")
	cmd.Flags().StringVar(&opts.dataPath, "data", "", "survey CSV to train on")
	cmd.Flags().StringVar(&opts.outPath, "out", "", "artifact output path")
	cmd.Flags().Float64Var(&opts.testRatio, "test-ratio", 0, "holdout fraction for evaluation, 0 disables")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "shuffle seed for the holdout split")
	cmd.Flags().IntVar(&opts.maxIter, "max-iter", 0, "solver iteration cap")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "retrain whenever the CSV changes")

	cmd.AddCommand(historyCmd(&opts))
	return cmd
}

// loadConfig layers explicitly set flags over the config file.
func loadConfig(cmd *cobra.Command, opts options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Training.DataPath = opts.dataPath
	}
	if flags.Changed("out") {
		cfg.Model.ArtifactPath = opts.outPath
	}
	if flags.Changed("test-ratio") {
		cfg.Training.TestRatio = opts.testRatio
	}
	if flags.Changed("seed") {
		cfg.Training.Seed = opts.seed
	}
	if flags.Changed("max-iter") {
		cfg.Training.MaxIter = opts.maxIter
	}
	return cfg, nil
}

func newTrainer(cfg *config.Config, store *db.Store, logger *zap.Logger) *pipeline.Trainer {
	return pipeline.NewTrainer(pipeline.TrainingConfig{
		DataPath:     cfg.Training.DataPath,
		ArtifactPath: cfg.Model.ArtifactPath,
		ModelType:    cfg.Training.ModelType,
		Options: ml.LogisticOptions{
			C:       cfg.Training.C,
			MaxIter: cfg.Training.MaxIter,
			Tol:     cfg.Training.Tol,
		},
		TestRatio: cfg.Training.TestRatio,
		Seed:      cfg.Training.Seed,
	}, store, logger)
}

func train(ctx context.Context, cfg *config.Config, watch bool, logger *zap.Logger) error {
	var store *db.Store
	if cfg.Database.Path != "" {
		var err error
		store, err = db.Open(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	trainer := newTrainer(cfg, store, logger)
	if _, err := trainer.Run(ctx); err != nil {
		return err
	}
	if !watch {
		return nil
	}
	return pipeline.NewWatcher(cfg.Training.DataPath, cfg.Training.Debounce, trainer, logger).Watch(ctx)
}

func historyCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "list recorded training runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if cfg.Database.Path == "" {
				return errors.New("database.path is not configured")
			}
			store, err := db.Open(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			logs, err := store.LoadTrainingLog(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printHistory(cmd.OutOrStdout(), logs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show, 0 for all")
	return cmd
}

func printHistory(out io.Writer, logs []db.TrainingLog) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTRAINED AT\tMODEL\tROWS\tITER\tACCURACY\tHOLDOUT\tARTIFACT")
	for _, log := range logs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%.4f\t%.4f\t%s\n",
			log.ID,
			log.TrainedAt.Format("2006-01-02 15:04:05"),
			log.ModelName,
			log.DataPoints,
			log.Iterations,
			log.Accuracy,
			log.HoldoutAccuracy,
			log.ArtifactPath)
	}
	return w.Flush()
}
