package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mindsurvey/config"
	qhttp "mindsurvey/http"
	"mindsurvey/logging"
	"mindsurvey/metrics"
	"mindsurvey/ml"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "server",
		Short:         "serve treatment predictions over HTTP",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
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

			if err := serve(cfg, logger); err != nil {
				logger.Error("Server failed", zap.Error(err))
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to the YAML config file")
	return cmd
}

// newServer loads the artifact and wires the HTTP stack. The port is not
// bound until Start.
func newServer(cfg *config.Config, logger *zap.Logger) (*qhttp.Server, error) {
	artifact, err := ml.LoadArtifact(cfg.Model.ArtifactPath)
	if err != nil {
		return nil, fmt.Errorf("load model artifact: %w", err)
	}
	info := artifact.Info()
	logger.Info("Model artifact loaded",
		zap.String("path", cfg.Model.ArtifactPath),
		zap.String("format", info.Format),
		zap.Time("trained_at", info.TrainedAt),
		zap.Int("rows", info.Rows))

	registry := metrics.NewRegistry()
	predictor, err := qhttp.NewPredictor(artifact, logger, registry, cfg.Cache.Size)
	if err != nil {
		return nil, err
	}
	return qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
		MaxBodyBytes:   cfg.Http.MaxBodyBytes,
	}, predictor, registry, logger), nil
}

func serve(cfg *config.Config, logger *zap.Logger) error {
	server, err := newServer(cfg, logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("Shutdown signal received", zap.String("signal", sig.String()))
	}
	return server.Stop()
}
