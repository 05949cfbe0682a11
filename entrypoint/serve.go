package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/api"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/logger"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/pipeline"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/types"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/worker"
)

type Config struct {
	TrainingFiles []string `envconfig:"TAGGER_TRAINING_FILES" required:"true"`
	ConfigPath    string   `envconfig:"TAGGER_CONFIG_PATH" default:""`
	RestAPIActive bool     `envconfig:"TAGGER_REST_API_ACTIVE" default:"false"`
	RestAPIPort   string   `envconfig:"TAGGER_REST_API_PORT" default:"10000"`
	WorkerActive  bool     `envconfig:"TAGGER_WORKER_ACTIVE" default:"true"`
}

const (
	pipelineStartMaxRetries = 5
	retryDelay              = 5 * time.Second
)

func newServeCommand() *cobra.Command {
	var supervised bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Train once and serve tagging over REST and RMQ",
		Long: `Reads its settings from TAGGER_* environment variables, estimates the model from
TAGGER_TRAINING_FILES and then serves the REST API and/or the RMQ worker.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if supervised {
				os.Exit(logger.Supervise(os.Args[0], "serve"))
			}
			return runServe(cmd)
		},
	}
	cmd.Flags().BoolVar(&supervised, "supervised", false, "run the server as a child process and report its panics as log entries")
	return cmd
}

func readServeConfig() (Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	return config, err
}

func runServe(cmd *cobra.Command) error {
	config, err := readServeConfig()
	if err != nil {
		return logged(err, "Failed to read environment")
	}
	if !config.RestAPIActive && !config.WorkerActive {
		return logged(errors.New("neither REST API nor worker is active"), "Nothing to serve")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	trained, err := loadWithRetries(ctx, config)
	if err != nil {
		return logged(err, "Could not start pipeline")
	}
	ppln := pipeline.New(trained.params)
	taggerLogger.Info().Msg("Pipeline loaded")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 2)
	started := 0
	if config.RestAPIActive {
		started++
		go func() {
			errCh <- serveAPI(ctx, config.RestAPIPort, ppln, trained.cfg.Boundary)
		}()
	}
	if config.WorkerActive {
		started++
		go func() {
			errCh <- runWorker(ctx, ppln, trained.cfg.Boundary)
		}()
	}
	return waitForServices(ctx, cancel, errCh, started)
}

// waitForServices returns once every started service has stopped. The first failure stops
// the others.
func waitForServices(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, started int) error {
	var firstErr error
	for i := 0; i < started; i++ {
		err := <-errCh
		if err != nil && firstErr == nil {
			firstErr = err
			cancel()
		}
	}
	if firstErr != nil {
		return logged(firstErr, "Service stopped with error")
	}
	if ctx.Err() != nil {
		taggerLogger.Info().Msg("Shut down")
	}
	return nil
}

func loadWithRetries(ctx context.Context, config Config) (*trainedModel, error) {
	var lastErr error
	for retry := 0; retry < pipelineStartMaxRetries; retry++ {
		if retry > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
		cfg := types.DefaultTaggerConfig()
		if config.ConfigPath != "" {
			if cfg, lastErr = types.LoadConfiguration(config.ConfigPath); lastErr != nil {
				taggerLogger.Err(lastErr).Msg("Failed to load configuration. Retrying in 5 sec")
				continue
			}
		}
		opener, err := newOpener(config.TrainingFiles...)
		if err != nil {
			lastErr = err
			taggerLogger.Err(err).Msg("Failed to create source opener. Retrying in 5 sec")
			continue
		}
		trained, err := train(ctx, opener, cfg, config.TrainingFiles, "")
		if err != nil {
			lastErr = err
			taggerLogger.Err(err).Msg("Failed to estimate model. Retrying in 5 sec")
			continue
		}
		return trained, nil
	}
	return nil, fmt.Errorf("could not start pipeline after %d retries: %w", pipelineStartMaxRetries, lastErr)
}

func serveAPI(ctx context.Context, port string, ppln pipeline.Pipeline, boundary types.Boundary) error {
	mux := http.NewServeMux()
	(&api.Request{Pipeline: ppln, Boundary: boundary}).Routes(mux)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			taggerLogger.Err(err).Msg("REST API shutdown incomplete")
		}
	}()

	taggerLogger.Info().Msgf("REST API on %s", server.Addr)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	// ListenAndServe returns as soon as Shutdown starts; requests are drained after that
	<-shutdownDone
	return nil
}

// runWorker restarts the RMQ worker after connection failures until ctx is done.
func runWorker(ctx context.Context, ppln pipeline.Pipeline, boundary types.Boundary) error {
	taggerLogger.Info().Msg("Start tagging worker")
	for {
		rmqWorker, err := worker.New(ppln, boundary)
		if err != nil {
			return fmt.Errorf("could not initialize RMQ worker: %w", err)
		}
		err = rmqWorker.StartWorker(ctx)
		if ctx.Err() != nil {
			return nil
		}
		taggerLogger.Err(err).Msg("Worker returned with error. Launching new in 5 seconds")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(retryDelay):
		}
	}
}
