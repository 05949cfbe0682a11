package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/logger"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/pipeline"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/rmq"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/s3client"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/tasks"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/types"
)

type Config struct {
	TaskMaxRetries int `envconfig:"TAGGER_TASK_MAX_RETRIES" default:"3"`
}

// Worker consumes tagging tasks from RMQ, tags the referenced text and stores the result in S3.
type Worker struct {
	config       Config
	redis        redisTransactions
	s3           s3Transactions
	rmq          rmqTransactions
	taggerLogger *zerolog.Logger
	ppln         pipeline.Pipeline
	boundary     types.Boundary
	inflight     sync.WaitGroup
}

func New(ppln pipeline.Pipeline, boundary types.Boundary) (*Worker, error) {
	taggerLogger := logger.NewLogger("Worker")

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		taggerLogger.Error().Err(err).Msg("Could not read config")
		return nil, err
	}

	worker := Worker{
		config:       config,
		taggerLogger: &taggerLogger,
		ppln:         ppln,
		boundary:     boundary,
	}
	if err := worker.refreshRMQClient(); err != nil {
		taggerLogger.Error().Err(err).Msg("Could not create RMQ client")
		return nil, err
	}
	s3Client, err := s3client.New()
	if err != nil {
		taggerLogger.Error().Err(err).Msg("Could not create S3 client")
		worker.rmq.close()
		return nil, err
	}
	worker.s3 = &s3ClientWrapper{s3Client}
	tasksClient, err := tasks.NewClient()
	if err != nil {
		taggerLogger.Error().Err(err).Msg("Could not create Redis client")
		worker.rmq.close()
		worker.s3.close()
		return nil, err
	}
	worker.redis = &redisClientWrapper{&tasksClient}
	return &worker, nil
}

// StartWorker handles deliveries until ctx is done or the RMQ connection cannot be restored.
// Deliveries already taken are finished before the clients are closed.
func (worker *Worker) StartWorker(ctx context.Context) error {
	defer worker.Close()
	defer worker.inflight.Wait()
	taskCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			worker.taggerLogger.Info().Msg("Stopping worker")
			return ctx.Err()
		case delivery, ok := <-worker.rmq.getDeliveriesCh():
			if ok {
				worker.inflight.Add(1)
				go func() {
					defer worker.inflight.Done()
					worker.processMessage(taskCtx, &delivery)
				}()
				continue
			}
			worker.taggerLogger.Error().Msg("Deliveries channel closed, trying to refresh RMQ client")
			if err := worker.refreshRMQClient(); err != nil {
				return fmt.Errorf(
					"rmq deliveries channel has been closed and refresh returned error: %w",
					err,
				)
			}
		case rmqErr := <-worker.rmq.getRespChanErrorsCh():
			if rmqErr == nil {
				continue
			}
			worker.taggerLogger.Err(rmqErr).Msg("Response connection received error, trying to refresh RMQ client")
			if err := worker.refreshRMQClient(); err != nil {
				return fmt.Errorf(
					"response connection received error and refresh failed with: %w",
					err,
				)
			}
		case rmqErr := <-worker.rmq.getReqChanErrorsCh():
			if rmqErr == nil {
				continue
			}
			worker.taggerLogger.Err(rmqErr).Msg("Request connection received error, trying to refresh RMQ client")
			if err := worker.refreshRMQClient(); err != nil {
				return fmt.Errorf(
					"request connection received error and refresh failed with: %w",
					err,
				)
			}
		}
	}
}

func (worker *Worker) Close() {
	worker.redis.close()
	worker.s3.close()
	worker.rmq.close()
}

func (worker *Worker) refreshRMQClient() error {
	worker.taggerLogger.Info().Msg("Refreshing RMQ client")
	if oldClient := worker.rmq; oldClient != nil {
		// deliveries in flight are acknowledged on the old channel
		worker.inflight.Wait()
		defer oldClient.close()
	}
	rmqClient, err := rmq.NewClient()
	if err != nil {
		worker.taggerLogger.Err(err).Msg("Failed to refresh RMQ client")
		return err
	}
	worker.rmq = &rmqClientWrapper{rmqClient}
	worker.taggerLogger.Info().Msg("Refreshed RMQ client")
	return nil
}
