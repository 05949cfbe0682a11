package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/corpus"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/pipeline"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/tasks"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/utils"
)

type Message struct {
	RedisKey string `json:"redis_key"`
	Sender   string `json:"sender"`
	Version  string `json:"version"`
}

type Task struct {
	delivery     *amqp.Delivery
	taggingTask  *tasks.TaggingTask
	message      *Message
	redisKey     string
	taggerLogger *zerolog.Logger
}

func (worker *Worker) processMessage(ctx context.Context, delivery *amqp.Delivery) {
	rejectLogger := worker.taggerLogger.With().Str("message_id", delivery.MessageId).Logger()
	task, err := worker.createTask(ctx, delivery)
	if err != nil {
		rejectLogger.Err(err).
			Str("body", string(delivery.Body)).
			Msg("Failed to create task for delivery")
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.processTask(ctx, task); err != nil {
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.sendResult(task, *task.message); err != nil {
		task.taggerLogger.Err(err).Msg("Got error while sending message to results queue")
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.acknowledgeDelivery(delivery); err != nil {
		task.taggerLogger.Err(err).Msg("Failed to acknowledge delivery")
	}
	task.taggerLogger.Info().Msg("Finished processing RMQ message")
}

func (worker *Worker) createTask(ctx context.Context, delivery *amqp.Delivery) (*Task, error) {
	var message Message
	err := json.Unmarshal(delivery.Body, &message)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal message, got error %w", err)
	}
	taggingTask, err := worker.redis.getTaggingTask(ctx, message.RedisKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query tagging task for message, got error %w", err)
	}
	taskLogger := worker.taggerLogger.With().Str("tid", message.RedisKey).Logger()
	task := Task{
		delivery:     delivery,
		taggingTask:  taggingTask,
		redisKey:     message.RedisKey,
		message:      &message,
		taggerLogger: &taskLogger,
	}
	return &task, nil
}

func (worker *Worker) processTask(ctx context.Context, task *Task) error {
	shouldPerform, err := worker.shouldPerformTask(ctx, task)
	if err != nil {
		task.taggerLogger.Err(err).
			Msg("Got error while trying to decide whether to run task")
		return err
	}
	if !shouldPerform {
		return nil
	}
	if err = worker.redis.onTaskStarted(ctx, task); err != nil {
		task.taggerLogger.Err(err).Msg("Failed to update task info")
		return fmt.Errorf("failed to update task info: %w", err)
	}
	fingerprint, err := worker.runPipeline(ctx, task)
	if err != nil {
		task.taggerLogger.Err(err).Msg("Got error while running pipeline")
		if err = worker.redis.onTaskFailedWithError(ctx, task, err); err != nil {
			return err
		}
		return nil
	}
	task.taggerLogger.Info().Msg("Saved results, marking task as complete")
	if err = worker.redis.onTaskComplete(ctx, task, fingerprint); err != nil {
		task.taggerLogger.Err(err).Msg("Got error while trying to mark task as complete")
		return err
	}
	return nil
}

func (worker *Worker) runPipeline(ctx context.Context, task *Task) (fingerprint uint64, err error) {
	defer utils.RecoverWithError(&err)
	task.taggerLogger.Info().Msgf("Processing message from RMQ, attempt # %d", task.taggingTask.Attempts+1)
	data, err := worker.s3.getTextData(ctx, task)
	if err != nil {
		task.taggerLogger.Err(err).Caller().Msg("Could not fetch text data from s3")
		return 0, fmt.Errorf("failed fetch data from s3: %w", err)
	}
	request := pipeline.Request{
		Tid:  task.redisKey,
		Text: string(data),
	}
	result, ok := <-worker.ppln(ctx, request)
	if !ok {
		task.taggerLogger.Error().Msg("Pipeline channel was closed before returning anything")
		return 0, errors.New("pipeline channel was closed before returning anything")
	}
	if result.Err != nil {
		return 0, fmt.Errorf("tagging failed: %w", result.Err)
	}

	var out bytes.Buffer
	if err = corpus.WriteTagged(&out, result.Pairs(worker.boundary)); err != nil {
		return 0, err
	}
	task.taggerLogger.Info().Int("sentences", len(result.Sentences)).Msg("Finished pipeline, saving results to s3")
	if err = worker.s3.saveResultsFile(ctx, task, out.String()); err != nil {
		task.taggerLogger.Err(err).Msg("Got error while trying to save results")
		return 0, err
	}
	return result.ModelFingerprint, nil
}

func (worker *Worker) shouldPerformTask(ctx context.Context, task *Task) (bool, error) {
	taggingTask := task.taggingTask
	taskLogger := task.taggerLogger

	if taggingTask.Status.Complete() {
		taskLogger.Info().Msg("Task is already done. (might indicate issue acking message with RMQ). Sending back to results queue.")
		return false, nil
	}
	if taggingTask.JobID != "" {
		job, err := worker.redis.getJobTask(ctx, task)
		if err != nil {
			taskLogger.Err(err).Msg("Failed to query job task for tagging task")
			return false, err
		}
		if job.UserCanceled {
			taskLogger.Info().Msg("Job was canceled, no need to perform this task. Sending back to results queue.")
			err := worker.redis.onTaskCancelled(ctx, task)
			return false, err
		}
	}
	if taggingTask.Attempts >= worker.config.TaskMaxRetries {
		taskLogger.Info().Msg("Tagging task has exceeded retries. Sending back to results queue.")
		err := worker.redis.onTaskExceededRetries(ctx, task, worker.config.TaskMaxRetries)
		return false, err
	}
	return true, nil
}
