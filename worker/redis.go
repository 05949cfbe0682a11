package worker

import (
	"context"
	"fmt"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/tasks"
)

type redisTransactions interface {
	getTaggingTask(ctx context.Context, redisKey string) (*tasks.TaggingTask, error)
	getJobTask(ctx context.Context, task *Task) (*tasks.JobTask, error)
	onTaskStarted(ctx context.Context, task *Task) error
	onTaskCancelled(ctx context.Context, task *Task, errorMessages ...string) error
	onTaskExceededRetries(ctx context.Context, task *Task, maxRetries int) error
	onTaskFailedWithError(ctx context.Context, task *Task, err error) error
	onTaskComplete(ctx context.Context, task *Task, fingerprint uint64) error
	close()
}

type redisClientWrapper struct {
	tasksClient *tasks.Client
}

func (wrapper *redisClientWrapper) close() {
	wrapper.tasksClient.Close()
}

func (wrapper *redisClientWrapper) onTaskStarted(ctx context.Context, task *Task) error {
	return wrapper.tasksClient.Tagging.Update(ctx, task.redisKey, func(taggingTask *tasks.TaggingTask) {
		markStarted(taggingTask)
	})
}

func (wrapper *redisClientWrapper) onTaskCancelled(ctx context.Context, task *Task, errorMessages ...string) error {
	return wrapper.tasksClient.Tagging.Update(ctx, task.redisKey, func(taggingTask *tasks.TaggingTask) {
		markCancelled(taggingTask, errorMessages...)
	})
}

func (wrapper *redisClientWrapper) onTaskExceededRetries(ctx context.Context, task *Task, maxRetries int) error {
	return wrapper.tasksClient.Tagging.Update(ctx, task.redisKey, func(taggingTask *tasks.TaggingTask) {
		markExceededRetries(taggingTask, maxRetries)
	})
}

func (wrapper *redisClientWrapper) onTaskFailedWithError(ctx context.Context, task *Task, err error) error {
	return wrapper.tasksClient.Tagging.Update(ctx, task.redisKey, func(taggingTask *tasks.TaggingTask) {
		markFailed(taggingTask, err)
	})
}

func (wrapper *redisClientWrapper) onTaskComplete(ctx context.Context, task *Task, fingerprint uint64) error {
	resultsFileKey := getResultsFileKey(task)
	return wrapper.tasksClient.Tagging.Update(ctx, task.redisKey, func(taggingTask *tasks.TaggingTask) {
		markComplete(taggingTask, resultsFileKey, fingerprint)
	})
}

func (wrapper *redisClientWrapper) getTaggingTask(ctx context.Context, redisKey string) (*tasks.TaggingTask, error) {
	return wrapper.tasksClient.Tagging.Get(ctx, redisKey)
}

func (wrapper *redisClientWrapper) getJobTask(ctx context.Context, task *Task) (*tasks.JobTask, error) {
	return wrapper.tasksClient.Jobs.Get(ctx, task.taggingTask.JobID)
}

func markStarted(taggingTask *tasks.TaggingTask) {
	taggingTask.Status = tasks.TaskStatusStarted
	taggingTask.Attempts += 1
	taggingTask.StartedAt = getFormattedNow()
	taggingTask.CompletedAt = nil
}

func markCancelled(taggingTask *tasks.TaggingTask, errorMessages ...string) {
	taggingTask.Status = tasks.TaskStatusCanceled
	taggingTask.StartedAt = getFormattedNow()
	taggingTask.CompletedAt = getFormattedNow()
	taggingTask.Attempts += 1
	taggingTask.ErrorMessages = append(taggingTask.ErrorMessages, errorMessages...)
}

func markExceededRetries(taggingTask *tasks.TaggingTask, maxRetries int) {
	taggingTask.Status = tasks.TaskStatusCompletedFailure
	taggingTask.StartedAt = getFormattedNow()
	taggingTask.CompletedAt = getFormattedNow()
	taggingTask.Attempts += 1
	taggingTask.ErrorMessages = append(
		taggingTask.ErrorMessages,
		fmt.Sprintf(
			"Task has exceeded retries. (Attempts: %d, max retries: %d )",
			taggingTask.Attempts,
			maxRetries,
		),
	)
}

func markFailed(taggingTask *tasks.TaggingTask, err error) {
	taggingTask.Status = tasks.TaskStatusFailed
	taggingTask.CompletedAt = getFormattedNow()
	taggingTask.ErrorMessages = append(taggingTask.ErrorMessages, err.Error())
}

func markComplete(taggingTask *tasks.TaggingTask, resultsFileKey string, fingerprint uint64) {
	if !taggingTask.Status.Complete() {
		taggingTask.Status = tasks.TaskStatusCompletedSuccess
	}
	taggingTask.CompletedAt = getFormattedNow()
	taggingTask.ResultsFileKey = resultsFileKey
	taggingTask.ModelFingerprint = formatFingerprint(fingerprint)
}
