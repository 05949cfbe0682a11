package tasks

import (
	"context"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/redis"
)

const TaggingDB redis.DB = 0

type TaskStatus string

const (
	TaskStatusProcessing       TaskStatus = "processing"
	TaskStatusSubmitted        TaskStatus = "submitted"
	TaskStatusStarted          TaskStatus = "started"
	TaskStatusFailed           TaskStatus = "failed"
	TaskStatusCompletedSuccess TaskStatus = "completed - success"
	TaskStatusCompletedFailure TaskStatus = "completed - failure"
	TaskStatusCanceled         TaskStatus = "canceled"
)

func (s TaskStatus) Complete() bool {
	return s == TaskStatusCompletedSuccess || s == TaskStatusCompletedFailure || s == TaskStatusCanceled
}

func (s TaskStatus) Submitted() bool {
	return s == TaskStatusSubmitted || s == TaskStatusStarted || s == TaskStatusProcessing
}

// TaggingTask is the tagger's view of a task document. The document may carry fields owned by
// other services; updates leave them untouched.
type TaggingTask struct {
	JobID            string     `json:"job_id,omitempty"`
	TextFileKey      string     `json:"text_file_key"`
	ResultsFileKey   string     `json:"results_file_key"`
	ModelFingerprint string     `json:"model_fingerprint"`
	StartedAt        *string    `json:"started_at"`
	CompletedAt      *string    `json:"completed_at"`
	Attempts         int        `json:"attempts"`
	Status           TaskStatus `json:"status"`
	ErrorMessages    []string   `json:"error_messages"`
}

type TaggingTasks struct {
	client redis.Client
}

func (tasks TaggingTasks) Get(ctx context.Context, redisKey string) (*TaggingTask, error) {
	var task TaggingTask
	if err := tasks.client.GetDocument(ctx, redisKey, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (tasks TaggingTasks) Update(ctx context.Context, redisKey string, updateFunc func(task *TaggingTask)) error {
	var task TaggingTask
	return tasks.client.UpdateDocument(ctx, redisKey, &task, func() {
		updateFunc(&task)
	})
}
