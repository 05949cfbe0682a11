package tasks

import (
	"context"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/redis"
)

type Client struct {
	Tagging TaggingTasks
	Jobs    JobTasks
}

// NewClient is a preferred way for working with task documents
func NewClient() (Client, error) {
	taggingRedisClient, err := redis.NewClient(TaggingDB)
	if err != nil {
		return Client{}, err
	}
	jobsRedisClient, err := redis.NewClient(JobsDB)
	if err != nil {
		_ = taggingRedisClient.Close()
		return Client{}, err
	}
	return Client{
		Tagging: TaggingTasks{client: taggingRedisClient},
		Jobs:    JobTasks{client: jobsRedisClient},
	}, nil
}

func (client *Client) Close() {
	_ = client.Tagging.client.Close()
	_ = client.Jobs.client.Close()
}

type JobTasks struct {
	client redis.Client
}

const JobsDB redis.DB = 1

// JobTask is the part of a job document the tagger reads. Tasks of a canceled job are skipped.
type JobTask struct {
	UserCanceled bool `json:"user_canceled"`
}

func (tasks JobTasks) Get(ctx context.Context, jobID string) (*JobTask, error) {
	var job JobTask
	if err := tasks.client.GetDocument(ctx, jobID, &job); err != nil {
		return nil, err
	}
	return &job, nil
}
