package worker

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/streadway/amqp"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/logger"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/pipeline"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/tasks"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/types"
)

type mockedClientsConfig struct {
	rmqMockConfig
	redisMockConfig
	s3MockConfig
	pipelineMockConfig
}

type mockedClients struct {
	redis    *redisMock
	rmq      *rmqMock
	s3       *s3Mock
	pipeline *pipelineMock
}

type methodsCalls struct {
	redis    redisMockCalls
	rmq      rmqMockCalls
	s3       s3MockCalls
	pipeline pipelineCall
}

func testConfiguration(t *testing.T, config mockedClientsConfig, expectedCalls methodsCalls) *mockedClients {
	worker, mocks := configureWorker(config)
	worker.processMessage(context.Background(), &amqp.Delivery{
		Body: []byte(`{"redis_key":"task-1","sender":"sequencer","version":"1"}`),
	})
	calls := methodsCalls{
		redis:    mocks.redis.calls,
		rmq:      mocks.rmq.calls,
		s3:       mocks.s3.calls,
		pipeline: mocks.pipeline.calls,
	}
	if !reflect.DeepEqual(calls, expectedCalls) {
		t.Errorf("Got unexpected called methods set.\nExpected:\n%+v\nGot:\n%+v", expectedCalls, calls)
	}
	return mocks
}

func configureWorker(config mockedClientsConfig) (*Worker, *mockedClients) {
	redis := &redisMock{config: config.redisMockConfig}
	s3 := &s3Mock{config: config.s3MockConfig}
	rmq := &rmqMock{config: config.rmqMockConfig}
	pplnMock := getPipelineMock(config.pipelineMockConfig)

	taggerLogger := logger.NewLogger("Test Worker")

	return &Worker{
			config:       Config{3},
			redis:        redis,
			s3:           s3,
			rmq:          rmq,
			taggerLogger: &taggerLogger,
			ppln:         pplnMock.ppln,
			boundary:     types.DefaultBoundary,
		}, &mockedClients{
			redis:    redis,
			rmq:      rmq,
			s3:       s3,
			pipeline: pplnMock,
		}
}

var successfulCalls = methodsCalls{
	redis: redisMockCalls{
		getTaggingTask: true, getJobTask: true, onTaskStarted: true, onTaskComplete: true,
	},
	rmq: rmqMockCalls{sendResult: true, acknowledgeDelivery: true},
	s3: s3MockCalls{
		getTextData:     true,
		saveResultsFile: true,
	},
	pipeline: pipelineCall{true},
}

func TestWorker(t *testing.T) {
	t.Run("Successful", testSuccessfulTask)
	t.Run("Successful without job", testSuccessfulTaskWithoutJob)
	t.Run("Saves tagged text", testSavesTaggedText)
	t.Run("Malformed message", testMalformedMessage)
	t.Run("Failed to get Tagging task", testGetTaggingTaskFailed)
	t.Run("Failed to get Job task", testGetJobTaskFailed)
	t.Run("Already complete with success", testAlreadyCompletedSuccessfully)
	t.Run("Already complete with failure", testAlreadyCompletedWithFailure)
	t.Run("User cancelled", testUserCancelled)
	t.Run("Exceeded attempts", testExceededAttempts)
	t.Run("Failed to update task in onTaskStarted", testFailedToUpdateOnTaskStarted)
	t.Run("Failed to load data from S3", testFailedToFetchFromS3)
	t.Run("Failed due to closed pipeline", testPipelineClosed)
	t.Run("Failed due to pipeline error", testPipelineError)
	t.Run("Recovered from pipeline panic", testPipelinePanic)
	t.Run("Failed to update task in onTaskFailedWithError", testFailedToUpdateOnTaskFailedWithError)
	t.Run("Failed to update task in onTaskComplete", testFailedToUpdateOnTaskComplete)
	t.Run("Failed to save result to S3", testFailedToSaveToS3)
	t.Run("Failed to acknowledge delivery", testFailedAckDelivery)
	t.Run("Failed to send result message", testFailedSendResult)
}

func testSuccessfulTask(t *testing.T) {
	testConfiguration(t, mockedClientsConfig{}, successfulCalls)
}

func testSuccessfulTaskWithoutJob(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getTaggingTask: withValue{returnedValue: tasks.TaggingTask{TextFileKey: "texts/task-1"}},
			},
		},
		methodsCalls{
			redis: redisMockCalls{
				getTaggingTask: true, onTaskStarted: true, onTaskComplete: true,
			},
			rmq: rmqMockCalls{sendResult: true, acknowledgeDelivery: true},
			s3: s3MockCalls{
				getTextData:     true,
				saveResultsFile: true,
			},
			pipeline: pipelineCall{true},
		},
	)
}

func testSavesTaggedText(t *testing.T) {
	mocks := testConfiguration(
		t,
		mockedClientsConfig{
			pipelineMockConfig: pipelineMockConfig{
				result: [][]types.TaggedWord{
					{{Word: "the", Tag: "AT0"}, {Word: "dog", Tag: "NN1"}},
					{{Word: "barks", Tag: "VVZ"}},
				},
			},
		},
		successfulCalls,
	)
	assert.Equal(t, "the : AT0\ndog : NN1\n. : PUN\nbarks : VVZ\n. : PUN\n", mocks.s3.saved)
}

func testMalformedMessage(t *testing.T) {
	worker, mocks := configureWorker(mockedClientsConfig{})
	worker.processMessage(context.Background(), &amqp.Delivery{Body: []byte("not json")})
	assert.Equal(t, redisMockCalls{}, mocks.redis.calls)
	assert.Equal(t, rmqMockCalls{rejectDelivery: true}, mocks.rmq.calls)
}

func testAlreadyCompletedSuccessfully(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getTaggingTask: withValue{
					returnedValue: tasks.TaggingTask{JobID: "job-1", Status: tasks.TaskStatusCompletedSuccess},
				},
			},
		},
		methodsCalls{
			redis: redisMockCalls{getTaggingTask: true},
			rmq:   rmqMockCalls{sendResult: true, acknowledgeDelivery: true},
		},
	)
}

func testAlreadyCompletedWithFailure(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getTaggingTask: withValue{
					returnedValue: tasks.TaggingTask{JobID: "job-1", Status: tasks.TaskStatusCompletedFailure},
				},
			},
		},
		methodsCalls{
			redis: redisMockCalls{getTaggingTask: true},
			rmq:   rmqMockCalls{sendResult: true, acknowledgeDelivery: true},
		},
	)
}

func testUserCancelled(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getJobTask: withValue{returnedValue: tasks.JobTask{UserCanceled: true}},
			},
		},
		methodsCalls{
			redis: redisMockCalls{getTaggingTask: true, getJobTask: true, onTaskCancelled: true},
			rmq:   rmqMockCalls{sendResult: true, acknowledgeDelivery: true},
		},
	)
}

func testExceededAttempts(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getTaggingTask: withValue{
					returnedValue: tasks.TaggingTask{JobID: "job-1", Attempts: 3},
				},
			},
		},
		methodsCalls{
			redis: redisMockCalls{getTaggingTask: true, getJobTask: true, onTaskExceededRetries: true},
			rmq:   rmqMockCalls{sendResult: true, acknowledgeDelivery: true},
		},
	)
}

func testFailedToUpdateOnTaskStarted(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{onTaskStarted: failingMethod{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{
				getTaggingTask: true, getJobTask: true, onTaskStarted: true,
			},
			rmq: rmqMockCalls{rejectDelivery: true},
		},
	)
}

func testFailedToUpdateOnTaskComplete(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{onTaskComplete: failingMethod{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{
				getTaggingTask: true, getJobTask: true, onTaskStarted: true, onTaskComplete: true,
			},
			rmq: rmqMockCalls{rejectDelivery: true},
			s3: s3MockCalls{
				getTextData:     true,
				saveResultsFile: true,
			},
			pipeline: pipelineCall{pipeline: true},
		},
	)
}

var failedTaskCalls = methodsCalls{
	redis: redisMockCalls{
		getTaggingTask: true, getJobTask: true, onTaskStarted: true, onTaskFailedWithError: true,
	},
	rmq: rmqMockCalls{sendResult: true, acknowledgeDelivery: true},
	s3: s3MockCalls{
		getTextData: true,
	},
	pipeline: pipelineCall{true},
}

func testFailedToFetchFromS3(t *testing.T) {
	expected := failedTaskCalls
	expected.pipeline = pipelineCall{}
	testConfiguration(
		t,
		mockedClientsConfig{
			s3MockConfig: s3MockConfig{getTextData: withValue{fail: true}},
		},
		expected,
	)
}

func testPipelineClosed(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			pipelineMockConfig: pipelineMockConfig{closed: true},
		},
		failedTaskCalls,
	)
}

func testPipelineError(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			pipelineMockConfig: pipelineMockConfig{fail: true},
		},
		failedTaskCalls,
	)
}

func testPipelinePanic(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			pipelineMockConfig: pipelineMockConfig{panics: true},
		},
		failedTaskCalls,
	)
}

func testFailedToUpdateOnTaskFailedWithError(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			pipelineMockConfig: pipelineMockConfig{fail: true},
			redisMockConfig:    redisMockConfig{onTaskFailedWithError: failingMethod{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{
				getTaggingTask: true, getJobTask: true, onTaskStarted: true, onTaskFailedWithError: true,
			},
			rmq: rmqMockCalls{rejectDelivery: true},
			s3: s3MockCalls{
				getTextData: true,
			},
			pipeline: pipelineCall{true},
		},
	)
}

func testFailedToSaveToS3(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			s3MockConfig: s3MockConfig{saveResultsFile: failingMethod{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{
				getTaggingTask: true, getJobTask: true, onTaskStarted: true, onTaskFailedWithError: true,
			},
			rmq: rmqMockCalls{sendResult: true, acknowledgeDelivery: true},
			s3: s3MockCalls{
				getTextData:     true,
				saveResultsFile: true,
			},
			pipeline: pipelineCall{true},
		},
	)
}

func testFailedAckDelivery(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			rmqMockConfig: rmqMockConfig{acknowledgeDelivery: failingMethod{fail: true}},
		},
		successfulCalls,
	)
}

func testFailedSendResult(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			rmqMockConfig: rmqMockConfig{sendResult: failingMethod{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{
				getTaggingTask: true, getJobTask: true, onTaskStarted: true, onTaskComplete: true,
			},
			rmq: rmqMockCalls{sendResult: true, rejectDelivery: true},
			s3: s3MockCalls{
				getTextData:     true,
				saveResultsFile: true,
			},
			pipeline: pipelineCall{true},
		},
	)
}

func testGetTaggingTaskFailed(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{getTaggingTask: withValue{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{
				getTaggingTask: true,
			},
			rmq: rmqMockCalls{rejectDelivery: true},
		},
	)
}

func testGetJobTaskFailed(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{getJobTask: withValue{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{
				getTaggingTask: true, getJobTask: true,
			},
			rmq: rmqMockCalls{rejectDelivery: true},
		},
	)
}

func TestResultsFileKey(t *testing.T) {
	task := &Task{redisKey: "task-1"}
	assert.Equal(t, "tagged/task-1/task-1.tagged.txt", getResultsFileKey(task))
}

func TestResultMessage(t *testing.T) {
	b, err := resultMessage(Message{RedisKey: "task-1", Sender: "sequencer", Version: "2"})
	require.NoError(t, err)

	var message Message
	require.NoError(t, json.Unmarshal(b, &message))
	assert.Equal(t, Message{RedisKey: "task-1", Sender: "tagger", Version: "2"}, message)
}

func TestTaskDocumentTransitions(t *testing.T) {
	var task tasks.TaggingTask

	markStarted(&task)
	assert.Equal(t, tasks.TaskStatusStarted, task.Status)
	assert.Equal(t, 1, task.Attempts)
	assert.NotNil(t, task.StartedAt)
	assert.Nil(t, task.CompletedAt)

	markFailed(&task, errors.New("decoder exploded"))
	assert.Equal(t, tasks.TaskStatusFailed, task.Status)
	assert.Equal(t, []string{"decoder exploded"}, task.ErrorMessages)
	assert.NotNil(t, task.CompletedAt)

	markStarted(&task)
	assert.Equal(t, 2, task.Attempts)
	assert.Nil(t, task.CompletedAt)

	markComplete(&task, "tagged/k/k.tagged.txt", 0xabc)
	assert.Equal(t, tasks.TaskStatusCompletedSuccess, task.Status)
	assert.Equal(t, "tagged/k/k.tagged.txt", task.ResultsFileKey)
	assert.Equal(t, "0000000000000abc", task.ModelFingerprint)
}

func TestExceededRetriesMessage(t *testing.T) {
	task := tasks.TaggingTask{Attempts: 3}
	markExceededRetries(&task, 3)
	assert.Equal(t, tasks.TaskStatusCompletedFailure, task.Status)
	assert.Equal(t, 4, task.Attempts)
	require.Len(t, task.ErrorMessages, 1)
	assert.True(t, strings.Contains(task.ErrorMessages[0], "max retries: 3"))
}

func TestCompleteKeepsTerminalStatus(t *testing.T) {
	task := tasks.TaggingTask{Status: tasks.TaskStatusCanceled}
	markComplete(&task, "key", 1)
	assert.Equal(t, tasks.TaskStatusCanceled, task.Status)
}

func TestStartWorkerStopsOnCancel(t *testing.T) {
	worker, _ := configureWorker(mockedClientsConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, worker.StartWorker(ctx), context.Canceled)
}

func TestStartWorkerFinishesTaskInFlight(t *testing.T) {
	worker, mocks := configureWorker(mockedClientsConfig{})
	mocks.rmq.deliveries = make(chan amqp.Delivery, 1)
	started := make(chan struct{})
	release := make(chan struct{})
	worker.ppln = func(ctx context.Context, request pipeline.Request) <-chan pipeline.Result {
		close(started)
		<-release
		out := make(chan pipeline.Result, 1)
		out <- pipeline.Result{
			Tid:       request.Tid,
			Sentences: [][]types.TaggedWord{{{Word: "some", Tag: "DT0"}, {Word: "input", Tag: "NN1"}}},
			Err:       ctx.Err(),
		}
		close(out)
		return out
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- worker.StartWorker(ctx)
	}()
	mocks.rmq.deliveries <- amqp.Delivery{
		Body: []byte(`{"redis_key":"task-1","sender":"sequencer","version":"1"}`),
	}
	<-started
	cancel()

	select {
	case <-done:
		t.Fatal("worker stopped before the task in flight was finished")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	require.ErrorIs(t, <-done, context.Canceled)
	assert.True(t, mocks.redis.calls.onTaskComplete)
	assert.False(t, mocks.redis.calls.onTaskFailedWithError)
	assert.True(t, mocks.rmq.calls.acknowledgeDelivery)
	assert.True(t, mocks.rmq.closed)
	assert.Equal(t, "some : DT0\ninput : NN1\n. : PUN\n", mocks.s3.saved)
}
