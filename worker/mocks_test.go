package worker

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/pipeline"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/tasks"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/types"
)

type failingMethod struct {
	fail bool
}

type withValue struct {
	fail          bool
	returnedValue interface{}
}

type pipelineMock struct {
	ppln   pipeline.Pipeline
	config pipelineMockConfig
	calls  pipelineCall
}

type pipelineMockConfig struct {
	// closed makes the pipeline close its channel without a result
	closed bool
	fail   bool
	panics bool
	result [][]types.TaggedWord
}

type pipelineCall struct {
	pipeline bool
}

type redisMock struct {
	config redisMockConfig
	calls  redisMockCalls
}

type redisMockConfig struct {
	getTaggingTask        withValue
	getJobTask            withValue
	onTaskCancelled       failingMethod
	onTaskStarted         failingMethod
	onTaskExceededRetries failingMethod
	onTaskFailedWithError failingMethod
	onTaskComplete        failingMethod
}

type redisMockCalls struct {
	getTaggingTask        bool
	getJobTask            bool
	onTaskCancelled       bool
	onTaskStarted         bool
	onTaskExceededRetries bool
	onTaskFailedWithError bool
	onTaskComplete        bool
}

type rmqMock struct {
	config     rmqMockConfig
	calls      rmqMockCalls
	deliveries chan amqp.Delivery
	closed     bool
}

type rmqMockConfig struct {
	sendResult          failingMethod
	acknowledgeDelivery failingMethod
}

type rmqMockCalls struct {
	sendResult          bool
	acknowledgeDelivery bool
	rejectDelivery      bool
}

type s3Mock struct {
	config s3MockConfig
	calls  s3MockCalls
	saved  string
}

type s3MockConfig struct {
	getTextData     withValue
	saveResultsFile failingMethod
}

type s3MockCalls struct {
	getTextData     bool
	saveResultsFile bool
}

func (mock *s3Mock) close() {}

func (mock *rmqMock) close() {
	mock.closed = true
}

func (mock *redisMock) close() {}

func getPipelineMock(config pipelineMockConfig) *pipelineMock {
	mock := pipelineMock{config: config}
	mock.ppln = func(_ context.Context, request pipeline.Request) <-chan pipeline.Result {
		mock.calls.pipeline = true
		if mock.config.panics {
			panic("mock: decoder panic")
		}
		ch := make(chan pipeline.Result, 1)
		defer close(ch)
		if mock.config.closed {
			return ch
		}
		res := pipeline.Result{Tid: request.Tid, ModelFingerprint: 7, Sentences: mock.config.result}
		if mock.config.fail {
			res = pipeline.Result{Tid: request.Tid, Err: errors.New("mock: decoding failed")}
		}
		ch <- res
		return ch
	}
	return &mock
}

func (mock *redisMock) getTaggingTask(_ context.Context, redisKey string) (*tasks.TaggingTask, error) {
	mock.calls.getTaggingTask = true
	if mock.config.getTaggingTask.fail {
		return nil, errors.New("failed to get tagging task")
	}
	switch task := mock.config.getTaggingTask.returnedValue.(type) {
	case tasks.TaggingTask:
		return &task, nil
	default:
		return &tasks.TaggingTask{JobID: "job-1", TextFileKey: "texts/" + redisKey}, nil
	}
}

func (mock *redisMock) getJobTask(_ context.Context, task *Task) (*tasks.JobTask, error) {
	mock.calls.getJobTask = true
	if mock.config.getJobTask.fail {
		return nil, errors.New("failed to get job task")
	}
	switch job := mock.config.getJobTask.returnedValue.(type) {
	case tasks.JobTask:
		return &job, nil
	default:
		return &tasks.JobTask{}, nil
	}
}

func (mock *redisMock) onTaskStarted(_ context.Context, task *Task) error {
	mock.calls.onTaskStarted = true
	if mock.config.onTaskStarted.fail {
		return errors.New("failed to update tagging task on start")
	}
	return nil
}

func (mock *redisMock) onTaskCancelled(_ context.Context, task *Task, errorMessages ...string) error {
	mock.calls.onTaskCancelled = true
	if mock.config.onTaskCancelled.fail {
		return errors.New("failed to update tagging task on cancel")
	}
	return nil
}

func (mock *redisMock) onTaskExceededRetries(_ context.Context, task *Task, maxRetries int) error {
	mock.calls.onTaskExceededRetries = true
	if mock.config.onTaskExceededRetries.fail {
		return errors.New("failed to update tagging task on exceeded retries")
	}
	return nil
}

func (mock *redisMock) onTaskFailedWithError(_ context.Context, task *Task, err error) error {
	mock.calls.onTaskFailedWithError = true
	if mock.config.onTaskFailedWithError.fail {
		return errors.New("failed to update tagging task on fail with error")
	}
	return nil
}

func (mock *redisMock) onTaskComplete(_ context.Context, task *Task, fingerprint uint64) error {
	mock.calls.onTaskComplete = true
	if mock.config.onTaskComplete.fail {
		return errors.New("failed to update tagging task on complete")
	}
	return nil
}

func (mock *rmqMock) rejectDelivery(delivery *amqp.Delivery, taggerLogger *zerolog.Logger) {
	mock.calls.rejectDelivery = true
}

func (mock *rmqMock) getDeliveriesCh() <-chan amqp.Delivery {
	return mock.deliveries
}

func (mock *rmqMock) getReqChanErrorsCh() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) getRespChanErrorsCh() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) sendResult(task *Task, message Message) error {
	mock.calls.sendResult = true
	if mock.config.sendResult.fail {
		return errors.New("failed to send result message")
	}
	return nil
}

func (mock *rmqMock) acknowledgeDelivery(delivery *amqp.Delivery) error {
	mock.calls.acknowledgeDelivery = true
	if mock.config.acknowledgeDelivery.fail {
		return errors.New("failed to acknowledge delivery")
	}
	return nil
}

func (mock *s3Mock) getTextData(_ context.Context, task *Task) ([]byte, error) {
	mock.calls.getTextData = true
	if mock.config.getTextData.fail {
		return nil, errors.New("mock: failed to load from s3")
	}
	switch data := mock.config.getTextData.returnedValue.(type) {
	case []byte:
		return data, nil
	default:
		return []byte("some\ninput\n.\n"), nil
	}
}

func (mock *s3Mock) saveResultsFile(_ context.Context, task *Task, result string) error {
	mock.calls.saveResultsFile = true
	if mock.config.saveResultsFile.fail {
		return errors.New("failed to upload results")
	}
	mock.saved = result
	return nil
}
