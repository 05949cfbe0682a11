package rmq

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/logger"
)

type Config struct {
	Host                    string `envconfig:"TAGGER_RMQ_HOST" required:"true"`
	Port                    string `envconfig:"TAGGER_RMQ_PORT" required:"true"`
	Username                string `envconfig:"TAGGER_RMQ_USERNAME" required:"true"`
	Password                string `envconfig:"TAGGER_RMQ_PASSWORD" required:"true"`
	Exchange                string `envconfig:"TAGGER_RMQ_EXCHANGE" default:"tagger-default-exchange"`
	MaxParallelRequestCount int    `envconfig:"TAGGER_RMQ_MAX_PARALLEL_REQUESTS" default:"5"`
	TaskQueue               string `envconfig:"TAGGER_RMQ_TASK_QUEUE" required:"true"`
	ResultsQueue            string `envconfig:"TAGGER_RMQ_RESULTS_QUEUE" required:"true"`
}

type Client struct {
	Deliveries     <-chan amqp.Delivery
	ReqChanErrors  <-chan *amqp.Error
	RespChanErrors <-chan *amqp.Error
	config         Config
	reqConn        *amqp.Connection
	respConn       *amqp.Connection
	respChannel    *amqp.Channel
	taggerLogger   *zerolog.Logger
}

func NewClient() (*Client, error) {
	taggerLogger := logger.NewLogger("RMQ client")
	config, err := ReadConfig()
	if err != nil {
		taggerLogger.Error().Err(err).Msg("Could not read env config")
		return nil, err
	}

	url := getURL(config)
	respConn, respChannel, err := setup(url)
	if err != nil {
		return nil, fmt.Errorf("failed connection: %w", err)
	}
	reqConn, reqChannel, err := setup(url)
	if err != nil {
		_ = respConn.Close()
		return nil, fmt.Errorf("failed connection: %w", err)
	}
	client := &Client{
		config:       config,
		reqConn:      reqConn,
		respConn:     respConn,
		respChannel:  respChannel,
		taggerLogger: &taggerLogger,
	}
	if err = client.consume(reqChannel); err != nil {
		client.Close()
		return nil, err
	}
	client.RespChanErrors = respChannel.NotifyClose(make(chan *amqp.Error))
	taggerLogger.Info().Str("queue", config.TaskQueue).Msg("Consuming tagging tasks")
	return client, nil
}

func (c *Client) consume(reqChannel *amqp.Channel) error {
	config := c.config

	q, err := reqChannel.QueueDeclarePassive(
		config.TaskQueue, // name
		true,             // durable
		false,            // delete when unused
		false,            // exclusive
		false,            // no-wait
		nil,              // arguments
	)
	if err != nil {
		return err
	}
	if err := reqChannel.QueueBind(
		config.TaskQueue,
		config.TaskQueue,
		config.Exchange,
		false,
		nil); err != nil {
		return err
	}
	if err := reqChannel.Qos(config.MaxParallelRequestCount, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}

	deliveries, err := reqChannel.Consume(
		q.Name,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume deliveries: %w", err)
	}
	c.Deliveries = deliveries
	c.ReqChanErrors = reqChannel.NotifyClose(make(chan *amqp.Error))
	return nil
}

// SendResult publishes a completion message on the results queue.
func (c *Client) SendResult(msg amqp.Publishing) error {
	return c.respChannel.Publish(
		c.config.Exchange,
		c.config.ResultsQueue,
		false,
		false,
		msg)
}

func (c *Client) Close() {
	_ = c.reqConn.Close()
	_ = c.respConn.Close()
}

func ReadConfig() (Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	return config, err
}

func getURL(config Config) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s", config.Username, config.Password, config.Host, config.Port)
}

func setup(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}
