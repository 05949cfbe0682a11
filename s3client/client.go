package s3client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/logger"
)

// Client reads and writes objects through a shared session. A failed call asks the session
// keeper for a fresh session once and retries.
type Client struct {
	holder     *sessionHolder
	bucketName string
	region     string
	env        EnvironmentConfig
}

type sessionHolder struct {
	curr      *session.Session
	requestCh <-chan *session.Session
	errorCh   chan<- error
	closeCh   chan<- struct{}
}

var clientLogger = logger.NewLogger("S3Client")
var sdkLogger = logger.NewLogger("S3-SDK")

func New() (*Client, error) {
	env, err := ReadEnvironment()
	if err != nil {
		clientLogger.Err(err).Caller().Msg("Failed to get proper variables from environment")
		return nil, err
	}
	return NewWithConfig(env)
}

func NewWithConfig(env EnvironmentConfig) (*Client, error) {
	client := Client{
		bucketName: env.BucketName,
		region:     env.Region,
		env:        env,
	}
	sessionCh := make(chan *session.Session)
	errorCh := make(chan error)
	closeCh := make(chan struct{}, 1)

	client.holder = &sessionHolder{
		requestCh: sessionCh,
		errorCh:   errorCh,
		closeCh:   closeCh,
	}
	if err := client.acquireNewSession(); err != nil {
		return nil, err
	}
	go keepSessionRefreshed(&client, sessionCh, errorCh, closeCh)
	return &client, nil
}

// Upload stores data under key in the configured bucket.
func (client Client) Upload(ctx context.Context, data string, key string) (*s3manager.UploadOutput, error) {
	params := &s3manager.UploadInput{
		Bucket: aws.String(client.bucketName),
		Key:    aws.String(key),
		Body:   strings.NewReader(data),
	}
	sess, err := client.session()
	if err != nil {
		return nil, err
	}
	output, err := client.upload(ctx, sess, params)
	if err == nil {
		return output, nil
	}
	sess, err = client.tryRefreshingSession(err)
	if err != nil {
		return nil, err
	}
	params.Body = strings.NewReader(data)
	return client.upload(ctx, sess, params)
}

// Download reads key from the configured bucket.
func (client Client) Download(ctx context.Context, key string) ([]byte, error) {
	return client.DownloadObject(ctx, client.bucketName, key)
}

// DownloadObject reads key from any bucket the session can access.
func (client Client) DownloadObject(ctx context.Context, bucket, key string) ([]byte, error) {
	params := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	sess, err := client.session()
	if err != nil {
		return nil, err
	}
	res, err := client.download(ctx, sess, params)
	if err == nil {
		return res, nil
	}
	sess, err = client.tryRefreshingSession(err)
	if err != nil {
		return nil, err
	}
	return client.download(ctx, sess, params)
}

func (client Client) Close() {
	client.holder.closeCh <- struct{}{}
}

func (client Client) upload(ctx context.Context, sess *session.Session, params *s3manager.UploadInput) (*s3manager.UploadOutput, error) {
	taggerLogger := objectLogger(clientLogger, *params.Bucket, *params.Key)
	sdkLog := objectLogger(sdkLogger, *params.Bucket, *params.Key)

	uploader := s3manager.NewUploader(sess.Copy(&aws.Config{Logger: getLogger(sdkLog)}))
	taggerLogger.Debug().Msg("Uploading the file")
	return uploader.UploadWithContext(ctx, params)
}

func (client Client) download(ctx context.Context, sess *session.Session, params *s3.GetObjectInput) ([]byte, error) {
	taggerLogger := objectLogger(clientLogger, *params.Bucket, *params.Key)
	sdkLog := objectLogger(sdkLogger, *params.Bucket, *params.Key)

	downloader := s3manager.NewDownloader(sess.Copy(&aws.Config{Logger: getLogger(sdkLog)}))
	buf := aws.NewWriteAtBuffer([]byte{})

	taggerLogger.Debug().Msg("Downloading file")
	size, err := downloader.DownloadWithContext(ctx, buf, params)
	if err != nil {
		taggerLogger.Error().Err(err).Msg("Failed to download file")
		return nil, err
	}
	taggerLogger.Debug().Msgf("Downloaded %v bytes", size)
	return buf.Bytes(), nil
}

func objectLogger(base zerolog.Logger, bucket, key string) zerolog.Logger {
	return base.With().Str("key", key).Str("bucket", bucket).Logger()
}

func keepSessionRefreshed(client *Client, sessionCh chan<- *session.Session, errorCh <-chan error, closeCh <-chan struct{}) {
	for {
		select {
		case sessionCh <- client.holder.curr:
			continue
		default:
		}
		select {
		case sessionCh <- client.holder.curr:
		case err := <-errorCh:
			clientLogger.Error().Err(err).Msg("Caught error while using S3 session, trying to refresh it")
			if err = client.acquireNewSession(); err != nil {
				clientLogger.Error().Err(err).Msg("Caught error while refreshing S3 session")
				continue
			}
			clientLogger.Info().Msg("Successfully refreshed session")
		case <-closeCh:
			clientLogger.Info().Msg("Closing client")
			return
		}
	}
}

func (client Client) tryRefreshingSession(err error) (*session.Session, error) {
	var sess *session.Session
	select {
	case client.holder.errorCh <- err:
		sess = <-client.holder.requestCh
	case sess = <-client.holder.requestCh:
	}
	if sess == nil {
		return nil, errors.New("failed to refresh session")
	}
	return sess, nil
}

func (client Client) session() (*session.Session, error) {
	sess := <-client.holder.requestCh
	if sess == nil {
		return nil, errors.New("could not get session")
	}
	return sess, nil
}

func (client Client) createInstanceConfig() *aws.Config {
	return &aws.Config{
		Region:     aws.String(client.region),
		MaxRetries: aws.Int(4),
		LogLevel:   aws.LogLevel(aws.LogDebug),
	}
}

func (client Client) createEnvConfig() (*aws.Config, error) {
	creds := credentials.NewStaticCredentials(
		client.env.AccessKeyID,
		client.env.AccessKey,
		"")
	if _, err := creds.Get(); err != nil {
		return nil, fmt.Errorf("credentials from environment: %w", err)
	}
	cfg := aws.NewConfig().
		WithRegion(client.region).
		WithMaxRetries(4).
		WithCredentials(creds).
		WithLogLevel(aws.LogDebug)

	if len(client.env.Endpoint) > 0 {
		cfg = cfg.WithEndpoint(client.env.Endpoint).
			WithS3ForcePathStyle(true)
	}
	return cfg, nil
}

// acquireNewSession tries instance credentials first and falls back to the static keys from
// the environment.
func (client *Client) acquireNewSession() error {
	sess, err := session.NewSession(client.createInstanceConfig())
	if err == nil {
		_, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{})
	}
	if err == nil {
		client.holder.curr = sess
		clientLogger.Info().Msg("S3 session successfully initialized using instance credentials")
		return nil
	}
	clientLogger.Info().Err(err).Msg("Could not initialize S3 session using instance credentials, trying env credentials")

	cfg, err := client.createEnvConfig()
	if err != nil {
		client.holder.curr = nil
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return err
	}
	sess, err = session.NewSession(cfg)
	if err != nil {
		client.holder.curr = nil
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return err
	}
	_, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{})
	if err != nil {
		client.holder.curr = nil
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return errors.New("could not initialize S3 session")
	}
	client.holder.curr = sess
	clientLogger.Info().Msg("S3 session successfully initialized using env credentials")
	return nil
}

type EnvironmentConfig struct {
	BucketName  string `envconfig:"TAGGER_S3_BUCKET" required:"true"`
	Region      string `envconfig:"TAGGER_S3_REGION" required:"true"`
	Endpoint    string `envconfig:"TAGGER_S3_ENDPOINT_URL" default:""`
	AccessKeyID string `envconfig:"TAGGER_S3_ACCESS_ID" default:""`
	AccessKey   string `envconfig:"TAGGER_S3_ACCESS_KEY" default:""`
}

func ReadEnvironment() (EnvironmentConfig, error) {
	var config EnvironmentConfig
	err := envconfig.Process("", &config)
	return config, err
}

type s3Logger struct {
	taggerLogger zerolog.Logger
}

func getLogger(taggerLogger zerolog.Logger) *s3Logger {
	return &s3Logger{
		taggerLogger,
	}
}

func (logger *s3Logger) Log(v ...interface{}) {
	logger.taggerLogger.Debug().Msg(fmt.Sprint(v...))
}
