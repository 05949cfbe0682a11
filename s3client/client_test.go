package s3client

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadEnvironment(t *testing.T) {
	t.Setenv("TAGGER_S3_BUCKET", "corpora")
	t.Setenv("TAGGER_S3_REGION", "us-east-1")
	t.Setenv("TAGGER_S3_ENDPOINT_URL", "http://localhost:4566")

	env, err := ReadEnvironment()
	require.NoError(t, err)
	assert.Equal(t, EnvironmentConfig{
		BucketName: "corpora",
		Region:     "us-east-1",
		Endpoint:   "http://localhost:4566",
	}, env)
}

func TestEnvConfigUsesEndpoint(t *testing.T) {
	client := Client{
		region: "eu-west-1",
		env: EnvironmentConfig{
			Endpoint:    "http://localhost:4566",
			AccessKeyID: "id",
			AccessKey:   "key",
		},
	}
	cfg, err := client.createEnvConfig()
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", *cfg.Region)
	assert.Equal(t, "http://localhost:4566", *cfg.Endpoint)
	assert.True(t, *cfg.S3ForcePathStyle)
}

func TestEnvConfigNeedsCredentials(t *testing.T) {
	client := Client{region: "eu-west-1"}
	_, err := client.createEnvConfig()
	assert.Error(t, err)
}

func TestSDKLogsAtDebug(t *testing.T) {
	var out bytes.Buffer
	base := zerolog.New(&out).Level(zerolog.DebugLevel)
	getLogger(objectLogger(base, "corpora", "train.txt")).Log("retrying", 2)

	assert.Contains(t, out.String(), `"bucket":"corpora"`)
	assert.Contains(t, out.String(), `"key":"train.txt"`)
	assert.Contains(t, out.String(), "retrying")
}
