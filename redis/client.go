package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	jsonpatch "github.com/evanphx/json-patch"
	"github.com/go-redis/redis/v8"
	"github.com/kelseyhightower/envconfig"
)

type DB int
type ReleaseLock func() error

type Client struct {
	client         redis.UniversalClient
	lockExpiration time.Duration
}

type Config struct {
	LockExpirationSeconds   int     `envconfig:"TAGGER_REDIS_LOCK_EXPIRATION" default:"3"`
	Host                    string  `envconfig:"TAGGER_REDIS_HOST" required:"true"`
	Port                    string  `envconfig:"TAGGER_REDIS_PORT" required:"true"`
	HASentinelPort          string  `envconfig:"TAGGER_REDIS_HA_SENTINEL_PORT" default:"26379"`
	HASentinelMasterName    string  `envconfig:"TAGGER_REDIS_HA_MASTER_NAME" default:"mymaster"`
	Password                string  `envconfig:"TAGGER_REDIS_AUTH_PASSWORD" default:""`
	AuthRequired            bool    `envconfig:"TAGGER_REDIS_AUTH_REQUIRED" default:"false"`
	HAMode                  bool    `envconfig:"TAGGER_REDIS_HA_MODE" default:"false"`
	HASentinelSocketTimeout float32 `envconfig:"TAGGER_REDIS_SOCKET_TIMEOUT" default:"0.5"`
}

func NewClient(db DB) (Client, error) {
	cfg, err := readEnvironment()
	if err != nil {
		return Client{}, err
	}
	return NewClientFromConfig(cfg, db), nil
}

func NewClientFromConfig(cfg *Config, db DB) Client {
	var client redis.UniversalClient
	if cfg.HAMode {
		client = CreateClusterClient(cfg, db)
	} else {
		client = CreateClient(cfg, db)
	}
	return Client{
		client:         client,
		lockExpiration: time.Duration(cfg.LockExpirationSeconds) * time.Second,
	}
}

func CreateClusterClient(cfg *Config, db DB) *redis.ClusterClient {
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.HASentinelPort)
	timeout := time.Duration(float64(cfg.HASentinelSocketTimeout) * float64(time.Second))
	options := redis.FailoverOptions{
		SentinelAddrs: []string{addr},
		ReadTimeout:   timeout,
		WriteTimeout:  timeout,
		MaxRetries:    6,
		DB:            int(db),
		MasterName:    cfg.HASentinelMasterName,
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewFailoverClusterClient(&options)
}

func CreateClient(cfg *Config, db DB) *redis.Client {
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	options := redis.Options{
		Addr:       addr,
		MaxRetries: 6,
		DB:         int(db),
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewClient(&options)
}

// GetDocument reads the JSON document at redisKey into doc. Fields doc does not declare are
// ignored.
func (client *Client) GetDocument(ctx context.Context, redisKey string, doc interface{}) error {
	_, err := client.getRaw(ctx, redisKey, doc)
	return err
}

func (client *Client) getRaw(ctx context.Context, redisKey string, doc interface{}) ([]byte, error) {
	raw, err := client.client.Get(ctx, redisKey).Bytes()
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", redisKey, err)
	}
	if err = json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", redisKey, err)
	}
	return raw, nil
}

// UpdateDocument loads the document at redisKey into doc under a lock, calls update and writes
// back only what update changed. Fields other services store in the same document survive.
func (client *Client) UpdateDocument(ctx context.Context, redisKey string, doc interface{}, update func()) (err error) {
	releaseLock, err := client.Lock(ctx, redisKey)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := releaseLock(); err == nil {
			err = releaseErr
		}
	}()

	raw, err := client.getRaw(ctx, redisKey, doc)
	if err != nil {
		return err
	}
	merged, err := ApplyUpdate(raw, doc, update)
	if err != nil {
		return fmt.Errorf("update %s: %w", redisKey, err)
	}
	return client.client.Set(ctx, redisKey, merged, 0).Err()
}

// ApplyUpdate runs update against doc, which must already hold the decoded raw document, and
// merges the resulting change into raw as an RFC 7386 merge patch. Fields set to null by
// update are removed from the stored document.
func ApplyUpdate(raw []byte, doc interface{}, update func()) ([]byte, error) {
	before, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	update()
	after, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	patch, err := jsonpatch.CreateMergePatch(before, after)
	if err != nil {
		return nil, err
	}
	return jsonpatch.MergePatch(raw, patch)
}

func (client *Client) Lock(ctx context.Context, redisKey string) (ReleaseLock, error) {
	lockCl := redislock.New(client.client)
	str := redislock.LimitRetry(redislock.LinearBackoff(time.Second), 20)
	lockKey := fmt.Sprintf("lock:%s", redisKey)
	lock, err := lockCl.Obtain(ctx, lockKey, client.lockExpiration, &redislock.Options{RetryStrategy: str})
	if err != nil {
		return nil, err
	}
	return func() error {
		return lock.Release(ctx)
	}, nil
}

func (client *Client) Close() error {
	return client.client.Close()
}

func readEnvironment() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
