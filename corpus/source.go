package corpus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/types"
)

const s3Scheme = "s3://"

// ObjectDownloader fetches a whole object from a bucket.
type ObjectDownloader interface {
	DownloadObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// Opener resolves a training or test path. Paths of the form s3://bucket/key are fetched
// through S3; everything else is opened from the local file system.
type Opener struct {
	S3 ObjectDownloader
}

var ErrNoS3Client = errors.New("s3 path given but no s3 client is configured")

func IsS3Path(p string) bool {
	return strings.HasPrefix(p, s3Scheme)
}

// ParseS3Path splits s3://bucket/key.
func ParseS3Path(p string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(p, s3Scheme)
	parts := strings.SplitN(rest, "/", 2)
	if !IsS3Path(p) || len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q is not an s3://bucket/key path", types.ErrInvalidInput, p)
	}
	return parts[0], parts[1], nil
}

func (o Opener) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	if !IsS3Path(p) {
		return os.Open(p)
	}
	bucket, key, err := ParseS3Path(p)
	if err != nil {
		return nil, err
	}
	if o.S3 == nil {
		return nil, ErrNoS3Client
	}
	data, err := o.S3.DownloadObject(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", p, err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (o Opener) ReadAll(ctx context.Context, p string) ([]byte, error) {
	rc, err := o.Open(ctx, p)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// LoadTrainingPairs concatenates the given sources under the blank-line and newline rules of
// Concatenate and parses the combined text. When combinedPath is set the combined text is
// also written there.
func (o Opener) LoadTrainingPairs(ctx context.Context, paths []string, combinedPath string, normalize Normalizer) ([]types.TaggedWord, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no training sources", types.ErrInvalidInput)
	}
	readers := make([]io.Reader, 0, len(paths))
	for _, p := range paths {
		rc, err := o.Open(ctx, p)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		readers = append(readers, rc)
	}

	var combined bytes.Buffer
	if _, err := Concatenate(&combined, readers...); err != nil {
		return nil, err
	}
	if combinedPath != "" {
		if err := os.WriteFile(combinedPath, combined.Bytes(), 0o644); err != nil {
			return nil, err
		}
	}
	return ReadTrainingPairs(&combined, strings.Join(paths, "+"), normalize)
}
