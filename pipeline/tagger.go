package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/pos"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/types"
)

type taggedSentence struct {
	index  int
	tagged []types.TaggedWord
	err    error
}

// NewTaggingStage decodes sentences on up to workers goroutines. Results come out in
// completion order; the caller restores input order by index. After the first failure the
// remaining input is drained without decoding.
func NewTaggingStage(tagger pos.Tagger, workers int) func(ctx context.Context, in <-chan types.Sentence) <-chan taggedSentence {
	if workers < 1 {
		workers = 1
	}

	return func(ctx context.Context, in <-chan types.Sentence) <-chan taggedSentence {
		out := make(chan taggedSentence)
		go func() {
			defer close(out)
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(workers)

			for sent := range in {
				if gctx.Err() != nil {
					continue
				}
				sent := sent
				g.Go(func() error {
					if gctx.Err() != nil {
						return nil
					}
					tagged, err := tagger(sent)
					if err != nil {
						err = fmt.Errorf("sentence %d: %w", sent.Index, err)
					}
					select {
					case out <- taggedSentence{index: sent.Index, tagged: tagged, err: err}:
					case <-gctx.Done():
						return gctx.Err()
					}
					return err
				})
			}
			_ = g.Wait()
		}()
		return out
	}
}
