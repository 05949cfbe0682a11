package pipeline

import (
	"context"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/types"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/utils"
)

// NewSentenceSource emits sentences in order until they run out or ctx is done.
func NewSentenceSource(sentences []types.Sentence) func(ctx context.Context) <-chan types.Sentence {
	return func(ctx context.Context) <-chan types.Sentence {
		out := make(chan types.Sentence)
		go func() {
			defer close(out)
			for _, sent := range sentences {
				select {
				case out <- sent:
				case <-ctx.Done():
					return
				}
			}
		}()
		return out
	}
}

// duplicates maps the index of a repeated sentence to the index of its first occurrence.
// It is complete once the dedupe stage's output channel is closed.
type duplicates map[int]int

// NewDedupeStage passes on only the first occurrence of every distinct token sequence.
func NewDedupeStage(dups duplicates) func(in <-chan types.Sentence) <-chan types.Sentence {
	return func(in <-chan types.Sentence) <-chan types.Sentence {
		out := make(chan types.Sentence)
		go func() {
			defer close(out)
			firstByHash := make(map[uint64][]types.Sentence)
			for sent := range in {
				key := utils.HashTokens(sent.Words)
				if first, ok := findSame(firstByHash[key], sent); ok {
					dups[sent.Index] = first.Index
					continue
				}
				firstByHash[key] = append(firstByHash[key], sent)
				out <- sent
			}
		}()
		return out
	}
}

func findSame(candidates []types.Sentence, sent types.Sentence) (types.Sentence, bool) {
	for _, c := range candidates {
		if sameWords(c.Words, sent.Words) {
			return c, true
		}
	}
	return types.Sentence{}, false
}

func sameWords(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
