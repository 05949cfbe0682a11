package pipeline

import (
	"context"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/types"
)

type Request struct {
	Tid  string `json:"tid"`
	Text string `json:"text"`
}

// Result is the decoding of one request. Sentences are in input order and do not include
// the boundary pair; Pairs appends it.
type Result struct {
	Tid              string
	ModelFingerprint uint64
	Sentences        [][]types.TaggedWord
	Unterminated     []string
	EmptySkipped     int
	Err              error
}

// Pairs flattens the result into output order, each sentence followed by the boundary pair.
func (res Result) Pairs(boundary types.Boundary) []types.TaggedWord {
	size := 0
	for _, sent := range res.Sentences {
		size += len(sent) + 1
	}
	out := make([]types.TaggedWord, 0, size)
	for _, sent := range res.Sentences {
		out = append(out, sent...)
		out = append(out, boundary.TaggedWord())
	}
	return out
}

// Pipeline tags a request asynchronously. The returned channel yields exactly one Result and
// is then closed.
type Pipeline func(ctx context.Context, request Request) <-chan Result
