package pos

import (
	"fmt"
	"hash"

	"github.com/twmb/murmur3"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/types"
)

// EmissionMode selects how each tag's word counts are turned into a distribution.
type EmissionMode int

const (
	// EmissionTokens divides the count of (tag, word) by the number of tokens tagged with tag.
	EmissionTokens EmissionMode = iota
	// EmissionDistinct counts every distinct word once and divides by the number of distinct
	// words seen with the tag, which gives a uniform row.
	EmissionDistinct
)

func ParseEmissionMode(name string) (EmissionMode, error) {
	switch name {
	case types.EmissionTokens, "":
		return EmissionTokens, nil
	case types.EmissionDistinct:
		return EmissionDistinct, nil
	}
	return EmissionTokens, fmt.Errorf("%w: emission mode %q", types.ErrInvalidInput, name)
}

func (m EmissionMode) String() string {
	if m == EmissionDistinct {
		return types.EmissionDistinct
	}
	return types.EmissionTokens
}

type EstimatorOption func(*Estimator)

func WithBoundary(boundary types.Boundary) EstimatorOption {
	return func(e *Estimator) {
		e.boundary = boundary
	}
}

func WithEmissionMode(mode EmissionMode) EstimatorOption {
	return func(e *Estimator) {
		e.emission = mode
	}
}

// accumulator is the state threaded through one pass over the training pairs.
type accumulator struct {
	newSentence      bool
	previous         types.Tag
	hasPrevious      bool
	pairs            int
	sentences        int
	sentenceStarts   map[types.Tag]int
	transitions      map[types.Tag]map[types.Tag]int
	transitionTotals map[types.Tag]int
	wordCounts       map[types.Tag]map[string]int
	tagTotals        map[types.Tag]int
	vocabulary       map[string]struct{}
	fingerprint      hash.Hash64
}

func newAccumulator() accumulator {
	return accumulator{
		newSentence:      true,
		sentenceStarts:   make(map[types.Tag]int),
		transitions:      make(map[types.Tag]map[types.Tag]int),
		transitionTotals: make(map[types.Tag]int),
		wordCounts:       make(map[types.Tag]map[string]int),
		tagTotals:        make(map[types.Tag]int),
		vocabulary:       make(map[string]struct{}),
		fingerprint:      murmur3.New64(),
	}
}

func (acc *accumulator) observe(tw types.TaggedWord, boundary types.Boundary) {
	acc.pairs++
	_, _ = acc.fingerprint.Write([]byte(tw.Word))
	_, _ = acc.fingerprint.Write([]byte{0})
	_, _ = acc.fingerprint.Write([]byte(tw.Tag))
	_, _ = acc.fingerprint.Write([]byte{0})

	if acc.newSentence {
		acc.sentenceStarts[tw.Tag]++
		acc.sentences++
		acc.newSentence = false
	}
	if boundary.Matches(tw) {
		acc.newSentence = true
	}

	if acc.hasPrevious {
		row, ok := acc.transitions[acc.previous]
		if !ok {
			row = make(map[types.Tag]int)
			acc.transitions[acc.previous] = row
		}
		row[tw.Tag]++
		acc.transitionTotals[acc.previous]++
	}
	acc.previous = tw.Tag
	acc.hasPrevious = true

	words, ok := acc.wordCounts[tw.Tag]
	if !ok {
		words = make(map[string]int)
		acc.wordCounts[tw.Tag] = words
	}
	words[tw.Word]++
	acc.tagTotals[tw.Tag]++
	acc.vocabulary[tw.Word] = struct{}{}
}

// Estimator counts initial, transition and emission events over an ordered stream of
// training pairs in a single pass.
type Estimator struct {
	boundary types.Boundary
	emission EmissionMode
	acc      accumulator
}

func NewEstimator(opts ...EstimatorOption) *Estimator {
	e := &Estimator{
		boundary: types.DefaultBoundary,
		emission: EmissionTokens,
		acc:      newAccumulator(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Estimator) Observe(tw types.TaggedWord) {
	e.acc.observe(tw, e.boundary)
}

func (e *Estimator) ObserveAll(pairs []types.TaggedWord) {
	for _, tw := range pairs {
		e.acc.observe(tw, e.boundary)
	}
}

// Model normalises the counts seen so far. Every call returns fresh tables.
func (e *Estimator) Model() *Model {
	acc := &e.acc

	initial := make(InitialTable, len(acc.sentenceStarts))
	for tag, count := range acc.sentenceStarts {
		initial[tag] = float64(count) / float64(acc.sentences)
	}

	transition := make(TransitionTable, len(acc.transitions))
	for prev, row := range acc.transitions {
		total := float64(acc.transitionTotals[prev])
		probs := make(map[types.Tag]float64, len(row))
		for next, count := range row {
			probs[next] = float64(count) / total
		}
		transition[prev] = probs
	}

	emission := make(EmissionTable, len(acc.wordCounts))
	for tag, words := range acc.wordCounts {
		probs := make(map[string]float64, len(words))
		switch e.emission {
		case EmissionDistinct:
			support := float64(len(words))
			for word := range words {
				probs[word] = 1 / support
			}
		default:
			total := float64(acc.tagTotals[tag])
			for word, count := range words {
				probs[word] = float64(count) / total
			}
		}
		emission[tag] = probs
	}

	return &Model{
		Initial:    initial,
		Transition: transition,
		Emission:   emission,
		Stats: Stats{
			Pairs:     acc.pairs,
			Sentences: acc.sentences,
			Tags:      len(acc.tagTotals),
			Words:     len(acc.vocabulary),
		},
		Fingerprint: acc.fingerprint.Sum64(),
	}
}

// Estimate folds pairs into a fresh Estimator and returns the resulting model.
func Estimate(pairs []types.TaggedWord, opts ...EstimatorOption) *Model {
	e := NewEstimator(opts...)
	e.ObserveAll(pairs)
	return e.Model()
}
