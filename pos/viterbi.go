package pos

import (
	"fmt"
	"math"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/tagset"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/types"
)

// Scoring selects the arithmetic the decoder accumulates path scores in.
type Scoring int

const (
	ScoreProbability Scoring = iota
	ScoreLogProbability
)

func ParseScoring(name string) (Scoring, error) {
	switch name {
	case types.ScoringProbability, "":
		return ScoreProbability, nil
	case types.ScoringLog:
		return ScoreLogProbability, nil
	}
	return ScoreProbability, fmt.Errorf("%w: scoring %q", types.ErrInvalidInput, name)
}

type arithmetic interface {
	// weight maps a probability into score space. Zero maps to the impossible score.
	weight(p float64) float64
	extend(score, transition, emission float64) float64
}

type linear struct{}

func (linear) weight(p float64) float64 { return p }

func (linear) extend(score, transition, emission float64) float64 {
	return score * transition * emission
}

type logarithmic struct{}

func (logarithmic) weight(p float64) float64 { return math.Log(p) }

func (logarithmic) extend(score, transition, emission float64) float64 {
	return score + transition + emission
}

type DecoderOption func(*Decoder)

// WithSmoothingFloor sets the emission probability used for (tag, word) pairs never seen in
// training.
func WithSmoothingFloor(floor float64) DecoderOption {
	return func(d *Decoder) {
		d.floor = floor
	}
}

func WithScoring(scoring Scoring) DecoderOption {
	return func(d *Decoder) {
		d.scoring = scoring
	}
}

// Decoder finds the most probable tag sequence of a sentence under a Model. The model's
// tables are projected onto the inventory once, so a Decoder is read-only afterwards and can
// be shared between goroutines.
type Decoder struct {
	model      *Model
	inventory  tagset.Inventory
	floor      float64
	scoring    Scoring
	arith      arithmetic
	impossible float64

	// indexed by inventory position, already in score space
	initial    []float64
	transition [][]float64
}

func NewDecoder(model *Model, inventory tagset.Inventory, opts ...DecoderOption) *Decoder {
	d := &Decoder{
		model:     model,
		inventory: inventory,
		floor:     types.DefaultSmoothingFloor,
		scoring:   ScoreProbability,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.scoring == ScoreLogProbability {
		d.arith = logarithmic{}
	} else {
		d.arith = linear{}
	}
	d.impossible = d.arith.weight(0)

	k := inventory.Len()
	d.initial = make([]float64, k)
	d.transition = make([][]float64, k)
	for i := 0; i < k; i++ {
		tag := inventory.At(i)
		if p, ok := model.Initial[tag]; ok {
			d.initial[i] = d.arith.weight(p)
		} else {
			d.initial[i] = d.impossible
		}
		row := make([]float64, k)
		for j := 0; j < k; j++ {
			// absent transitions score as impossible rather than smoothed
			p, _ := model.Transition.Lookup(tag, inventory.At(j))
			row[j] = d.arith.weight(p)
		}
		d.transition[i] = row
	}
	return d
}

func (d *Decoder) Inventory() tagset.Inventory {
	return d.inventory
}

func (d *Decoder) Model() *Model {
	return d.model
}

// Emission returns P(word | tag), or the smoothing floor when the pair was never observed.
func (d *Decoder) Emission(tag types.Tag, word string) float64 {
	if p, ok := d.model.Emission.Lookup(tag, word); ok {
		return p
	}
	return d.floor
}

// Decode tags words and returns one pair per word in input order.
func (d *Decoder) Decode(words []string) ([]types.TaggedWord, error) {
	path, err := d.BestPath(words)
	if err != nil {
		return nil, err
	}
	return path.Tagged(words), nil
}

// BestPath runs Viterbi over the full inventory. Ties are broken in favour of the tag that
// comes first in the inventory; an all-impossible column still yields a path.
func (d *Decoder) BestPath(words []string) (Path, error) {
	n := len(words)
	if n == 0 {
		return Path{}, fmt.Errorf("%w: cannot decode an empty sentence", types.ErrInvalidInput)
	}
	k := d.inventory.Len()
	if k == 0 {
		return Path{}, fmt.Errorf("%w: empty tag inventory", types.ErrInvalidInput)
	}

	viterbi := make([][]float64, k)
	backpointer := make([][]int, k)
	for t := 0; t < k; t++ {
		viterbi[t] = make([]float64, n)
		backpointer[t] = make([]int, n)
		backpointer[t][0] = -1
	}

	for t := 0; t < k; t++ {
		emission := d.arith.weight(d.Emission(d.inventory.At(t), words[0]))
		viterbi[t][0] = d.start(d.initial[t], emission)
	}

	for pos := 1; pos < n; pos++ {
		for t := 0; t < k; t++ {
			emission := d.arith.weight(d.Emission(d.inventory.At(t), words[pos]))
			best, bestPrev := d.impossible, -1
			for p := 0; p < k; p++ {
				score := d.arith.extend(viterbi[p][pos-1], d.transition[p][t], emission)
				if bestPrev < 0 || score > best {
					best, bestPrev = score, p
				}
			}
			viterbi[t][pos] = best
			backpointer[t][pos] = bestPrev
		}
	}

	last, bestLast := 0, viterbi[0][n-1]
	for t := 1; t < k; t++ {
		if viterbi[t][n-1] > bestLast {
			last, bestLast = t, viterbi[t][n-1]
		}
	}

	tags := make([]types.Tag, n)
	cur := last
	for pos := n - 1; pos >= 0; pos-- {
		tags[pos] = d.inventory.At(cur)
		cur = backpointer[cur][pos]
	}
	return Path{Tags: tags, Score: bestLast}, nil
}

// start scores position 0. Tags that never begin a sentence stay impossible whatever the
// emission.
func (d *Decoder) start(initial, emission float64) float64 {
	if initial == d.impossible {
		return d.impossible
	}
	if d.scoring == ScoreLogProbability {
		return initial + emission
	}
	return initial * emission
}
