package pos

import (
	"sort"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/types"
)

type InitialTable map[types.Tag]float64

// TransitionTable maps a previous tag to the distribution of the tag that follows it.
type TransitionTable map[types.Tag]map[types.Tag]float64

// EmissionTable maps a tag to the distribution of words observed with it.
type EmissionTable map[types.Tag]map[string]float64

// Lookup returns P(next | prev). ok is false when either the row or the entry is missing.
func (t TransitionTable) Lookup(prev, next types.Tag) (float64, bool) {
	row, ok := t[prev]
	if !ok {
		return 0, false
	}
	p, ok := row[next]
	return p, ok
}

func (e EmissionTable) Lookup(tag types.Tag, word string) (float64, bool) {
	row, ok := e[tag]
	if !ok {
		return 0, false
	}
	p, ok := row[word]
	return p, ok
}

type Stats struct {
	Pairs     int `json:"pairs"`
	Sentences int `json:"sentences"`
	Tags      int `json:"tags"`
	Words     int `json:"words"`
}

// Model is the estimated HMM. It is never mutated after Estimator.Model returns it and is
// safe to share between concurrent decoders.
type Model struct {
	Initial     InitialTable
	Transition  TransitionTable
	Emission    EmissionTable
	Stats       Stats
	Fingerprint uint64
}

// Tags lists every tag that occurs in any table, sorted.
func (m *Model) Tags() []types.Tag {
	seen := make(map[types.Tag]bool)
	for tag := range m.Initial {
		seen[tag] = true
	}
	for prev, row := range m.Transition {
		seen[prev] = true
		for next := range row {
			seen[next] = true
		}
	}
	for tag := range m.Emission {
		seen[tag] = true
	}
	tags := make([]types.Tag, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}
