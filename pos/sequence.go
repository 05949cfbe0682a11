package pos

import "github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/types"

// Path is the best tag sequence for one sentence together with its score. Score is a joint
// probability, or its natural log when the decoder scores in log space.
type Path struct {
	Tags  []types.Tag
	Score float64
}

// Tagged zips the path with the words it was decoded from.
func (p Path) Tagged(words []string) []types.TaggedWord {
	out := make([]types.TaggedWord, len(words))
	for i, word := range words {
		out[i] = types.TaggedWord{Word: word, Tag: p.Tags[i]}
	}
	return out
}
