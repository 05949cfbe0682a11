package pos

import (
	"fmt"
	"sort"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/types"
)

type TagScore struct {
	Tag       types.Tag `json:"tag"`
	Gold      int       `json:"gold"`
	Predicted int       `json:"predicted"`
	Correct   int       `json:"correct"`
}

type Report struct {
	Tokens  int        `json:"tokens"`
	Correct int        `json:"correct"`
	PerTag  []TagScore `json:"per_tag"`
}

func (r Report) Accuracy() float64 {
	if r.Tokens == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Tokens)
}

// Evaluate compares predicted tags with gold tags token by token. Both sequences must hold
// the same words in the same order.
func Evaluate(gold, predicted []types.TaggedWord) (Report, error) {
	if len(gold) != len(predicted) {
		return Report{}, fmt.Errorf("%w: %d gold tokens but %d predicted", types.ErrInvalidInput, len(gold), len(predicted))
	}
	scores := make(map[types.Tag]*TagScore)
	score := func(tag types.Tag) *TagScore {
		s, ok := scores[tag]
		if !ok {
			s = &TagScore{Tag: tag}
			scores[tag] = s
		}
		return s
	}

	report := Report{Tokens: len(gold)}
	for i := range gold {
		if gold[i].Word != predicted[i].Word {
			return Report{}, fmt.Errorf("%w: token %d is %q in gold but %q in prediction", types.ErrInvalidInput, i, gold[i].Word, predicted[i].Word)
		}
		score(gold[i].Tag).Gold++
		score(predicted[i].Tag).Predicted++
		if gold[i].Tag == predicted[i].Tag {
			report.Correct++
			score(gold[i].Tag).Correct++
		}
	}

	report.PerTag = make([]TagScore, 0, len(scores))
	for _, s := range scores {
		report.PerTag = append(report.PerTag, *s)
	}
	sort.Slice(report.PerTag, func(i, j int) bool { return report.PerTag[i].Tag < report.PerTag[j].Tag })
	return report, nil
}
