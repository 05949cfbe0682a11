package pos

import (
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/tagset"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/types"
)

// Tagger decodes a single sentence.
type Tagger func(sent types.Sentence) ([]types.TaggedWord, error)

func NewTagger(decoder *Decoder) Tagger {
	validator := NewSentenceValidator()

	return func(sent types.Sentence) ([]types.TaggedWord, error) {
		if err := validator.ValidSentence(sent); err != nil {
			return nil, err
		}
		return decoder.Decode(sent.Words)
	}
}

// EstimatorOptions translates a configuration into estimator options.
func EstimatorOptions(cfg types.TaggerConfig) ([]EstimatorOption, error) {
	mode, err := ParseEmissionMode(cfg.Emission)
	if err != nil {
		return nil, err
	}
	return []EstimatorOption{WithBoundary(cfg.Boundary), WithEmissionMode(mode)}, nil
}

// NewDecoderFromConfig resolves the configured inventory and decoder settings.
func NewDecoderFromConfig(model *Model, cfg types.TaggerConfig) (*Decoder, error) {
	inventory, err := tagset.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	scoring, err := ParseScoring(cfg.Scoring)
	if err != nil {
		return nil, err
	}
	floor := cfg.SmoothingFloor
	if floor == 0 {
		floor = types.DefaultSmoothingFloor
	}
	return NewDecoder(model, inventory, WithSmoothingFloor(floor), WithScoring(scoring)), nil
}
