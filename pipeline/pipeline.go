package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/corpus"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/logger"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/pos"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/types"
)

type Params struct {
	Decoder   *pos.Decoder
	Boundary  types.Boundary
	Normalize corpus.Normalizer
	Workers   int
}

// ParamsFromConfig builds pipeline parameters for a trained model.
func ParamsFromConfig(model *pos.Model, cfg types.TaggerConfig) (Params, error) {
	decoder, err := pos.NewDecoderFromConfig(model, cfg)
	if err != nil {
		return Params{}, err
	}
	normalize, err := corpus.NewNormalizer(cfg.Normalization)
	if err != nil {
		return Params{}, err
	}
	return Params{
		Decoder:   decoder,
		Boundary:  cfg.Boundary,
		Normalize: normalize,
		Workers:   cfg.Workers,
	}, nil
}

func New(params Params) Pipeline {
	taggerLogger := logger.NewLogger("Pipeline")
	// test text is split on the same word that ends training sentences
	if params.Boundary.Word == "" {
		params.Boundary = types.DefaultBoundary
	}
	tagStage := NewTaggingStage(pos.NewTagger(params.Decoder), params.Workers)
	fingerprint := params.Decoder.Model().Fingerprint

	return func(ctx context.Context, request Request) <-chan Result {
		out := make(chan Result, 1)
		go func() {
			defer close(out)
			res := run(ctx, request, params, tagStage, taggerLogger.With().Str("tid", request.Tid).Logger())
			res.ModelFingerprint = fingerprint
			out <- res
		}()
		return out
	}
}

func run(
	ctx context.Context,
	request Request,
	params Params,
	tagStage func(context.Context, <-chan types.Sentence) <-chan taggedSentence,
	reqLogger zerolog.Logger,
) Result {
	started := time.Now()
	res := Result{Tid: request.Tid}

	split, err := corpus.SplitText(request.Text, params.Boundary.Word, params.Normalize)
	if err != nil {
		res.Err = err
		return res
	}
	res.Unterminated = split.Unterminated
	res.EmptySkipped = split.EmptySkipped
	if len(split.Unterminated) > 0 {
		reqLogger.Warn().Int("tokens", len(split.Unterminated)).Msg("Dropping tokens after the last sentence delimiter")
	}
	if split.EmptySkipped > 0 {
		reqLogger.Warn().Int("count", split.EmptySkipped).Msg("Skipped empty sentences")
	}

	dups := make(duplicates)
	source := NewSentenceSource(split.Sentences)(ctx)
	tagged := tagStage(ctx, NewDedupeStage(dups)(source))

	res.Sentences = make([][]types.TaggedWord, len(split.Sentences))
	received := 0
	for ts := range tagged {
		if ts.err != nil {
			if res.Err == nil {
				res.Err = ts.err
			}
			continue
		}
		res.Sentences[ts.index] = ts.tagged
		received++
	}
	if res.Err == nil && received+len(dups) < len(split.Sentences) {
		res.Err = ctx.Err()
	}
	if res.Err != nil {
		reqLogger.Err(res.Err).Msg("Tagging failed")
		res.Sentences = nil
		return res
	}

	// the dedupe stage closed before the tagging stage did, so dups is complete here
	for dup, first := range dups {
		res.Sentences[dup] = copyTagged(res.Sentences[first])
	}

	reqLogger.Debug().
		Int("sentences", len(res.Sentences)).
		Int("duplicates", len(dups)).
		Dur("elapsed", time.Since(started)).
		Msg("Tagged request")
	return res
}

func copyTagged(in []types.TaggedWord) []types.TaggedWord {
	out := make([]types.TaggedWord, len(in))
	copy(out, in)
	return out
}
