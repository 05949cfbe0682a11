package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/corpus"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/logger"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/pipeline"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/pos"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/s3client"
	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/types"
)

var taggerLogger = logger.NewLogger("Main")

// modelOptions are the flags shared by every command that trains a model.
type modelOptions struct {
	trainingFiles  []string
	configPath     string
	combinedFile   string
	tagset         string
	tagsFile       string
	emission       string
	scoring        string
	normalization  string
	smoothingFloor float64
	workers        int
}

func (opts *modelOptions) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringArrayVar(&opts.trainingFiles, "trainingfiles", nil, "training file, local path or s3://bucket/key (repeatable; extra arguments are training files too)")
	flags.StringVar(&opts.configPath, "config", "", "YAML tagger configuration")
	flags.StringVar(&opts.combinedFile, "combined-file", "", "write the concatenated training text to this file")
	flags.StringVar(&opts.tagset, "tagset", "", "named tag inventory (bnc or test)")
	flags.StringVar(&opts.tagsFile, "tags-file", "", "file with one tag per line, in tie-break order")
	flags.StringVar(&opts.emission, "emission", "", "emission normalisation (tokens or distinct)")
	flags.StringVar(&opts.scoring, "scoring", "", "decoder arithmetic (probability or log)")
	flags.StringVar(&opts.normalization, "normalization", "", "unicode normalisation of words (none, nfc or nfkc)")
	flags.Float64Var(&opts.smoothingFloor, "floor", types.DefaultSmoothingFloor, "emission probability of unseen (tag, word) pairs")
	flags.IntVar(&opts.workers, "workers", 1, "sentences decoded in parallel")
}

// config loads the configuration file, if any, and applies the flags that were set.
func (opts *modelOptions) config(cmd *cobra.Command) (types.TaggerConfig, error) {
	cfg := types.DefaultTaggerConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = types.LoadConfiguration(opts.configPath); err != nil {
			return cfg, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("tagset") {
		cfg.Tagset, cfg.TagsFile, cfg.Tags = opts.tagset, "", nil
	}
	if flags.Changed("tags-file") {
		cfg.TagsFile, cfg.Tags = opts.tagsFile, nil
	}
	if flags.Changed("emission") {
		cfg.Emission = opts.emission
	}
	if flags.Changed("scoring") {
		cfg.Scoring = opts.scoring
	}
	if flags.Changed("normalization") {
		cfg.Normalization = opts.normalization
	}
	if flags.Changed("floor") {
		cfg.SmoothingFloor = opts.smoothingFloor
	}
	if flags.Changed("workers") {
		cfg.Workers = opts.workers
	}
	return cfg, cfg.Validate()
}

func (opts *modelOptions) sources(args []string) ([]string, error) {
	sources := append(append([]string{}, opts.trainingFiles...), args...)
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: at least one training file is required", types.ErrInvalidInput)
	}
	return sources, nil
}

// newOpener returns a source opener, connecting to S3 only when a path needs it.
func newOpener(paths ...string) (corpus.Opener, error) {
	for _, p := range paths {
		if !corpus.IsS3Path(p) {
			continue
		}
		client, err := s3client.New()
		if err != nil {
			return corpus.Opener{}, fmt.Errorf("s3 client for %s: %w", p, err)
		}
		return corpus.Opener{S3: client}, nil
	}
	return corpus.Opener{}, nil
}

type trainedModel struct {
	cfg    types.TaggerConfig
	model  *pos.Model
	params pipeline.Params
}

func train(ctx context.Context, opener corpus.Opener, cfg types.TaggerConfig, sources []string, combinedFile string) (*trainedModel, error) {
	normalize, err := corpus.NewNormalizer(cfg.Normalization)
	if err != nil {
		return nil, err
	}
	pairs, err := opener.LoadTrainingPairs(ctx, sources, combinedFile, normalize)
	if err != nil {
		return nil, err
	}
	estimatorOpts, err := pos.EstimatorOptions(cfg)
	if err != nil {
		return nil, err
	}
	model := pos.Estimate(pairs, estimatorOpts...)
	params, err := pipeline.ParamsFromConfig(model, cfg)
	if err != nil {
		return nil, err
	}
	taggerLogger.Info().
		Str("config", cfg.Name).
		Strs("sources", sources).
		Int("pairs", model.Stats.Pairs).
		Int("sentences", model.Stats.Sentences).
		Int("tags", model.Stats.Tags).
		Int("words", model.Stats.Words).
		Str("fingerprint", fmt.Sprintf("%016x", model.Fingerprint)).
		Msg("Model estimated")
	return &trainedModel{cfg: cfg, model: model, params: params}, nil
}
