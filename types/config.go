package types

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// tagsets
	TagsetBNC  = "bnc"
	TagsetTest = "test"

	// emission normalisation
	EmissionTokens   = "tokens"
	EmissionDistinct = "distinct"

	// decoder scoring
	ScoringProbability = "probability"
	ScoringLog         = "log"

	// unicode normalisation
	NormalizationNone = "none"
	NormalizationNFC  = "nfc"
	NormalizationNFKC = "nfkc"

	DefaultSmoothingFloor = 1e-10
)

type TaggerConfig struct {
	Name           string   `yaml:"name" json:"name"`
	FilePath       string   `yaml:"-" json:"file_path"`
	Tagset         string   `yaml:"tagset" json:"tagset"`
	TagsFile       string   `yaml:"tags_file" json:"tags_file"`
	Tags           []Tag    `yaml:"tags" json:"tags"`
	Boundary       Boundary `yaml:"boundary" json:"boundary"`
	SmoothingFloor float64  `yaml:"smoothing_floor" json:"smoothing_floor"`
	Emission       string   `yaml:"emission" json:"emission"`
	Scoring        string   `yaml:"scoring" json:"scoring"`
	Normalization  string   `yaml:"normalization" json:"normalization"`
	Workers        int      `yaml:"workers" json:"workers"`
}

func DefaultTaggerConfig() TaggerConfig {
	return TaggerConfig{
		Name:           "default",
		Tagset:         TagsetBNC,
		Boundary:       DefaultBoundary,
		SmoothingFloor: DefaultSmoothingFloor,
		Emission:       EmissionTokens,
		Scoring:        ScoringProbability,
		Normalization:  NormalizationNone,
		Workers:        1,
	}
}

// LoadConfiguration reads a YAML tagger configuration. Fields missing from the file keep
// their defaults.
func LoadConfiguration(filePath string) (TaggerConfig, error) {
	cfg := DefaultTaggerConfig()
	cfg.Name = strings.TrimSuffix(path.Base(filePath), path.Ext(filePath))
	cfg.FilePath = filePath

	buf, err := os.ReadFile(filePath)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", filePath, err)
	}
	if cfg.TagsFile != "" && !path.IsAbs(cfg.TagsFile) {
		cfg.TagsFile = path.Join(path.Dir(filePath), cfg.TagsFile)
	}
	return cfg, cfg.Validate()
}

func (cfg TaggerConfig) Validate() error {
	switch cfg.Emission {
	case EmissionTokens, EmissionDistinct:
	default:
		return fmt.Errorf("%w: emission %q", ErrInvalidInput, cfg.Emission)
	}
	switch cfg.Scoring {
	case ScoringProbability, ScoringLog:
	default:
		return fmt.Errorf("%w: scoring %q", ErrInvalidInput, cfg.Scoring)
	}
	switch cfg.Normalization {
	case NormalizationNone, NormalizationNFC, NormalizationNFKC:
	default:
		return fmt.Errorf("%w: normalization %q", ErrInvalidInput, cfg.Normalization)
	}
	if cfg.SmoothingFloor <= 0 || cfg.SmoothingFloor >= 1 {
		return fmt.Errorf("%w: smoothing floor %g is outside (0, 1)", ErrInvalidInput, cfg.SmoothingFloor)
	}
	if cfg.Boundary.Word == "" || cfg.Boundary.Tag == "" {
		return errors.New("boundary word and tag must both be set")
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidInput, cfg.Workers)
	}
	return nil
}
