package corpus

import (
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/types"
)

// Normalizer rewrites a token before it is counted or decoded. Training and test text must
// go through the same Normalizer or emission lookups miss.
type Normalizer func(string) string

func Identity(s string) string {
	return s
}

func NewNormalizer(form string) (Normalizer, error) {
	switch form {
	case types.NormalizationNone, "":
		return Identity, nil
	case types.NormalizationNFC:
		return norm.NFC.String, nil
	case types.NormalizationNFKC:
		return norm.NFKC.String, nil
	}
	return nil, fmt.Errorf("%w: normalization %q", types.ErrInvalidInput, form)
}
