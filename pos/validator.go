package pos

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/types"
)

type SentenceValidator interface {
	ValidSentence(sent types.Sentence) error
}

type defaultSentenceValidator struct{}

// ValidSentence rejects empty sentences and tokens that are empty or carry whitespace, since
// neither can be written back as a "word : tag" line.
func (defaultSentenceValidator) ValidSentence(sent types.Sentence) error {
	if sent.IsEmpty() {
		return fmt.Errorf("%w: sentence %d has no tokens", types.ErrInvalidInput, sent.Index)
	}
	for i, word := range sent.Words {
		if word == "" {
			return fmt.Errorf("%w: sentence %d token %d is empty", types.ErrInvalidInput, sent.Index, i)
		}
		if strings.IndexFunc(word, unicode.IsSpace) >= 0 {
			return fmt.Errorf("%w: sentence %d token %d %q contains whitespace", types.ErrInvalidInput, sent.Index, i, word)
		}
	}
	return nil
}

func NewSentenceValidator() SentenceValidator {
	return defaultSentenceValidator{}
}
