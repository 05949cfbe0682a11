package types

import (
	"fmt"
	"strings"
)

// Separator joins a word and its tag in training, gold and output lines.
const Separator = " : "

type Tag string

type TaggedWord struct {
	Word string `json:"word"`
	Tag  Tag    `json:"tag"`
}

func (tw TaggedWord) String() string {
	return tw.Word + Separator + string(tw.Tag)
}

// ParseTaggedWord reads a "word : tag" line. Surrounding whitespace is ignored and the
// separator must occur exactly once.
func ParseTaggedWord(line string) (TaggedWord, error) {
	parts := strings.Split(strings.TrimSpace(line), Separator)
	if len(parts) != 2 {
		return TaggedWord{}, fmt.Errorf("%w: expected one %q separator, found %d", ErrMalformedLine, Separator, len(parts)-1)
	}
	return TaggedWord{Word: parts[0], Tag: Tag(parts[1])}, nil
}

func Words(tagged []TaggedWord) []string {
	words := make([]string, len(tagged))
	for i, tw := range tagged {
		words[i] = tw.Word
	}
	return words
}

func Tags(tagged []TaggedWord) []Tag {
	tags := make([]Tag, len(tagged))
	for i, tw := range tagged {
		tags[i] = tw.Tag
	}
	return tags
}
