package types

import "strings"

// Sentence is one decoding unit. Index is its position in the source text and is used to
// put results back in input order.
type Sentence struct {
	Index int
	Words []string
}

func (sent Sentence) Len() int {
	return len(sent.Words)
}

func (sent Sentence) IsEmpty() bool {
	return len(sent.Words) == 0
}

func (sent Sentence) String() string {
	return strings.Join(sent.Words, " ")
}

// Boundary is the (word, tag) pair that closes a sentence in training text and is appended
// after every decoded sentence.
type Boundary struct {
	Word string `yaml:"word" json:"word"`
	Tag  Tag    `yaml:"tag" json:"tag"`
}

var DefaultBoundary = Boundary{Word: ".", Tag: "PUN"}

func (b Boundary) Matches(tw TaggedWord) bool {
	return tw.Word == b.Word && tw.Tag == b.Tag
}

func (b Boundary) TaggedWord() TaggedWord {
	return TaggedWord{Word: b.Word, Tag: b.Tag}
}
