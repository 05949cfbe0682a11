package corpus

import (
	"bufio"
	"io"
	"strings"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/types"
)

const maxLineSize = 1024 * 1024

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return scanner
}

// ReadTrainingPairs parses one "word : tag" pair per line. The first malformed line aborts
// the read with a *types.MalformedLineError naming source and line number.
func ReadTrainingPairs(r io.Reader, source string, normalize Normalizer) ([]types.TaggedWord, error) {
	if normalize == nil {
		normalize = Identity
	}
	scanner := newScanner(r)

	var pairs []types.TaggedWord
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		tw, err := types.ParseTaggedWord(scanner.Text())
		if err != nil {
			return nil, &types.MalformedLineError{Source: source, Line: lineNo, Text: scanner.Text(), Err: err}
		}
		tw.Word = normalize(tw.Word)
		pairs = append(pairs, tw)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return pairs, nil
}

// Concatenate copies the non-blank lines of every source to w, trimmed, separated by single
// newlines and without a trailing newline. It returns the number of lines written.
func Concatenate(w io.Writer, sources ...io.Reader) (int, error) {
	bw := bufio.NewWriter(w)
	written := 0
	for _, src := range sources {
		scanner := newScanner(src)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if written > 0 {
				if err := bw.WriteByte('\n'); err != nil {
					return written, err
				}
			}
			if _, err := bw.WriteString(line); err != nil {
				return written, err
			}
			written++
		}
		if err := scanner.Err(); err != nil {
			return written, err
		}
	}
	return written, bw.Flush()
}

// GoldSentences cuts tagged pairs into sentences at every boundary pair. The boundary pairs
// themselves are dropped; pairs after the last boundary form a final sentence.
func GoldSentences(pairs []types.TaggedWord, boundary types.Boundary) ([]types.Sentence, [][]types.TaggedWord) {
	var sentences []types.Sentence
	var gold [][]types.TaggedWord
	var current []types.TaggedWord

	flush := func() {
		if len(current) == 0 {
			return
		}
		sentences = append(sentences, types.Sentence{Index: len(sentences), Words: types.Words(current)})
		gold = append(gold, current)
		current = nil
	}
	for _, tw := range pairs {
		if boundary.Matches(tw) {
			flush()
			continue
		}
		current = append(current, tw)
	}
	flush()
	return sentences, gold
}
