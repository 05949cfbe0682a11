package corpus

import (
	"io"
	"strings"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/types"
)

const DefaultDelimiter = "."

type SplitResult struct {
	Sentences []types.Sentence
	// Unterminated holds tokens that followed the last delimiter line. They are not decoded.
	Unterminated []string
	// EmptySkipped counts delimiter lines that closed a sentence with no tokens.
	EmptySkipped int
}

// SplitSentences cuts test text into sentences at every line that is exactly the delimiter.
// Every other line contributes its whitespace separated fields as tokens, so a sentence may
// span many lines and a line may hold many tokens.
func SplitSentences(r io.Reader, delimiter string, normalize Normalizer) (SplitResult, error) {
	if normalize == nil {
		normalize = Identity
	}
	var res SplitResult
	var words []string

	scanner := newScanner(r)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == delimiter {
			if len(words) == 0 {
				res.EmptySkipped++
				continue
			}
			res.Sentences = append(res.Sentences, types.Sentence{Index: len(res.Sentences), Words: words})
			words = nil
			continue
		}
		for _, field := range strings.Fields(line) {
			words = append(words, normalize(field))
		}
	}
	if err := scanner.Err(); err != nil {
		return SplitResult{}, err
	}
	res.Unterminated = words
	return res, nil
}

func SplitText(text string, delimiter string, normalize Normalizer) (SplitResult, error) {
	return SplitSentences(strings.NewReader(text), delimiter, normalize)
}
