package corpus

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/types"
)

func TestSplitSentences(t *testing.T) {
	res, err := SplitText("the\ndog\nbarks\n.\na cat  sleeps\n\n.\n", DefaultDelimiter, nil)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff([]types.Sentence{
		{Index: 0, Words: []string{"the", "dog", "barks"}},
		{Index: 1, Words: []string{"a", "cat", "sleeps"}},
	}, res.Sentences))
	require.Empty(t, res.Unterminated)
	require.Zero(t, res.EmptySkipped)
}

func TestSplitSentencesEdgeCases(t *testing.T) {
	res, err := SplitText(".\nhello\n.\n.\r\nworld . again\n", DefaultDelimiter, nil)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff([]types.Sentence{{Index: 0, Words: []string{"hello"}}}, res.Sentences))
	require.Equal(t, 2, res.EmptySkipped)
	// a "." inside a line is an ordinary token
	require.Equal(t, []string{"world", ".", "again"}, res.Unterminated)
}

func TestSplitSentencesCustomDelimiter(t *testing.T) {
	res, err := SplitSentences(strings.NewReader("a\nb\n<s>\nc\n<s>"), "<s>", nil)
	require.NoError(t, err)
	require.Len(t, res.Sentences, 2)
	require.Equal(t, []string{"c"}, res.Sentences[1].Words)
}

func TestSplitSentencesNormalizes(t *testing.T) {
	normalize, err := NewNormalizer(types.NormalizationNFC)
	require.NoError(t, err)

	res, err := SplitText("cafe\u0301\n.\n", DefaultDelimiter, normalize)
	require.NoError(t, err)
	require.Equal(t, []string{"caf\u00e9"}, res.Sentences[0].Words)
}

func TestNewNormalizer(t *testing.T) {
	none, err := NewNormalizer("")
	require.NoError(t, err)
	require.Equal(t, "cafe\u0301", none("cafe\u0301"))

	nfkc, err := NewNormalizer(types.NormalizationNFKC)
	require.NoError(t, err)
	require.Equal(t, "fi", nfkc("ﬁ"))

	_, err = NewNormalizer("nfd")
	require.ErrorIs(t, err, types.ErrInvalidInput)
}
