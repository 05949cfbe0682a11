package corpus

import (
	"bufio"
	"io"

	"github.com/dkhhandsome/HMM-Part-of-Speech-Tagging/types"
)

// WriteTagged writes one "word : tag" line per pair.
func WriteTagged(w io.Writer, pairs []types.TaggedWord) error {
	bw := bufio.NewWriter(w)
	for _, tw := range pairs {
		if _, err := bw.WriteString(tw.String()); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
