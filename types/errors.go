package types

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrMalformedLine = errors.New("malformed tagged line")
	ErrUnknownTagset = errors.New("unknown tagset")
)

// MalformedLineError reports the position of a line that could not be split into a word
// and a tag.
type MalformedLineError struct {
	Source string
	Line   int
	Text   string
	Err    error
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("%s:%d: %q: %v", e.Source, e.Line, e.Text, e.Err)
}

func (e *MalformedLineError) Unwrap() error {
	return e.Err
}
