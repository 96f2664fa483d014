package wire

import (
	"errors"
	"fmt"
)

// ErrOutOfBounds is wrapped by every DecodeError.
var ErrOutOfBounds = errors.New("wire: access out of bounds")

// DecodeError reports a field access outside the message buffer.
type DecodeError struct {
	Field  string
	Size   int
	Offset int
	Width  int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("wire: field %q: offset %d width %d outside buffer of size %d",
		e.Field, e.Offset, e.Width, e.Size)
}

func (e *DecodeError) Unwrap() error { return ErrOutOfBounds }

// CheckOffset verifies that n bytes starting at offset fit in a buffer of
// the given size. Trusted mode never fails.
func CheckOffset[M Mode](field string, size, offset, n int) error {
	if !Validates[M]() {
		return nil
	}
	if n <= 0 || offset < 0 || offset >= size || offset+n > size {
		return &DecodeError{Field: field, Size: size, Offset: offset, Width: n}
	}
	return nil
}
