package field

import (
	"fmt"
	"strings"

	"github.com/uhyunpark/mktfeed/pkg/wire"
)

// ValidationError reports a field value outside its declared domain.
type ValidationError struct {
	Field string
	Value []byte
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %s: invalid value %q", e.Field, e.Value)
}

// CharSet declares the values a Char may hold.
type CharSet interface {
	Values() string
}

// Char is a single-byte field restricted to the values of S.
type Char[S CharSet] byte

// Valid reports whether b belongs to S.
func Valid[S CharSet](b byte) bool {
	var s S
	return strings.IndexByte(s.Values(), b) >= 0
}

// NewChar builds a Char, always checking membership.
func NewChar[S CharSet](b byte) (Char[S], error) {
	if !Valid[S](b) {
		return 0, &ValidationError{Field: "char", Value: []byte{b}}
	}
	return Char[S](b), nil
}

// MustChar is NewChar for literals known to be valid.
func MustChar[S CharSet](b byte) Char[S] {
	c, err := NewChar[S](b)
	if err != nil {
		panic(err)
	}
	return c
}

// DecodeChar reads one byte and checks it against S when M validates.
func DecodeChar[S CharSet, M wire.Mode](d *wire.Decoder[M], name string, offset int) Char[S] {
	b := d.U8(name, offset)
	if d.Err() != nil {
		return 0
	}
	if wire.Validates[M]() && !Valid[S](b) {
		d.Fail(&ValidationError{Field: name, Value: []byte{b}})
		return 0
	}
	return Char[S](b)
}

func (c Char[S]) Byte() byte     { return byte(c) }
func (c Char[S]) String() string { return string(rune(c)) }

func (c Char[S]) Encode(e *wire.Encoder, name string, offset int) { e.U8(name, offset, byte(c)) }

func (c Char[S]) MarshalText() ([]byte, error) { return []byte{byte(c)}, nil }
