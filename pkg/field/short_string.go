package field

import (
	"bytes"
	"strings"

	"github.com/uhyunpark/mktfeed/pkg/wire"
)

// Width fixes the wire length of a ShortString.
type Width interface {
	W2 | W4 | W6 | W8
	Len() int
}

type (
	W2 struct{}
	W4 struct{ _ [0]int16 }
	W6 struct{ _ [0]int32 }
	W8 struct{ _ [0]int64 }
)

func (W2) Len() int { return 2 }
func (W4) Len() int { return 4 }
func (W6) Len() int { return 6 }
func (W8) Len() int { return 8 }

// ShortString is an N-byte, right space-padded ASCII string. Values are
// comparable and can be used as map keys.
type ShortString[N Width] struct {
	b [8]byte
}

type (
	Stock        = ShortString[W8]
	MPID         = ShortString[W4]
	Reason       = ShortString[W4]
	Symbol6      = ShortString[W6]
	IssueSubtype = ShortString[W2]
)

func width[N Width]() int {
	var n N
	return n.Len()
}

// NewShortString pads s with spaces, or truncates it, to the field width.
func NewShortString[N Width](s string) ShortString[N] {
	var out ShortString[N]
	n := width[N]()
	copy(out.b[:n], s)
	for i := min(len(s), n); i < n; i++ {
		out.b[i] = ' '
	}
	return out
}

// NewStock is shorthand for the 8-byte instrument symbol.
func NewStock(s string) Stock { return NewShortString[W8](s) }

// Bytes returns the padded wire representation.
func (s ShortString[N]) Bytes() []byte {
	return s.b[:width[N]()]
}

// String returns the value without trailing padding.
func (s ShortString[N]) String() string {
	return strings.TrimRight(string(s.Bytes()), " ")
}

// Compare orders strings by their padded bytes.
func (s ShortString[N]) Compare(o ShortString[N]) int {
	return bytes.Compare(s.Bytes(), o.Bytes())
}

func (s ShortString[N]) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ShortString[N]) UnmarshalText(b []byte) error {
	*s = NewShortString[N](string(b))
	return nil
}

func (s ShortString[N]) Encode(e *wire.Encoder, name string, offset int) {
	e.Raw(name, offset, s.Bytes())
}

func DecodeShortString[N Width, M wire.Mode](d *wire.Decoder[M], name string, offset int) ShortString[N] {
	var out ShortString[N]
	copy(out.b[:], d.Bytes(name, offset, width[N]()))
	return out
}

// DecodeStock reads an 8-byte symbol.
func DecodeStock[M wire.Mode](d *wire.Decoder[M], name string, offset int) Stock {
	return DecodeShortString[W8](d, name, offset)
}
