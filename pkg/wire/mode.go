// Package wire decodes and encodes the fixed-width integers that make up
// exchange market-data messages.
//
// Every primitive is parameterized by a Mode. Validated instantiations
// bounds-check each access and return a *DecodeError on violation; Trusted
// instantiations skip the check entirely and are meant for buffers whose
// length has already been established by the framing layer. The choice is
// made when the function is instantiated, not at run time:
//
//	v, err := wire.U32[wire.Validated]("shares", buf, 20)
package wire

// Validated selects bounds-checked decoding.
type Validated struct{}

// Trusted selects unchecked decoding. The distinct underlying type keeps
// the compiler from sharing one instantiation between the two modes.
type Trusted struct{ _ [0]byte }

// Mode is satisfied by exactly Validated and Trusted.
type Mode interface {
	Validated | Trusted
	validates() bool
}

func (Validated) validates() bool { return true }
func (Trusted) validates() bool   { return false }

// Validates reports whether mode M checks bounds and field domains.
func Validates[M Mode]() bool {
	var m M
	return m.validates()
}
