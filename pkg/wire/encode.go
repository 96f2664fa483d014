package wire

import "encoding/binary"

func PutU8[M Mode](field string, buf []byte, offset int, v uint8) error {
	if err := CheckOffset[M](field, len(buf), offset, 1); err != nil {
		return err
	}
	buf[offset] = v
	return nil
}

func PutU16[M Mode](field string, buf []byte, offset int, v uint16) error {
	if err := CheckOffset[M](field, len(buf), offset, 2); err != nil {
		return err
	}
	binary.BigEndian.PutUint16(buf[offset:], v)
	return nil
}

func PutU32[M Mode](field string, buf []byte, offset int, v uint32) error {
	if err := CheckOffset[M](field, len(buf), offset, 4); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(buf[offset:], v)
	return nil
}

// PutU48 writes the low 48 bits of v as a 6-byte big-endian integer.
func PutU48[M Mode](field string, buf []byte, offset int, v uint64) error {
	if err := CheckOffset[M](field, len(buf), offset, 6); err != nil {
		return err
	}
	binary.BigEndian.PutUint16(buf[offset:], uint16(v>>32))
	binary.BigEndian.PutUint32(buf[offset+2:], uint32(v))
	return nil
}

func PutU64[M Mode](field string, buf []byte, offset int, v uint64) error {
	if err := CheckOffset[M](field, len(buf), offset, 8); err != nil {
		return err
	}
	binary.BigEndian.PutUint64(buf[offset:], v)
	return nil
}

func PutU16LE[M Mode](field string, buf []byte, offset int, v uint16) error {
	if err := CheckOffset[M](field, len(buf), offset, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(buf[offset:], v)
	return nil
}

func PutU32LE[M Mode](field string, buf []byte, offset int, v uint32) error {
	if err := CheckOffset[M](field, len(buf), offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(buf[offset:], v)
	return nil
}

func PutU64LE[M Mode](field string, buf []byte, offset int, v uint64) error {
	if err := CheckOffset[M](field, len(buf), offset, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(buf[offset:], v)
	return nil
}

// Encoder writes fields into a preallocated message buffer. Writes are
// always bounds-checked; the first failure is kept and later writes are
// dropped.
type Encoder struct {
	buf []byte
	err error
}

func NewEncoder(buf []byte) *Encoder {
	return &Encoder{buf: buf}
}

// Bytes returns the buffer being written.
func (e *Encoder) Bytes() []byte { return e.buf }

func (e *Encoder) Err() error { return e.err }

func (e *Encoder) keep(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *Encoder) U8(field string, offset int, v uint8) {
	if e.err == nil {
		e.keep(PutU8[Validated](field, e.buf, offset, v))
	}
}

func (e *Encoder) U16(field string, offset int, v uint16) {
	if e.err == nil {
		e.keep(PutU16[Validated](field, e.buf, offset, v))
	}
}

func (e *Encoder) U32(field string, offset int, v uint32) {
	if e.err == nil {
		e.keep(PutU32[Validated](field, e.buf, offset, v))
	}
}

func (e *Encoder) U48(field string, offset int, v uint64) {
	if e.err == nil {
		e.keep(PutU48[Validated](field, e.buf, offset, v))
	}
}

func (e *Encoder) U64(field string, offset int, v uint64) {
	if e.err == nil {
		e.keep(PutU64[Validated](field, e.buf, offset, v))
	}
}

func (e *Encoder) U16LE(field string, offset int, v uint16) {
	if e.err == nil {
		e.keep(PutU16LE[Validated](field, e.buf, offset, v))
	}
}

func (e *Encoder) U32LE(field string, offset int, v uint32) {
	if e.err == nil {
		e.keep(PutU32LE[Validated](field, e.buf, offset, v))
	}
}

func (e *Encoder) U64LE(field string, offset int, v uint64) {
	if e.err == nil {
		e.keep(PutU64LE[Validated](field, e.buf, offset, v))
	}
}

// Raw copies b into the buffer at offset.
func (e *Encoder) Raw(field string, offset int, b []byte) {
	if e.err != nil {
		return
	}
	if err := CheckOffset[Validated](field, len(e.buf), offset, len(b)); err != nil {
		e.err = err
		return
	}
	copy(e.buf[offset:], b)
}
