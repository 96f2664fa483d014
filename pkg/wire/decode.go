package wire

import "encoding/binary"

// U8 reads one byte at offset.
func U8[M Mode](field string, buf []byte, offset int) (uint8, error) {
	if err := CheckOffset[M](field, len(buf), offset, 1); err != nil {
		return 0, err
	}
	return buf[offset], nil
}

// U16 reads a big-endian uint16 at offset.
func U16[M Mode](field string, buf []byte, offset int) (uint16, error) {
	if err := CheckOffset[M](field, len(buf), offset, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[offset:]), nil
}

// U32 reads a big-endian uint32 at offset.
func U32[M Mode](field string, buf []byte, offset int) (uint32, error) {
	if err := CheckOffset[M](field, len(buf), offset, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[offset:]), nil
}

// U48 reads a 6-byte big-endian integer at offset: the high 16 bits
// followed by the low 32 bits.
func U48[M Mode](field string, buf []byte, offset int) (uint64, error) {
	if err := CheckOffset[M](field, len(buf), offset, 6); err != nil {
		return 0, err
	}
	hi := binary.BigEndian.Uint16(buf[offset:])
	lo := binary.BigEndian.Uint32(buf[offset+2:])
	return uint64(hi)<<32 | uint64(lo), nil
}

// U64 reads a big-endian uint64 at offset.
func U64[M Mode](field string, buf []byte, offset int) (uint64, error) {
	if err := CheckOffset[M](field, len(buf), offset, 8); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[offset:]), nil
}

// U16LE reads a little-endian uint16 at offset.
func U16LE[M Mode](field string, buf []byte, offset int) (uint16, error) {
	if err := CheckOffset[M](field, len(buf), offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[offset:]), nil
}

// U32LE reads a little-endian uint32 at offset.
func U32LE[M Mode](field string, buf []byte, offset int) (uint32, error) {
	if err := CheckOffset[M](field, len(buf), offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[offset:]), nil
}

// U64LE reads a little-endian uint64 at offset.
func U64LE[M Mode](field string, buf []byte, offset int) (uint64, error) {
	if err := CheckOffset[M](field, len(buf), offset, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[offset:]), nil
}

// Decoder reads fields out of a single message buffer and remembers the
// first error, so a message decoder can read every field and check once.
// After an error all reads return zero values.
type Decoder[M Mode] struct {
	buf []byte
	err error
}

func NewDecoder[M Mode](buf []byte) *Decoder[M] {
	return &Decoder[M]{buf: buf}
}

// Err returns the first error seen by the decoder.
func (d *Decoder[M]) Err() error { return d.err }

// Fail records err unless an earlier error is already held.
func (d *Decoder[M]) Fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

// Len is the size of the underlying buffer.
func (d *Decoder[M]) Len() int { return len(d.buf) }

func (d *Decoder[M]) ok(field string, offset, n int) bool {
	if d.err != nil {
		return false
	}
	if err := CheckOffset[M](field, len(d.buf), offset, n); err != nil {
		d.err = err
		return false
	}
	return true
}

func (d *Decoder[M]) U8(field string, offset int) uint8 {
	if !d.ok(field, offset, 1) {
		return 0
	}
	return d.buf[offset]
}

func (d *Decoder[M]) U16(field string, offset int) uint16 {
	if !d.ok(field, offset, 2) {
		return 0
	}
	return binary.BigEndian.Uint16(d.buf[offset:])
}

func (d *Decoder[M]) U32(field string, offset int) uint32 {
	if !d.ok(field, offset, 4) {
		return 0
	}
	return binary.BigEndian.Uint32(d.buf[offset:])
}

func (d *Decoder[M]) U48(field string, offset int) uint64 {
	if !d.ok(field, offset, 6) {
		return 0
	}
	return uint64(binary.BigEndian.Uint16(d.buf[offset:]))<<32 |
		uint64(binary.BigEndian.Uint32(d.buf[offset+2:]))
}

func (d *Decoder[M]) U64(field string, offset int) uint64 {
	if !d.ok(field, offset, 8) {
		return 0
	}
	return binary.BigEndian.Uint64(d.buf[offset:])
}

func (d *Decoder[M]) U16LE(field string, offset int) uint16 {
	if !d.ok(field, offset, 2) {
		return 0
	}
	return binary.LittleEndian.Uint16(d.buf[offset:])
}

func (d *Decoder[M]) U32LE(field string, offset int) uint32 {
	if !d.ok(field, offset, 4) {
		return 0
	}
	return binary.LittleEndian.Uint32(d.buf[offset:])
}

func (d *Decoder[M]) U64LE(field string, offset int) uint64 {
	if !d.ok(field, offset, 8) {
		return 0
	}
	return binary.LittleEndian.Uint64(d.buf[offset:])
}

// Bytes returns the n bytes at offset without copying.
func (d *Decoder[M]) Bytes(field string, offset, n int) []byte {
	if !d.ok(field, offset, n) {
		return nil
	}
	return d.buf[offset : offset+n]
}
