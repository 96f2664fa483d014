// Package stream cuts recorded feed files into messages.
//
// ITCH-5.0 files use the NASDAQ binary file layout: every message is
// preceded by its length as a two-byte big-endian integer. PITCH-2.x
// captures are a sequence of sequenced units, each an eight-byte header
// followed by its messages, which carry their own one-byte length.
package stream

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/uhyunpark/mktfeed/pkg/wire"
)

// Frame is one message cut from a stream. Offset is the byte position of
// the message itself, past any framing.
type Frame struct {
	Count    uint64
	Offset   uint64
	Unit     uint8
	Sequence uint32
	Msg      []byte
}

// FrameFunc receives each frame. Msg is only valid during the call.
type FrameFunc func(Frame) error

const UnitHeaderSize = 8

// ReadITCH reads length-prefixed messages from r until EOF. EOF on a
// message boundary ends the stream cleanly; anywhere else it is a
// *wire.DecodeError. The context is checked between messages.
func ReadITCH(ctx context.Context, r io.Reader, fn FrameFunc) error {
	br := bufio.NewReaderSize(r, 1<<16)
	var (
		blen   [2]byte
		buf    = make([]byte, 1<<16)
		offset uint64
	)
	for count := uint64(0); ; count++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := io.ReadFull(br, blen[:])
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return truncated("length", n, 2, err)
		}
		offset += 2

		size := int(binary.BigEndian.Uint16(blen[:]))
		if n, err := io.ReadFull(br, buf[:size]); err != nil {
			return truncated("message", n, size, err)
		}
		if err := fn(Frame{Count: count, Offset: offset, Msg: buf[:size]}); err != nil {
			return err
		}
		offset += uint64(size)
	}
}

// ReadPITCH reads sequenced units from r. The unit header is the unit
// length (u16 LE, header included), message count (u8), unit number (u8)
// and sequence number of the first message (u32 LE).
func ReadPITCH(ctx context.Context, r io.Reader, fn FrameFunc) error {
	br := bufio.NewReaderSize(r, 1<<16)
	var (
		hdr    [UnitHeaderSize]byte
		buf    = make([]byte, 1<<16)
		offset uint64
		count  uint64
	)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := io.ReadFull(br, hdr[:])
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return truncated("unit_header", n, UnitHeaderSize, err)
		}
		offset += UnitHeaderSize

		length := int(binary.LittleEndian.Uint16(hdr[0:2]))
		msgs := int(hdr[2])
		unit := hdr[3]
		seq := binary.LittleEndian.Uint32(hdr[4:8])
		if length < UnitHeaderSize {
			return &wire.DecodeError{Field: "unit_length", Size: length, Offset: 0, Width: UnitHeaderSize}
		}
		body := buf[:length-UnitHeaderSize]
		if n, err := io.ReadFull(br, body); err != nil {
			return truncated("unit_body", n, len(body), err)
		}

		pos := 0
		for i := 0; i < msgs; i++ {
			if err := wire.CheckOffset[wire.Validated]("message_length", len(body), pos, 1); err != nil {
				return err
			}
			size := int(body[pos])
			if err := wire.CheckOffset[wire.Validated]("message", len(body), pos, size); err != nil {
				return err
			}
			f := Frame{
				Count:    count,
				Offset:   offset + uint64(pos),
				Unit:     unit,
				Sequence: seq + uint32(i),
				Msg:      body[pos : pos+size],
			}
			if err := fn(f); err != nil {
				return err
			}
			count++
			pos += size
		}
		offset += uint64(len(body))
	}
}

func truncated(field string, got, want int, err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return &wire.DecodeError{Field: field, Size: got, Offset: 0, Width: want}
	}
	return err
}

// Open opens a feed file, decompressing it when the name ends in .gz.
func Open(path string) (io.ReadCloser, error) { return OpenTee(path, nil) }

// OpenTee is Open, also copying the raw file bytes to w as they are
// read. w may be nil.
func OpenTee(path string, w io.Writer) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	var raw io.Reader = f
	if w != nil {
		raw = io.TeeReader(f, w)
	}
	if !strings.HasSuffix(path, ".gz") {
		return struct {
			io.Reader
			io.Closer
		}{raw, f}, nil
	}
	zr, err := gzip.NewReader(bufio.NewReader(raw))
	if err != nil {
		f.Close()
		return nil, err
	}
	return &gzipFile{Reader: zr, f: f}, nil
}

type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	err := g.Reader.Close()
	if cerr := g.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// AppendITCH appends msg with its length prefix.
func AppendITCH(dst, msg []byte) []byte {
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(msg)))
	return append(dst, msg...)
}

// AppendPITCHUnit appends one sequenced unit holding msgs.
func AppendPITCHUnit(dst []byte, unit uint8, seq uint32, msgs ...[]byte) []byte {
	length := UnitHeaderSize
	for _, m := range msgs {
		length += len(m)
	}
	dst = binary.LittleEndian.AppendUint16(dst, uint16(length))
	dst = append(dst, uint8(len(msgs)), unit)
	dst = binary.LittleEndian.AppendUint32(dst, seq)
	for _, m := range msgs {
		dst = append(dst, m...)
	}
	return dst
}
