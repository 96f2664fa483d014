package wire

import (
	"bytes"
	"errors"
	"testing"
)

func TestCheckOffset(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		offset  int
		n       int
		wantErr bool
	}{
		{"fits exactly", 8, 0, 8, false},
		{"fits at tail", 8, 6, 2, false},
		{"one past end", 8, 7, 2, true},
		{"offset at size", 8, 8, 1, true},
		{"zero width", 8, 0, 0, true},
		{"negative width", 8, 0, -1, true},
		{"negative offset", 8, -1, 1, true},
		{"empty buffer", 0, 0, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckOffset[Validated]("f", tt.size, tt.offset, tt.n)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckOffset() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var de *DecodeError
				if !errors.As(err, &de) {
					t.Fatalf("error %T is not *DecodeError", err)
				}
				if de.Field != "f" || de.Size != tt.size || de.Offset != tt.offset || de.Width != tt.n {
					t.Errorf("DecodeError = %+v", de)
				}
				if !errors.Is(err, ErrOutOfBounds) {
					t.Errorf("error does not wrap ErrOutOfBounds")
				}
			}
			if err := CheckOffset[Trusted]("f", tt.size, tt.offset, tt.n); err != nil {
				t.Errorf("CheckOffset[Trusted]() = %v, want nil", err)
			}
		})
	}
}

func TestDecodeShortBuffer(t *testing.T) {
	// every width must fail when the buffer ends one byte early
	tests := []struct {
		name   string
		width  int
		decode func(buf []byte, off int) error
	}{
		{"u8", 1, func(b []byte, o int) error { _, err := U8[Validated]("x", b, o); return err }},
		{"u16", 2, func(b []byte, o int) error { _, err := U16[Validated]("x", b, o); return err }},
		{"u32", 4, func(b []byte, o int) error { _, err := U32[Validated]("x", b, o); return err }},
		{"u48", 6, func(b []byte, o int) error { _, err := U48[Validated]("x", b, o); return err }},
		{"u64", 8, func(b []byte, o int) error { _, err := U64[Validated]("x", b, o); return err }},
		{"u16le", 2, func(b []byte, o int) error { _, err := U16LE[Validated]("x", b, o); return err }},
		{"u32le", 4, func(b []byte, o int) error { _, err := U32LE[Validated]("x", b, o); return err }},
		{"u64le", 8, func(b []byte, o int) error { _, err := U64LE[Validated]("x", b, o); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for off := 0; off < 4; off++ {
				buf := make([]byte, off+tt.width-1)
				err := tt.decode(buf, off)
				var de *DecodeError
				if !errors.As(err, &de) {
					t.Fatalf("offset %d: error = %v, want *DecodeError", off, err)
				}
				if de.Width != tt.width {
					t.Errorf("offset %d: Width = %d, want %d", off, de.Width, tt.width)
				}

				buf = make([]byte, off+tt.width)
				if err := tt.decode(buf, off); err != nil {
					t.Errorf("offset %d: in-bounds decode failed: %v", off, err)
				}
			}
		})
	}
}

func TestDecodeModesAgree(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a}

	v16, _ := U16[Validated]("x", buf, 1)
	t16, _ := U16[Trusted]("x", buf, 1)
	if v16 != 0x0203 || t16 != v16 {
		t.Errorf("U16 = %#x / %#x, want 0x0203", v16, t16)
	}

	v32, _ := U32[Validated]("x", buf, 0)
	t32, _ := U32[Trusted]("x", buf, 0)
	if v32 != 0x01020304 || t32 != v32 {
		t.Errorf("U32 = %#x / %#x, want 0x01020304", v32, t32)
	}

	v48, _ := U48[Validated]("x", buf, 2)
	t48, _ := U48[Trusted]("x", buf, 2)
	if v48 != 0x030405060708 || t48 != v48 {
		t.Errorf("U48 = %#x / %#x, want 0x030405060708", v48, t48)
	}

	v64, _ := U64[Validated]("x", buf, 2)
	t64, _ := U64[Trusted]("x", buf, 2)
	if v64 != 0x030405060708090a || t64 != v64 {
		t.Errorf("U64 = %#x / %#x", v64, t64)
	}

	le32, _ := U32LE[Validated]("x", buf, 0)
	if le32 != 0x04030201 {
		t.Errorf("U32LE = %#x, want 0x04030201", le32)
	}
}

func TestPutRoundTrip(t *testing.T) {
	buf := make([]byte, 16)
	if err := PutU16[Validated]("a", buf, 0, 0xbeef); err != nil {
		t.Fatal(err)
	}
	if err := PutU48[Validated]("b", buf, 2, 0x123456789abc); err != nil {
		t.Fatal(err)
	}
	if err := PutU64LE[Validated]("c", buf, 8, 0x1122334455667788); err != nil {
		t.Fatal(err)
	}

	want := []byte{0xbe, 0xef, 0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc,
		0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11}
	if !bytes.Equal(buf, want) {
		t.Fatalf("buf = % x, want % x", buf, want)
	}

	if err := PutU32[Validated]("d", buf, 14, 1); err == nil {
		t.Errorf("PutU32 past end: expected error")
	}
}

func TestDecoderStickyError(t *testing.T) {
	d := NewDecoder[Validated]([]byte{1, 2, 3})
	if got := d.U16("a", 0); got != 0x0102 {
		t.Errorf("U16 = %#x", got)
	}
	if got := d.U32("b", 1); got != 0 {
		t.Errorf("U32 past end = %d, want 0", got)
	}
	if got := d.U8("c", 0); got != 0 {
		t.Errorf("read after error = %d, want 0", got)
	}

	var de *DecodeError
	if !errors.As(d.Err(), &de) || de.Field != "b" {
		t.Fatalf("Err() = %v, want DecodeError for field b", d.Err())
	}
}

func TestEncoder(t *testing.T) {
	e := NewEncoder(make([]byte, 4))
	e.U8("a", 0, 'A')
	e.Raw("b", 1, []byte("xyz"))
	if e.Err() != nil {
		t.Fatalf("Err() = %v", e.Err())
	}
	if string(e.Bytes()) != "Axyz" {
		t.Errorf("Bytes() = %q", e.Bytes())
	}

	e.U16("c", 3, 1)
	if e.Err() == nil {
		t.Errorf("expected error writing past end")
	}
}
