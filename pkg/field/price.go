// Package field holds the typed fields carried in market-data messages:
// fixed-point prices, space-padded strings, enumerated characters and
// timestamps.
package field

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/uhyunpark/mktfeed/pkg/wire"
)

// Price4 is a price with four implied decimal digits.
type Price4 uint32

// Price8 is a price with eight implied decimal digits.
type Price8 uint64

const (
	Price4Denom = 10000
	Price8Denom = 100000000
)

// MaxPrice4 is the largest price ITCH-5.0 allows for Price(4) fields. It
// doubles as the "no offer" sentinel.
const MaxPrice4 Price4 = 200000 * Price4Denom

// MaxPrice8 is the largest whole-dollar value that fits a Price(8) field.
const MaxPrice8 Price8 = (math.MaxUint64 / Price8Denom) * Price8Denom

func (p Price4) String() string { return formatFixed(uint64(p), Price4Denom, 4) }
func (p Price8) String() string { return formatFixed(uint64(p), Price8Denom, 8) }

func (p Price4) Decimal() decimal.Decimal { return decimal.New(int64(p), -4) }
func (p Price8) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(p)), -8)
}

func (p Price4) Float64() float64 { return float64(p) / Price4Denom }
func (p Price8) Float64() float64 { return float64(p) / Price8Denom }

// ParsePrice4 converts a decimal string such as "10.05" into a Price4.
// Digits past the fourth decimal are rejected, not rounded.
func ParsePrice4(s string) (Price4, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", s, err)
	}
	raw := d.Shift(4)
	if !raw.Equal(raw.Truncate(0)) {
		return 0, fmt.Errorf("parse price %q: more than 4 decimal places", s)
	}
	if raw.IsNegative() || raw.GreaterThan(decimal.New(math.MaxUint32, 0)) {
		return 0, fmt.Errorf("parse price %q: out of range", s)
	}
	return Price4(raw.IntPart()), nil
}

// MustPrice4 is ParsePrice4 for constants in tests and fixtures.
func MustPrice4(s string) Price4 {
	p, err := ParsePrice4(s)
	if err != nil {
		panic(err)
	}
	return p
}

func DecodePrice4[M wire.Mode](d *wire.Decoder[M], name string, offset int) Price4 {
	return Price4(d.U32(name, offset))
}

func DecodePrice8[M wire.Mode](d *wire.Decoder[M], name string, offset int) Price8 {
	return Price8(d.U64(name, offset))
}

func (p Price4) Encode(e *wire.Encoder, name string, offset int) { e.U32(name, offset, uint32(p)) }
func (p Price8) Encode(e *wire.Encoder, name string, offset int) { e.U64(name, offset, uint64(p)) }

func formatFixed(raw, denom uint64, digits int) string {
	frac := strconv.FormatUint(raw%denom, 10)
	for len(frac) < digits {
		frac = "0" + frac
	}
	return strconv.FormatUint(raw/denom, 10) + "." + frac
}
