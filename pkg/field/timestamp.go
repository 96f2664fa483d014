package field

import (
	"fmt"
	"time"

	"github.com/uhyunpark/mktfeed/pkg/wire"
)

// Timestamp is nanoseconds since midnight, carried as a 48-bit integer.
type Timestamp time.Duration

const fullDay = Timestamp(24 * time.Hour)

// DecodeTimestamp reads the 6-byte timestamp. Validated decoders reject
// values of 24 hours or more.
func DecodeTimestamp[M wire.Mode](d *wire.Decoder[M], name string, offset int) Timestamp {
	ts := Timestamp(d.U48(name, offset))
	if wire.Validates[M]() && d.Err() == nil && ts >= fullDay {
		d.Fail(&ValidationError{Field: name, Value: []byte(fmt.Sprint(int64(ts)))})
		return 0
	}
	return ts
}

func (t Timestamp) Encode(e *wire.Encoder, name string, offset int) {
	e.U48(name, offset, uint64(t))
}

func (t Timestamp) Duration() time.Duration { return time.Duration(t) }

// String renders HHMMSS.nnnnnnnnn.
func (t Timestamp) String() string {
	d := time.Duration(t)
	sec := int64(d / time.Second)
	nn := int64(d % time.Second)
	return fmt.Sprintf("%02d%02d%02d.%09d", sec/3600, sec/60%60, sec%60, nn)
}
