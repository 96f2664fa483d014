package storage

import (
	"encoding/binary"
	"fmt"
)

// Key schema:
//
//	q:<stock>:<timestamp>:<session>:<count> → QuoteRecord
//
// The timestamp is big-endian so keys of one stock sort by feed time.
const prefixQuote = "q:"

func quoteKey(r QuoteRecord) []byte {
	k := quotePrefix(r.Stock)
	k = binary.BigEndian.AppendUint64(k, uint64(r.Timestamp))
	k = fmt.Appendf(k, ":%s:", r.Session)
	return binary.BigEndian.AppendUint64(k, r.Count)
}

// quotePrefix returns the prefix for all records of a stock.
func quotePrefix(stock string) []byte {
	return []byte(fmt.Sprintf("%s%s:", prefixQuote, stock))
}

// keyUpperBound returns the exclusive upper bound for a prefix scan.
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
