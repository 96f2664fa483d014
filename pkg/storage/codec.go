package storage

import "encoding/json"

func encodeRecord(r QuoteRecord) ([]byte, error) { return json.Marshal(r) }

func decodeRecord(b []byte) (QuoteRecord, error) {
	var r QuoteRecord
	err := json.Unmarshal(b, &r)
	return r, err
}
