package storage

import (
	"fmt"

	"github.com/cockroachdb/pebble"
)

type PebbleStore struct {
	db *pebble.DB
}

func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Close() error { return s.db.Close() }

// Append journals a record. Writes are not synced; a crash may lose the
// tail of the journal but never corrupts it.
func (s *PebbleStore) Append(rec QuoteRecord) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}
	if err := s.db.Set(quoteKey(rec), data, pebble.NoSync); err != nil {
		return fmt.Errorf("failed to save quote: %w", err)
	}
	return nil
}

// Recent loads the most recent records for a stock, newest first.
func (s *PebbleStore) Recent(stock string, limit int) ([]QuoteRecord, error) {
	prefix := quotePrefix(stock)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []QuoteRecord
	for iter.Last(); iter.Valid() && len(out) < limit; iter.Prev() {
		rec, err := decodeRecord(iter.Value())
		if err != nil {
			continue // skip invalid entries
		}
		out = append(out, rec)
	}
	return out, iter.Error()
}

// Flush forces buffered writes to disk.
func (s *PebbleStore) Flush() error { return s.db.Flush() }

var _ QuoteStore = (*PebbleStore)(nil)
