package storage

import "sync"

// MemoryStore keeps the last few records of every stock.
type MemoryStore struct {
	mu       sync.Mutex
	perStock int
	quotes   map[string][]QuoteRecord
}

func NewMemoryStore(perStock int) *MemoryStore {
	if perStock <= 0 {
		perStock = 1024
	}
	return &MemoryStore{perStock: perStock, quotes: make(map[string][]QuoteRecord)}
}

func (s *MemoryStore) Append(rec QuoteRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	qs := append(s.quotes[rec.Stock], rec)
	if len(qs) > s.perStock {
		qs = qs[len(qs)-s.perStock:]
	}
	s.quotes[rec.Stock] = qs
	return nil
}

func (s *MemoryStore) Recent(stock string, limit int) ([]QuoteRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		return nil, nil
	}
	qs := s.quotes[stock]
	out := make([]QuoteRecord, 0, min(limit, len(qs)))
	for i := len(qs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, qs[i])
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ QuoteStore = (*MemoryStore)(nil)
