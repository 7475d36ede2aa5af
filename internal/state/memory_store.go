package state

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ETAnderson/skubridge/internal/domain"
)

type MemoryStore struct {
	mu sync.RWMutex

	products map[string]domain.ProductRecord // sku -> record
	progress map[string]SyncProgressRecord   // id -> record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]domain.ProductRecord),
		progress: make(map[string]SyncProgressRecord),
	}
}

func (s *MemoryStore) GetProductsBySKU(ctx context.Context, skus []string) (map[string]domain.ProductRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.ProductRecord, len(skus))
	for _, sku := range skus {
		rec, ok := s.products[sku]
		if !ok {
			continue
		}
		out[sku] = cloneRecord(rec)
	}
	return out, nil
}

func (s *MemoryStore) UpsertProducts(ctx context.Context, records []domain.ProductRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		s.products[rec.SKU] = cloneRecord(rec)
	}
	return nil
}

func (s *MemoryStore) GetSyncProgress(ctx context.Context, id string) (SyncProgressRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.progress[id]
	if !ok {
		return SyncProgressRecord{}, false, nil
	}
	return rec, true, nil
}

func (s *MemoryStore) UpsertSyncProgress(ctx context.Context, rec SyncProgressRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.progress[rec.ID] = rec
	return nil
}

// cloneRecord deep-copies through JSON so callers never share maps or
// slices with the store.
func cloneRecord(rec domain.ProductRecord) domain.ProductRecord {
	b, err := json.Marshal(rec)
	if err != nil {
		return rec
	}
	var out domain.ProductRecord
	if err := json.Unmarshal(b, &out); err != nil {
		return rec
	}
	return out
}
