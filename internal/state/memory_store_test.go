package state

import (
	"context"
	"testing"
	"time"

	"github.com/ETAnderson/skubridge/internal/domain"
)

func TestMemoryStore_ProductRoundtrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec := domain.ProductRecord{
		SKU:             "JF-1",
		Prices:          map[string]float64{"com": 59.99},
		StockQuantities: map[string]int{"com": 12},
		Content:         map[string]domain.SiteContent{"com": {Name: "Home Shirt"}},
		Name:            "Home Shirt",
		Categories:      []string{"Shirts"},
	}
	if err := s.UpsertProducts(ctx, []domain.ProductRecord{rec}); err != nil {
		t.Fatalf("UpsertProducts: %v", err)
	}

	got, err := s.GetProductsBySKU(ctx, []string{"JF-1", "JF-missing"})
	if err != nil {
		t.Fatalf("GetProductsBySKU: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one hit, got %d", len(got))
	}
	out := got["JF-1"]
	if out.Prices["com"] != 59.99 || out.Content["com"].Name != "Home Shirt" {
		t.Fatalf("roundtrip mangled record: %+v", out)
	}
}

func TestMemoryStore_CloneIsolation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec := domain.ProductRecord{
		SKU:    "JF-1",
		Prices: map[string]float64{"com": 10},
	}
	if err := s.UpsertProducts(ctx, []domain.ProductRecord{rec}); err != nil {
		t.Fatalf("UpsertProducts: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	rec.Prices["com"] = 999

	got, err := s.GetProductsBySKU(ctx, []string{"JF-1"})
	if err != nil {
		t.Fatalf("GetProductsBySKU: %v", err)
	}
	if got["JF-1"].Prices["com"] != 10 {
		t.Fatalf("store shares maps with callers: %+v", got["JF-1"])
	}

	// And mutating a read result must not change later reads.
	got["JF-1"].Prices["com"] = 777
	again, _ := s.GetProductsBySKU(ctx, []string{"JF-1"})
	if again["JF-1"].Prices["com"] != 10 {
		t.Fatalf("read results share maps with the store: %+v", again["JF-1"])
	}
}

func TestMemoryStore_SyncProgress(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, ok, err := s.GetSyncProgress(ctx, "current"); err != nil || ok {
		t.Fatalf("fresh store should have no progress: ok=%v err=%v", ok, err)
	}

	rec := SyncProgressRecord{
		ID:        "current",
		Status:    StatusRunning,
		Site:      "com",
		Current:   50,
		Total:     200,
		Success:   48,
		Failed:    2,
		Message:   "progress: 50/200",
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.UpsertSyncProgress(ctx, rec); err != nil {
		t.Fatalf("UpsertSyncProgress: %v", err)
	}

	got, ok, err := s.GetSyncProgress(ctx, "current")
	if err != nil || !ok {
		t.Fatalf("GetSyncProgress: ok=%v err=%v", ok, err)
	}
	if got.Status != StatusRunning || got.Current != 50 || got.Failed != 2 {
		t.Fatalf("unexpected record: %+v", got)
	}

	rec.Status = StatusCompleted
	rec.Current = 200
	if err := s.UpsertSyncProgress(ctx, rec); err != nil {
		t.Fatalf("UpsertSyncProgress: %v", err)
	}
	got, _, _ = s.GetSyncProgress(ctx, "current")
	if got.Status != StatusCompleted || got.Current != 200 {
		t.Fatalf("upsert did not replace: %+v", got)
	}
}
