package sync

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ETAnderson/skubridge/internal/domain"
	"github.com/ETAnderson/skubridge/internal/metrics"
	"github.com/ETAnderson/skubridge/internal/state"
)

// BatchWriter merges a batch of per-site updates into the shared store:
// one bulk read for the batch's SKUs, a per-site merge for each record,
// one bulk upsert. Callers treat errors as non-fatal; convergence is
// retried on the next run.
type BatchWriter struct {
	Store  state.Store
	Site   string
	Logger *log.Logger
}

func (w BatchWriter) UpsertBatch(ctx context.Context, updates []domain.ProductRecord) error {
	if len(updates) == 0 {
		return nil
	}

	start := time.Now()

	skus := make([]string, 0, len(updates))
	for _, u := range updates {
		skus = append(skus, u.SKU)
	}

	existing, err := w.Store.GetProductsBySKU(ctx, skus)
	if err != nil {
		return fmt.Errorf("read existing products: %w", err)
	}

	merged := make([]domain.ProductRecord, 0, len(updates))
	for _, u := range updates {
		merged = append(merged, domain.Merge(existing[u.SKU], u))
	}

	if err := w.Store.UpsertProducts(ctx, merged); err != nil {
		return fmt.Errorf("upsert products: %w", err)
	}

	metrics.RecordBatchFlush(w.Site, time.Since(start))
	if w.Logger != nil {
		w.Logger.Printf("[%s] wrote batch of %d products", w.Site, len(merged))
	}
	return nil
}
