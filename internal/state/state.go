package state

import (
	"context"
	"time"

	"github.com/ETAnderson/skubridge/internal/domain"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusError     = "error"
	StatusCancelled = "cancelled"
)

// SyncProgressRecord is the externally observable status row for the
// single sync job slot. An out-of-band control surface flips Status to
// "cancelled" to request cooperative cancellation.
type SyncProgressRecord struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"` // running | completed | error | cancelled
	Site      string    `json:"site"`
	Current   int       `json:"current"`
	Total     int       `json:"total"`
	Success   int       `json:"success"`
	Failed    int       `json:"failed"`
	Message   string    `json:"message"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Store interface {
	// Shared product records, keyed by SKU. GetProductsBySKU returns only
	// the records that exist; UpsertProducts is create-or-replace-by-key.
	GetProductsBySKU(ctx context.Context, skus []string) (map[string]domain.ProductRecord, error)
	UpsertProducts(ctx context.Context, records []domain.ProductRecord) error

	// Job status surface, also polled for cancellation.
	GetSyncProgress(ctx context.Context, id string) (SyncProgressRecord, bool, error)
	UpsertSyncProgress(ctx context.Context, rec SyncProgressRecord) error
}
