package sync

import (
	"context"
	"log"
	"time"

	"github.com/ETAnderson/skubridge/internal/state"
)

// ProgressSink persists the externally observable job status.
type ProgressSink interface {
	Update(ctx context.Context, rec state.SyncProgressRecord) error
}

// CancelSource reports whether the job was cancelled out of band.
type CancelSource interface {
	IsCancelled(ctx context.Context, jobID string) (bool, error)
}

// StoreReporter implements both over the shared store. Reporting is
// best-effort: failures are logged and never affect the job outcome.
type StoreReporter struct {
	Store  state.Store
	Logger *log.Logger
}

func (r StoreReporter) Update(ctx context.Context, rec state.SyncProgressRecord) error {
	rec.UpdatedAt = time.Now().UTC()
	if err := r.Store.UpsertSyncProgress(ctx, rec); err != nil {
		if r.Logger != nil {
			r.Logger.Printf("progress update failed: %v", err)
		}
		return err
	}
	return nil
}

func (r StoreReporter) IsCancelled(ctx context.Context, jobID string) (bool, error) {
	rec, ok, err := r.Store.GetSyncProgress(ctx, jobID)
	if err != nil || !ok {
		return false, err
	}
	return rec.Status == state.StatusCancelled, nil
}
