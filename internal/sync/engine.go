package sync

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ETAnderson/skubridge/internal/domain"
	"github.com/ETAnderson/skubridge/internal/metrics"
	"github.com/ETAnderson/skubridge/internal/state"
	"github.com/ETAnderson/skubridge/internal/woo"
)

const (
	DefaultWorkers       = 10
	DefaultBatchSize     = 300
	DefaultProgressEvery = 50

	// JobID is the single job slot in the progress surface.
	JobID = "current"
)

// CatalogSource is one storefront's read-only catalog API.
type CatalogSource interface {
	Site() string
	ListAllProducts(ctx context.Context) ([]woo.Product, error)
	GetProduct(ctx context.Context, id int64) (woo.Product, error)
	GetVariations(ctx context.Context, productID int64) ([]woo.Variation, error)
	Ping(ctx context.Context) (int, error)
}

// Engine runs one site synchronization at a time: list the upstream
// catalog, enrich items through a fixed worker pool, accumulate results
// under a lock, flush in bounded batches, poll for cancellation.
type Engine struct {
	Store   state.Store
	Sources map[string]CatalogSource

	// Primary is the site that owns the canonical product fields.
	Primary string

	Workers       int
	BatchSize     int
	ProgressEvery int

	Reporter ProgressSink
	Cancel   CancelSource
	Logger   *log.Logger
}

// SiteReport summarizes one site's run.
type SiteReport struct {
	Site      string  `json:"site"`
	Total     int     `json:"total"`
	Success   int     `json:"success"`
	Failed    int     `json:"failed"`
	Cancelled bool    `json:"cancelled,omitempty"`
	Duration  float64 `json:"duration"`
	Error     string  `json:"error,omitempty"`
}

// Report aggregates a multi-site run.
type Report struct {
	Success       bool                  `json:"success"`
	Results       map[string]SiteReport `json:"results"`
	TotalDuration float64               `json:"total_duration"`
}

// SyncAll synchronizes the given sites strictly sequentially; there is no
// cross-site parallelism. Unknown sites are skipped with a log line. The
// caller decides the order (typically the configured registry order).
func (e *Engine) SyncAll(ctx context.Context, sites []string) (Report, error) {
	start := time.Now()
	report := Report{Success: true, Results: make(map[string]SiteReport, len(sites))}

	for _, site := range sites {
		if _, ok := e.Sources[site]; !ok {
			e.logf("skipping unknown site: %s", site)
			continue
		}

		siteReport, err := e.SyncSite(ctx, site)
		report.Results[site] = siteReport
		if err != nil {
			report.Success = false
		}
	}

	report.TotalDuration = time.Since(start).Seconds()
	return report, nil
}

// SyncSite runs the full synchronization for one site. A catalog listing
// failure is terminal (state "error"); everything downstream degrades to
// per-item failures. Cancellation is cooperative: polled every
// ProgressEvery completions, honored by refusing new dispatch, and the
// pending buffer is still flushed before the terminal state is written.
func (e *Engine) SyncSite(ctx context.Context, site string) (SiteReport, error) {
	src, ok := e.Sources[site]
	if !ok {
		return SiteReport{Site: site}, fmt.Errorf("unknown site: %s", site)
	}

	workers := e.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	batchSize := e.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	progressEvery := e.ProgressEvery
	if progressEvery <= 0 {
		progressEvery = DefaultProgressEvery
	}

	start := time.Now()
	report := SiteReport{Site: site}

	e.logf("[%s] starting full sync (%d workers)", site, workers)
	e.report(ctx, state.SyncProgressRecord{
		ID: JobID, Status: state.StatusRunning, Site: site,
		Message: fmt.Sprintf("listing catalog for %s", site),
	})

	items, err := src.ListAllProducts(ctx)
	if err != nil {
		e.logf("[%s] catalog listing failed: %v", site, err)
		e.report(ctx, state.SyncProgressRecord{
			ID: JobID, Status: state.StatusError, Site: site,
			Message: fmt.Sprintf("catalog listing failed: %v", err),
		})
		report.Error = err.Error()
		report.Duration = time.Since(start).Seconds()
		return report, err
	}

	total := len(items)
	report.Total = total

	if total == 0 {
		e.logf("[%s] no products found", site)
		e.report(ctx, state.SyncProgressRecord{
			ID: JobID, Status: state.StatusCompleted, Site: site,
			Message: "no products found",
		})
		report.Duration = time.Since(start).Seconds()
		return report, nil
	}

	e.logf("[%s] listed %d products", site, total)

	if e.isCancelled(ctx) {
		e.report(ctx, state.SyncProgressRecord{
			ID: JobID, Status: state.StatusCancelled, Site: site, Total: total,
			Message: "cancelled before processing",
		})
		report.Cancelled = true
		report.Duration = time.Since(start).Seconds()
		return report, nil
	}

	prog := NewProgress(total, batchSize)
	writer := BatchWriter{Store: e.Store, Site: site, Logger: e.Logger}
	enricher := Enricher{
		Site:       site,
		Primary:    site == e.Primary,
		Variations: src,
		Logger:     e.Logger,
	}

	e.report(ctx, state.SyncProgressRecord{
		ID: JobID, Status: state.StatusRunning, Site: site, Total: total,
		Message: fmt.Sprintf("processing %d products with %d workers", total, workers),
	})

	jobs := make(chan woo.Product)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				res := enricher.Enrich(ctx, p)
				if res.Skipped {
					continue
				}
				e.accumulate(ctx, prog, writer, progressEvery, res)
			}
		}()
	}

	// Dispatch refuses new work once the cancel flag is observed;
	// in-flight items run to completion and are still accumulated.
dispatch:
	for _, p := range items {
		if prog.Cancelled() {
			break
		}
		select {
		case <-ctx.Done():
			prog.Cancel()
			break dispatch
		case jobs <- p:
		}
	}
	close(jobs)
	wg.Wait()

	// The remaining pending buffer is flushed even on cancellation.
	if rest := prog.Drain(); len(rest) > 0 {
		if err := writer.UpsertBatch(ctx, rest); err != nil {
			e.logf("[%s] final batch write failed: %v", site, err)
		}
	}

	counts := prog.Counts()
	status := state.StatusCompleted
	if counts.Cancelled {
		status = state.StatusCancelled
	}

	duration := time.Since(start)
	e.report(ctx, state.SyncProgressRecord{
		ID: JobID, Status: status, Site: site,
		Current: counts.Completed, Total: total,
		Success: counts.Success, Failed: counts.Failed,
		Message: fmt.Sprintf("sync finished in %.1fs", duration.Seconds()),
	})
	e.logf("[%s] sync finished: %d/%d ok, %d failed (%.1fs)",
		site, counts.Success, total, counts.Failed, duration.Seconds())

	report.Success = counts.Success
	report.Failed = counts.Failed
	report.Cancelled = counts.Cancelled
	report.Duration = duration.Seconds()
	return report, nil
}

// ResyncProduct fetches one item by its upstream id and merges it through
// the regular write path. An explicit sku overrides the upstream value.
func (e *Engine) ResyncProduct(ctx context.Context, site, sku string, sourceID int64) error {
	src, ok := e.Sources[site]
	if !ok {
		return fmt.Errorf("unknown site: %s", site)
	}

	p, err := src.GetProduct(ctx, sourceID)
	if err != nil {
		return err
	}
	if sku != "" {
		p.SKU = sku
	}

	enricher := Enricher{
		Site:       site,
		Primary:    site == e.Primary,
		Variations: src,
		Logger:     e.Logger,
	}

	res := enricher.Enrich(ctx, p)
	if res.Skipped {
		return fmt.Errorf("product %d has no SKU", sourceID)
	}
	if res.Err != nil {
		return res.Err
	}

	writer := BatchWriter{Store: e.Store, Site: site, Logger: e.Logger}
	return writer.UpsertBatch(ctx, []domain.ProductRecord{*res.Update})
}

// Probe checks upstream connectivity for one site with a one-item page
// fetch and returns the item count.
func (e *Engine) Probe(ctx context.Context, site string) (int, error) {
	src, ok := e.Sources[site]
	if !ok {
		return 0, fmt.Errorf("unknown site: %s", site)
	}
	return src.Ping(ctx)
}

// accumulate folds one result into the shared progress state, flushes a
// swapped-out batch if the threshold was crossed, and checkpoints status
// plus the cancellation poll at the configured cadence.
func (e *Engine) accumulate(ctx context.Context, prog *Progress, writer BatchWriter, progressEvery int, res EnrichResult) {
	batch, counts := prog.Record(res)
	metrics.RecordEnriched(writer.Site, res.Err == nil)

	if batch != nil {
		if err := writer.UpsertBatch(ctx, batch); err != nil {
			e.logf("[%s] batch write failed: %v", writer.Site, err)
		}
	}

	if counts.Completed%progressEvery == 0 || counts.Completed == counts.Total {
		e.checkpoint(ctx, prog, writer.Site, counts)
	}
}

func (e *Engine) checkpoint(ctx context.Context, prog *Progress, site string, counts Counts) {
	if e.isCancelled(ctx) {
		prog.Cancel()
		e.logf("[%s] cancellation requested, stopping dispatch", site)
	}

	// Once cancelled, the job must not report itself as running again.
	if !prog.Cancelled() {
		e.report(ctx, state.SyncProgressRecord{
			ID: JobID, Status: state.StatusRunning, Site: site,
			Current: counts.Completed, Total: counts.Total,
			Success: counts.Success, Failed: counts.Failed,
			Message: fmt.Sprintf("progress: %d/%d", counts.Completed, counts.Total),
		})
	}

	e.logf("[%s] progress: %d/%d (ok %d, failed %d)",
		site, counts.Completed, counts.Total, counts.Success, counts.Failed)
}

func (e *Engine) isCancelled(ctx context.Context) bool {
	if e.Cancel == nil {
		return false
	}
	cancelled, err := e.Cancel.IsCancelled(ctx, JobID)
	if err != nil {
		return false
	}
	return cancelled
}

func (e *Engine) report(ctx context.Context, rec state.SyncProgressRecord) {
	if e.Reporter == nil {
		return
	}
	_ = e.Reporter.Update(ctx, rec)
}

func (e *Engine) logf(format string, args ...any) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
	}
}
