package sync

import (
	"context"
	"errors"
	"fmt"
	stdsync "sync"
	"testing"

	"github.com/ETAnderson/skubridge/internal/domain"
	"github.com/ETAnderson/skubridge/internal/state"
	"github.com/ETAnderson/skubridge/internal/woo"
)

type fakeCatalog struct {
	site     string
	products []woo.Product
	listErr  error
	pingErr  error
}

func (f *fakeCatalog) Site() string { return f.site }

func (f *fakeCatalog) ListAllProducts(ctx context.Context) ([]woo.Product, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.products, nil
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id int64) (woo.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return woo.Product{}, fmt.Errorf("product %d not found", id)
}

func (f *fakeCatalog) GetVariations(ctx context.Context, productID int64) ([]woo.Variation, error) {
	return nil, nil
}

func (f *fakeCatalog) Ping(ctx context.Context) (int, error) {
	if f.pingErr != nil {
		return 0, f.pingErr
	}
	return len(f.products), nil
}

// fakeCancel flips to cancelled after a fixed number of polls. The
// pre-dispatch check counts as the first poll.
type fakeCancel struct {
	mu          stdsync.Mutex
	polls       int
	cancelAfter int
}

func (f *fakeCancel) IsCancelled(ctx context.Context, jobID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	return f.polls > f.cancelAfter, nil
}

func makeProducts(n int) []woo.Product {
	out := make([]woo.Product, 0, n)
	for i := 1; i <= n; i++ {
		q := 10
		out = append(out, woo.Product{
			ID:            int64(i),
			SKU:           fmt.Sprintf("SKU-%03d", i),
			Type:          "simple",
			Status:        "publish",
			Name:          fmt.Sprintf("Product %d", i),
			Price:         "10.00",
			RegularPrice:  "12.00",
			StockQuantity: &q,
			StockStatus:   "instock",
		})
	}
	return out
}

func newTestEngine(store state.Store, sources ...*fakeCatalog) *Engine {
	m := make(map[string]CatalogSource, len(sources))
	for _, s := range sources {
		m[s.site] = s
	}
	return &Engine{
		Store:         store,
		Sources:       m,
		Primary:       "com",
		Workers:       4,
		BatchSize:     7,
		ProgressEvery: 5,
		Reporter:      StoreReporter{Store: store},
		Cancel:        StoreReporter{Store: store},
	}
}

func storedProducts(t *testing.T, store state.Store, n int) map[string]domain.ProductRecord {
	t.Helper()
	skus := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		skus = append(skus, fmt.Sprintf("SKU-%03d", i))
	}
	got, err := store.GetProductsBySKU(context.Background(), skus)
	if err != nil {
		t.Fatalf("GetProductsBySKU: %v", err)
	}
	return got
}

func TestSyncSite_CompletesAndPersists(t *testing.T) {
	store := state.NewMemoryStore()
	e := newTestEngine(store, &fakeCatalog{site: "com", products: makeProducts(20)})

	report, err := e.SyncSite(context.Background(), "com")
	if err != nil {
		t.Fatalf("SyncSite: %v", err)
	}
	if report.Total != 20 || report.Success != 20 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	got := storedProducts(t, store, 20)
	if len(got) != 20 {
		t.Fatalf("expected 20 stored products, got %d", len(got))
	}
	rec := got["SKU-001"]
	if rec.Prices["com"] != 10 || rec.StockQuantities["com"] != 10 {
		t.Fatalf("unexpected stored record: %+v", rec)
	}
	if rec.Name != "Product 1" {
		t.Fatalf("primary site should own the canonical name: %+v", rec)
	}

	prog, ok, err := store.GetSyncProgress(context.Background(), JobID)
	if err != nil || !ok {
		t.Fatalf("missing progress record: %v", err)
	}
	if prog.Status != state.StatusCompleted || prog.Current != 20 || prog.Success != 20 {
		t.Fatalf("unexpected terminal progress: %+v", prog)
	}
}

func TestSyncSite_PreservesForeignSiteData(t *testing.T) {
	store := state.NewMemoryStore()
	seed := domain.ProductRecord{
		SKU:             "SKU-001",
		Prices:          map[string]float64{"uk": 8.5},
		StockQuantities: map[string]int{"uk": 3},
		SyncStatus:      map[string]string{"uk": "synced"},
	}
	if err := store.UpsertProducts(context.Background(), []domain.ProductRecord{seed}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	e := newTestEngine(store, &fakeCatalog{site: "com", products: makeProducts(1)})
	if _, err := e.SyncSite(context.Background(), "com"); err != nil {
		t.Fatalf("SyncSite: %v", err)
	}

	got := storedProducts(t, store, 1)["SKU-001"]
	if got.Prices["uk"] != 8.5 || got.StockQuantities["uk"] != 3 {
		t.Fatalf("foreign site data lost: %+v", got)
	}
	if got.Prices["com"] != 10 {
		t.Fatalf("own site data missing: %+v", got)
	}
}

func TestSyncSite_NonPrimaryLeavesCanonicalFields(t *testing.T) {
	store := state.NewMemoryStore()
	seed := domain.ProductRecord{SKU: "SKU-001", Name: "Canonical Name", Categories: []string{"Shirts"}}
	if err := store.UpsertProducts(context.Background(), []domain.ProductRecord{seed}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	e := newTestEngine(store, &fakeCatalog{site: "uk", products: makeProducts(1)})
	if _, err := e.SyncSite(context.Background(), "uk"); err != nil {
		t.Fatalf("SyncSite: %v", err)
	}

	got := storedProducts(t, store, 1)["SKU-001"]
	if got.Name != "Canonical Name" || len(got.Categories) != 1 {
		t.Fatalf("non-primary run touched canonical fields: %+v", got)
	}
	if got.Prices["uk"] != 10 {
		t.Fatalf("own site data missing: %+v", got)
	}
}

func TestSyncSite_ListingFailureIsTerminal(t *testing.T) {
	store := state.NewMemoryStore()
	e := newTestEngine(store, &fakeCatalog{site: "com", listErr: errors.New("upstream down")})

	_, err := e.SyncSite(context.Background(), "com")
	if err == nil {
		t.Fatalf("expected error")
	}

	prog, ok, _ := store.GetSyncProgress(context.Background(), JobID)
	if !ok || prog.Status != state.StatusError {
		t.Fatalf("unexpected progress: %+v", prog)
	}
}

func TestSyncSite_EmptyCatalog(t *testing.T) {
	store := state.NewMemoryStore()
	e := newTestEngine(store, &fakeCatalog{site: "com"})

	report, err := e.SyncSite(context.Background(), "com")
	if err != nil {
		t.Fatalf("SyncSite: %v", err)
	}
	if report.Total != 0 || report.Success != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	prog, ok, _ := store.GetSyncProgress(context.Background(), JobID)
	if !ok || prog.Status != state.StatusCompleted {
		t.Fatalf("unexpected progress: %+v", prog)
	}
}

func TestSyncSite_UnknownSite(t *testing.T) {
	e := newTestEngine(state.NewMemoryStore())
	if _, err := e.SyncSite(context.Background(), "de"); err == nil {
		t.Fatalf("expected error for unknown site")
	}
}

func TestSyncSite_PerItemFailuresDoNotAbort(t *testing.T) {
	store := state.NewMemoryStore()
	products := makeProducts(10)
	products[3].Price = "not-a-number"
	products[3].RegularPrice = ""
	e := newTestEngine(store, &fakeCatalog{site: "com", products: products})

	report, err := e.SyncSite(context.Background(), "com")
	if err != nil {
		t.Fatalf("per-item failure must not fail the run: %v", err)
	}
	if report.Success != 9 || report.Failed != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}

	prog, _, _ := store.GetSyncProgress(context.Background(), JobID)
	if prog.Status != state.StatusCompleted || prog.Failed != 1 {
		t.Fatalf("unexpected progress: %+v", prog)
	}
}

func TestSyncSite_SkipsItemsWithoutSKU(t *testing.T) {
	store := state.NewMemoryStore()
	products := makeProducts(5)
	products[2].SKU = ""
	e := newTestEngine(store, &fakeCatalog{site: "com", products: products})

	report, err := e.SyncSite(context.Background(), "com")
	if err != nil {
		t.Fatalf("SyncSite: %v", err)
	}
	if report.Success != 4 || report.Failed != 0 {
		t.Fatalf("skipped item should not count either way: %+v", report)
	}
}

func TestSyncSite_Cancellation(t *testing.T) {
	store := state.NewMemoryStore()
	e := newTestEngine(store, &fakeCatalog{site: "com", products: makeProducts(40)})
	e.Workers = 2
	e.BatchSize = 1000 // only the final drain writes
	e.Cancel = &fakeCancel{cancelAfter: 1}

	report, err := e.SyncSite(context.Background(), "com")
	if err != nil {
		t.Fatalf("SyncSite: %v", err)
	}
	if !report.Cancelled {
		t.Fatalf("expected cancelled report: %+v", report)
	}

	completed := report.Success + report.Failed
	if completed < e.ProgressEvery || completed >= 40 {
		t.Fatalf("expected partial completion, got %d", completed)
	}

	// The pending buffer must still reach the store on cancellation.
	got := storedProducts(t, store, 40)
	if len(got) != report.Success {
		t.Fatalf("drain flush lost records: stored %d, success %d", len(got), report.Success)
	}

	prog, _, _ := store.GetSyncProgress(context.Background(), JobID)
	if prog.Status != state.StatusCancelled {
		t.Fatalf("unexpected terminal status: %+v", prog)
	}
}

func TestSyncSite_CancelledBeforeProcessing(t *testing.T) {
	store := state.NewMemoryStore()
	e := newTestEngine(store, &fakeCatalog{site: "com", products: makeProducts(5)})
	e.Cancel = &fakeCancel{cancelAfter: 0}

	report, err := e.SyncSite(context.Background(), "com")
	if err != nil {
		t.Fatalf("SyncSite: %v", err)
	}
	if !report.Cancelled || report.Success != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if got := storedProducts(t, store, 5); len(got) != 0 {
		t.Fatalf("no writes expected before processing: %d", len(got))
	}
}

func TestSyncSite_Idempotent(t *testing.T) {
	store := state.NewMemoryStore()
	e := newTestEngine(store, &fakeCatalog{site: "com", products: makeProducts(10)})

	first, err := e.SyncSite(context.Background(), "com")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := e.SyncSite(context.Background(), "com")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.Success != second.Success || second.Success != 10 {
		t.Fatalf("runs diverged: %+v vs %+v", first, second)
	}
	if got := storedProducts(t, store, 10); len(got) != 10 {
		t.Fatalf("expected 10 products after rerun, got %d", len(got))
	}
}

func TestSyncAll_SkipsUnknownSites(t *testing.T) {
	store := state.NewMemoryStore()
	e := newTestEngine(store,
		&fakeCatalog{site: "com", products: makeProducts(3)},
		&fakeCatalog{site: "uk", products: makeProducts(3)},
	)

	report, err := e.SyncAll(context.Background(), []string{"com", "nosuch", "uk"})
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if !report.Success {
		t.Fatalf("expected success: %+v", report)
	}
	if len(report.Results) != 2 {
		t.Fatalf("unknown site should be skipped: %+v", report.Results)
	}
}

func TestSyncAll_SiteFailureMarksRun(t *testing.T) {
	store := state.NewMemoryStore()
	e := newTestEngine(store,
		&fakeCatalog{site: "com", products: makeProducts(3)},
		&fakeCatalog{site: "uk", listErr: errors.New("down")},
	)

	report, err := e.SyncAll(context.Background(), []string{"com", "uk"})
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if report.Success {
		t.Fatalf("listing failure should mark the run: %+v", report)
	}
	if report.Results["com"].Success != 3 {
		t.Fatalf("healthy site should still complete: %+v", report.Results["com"])
	}
}

func TestResyncProduct(t *testing.T) {
	store := state.NewMemoryStore()
	e := newTestEngine(store, &fakeCatalog{site: "com", products: makeProducts(3)})

	if err := e.ResyncProduct(context.Background(), "com", "", 2); err != nil {
		t.Fatalf("ResyncProduct: %v", err)
	}
	got := storedProducts(t, store, 3)
	if _, ok := got["SKU-002"]; !ok {
		t.Fatalf("resynced product missing: %v", got)
	}
	if len(got) != 1 {
		t.Fatalf("resync should touch a single product: %d", len(got))
	}
}

func TestResyncProduct_SKUOverride(t *testing.T) {
	store := state.NewMemoryStore()
	e := newTestEngine(store, &fakeCatalog{site: "com", products: makeProducts(3)})

	if err := e.ResyncProduct(context.Background(), "com", "CUSTOM-1", 1); err != nil {
		t.Fatalf("ResyncProduct: %v", err)
	}
	got, err := store.GetProductsBySKU(context.Background(), []string{"CUSTOM-1"})
	if err != nil || len(got) != 1 {
		t.Fatalf("override sku not stored: %v %v", got, err)
	}
}

func TestProbe(t *testing.T) {
	e := newTestEngine(state.NewMemoryStore(), &fakeCatalog{site: "com", products: makeProducts(7)})

	n, err := e.Probe(context.Background(), "com")
	if err != nil || n != 7 {
		t.Fatalf("unexpected probe: %d %v", n, err)
	}
	if _, err := e.Probe(context.Background(), "de"); err == nil {
		t.Fatalf("expected error for unknown site")
	}
}
