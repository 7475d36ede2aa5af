package sync

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/ETAnderson/skubridge/internal/domain"
	"github.com/ETAnderson/skubridge/internal/woo"
)

const (
	defaultStockQuantity = 100
	defaultStockStatus   = "instock"
	defaultStatus        = "publish"
)

// VariationSource fetches the variation sub-records for one catalog item.
type VariationSource interface {
	GetVariations(ctx context.Context, productID int64) ([]woo.Variation, error)
}

// EnrichResult is the outcome for one catalog item. Skipped items (empty
// SKU) carry neither an update nor an error and are not counted.
type EnrichResult struct {
	SKU     string
	Skipped bool
	Err     error
	Update  *domain.ProductRecord
}

// Enricher turns one upstream catalog item into a per-site update record.
// It reads only from upstream (lazy variation fetch) and never touches the
// shared store.
type Enricher struct {
	Site       string
	Primary    bool
	Variations VariationSource
	Logger     *log.Logger

	// Now is a test seam; defaults to time.Now.
	Now func() time.Time
}

func (e Enricher) Enrich(ctx context.Context, p woo.Product) EnrichResult {
	if p.SKU == "" {
		e.logf("[%s] product %d has no SKU, skipping", e.Site, p.ID)
		return EnrichResult{Skipped: true}
	}

	update, err := e.buildUpdate(ctx, p)
	if err != nil {
		e.logf("[%s] %s enrichment failed: %v", e.Site, p.SKU, err)
		return EnrichResult{SKU: p.SKU, Err: err}
	}
	return EnrichResult{SKU: p.SKU, Update: update}
}

func (e Enricher) buildUpdate(ctx context.Context, p woo.Product) (*domain.ProductRecord, error) {
	price, err := parsePrice(p.SalePrice, p.Price)
	if err != nil {
		return nil, err
	}
	regularPrice, err := parsePrice(p.RegularPrice, p.Price)
	if err != nil {
		return nil, err
	}

	quantity := defaultStockQuantity
	if p.StockQuantity != nil && *p.StockQuantity != 0 {
		quantity = *p.StockQuantity
	}

	stockStatus := p.StockStatus
	if stockStatus == "" {
		stockStatus = defaultStockStatus
	}

	status := p.Status
	if status == "" {
		status = defaultStatus
	}

	update := &domain.ProductRecord{
		SKU:             p.SKU,
		Prices:          map[string]float64{e.Site: price},
		RegularPrices:   map[string]float64{e.Site: regularPrice},
		StockQuantities: map[string]int{e.Site: quantity},
		StockStatuses:   map[string]string{e.Site: stockStatus},
		Statuses:        map[string]string{e.Site: status},
		Content: map[string]domain.SiteContent{
			e.Site: {
				Name:             p.Name,
				Description:      p.Description,
				ShortDescription: p.ShortDescription,
			},
		},
		SyncStatus:   map[string]string{e.Site: "synced"},
		SourceIDs:    map[string]int64{e.Site: p.ID},
		LastSyncedAt: e.now().UTC(),
	}

	if e.Primary {
		update.Name = p.Name

		update.Images = make([]string, 0, len(p.Images))
		for _, img := range p.Images {
			update.Images = append(update.Images, img.Src)
		}

		update.Categories = make([]string, 0, len(p.Categories))
		for _, c := range p.Categories {
			update.Categories = append(update.Categories, c.Name)
		}

		update.Attributes = domain.RemapAttributes(toSourceAttributes(p.Attributes))
	}

	// Variations are fetched lazily and only for variant-bearing items.
	// A fetch failure degrades to an empty list; it never fails the item.
	variations := make([]domain.Variation, 0)
	if p.Type == "variable" && e.Variations != nil {
		vs, err := e.Variations.GetVariations(ctx, p.ID)
		if err != nil {
			e.logf("[%s] %s variation fetch failed: %v", e.Site, p.SKU, err)
		} else {
			variations = toVariations(vs)
		}
	}

	update.Variations = map[string][]domain.Variation{e.Site: variations}
	update.VariationCounts = map[string]int{e.Site: len(variations)}

	return update, nil
}

func (e Enricher) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Enricher) logf(format string, args ...any) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
	}
}

// parsePrice parses the first non-empty candidate; all empty means 0.
func parsePrice(candidates ...string) (float64, error) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return 0, fmt.Errorf("parse price %q: %w", c, err)
		}
		return v, nil
	}
	return 0, nil
}

func toSourceAttributes(attrs []woo.Attribute) []domain.SourceAttribute {
	out := make([]domain.SourceAttribute, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, domain.SourceAttribute{Name: a.Name, Options: a.Options})
	}
	return out
}

func toVariations(vs []woo.Variation) []domain.Variation {
	out := make([]domain.Variation, 0, len(vs))
	for _, v := range vs {
		attrs := make([]domain.VariationAttribute, 0, len(v.Attributes))
		for _, a := range v.Attributes {
			attrs = append(attrs, domain.VariationAttribute{Name: a.Name, Option: a.Option})
		}
		out = append(out, domain.Variation{
			ID:            v.ID,
			SKU:           v.SKU,
			Attributes:    attrs,
			RegularPrice:  v.RegularPrice,
			SalePrice:     v.SalePrice,
			StockQuantity: v.StockQuantity,
			StockStatus:   v.StockStatus,
		})
	}
	return out
}
