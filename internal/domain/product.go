package domain

import "time"

// SiteContent is the localized name/description block one site contributes.
type SiteContent struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	ShortDescription string `json:"short_description"`
}

type VariationAttribute struct {
	Name   string `json:"name"`
	Option string `json:"option"`
}

// Variation is one variant sub-record, owned by exactly one product on one
// site. Price fields stay as upstream strings; only the parent record's
// prices are parsed.
type Variation struct {
	ID            int64                `json:"id"`
	SKU           string               `json:"sku"`
	Attributes    []VariationAttribute `json:"attributes,omitempty"`
	RegularPrice  string               `json:"regular_price"`
	SalePrice     string               `json:"sale_price"`
	StockQuantity *int                 `json:"stock_quantity"`
	StockStatus   string               `json:"stock_status"`
}

// ProductRecord is the shared record for one SKU across all storefronts.
// The per-site maps are keyed by site code and are contributed
// independently by each site's sync; a write for one site must never touch
// another site's entries. Name, Images, Categories and Attributes are
// canonical and written only by the primary site.
type ProductRecord struct {
	SKU string `json:"sku"`

	Prices          map[string]float64     `json:"prices,omitempty"`
	RegularPrices   map[string]float64     `json:"regular_prices,omitempty"`
	StockQuantities map[string]int         `json:"stock_quantities,omitempty"`
	StockStatuses   map[string]string      `json:"stock_statuses,omitempty"`
	Statuses        map[string]string      `json:"statuses,omitempty"`
	Content         map[string]SiteContent `json:"content,omitempty"`
	SyncStatus      map[string]string      `json:"sync_status,omitempty"`
	Variations      map[string][]Variation `json:"variations,omitempty"`
	VariationCounts map[string]int         `json:"variation_counts,omitempty"`

	// Upstream numeric ids are site-local; they are recorded per site and
	// never compared across sites.
	SourceIDs map[string]int64 `json:"source_ids,omitempty"`

	Name       string         `json:"name,omitempty"`
	Images     []string       `json:"images,omitempty"`
	Categories []string       `json:"categories,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`

	LastSyncedAt time.Time `json:"last_synced_at"`
}
