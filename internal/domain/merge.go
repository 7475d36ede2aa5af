package domain

// Merge combines one site's update with the existing record for the same
// SKU. Per-site maps merge key-by-key: the update's site entries overwrite
// only those keys, everything contributed by other sites is preserved.
// Canonical fields present on the update (only the primary site submits
// them) replace the existing values wholesale. A nil map on either side is
// treated as empty.
func Merge(existing ProductRecord, update ProductRecord) ProductRecord {
	merged := ProductRecord{
		SKU:             update.SKU,
		Prices:          mergeSiteMap(existing.Prices, update.Prices),
		RegularPrices:   mergeSiteMap(existing.RegularPrices, update.RegularPrices),
		StockQuantities: mergeSiteMap(existing.StockQuantities, update.StockQuantities),
		StockStatuses:   mergeSiteMap(existing.StockStatuses, update.StockStatuses),
		Statuses:        mergeSiteMap(existing.Statuses, update.Statuses),
		Content:         mergeSiteMap(existing.Content, update.Content),
		SyncStatus:      mergeSiteMap(existing.SyncStatus, update.SyncStatus),
		Variations:      mergeSiteMap(existing.Variations, update.Variations),
		VariationCounts: mergeSiteMap(existing.VariationCounts, update.VariationCounts),
		SourceIDs:       mergeSiteMap(existing.SourceIDs, update.SourceIDs),

		Name:       existing.Name,
		Images:     existing.Images,
		Categories: existing.Categories,
		Attributes: existing.Attributes,

		LastSyncedAt: update.LastSyncedAt,
	}

	if update.Name != "" {
		merged.Name = update.Name
	}
	if update.Images != nil {
		merged.Images = update.Images
	}
	if update.Categories != nil {
		merged.Categories = update.Categories
	}
	if update.Attributes != nil {
		merged.Attributes = update.Attributes
	}

	return merged
}

func mergeSiteMap[V any](existing, update map[string]V) map[string]V {
	if len(existing) == 0 && len(update) == 0 {
		return nil
	}
	out := make(map[string]V, len(existing)+len(update))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range update {
		out[k] = v
	}
	return out
}
