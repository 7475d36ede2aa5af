package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ETAnderson/skubridge/internal/domain"
)

type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

const productColumns = `sku, prices, regular_prices, stock_quantities, stock_statuses, statuses,
	content, sync_status, variations, variation_counts, source_ids,
	name, images, categories, attributes, last_synced_at`

func (s *MySQLStore) GetProductsBySKU(ctx context.Context, skus []string) (map[string]domain.ProductRecord, error) {
	out := make(map[string]domain.ProductRecord, len(skus))
	if len(skus) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(skus)), ",")
	args := make([]any, len(skus))
	for i, sku := range skus {
		args[i] = sku
	}

	query := fmt.Sprintf(`SELECT %s FROM products WHERE sku IN (%s)`, productColumns, placeholders)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[rec.SKU] = rec
	}
	return out, rows.Err()
}

func (s *MySQLStore) UpsertProducts(ctx context.Context, records []domain.ProductRecord) error {
	if len(records) == 0 {
		return nil
	}

	// One multi-row statement per batch; the merge already happened in the
	// engine, so every column is replaced wholesale.
	values := make([]string, 0, len(records))
	args := make([]any, 0, len(records)*16)

	for _, rec := range records {
		cols, err := productArgs(rec)
		if err != nil {
			return err
		}
		values = append(values, "("+strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")+")")
		args = append(args, cols...)
	}

	query := fmt.Sprintf(`INSERT INTO products (%s) VALUES %s
		ON DUPLICATE KEY UPDATE
		  prices = VALUES(prices),
		  regular_prices = VALUES(regular_prices),
		  stock_quantities = VALUES(stock_quantities),
		  stock_statuses = VALUES(stock_statuses),
		  statuses = VALUES(statuses),
		  content = VALUES(content),
		  sync_status = VALUES(sync_status),
		  variations = VALUES(variations),
		  variation_counts = VALUES(variation_counts),
		  source_ids = VALUES(source_ids),
		  name = VALUES(name),
		  images = VALUES(images),
		  categories = VALUES(categories),
		  attributes = VALUES(attributes),
		  last_synced_at = VALUES(last_synced_at)`,
		productColumns, strings.Join(values, ", "))

	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *MySQLStore) GetSyncProgress(ctx context.Context, id string) (SyncProgressRecord, bool, error) {
	var rec SyncProgressRecord
	var updated time.Time

	err := s.db.QueryRowContext(
		ctx,
		`SELECT id, status, site, current_count, total_count, success_count, failed_count, message, updated_at
		 FROM sync_progress WHERE id = ?`,
		id,
	).Scan(&rec.ID, &rec.Status, &rec.Site, &rec.Current, &rec.Total, &rec.Success, &rec.Failed, &rec.Message, &updated)

	if err == sql.ErrNoRows {
		return SyncProgressRecord{}, false, nil
	}
	if err != nil {
		return SyncProgressRecord{}, false, err
	}

	rec.UpdatedAt = updated.UTC()
	return rec, true, nil
}

func (s *MySQLStore) UpsertSyncProgress(ctx context.Context, rec SyncProgressRecord) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO sync_progress (id, status, site, current_count, total_count, success_count, failed_count, message, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE
		   status = VALUES(status),
		   site = VALUES(site),
		   current_count = VALUES(current_count),
		   total_count = VALUES(total_count),
		   success_count = VALUES(success_count),
		   failed_count = VALUES(failed_count),
		   message = VALUES(message),
		   updated_at = VALUES(updated_at)`,
		rec.ID, rec.Status, rec.Site, rec.Current, rec.Total, rec.Success, rec.Failed, rec.Message, rec.UpdatedAt.UTC(),
	)
	return err
}

func productArgs(rec domain.ProductRecord) ([]any, error) {
	jsonCols := []any{
		rec.Prices, rec.RegularPrices, rec.StockQuantities, rec.StockStatuses, rec.Statuses,
		rec.Content, rec.SyncStatus, rec.Variations, rec.VariationCounts, rec.SourceIDs,
	}

	args := make([]any, 0, 16)
	args = append(args, rec.SKU)

	for _, col := range jsonCols {
		b, err := marshalOrNull(col)
		if err != nil {
			return nil, err
		}
		args = append(args, b)
	}

	args = append(args, nullString(rec.Name))

	for _, col := range []any{rec.Images, rec.Categories, rec.Attributes} {
		b, err := marshalOrNull(col)
		if err != nil {
			return nil, err
		}
		args = append(args, b)
	}

	args = append(args, rec.LastSyncedAt.UTC())
	return args, nil
}

func scanProduct(rows *sql.Rows) (domain.ProductRecord, error) {
	var rec domain.ProductRecord
	var prices, regularPrices, stockQuantities, stockStatuses, statuses []byte
	var content, syncStatus, variations, variationCounts, sourceIDs []byte
	var name sql.NullString
	var images, categories, attributes []byte
	var lastSynced sql.NullTime

	err := rows.Scan(
		&rec.SKU, &prices, &regularPrices, &stockQuantities, &stockStatuses, &statuses,
		&content, &syncStatus, &variations, &variationCounts, &sourceIDs,
		&name, &images, &categories, &attributes, &lastSynced,
	)
	if err != nil {
		return domain.ProductRecord{}, err
	}

	for _, col := range []struct {
		raw []byte
		dst any
	}{
		{prices, &rec.Prices},
		{regularPrices, &rec.RegularPrices},
		{stockQuantities, &rec.StockQuantities},
		{stockStatuses, &rec.StockStatuses},
		{statuses, &rec.Statuses},
		{content, &rec.Content},
		{syncStatus, &rec.SyncStatus},
		{variations, &rec.Variations},
		{variationCounts, &rec.VariationCounts},
		{sourceIDs, &rec.SourceIDs},
		{images, &rec.Images},
		{categories, &rec.Categories},
		{attributes, &rec.Attributes},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return domain.ProductRecord{}, fmt.Errorf("decode column for %s: %w", rec.SKU, err)
		}
	}

	rec.Name = name.String
	if lastSynced.Valid {
		rec.LastSyncedAt = lastSynced.Time.UTC()
	}
	return rec, nil
}

func marshalOrNull(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return nil, nil
	}
	return b, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
