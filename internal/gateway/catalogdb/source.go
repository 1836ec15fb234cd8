// Package catalogdb reads the store and product catalog straight from Postgres.
package catalogdb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mekedron/grocer-cli/internal/domain"
	"github.com/shopspring/decimal"
)

// queryTimeout is applied to every database query.
const queryTimeout = 5 * time.Second

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("catalogdb: record not found")

const (
	storeColumns = `id::text, store_name, image_link, location, latitude, longitude,
		contact_info, opening_hours, description`
	productColumns = `id::text, name, description, price::text, image_link, store_id::text`
)

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Source serves catalog snapshots from the stores and products tables.
type Source struct {
	db   querier
	pool *pgxpool.Pool
}

// Open parses dsn, connects and verifies the connection.
func Open(ctx context.Context, dsn string) (*Source, error) {
	poolCfg, err := pgxpool.ParseConfig(strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("catalogdb: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("catalogdb: connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("catalogdb: ping: %w", err)
	}
	return &Source{db: pool, pool: pool}, nil
}

// Close releases the connection pool.
func (s *Source) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Stores lists all stores.
func (s *Source) Stores(ctx context.Context) (domain.Batch[domain.Store], error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.Query(ctx, `SELECT `+storeColumns+` FROM stores ORDER BY id`)
	if err != nil {
		return domain.Batch[domain.Store]{}, fmt.Errorf("catalogdb: Stores: %w", err)
	}
	defer rows.Close()

	var batch domain.Batch[domain.Store]
	for rows.Next() {
		var record storeRecord
		if err := record.scan(rows); err != nil {
			return domain.Batch[domain.Store]{}, fmt.Errorf("catalogdb: Stores: scan: %w", err)
		}
		store, issues := record.toStore()
		batch.Issues = append(batch.Issues, issues...)
		if rejected(issues) {
			continue
		}
		batch.Items = append(batch.Items, store)
	}
	if err := rows.Err(); err != nil {
		return domain.Batch[domain.Store]{}, fmt.Errorf("catalogdb: Stores: rows: %w", err)
	}
	return batch, nil
}

// StoreByID fetches one store.
func (s *Source) StoreByID(ctx context.Context, storeID string) (domain.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var record storeRecord
	err := record.scan(s.db.QueryRow(ctx, `SELECT `+storeColumns+` FROM stores WHERE id::text = $1`, strings.TrimSpace(storeID)))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Store{}, fmt.Errorf("%w: store %s", ErrNotFound, storeID)
	}
	if err != nil {
		return domain.Store{}, fmt.Errorf("catalogdb: StoreByID: %w", err)
	}
	store, issues := record.toStore()
	for _, problem := range issues {
		if problem.Rejected {
			return domain.Store{}, problem
		}
	}
	return store, nil
}

// Products lists all products.
func (s *Source) Products(ctx context.Context) (domain.Batch[domain.Product], error) {
	return s.products(ctx, "Products", `SELECT `+productColumns+` FROM products ORDER BY id`)
}

// ProductsByStore lists the products of one store.
func (s *Source) ProductsByStore(ctx context.Context, storeID string) (domain.Batch[domain.Product], error) {
	return s.products(ctx, "ProductsByStore",
		`SELECT `+productColumns+` FROM products WHERE store_id::text = $1 ORDER BY id`,
		strings.TrimSpace(storeID),
	)
}

func (s *Source) products(ctx context.Context, op, query string, args ...any) (domain.Batch[domain.Product], error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return domain.Batch[domain.Product]{}, fmt.Errorf("catalogdb: %s: %w", op, err)
	}
	defer rows.Close()

	var batch domain.Batch[domain.Product]
	for rows.Next() {
		var record productRecord
		if err := rows.Scan(
			&record.ID,
			&record.Name,
			&record.Description,
			&record.Price,
			&record.ImageLink,
			&record.StoreID,
		); err != nil {
			return domain.Batch[domain.Product]{}, fmt.Errorf("catalogdb: %s: scan: %w", op, err)
		}
		product, issues := record.toProduct()
		batch.Issues = append(batch.Issues, issues...)
		if rejected(issues) {
			continue
		}
		batch.Items = append(batch.Items, product)
	}
	if err := rows.Err(); err != nil {
		return domain.Batch[domain.Product]{}, fmt.Errorf("catalogdb: %s: rows: %w", op, err)
	}
	return batch, nil
}

type storeRecord struct {
	ID           string
	Name         *string
	ImageLink    *string
	Address      *string
	Latitude     *float64
	Longitude    *float64
	ContactInfo  *string
	OpeningHours *string
	Description  *string
}

func (r *storeRecord) scan(row pgx.Row) error {
	return row.Scan(
		&r.ID,
		&r.Name,
		&r.ImageLink,
		&r.Address,
		&r.Latitude,
		&r.Longitude,
		&r.ContactInfo,
		&r.OpeningHours,
		&r.Description,
	)
}

// toStore applies the same acceptance rules as the REST gateway: a store
// without a name is rejected, one with unusable coordinates loses its location.
func (r storeRecord) toStore() (domain.Store, []*domain.ValidationError) {
	id := strings.TrimSpace(r.ID)
	name := strings.TrimSpace(text(r.Name))
	if name == "" {
		return domain.Store{}, []*domain.ValidationError{{
			Kind: domain.RecordStore, RecordID: id, Field: "store_name", Reason: "is missing", Rejected: true,
		}}
	}
	store := domain.Store{
		ID:           id,
		Name:         name,
		Address:      text(r.Address),
		ContactInfo:  text(r.ContactInfo),
		OpeningHours: text(r.OpeningHours),
		Description:  text(r.Description),
		ImageLink:    text(r.ImageLink),
	}
	if r.Latitude == nil || r.Longitude == nil {
		return store, []*domain.ValidationError{{
			Kind: domain.RecordStore, RecordID: id, Field: "latitude/longitude", Reason: "is missing",
		}}
	}
	location := domain.Coordinate{Lat: *r.Latitude, Lon: *r.Longitude}
	if err := location.Validate(); err != nil {
		return store, []*domain.ValidationError{{
			Kind: domain.RecordStore, RecordID: id, Field: "latitude/longitude", Reason: "is out of range",
		}}
	}
	store.Location = &location
	return store, nil
}

type productRecord struct {
	ID          string
	Name        *string
	Description *string
	Price       *string
	ImageLink   *string
	StoreID     *string
}

func (r productRecord) toProduct() (domain.Product, []*domain.ValidationError) {
	id := strings.TrimSpace(r.ID)
	var issues []*domain.ValidationError
	reject := func(field, reason string) {
		issues = append(issues, &domain.ValidationError{
			Kind: domain.RecordProduct, RecordID: id, Field: field, Reason: reason, Rejected: true,
		})
	}

	name := strings.TrimSpace(text(r.Name))
	if name == "" {
		reject("name", "is missing")
	}
	storeID := strings.TrimSpace(text(r.StoreID))
	if storeID == "" {
		reject("store_id", "is missing")
	}
	var price decimal.Decimal
	if raw := strings.TrimSpace(text(r.Price)); raw == "" {
		reject("price", "is missing")
	} else if parsed, err := decimal.NewFromString(raw); err != nil {
		reject("price", "is not a decimal number")
	} else if parsed.IsNegative() {
		reject("price", "must not be negative")
	} else {
		price = parsed
	}
	if len(issues) > 0 {
		return domain.Product{}, issues
	}
	return domain.Product{
		ID:          id,
		Name:        name,
		Description: text(r.Description),
		Price:       price,
		ImageLink:   text(r.ImageLink),
		StoreID:     storeID,
	}, nil
}

func text(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func rejected(issues []*domain.ValidationError) bool {
	for _, item := range issues {
		if item.Rejected {
			return true
		}
	}
	return false
}
