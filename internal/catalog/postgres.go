package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgxpool.Pool / pgx.Tx used by the Postgres provider.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresProvider reads raw catalog documents from the menu_items and
// bundle_offers tables and decodes them on every lookup.
type PostgresProvider struct {
	db DBTX
}

// NewPostgresProvider creates a provider over a pool or transaction.
func NewPostgresProvider(db DBTX) *PostgresProvider {
	return &PostgresProvider{db: db}
}

const getItemSQL = `SELECT payload FROM menu_items WHERE name = $1`

const getBundleSQL = `SELECT payload FROM bundle_offers WHERE name = $1`

const upsertItemSQL = `
INSERT INTO menu_items (name, payload, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`

const upsertBundleSQL = `
INSERT INTO bundle_offers (name, payload, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`

// GetItem loads and decodes a menu item.
func (p *PostgresProvider) GetItem(ctx context.Context, name string) (*MenuItem, error) {
	var payload []byte
	if err := p.db.QueryRow(ctx, getItemSQL, name).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, name)
		}
		return nil, fmt.Errorf("get menu item: %w", err)
	}
	return DecodeItem(payload)
}

// GetBundle loads and decodes a bundle offer.
func (p *PostgresProvider) GetBundle(ctx context.Context, name string) (*BundleOffer, error) {
	var payload []byte
	if err := p.db.QueryRow(ctx, getBundleSQL, name).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrBundleNotFound, name)
		}
		return nil, fmt.Errorf("get bundle offer: %w", err)
	}
	return DecodeBundle(payload)
}

// UpsertItem stores a raw item document after checking it decodes.
func (p *PostgresProvider) UpsertItem(ctx context.Context, payload json.RawMessage) (string, error) {
	item, err := DecodeItem(payload)
	if err != nil {
		return "", err
	}
	if _, err := p.db.Exec(ctx, upsertItemSQL, item.Name, []byte(payload)); err != nil {
		return "", fmt.Errorf("upsert menu item %s: %w", item.Name, err)
	}
	return item.Name, nil
}

// UpsertBundle stores a raw bundle document after checking it decodes.
func (p *PostgresProvider) UpsertBundle(ctx context.Context, payload json.RawMessage) (string, error) {
	b, err := DecodeBundle(payload)
	if err != nil {
		return "", err
	}
	if _, err := p.db.Exec(ctx, upsertBundleSQL, b.Name, []byte(payload)); err != nil {
		return "", fmt.Errorf("upsert bundle offer %s: %w", b.Name, err)
	}
	return b.Name, nil
}

// Import upserts every entry of a catalog document. Unlike DecodeCatalog it
// stops at the first broken entry, so a seed never lands half a menu.
func (p *PostgresProvider) Import(ctx context.Context, data []byte) (items, bundles int, err error) {
	var raw rawCatalog
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, 0, fmt.Errorf("decode catalog: %w", err)
	}
	for i, ri := range raw.Items {
		if _, err := p.UpsertItem(ctx, ri); err != nil {
			return items, bundles, fmt.Errorf("items[%d]: %w", i, err)
		}
		items++
	}
	for i, rb := range raw.Bundles {
		if _, err := p.UpsertBundle(ctx, rb); err != nil {
			return items, bundles, fmt.Errorf("bundles[%d]: %w", i, err)
		}
		bundles++
	}
	return items, bundles, nil
}
