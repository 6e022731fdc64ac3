package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresProvider loads the store catalog from the platform database.
// The store table changes rarely, so the list is loaded once and reused;
// Reload picks up catalog changes without a restart.
type PostgresProvider struct {
	pool       *pgxpool.Pool
	defaultFee int64

	mu     sync.RWMutex
	stores []Store
	fees   map[string]int64
}

// NewPostgresProvider creates a provider backed by the given pool and
// performs the initial catalog load.
func NewPostgresProvider(ctx context.Context, pool *pgxpool.Pool, defaultFee int64) (*PostgresProvider, error) {
	p := &PostgresProvider{
		pool:       pool,
		defaultFee: defaultFee,
		fees:       make(map[string]int64),
	}
	if err := p.Reload(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload refreshes the cached catalog from the database.
func (p *PostgresProvider) Reload(ctx context.Context) error {
	rows, err := p.pool.Query(ctx, `
		SELECT id, name, delivery_fee_minor, is_quality
		FROM stores
		WHERE active = true
		ORDER BY id
	`)
	if err != nil {
		return fmt.Errorf("failed to query stores: %w", err)
	}
	defer rows.Close()

	var stores []Store
	fees := make(map[string]int64)
	for rows.Next() {
		var s Store
		if err := rows.Scan(&s.ID, &s.Name, &s.DeliveryFee, &s.Quality); err != nil {
			return fmt.Errorf("failed to scan store: %w", err)
		}
		stores = append(stores, s)
		fees[s.ID] = s.DeliveryFee
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read stores: %w", err)
	}

	p.mu.Lock()
	p.stores = stores
	p.fees = fees
	p.mu.Unlock()
	return nil
}

// Stores returns the cached store list in catalog order.
func (p *PostgresProvider) Stores(_ context.Context) ([]Store, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Store, len(p.stores))
	copy(out, p.stores)
	return out, nil
}

// DeliveryFee returns the cached fee, or the default for unknown stores.
func (p *PostgresProvider) DeliveryFee(storeID string) int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if fee, ok := p.fees[storeID]; ok {
		return fee
	}
	return p.defaultFee
}
