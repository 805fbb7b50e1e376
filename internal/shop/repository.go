package shop

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const shopColumns = `id, shop_domain, access_token, COALESCE(scope,''), COALESCE(plan,''), status, installed_at`

func scanShop(row pgx.Row) (*Shop, error) {
	s := &Shop{}
	if err := row.Scan(&s.ID, &s.Domain, &s.AccessToken, &s.Scope, &s.Plan, &s.Status, &s.InstalledAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// Upsert stores the offline token from an install or re-install and reactivates the shop.
func (r *Repository) Upsert(ctx context.Context, domain, accessToken, scope string) (*Shop, error) {
	const q = `
INSERT INTO shops (shop_domain, access_token, scope, status)
VALUES ($1, $2, NULLIF($3,''), 'active')
ON CONFLICT (shop_domain) DO UPDATE SET
  access_token = EXCLUDED.access_token,
  scope = COALESCE(EXCLUDED.scope, shops.scope),
  status = 'active',
  updated_at = NOW()
RETURNING ` + shopColumns
	return scanShop(r.db.QueryRow(ctx, q, domain, accessToken, scope))
}

func (r *Repository) FindByDomain(ctx context.Context, domain string) (*Shop, error) {
	const q = `SELECT ` + shopColumns + ` FROM shops WHERE shop_domain = $1`
	return scanShop(r.db.QueryRow(ctx, q, domain))
}

// MarkUninstalled clears the token; Shopify revokes it on uninstall anyway.
func (r *Repository) MarkUninstalled(ctx context.Context, domain string) error {
	const q = `
UPDATE shops
SET status = 'uninstalled', access_token = '', updated_at = NOW()
WHERE shop_domain = $1
`
	_, err := r.db.Exec(ctx, q, domain)
	return err
}

// UpdatePlan caches the last subscription name seen by the billing gate.
func (r *Repository) UpdatePlan(ctx context.Context, id, plan string) error {
	const q = `UPDATE shops SET plan = $2, updated_at = NOW() WHERE id = $1 AND COALESCE(plan,'') <> $2`
	_, err := r.db.Exec(ctx, q, id, plan)
	return err
}

func (r *Repository) DeleteByDomain(ctx context.Context, domain string) error {
	const q = `DELETE FROM shops WHERE shop_domain = $1`
	_, err := r.db.Exec(ctx, q, domain)
	return err
}
