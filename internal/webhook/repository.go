package webhook

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ecomkit/pkg/db"
)

// Effect is the local state change a topic causes.
type Effect int

const (
	EffectNone Effect = iota
	EffectUninstall
	EffectRedactShop
)

type Event struct {
	ShopDomain  string
	Topic       string
	EventID     string
	PayloadHash string
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Apply records the event and performs its effect in one transaction. It returns
// false without touching anything when the event was already processed.
func (r *Repository) Apply(ctx context.Context, ev Event, effect Effect) (bool, error) {
	applied := false
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := insertWebhookEvent(ctx, tx, ev); err != nil {
			if isUniqueViolation(err) {
				return nil
			}
			return err
		}
		applied = true

		switch effect {
		case EffectUninstall:
			const q = `
UPDATE shops
SET status = 'uninstalled', access_token = '', updated_at = NOW()
WHERE shop_domain = $1
`
			_, err := tx.Exec(ctx, q, ev.ShopDomain)
			return err
		case EffectRedactShop:
			// settings_audit rows go with the shop through ON DELETE CASCADE.
			_, err := tx.Exec(ctx, `DELETE FROM shops WHERE shop_domain = $1`, ev.ShopDomain)
			return err
		}
		return nil
	})
	return applied, err
}

func insertWebhookEvent(ctx context.Context, tx pgx.Tx, ev Event) error {
	const q = `
INSERT INTO webhook_events (shop_domain, topic, event_id, payload_hash, processed_at)
VALUES ($1, $2, $3, $4, NOW())
`
	_, err := tx.Exec(ctx, q, ev.ShopDomain, ev.Topic, ev.EventID, ev.PayloadHash)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if ok := errors.As(err, &pgErr); ok {
		return pgErr.Code == "23505"
	}
	return false
}
