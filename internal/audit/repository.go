package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one settings save as recorded in settings_audit.
type Entry struct {
	ID          string         `json:"id"`
	ShopID      string         `json:"-"`
	Namespace   string         `json:"namespace"`
	KeysWritten int            `json:"keysWritten"`
	Actor       string         `json:"actor"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Record(ctx context.Context, e Entry) error {
	var meta *string
	if e.Metadata != nil {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return err
		}
		s := string(b)
		meta = &s
	}
	const q = `
INSERT INTO settings_audit (shop_id, namespace, keys_written, actor, metadata)
VALUES ($1, $2, $3, $4, CAST($5 AS jsonb))
`
	_, err := r.db.Exec(ctx, q, e.ShopID, e.Namespace, e.KeysWritten, e.Actor, meta)
	return err
}

// List returns the most recent saves for a namespace, newest first.
func (r *Repository) List(ctx context.Context, shopID, namespace string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const q = `
SELECT id, shop_id, namespace, keys_written, actor, metadata, created_at
FROM settings_audit
WHERE shop_id = $1 AND namespace = $2
ORDER BY created_at DESC
LIMIT $3
`
	rows, err := r.db.Query(ctx, q, shopID, namespace, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var meta []byte
		if err := rows.Scan(&e.ID, &e.ShopID, &e.Namespace, &e.KeysWritten, &e.Actor, &meta, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &e.Metadata)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
