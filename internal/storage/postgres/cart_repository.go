package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository создаёт PostgreSQL-реализацию CartRepository.
// Снимок хранится целиком в JSONB; последняя запись побеждает.
func NewCartRepository(store *Store) domain.CartRepository {
	return &cartRepository{db: store.DB()}
}

func (r *cartRepository) Load(ctx context.Context, name string) (domain.CartSnapshot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.CartSnapshot{}, domain.ErrSnapshotNameRequired
	}

	queryCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var raw []byte
	err := r.db.QueryRowContext(queryCtx, `SELECT snapshot FROM cart_snapshots WHERE name = $1`, name).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CartSnapshot{}, domain.ErrSnapshotNotFound
		}
		return domain.CartSnapshot{}, fmt.Errorf("load cart snapshot: %w", err)
	}

	var snapshot domain.CartSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return domain.CartSnapshot{}, fmt.Errorf("decode cart snapshot %s: %w", name, err)
	}
	return snapshot.Clone(), nil
}

func (r *cartRepository) Save(ctx context.Context, name string, snapshot domain.CartSnapshot) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrSnapshotNameRequired
	}
	raw, err := json.Marshal(snapshot.Clone())
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}

	queryCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(queryCtx, `
		INSERT INTO cart_snapshots (name, snapshot, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE
		SET snapshot = EXCLUDED.snapshot, updated_at = EXCLUDED.updated_at
	`, name, raw); err != nil {
		return fmt.Errorf("save cart snapshot: %w", err)
	}
	return nil
}

var _ domain.CartRepository = (*cartRepository)(nil)
