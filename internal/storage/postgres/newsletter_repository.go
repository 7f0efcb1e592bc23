package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type newsletterRepository struct {
	db *sql.DB
}

// NewNewsletterRepository создаёт PostgreSQL-реализацию NewsletterRepository.
func NewNewsletterRepository(store *Store) domain.NewsletterRepository {
	return &newsletterRepository{db: store.DB()}
}

func (r *newsletterRepository) Subscribe(sub domain.NewsletterSubscription) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(sub.Email))
	if email == "" {
		return false, domain.ErrEmailRequired
	}
	createdAt := sub.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO newsletter_subscribers (email, created_at)
		VALUES ($1, $2)
		ON CONFLICT (email) DO NOTHING
	`, email, createdAt)
	if err != nil {
		return false, fmt.Errorf("insert newsletter subscriber: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("newsletter rows affected: %w", err)
	}
	return affected == 1, nil
}

var _ domain.NewsletterRepository = (*newsletterRepository)(nil)
