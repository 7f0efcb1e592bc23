package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type newsletterRepositoryInMemory struct {
	mu    sync.Mutex
	items map[string]domain.NewsletterSubscription
}

// NewNewsletterRepository создаёт in-memory реализацию NewsletterRepository.
func NewNewsletterRepository() domain.NewsletterRepository {
	return &newsletterRepositoryInMemory{
		items: make(map[string]domain.NewsletterSubscription),
	}
}

// Subscribe сохраняет подписку; повторный email (без учёта регистра) не дублируется.
func (r *newsletterRepositoryInMemory) Subscribe(sub domain.NewsletterSubscription) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(sub.Email))
	if email == "" {
		return false, domain.ErrEmailRequired
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	sub.Email = email

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[email]; exists {
		return false, nil
	}
	r.items[email] = sub
	return true, nil
}

var _ domain.NewsletterRepository = (*newsletterRepositoryInMemory)(nil)
