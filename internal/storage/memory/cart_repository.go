package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// cartRepositoryInMemory хранит снимки корзин в памяти процесса.
type cartRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.CartSnapshot
}

// NewCartRepository создаёт in-memory реализацию CartRepository.
func NewCartRepository() domain.CartRepository {
	return &cartRepositoryInMemory{
		items: make(map[string]domain.CartSnapshot),
	}
}

func (r *cartRepositoryInMemory) Load(_ context.Context, name string) (domain.CartSnapshot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.CartSnapshot{}, domain.ErrSnapshotNameRequired
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot, ok := r.items[name]
	if !ok {
		return domain.CartSnapshot{}, domain.ErrSnapshotNotFound
	}
	return snapshot.Clone(), nil
}

func (r *cartRepositoryInMemory) Save(_ context.Context, name string, snapshot domain.CartSnapshot) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrSnapshotNameRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[name] = snapshot.Clone()
	return nil
}

var _ domain.CartRepository = (*cartRepositoryInMemory)(nil)
