// Package storefront обслуживает JSON API витрины: каталог, корзину и оформление заказа
// для каждой сессии покупателя.
package storefront

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/checkout"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/pricing"
)

// SessionHeader передаёт идентификатор сессии покупателя.
const SessionHeader = "X-Session-ID"

// Session — состояние одного покупателя. Все обращения к корзине и оформлению
// выполняются под mu.
type Session struct {
	mu       sync.Mutex
	id       string
	cart     *cart.Store
	promo    pricing.Promo
	checkout *checkout.Machine
	lastSeen time.Time
}

// ID возвращает идентификатор сессии.
func (s *Session) ID() string { return s.id }

// Hub хранит сессии витрины в памяти процесса; корзины сохраняются в репозиторий.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	repo     domain.CartRepository
	logger   *log.Entry
	metrics  *metrics.CheckoutMetrics
	now      func() time.Time
}

// NewHub создаёт хаб сессий. repo может быть nil: корзины тогда живут только в памяти.
func NewHub(repo domain.CartRepository, m *metrics.CheckoutMetrics, logger *log.Entry) *Hub {
	if logger == nil {
		logger = log.WithField("component", "storefront-sessions")
	}
	return &Hub{
		sessions: make(map[string]*Session),
		repo:     repo,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

// Acquire возвращает сессию по id и захватывает её мьютекс; вызывающий обязан вызвать Unlock.
// Невалидный или пустой id заменяется новым uuid. Корзина новой сессии восстанавливается из снимка.
func (h *Hub) Acquire(ctx context.Context, id string) (*Session, error) {
	id = normalizeSessionID(id)

	var sess *Session
	for {
		sess = h.lookupOrCreate(id)
		sess.mu.Lock()
		// Evict мог удалить сессию, пока мы ждали её мьютекс.
		h.mu.RLock()
		current := h.sessions[id]
		h.mu.RUnlock()
		if current == sess {
			break
		}
		sess.mu.Unlock()
	}

	sess.lastSeen = h.now()
	if sess.cart == nil {
		store := cart.NewStore(snapshotName(id), h.repo, h.logger.WithField("session_id", id))
		if err := store.Load(ctx); err != nil {
			sess.mu.Unlock()
			return nil, err
		}
		sess.cart = store
	}
	return sess, nil
}

func (h *Hub) lookupOrCreate(id string) *Session {
	h.mu.RLock()
	sess, ok := h.sessions[id]
	h.mu.RUnlock()
	if ok {
		return sess
	}

	h.mu.Lock()
	sess, ok = h.sessions[id]
	if !ok {
		sess = &Session{id: id}
		h.sessions[id] = sess
	}
	active := len(h.sessions)
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.SetActiveSessions(active)
	}
	return sess
}

// Unlock освобождает сессию, полученную через Acquire.
func (s *Session) Unlock() { s.mu.Unlock() }

// Len возвращает число активных сессий.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Evict удаляет сессии, к которым не обращались дольше idle. Снимки корзин остаются в репозитории.
func (h *Hub) Evict(idle time.Duration) int {
	cutoff := h.now().Add(-idle)

	h.mu.Lock()
	removed := 0
	for id, sess := range h.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		stale := sess.lastSeen.Before(cutoff) && (sess.checkout == nil || !sess.checkout.Submitting())
		sess.mu.Unlock()
		if stale {
			delete(h.sessions, id)
			removed++
		}
	}
	active := len(h.sessions)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.SetActiveSessions(active)
	}
	if removed > 0 {
		h.logger.WithField("evicted", removed).Info("idle storefront sessions evicted")
	}
	return removed
}

// RunEviction периодически вызывает Evict до отмены ctx.
func (h *Hub) RunEviction(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Evict(idle)
		}
	}
}

// normalizeSessionID принимает только uuid: id попадает в имя снимка корзины.
func normalizeSessionID(id string) string {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return uuid.NewString()
	}
	return parsed.String()
}

func snapshotName(sessionID string) string {
	return cart.DefaultSnapshotName + "-" + sessionID
}
