package idempotency

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

var _ domain.IdempotencyRepository = (*stubCleanupRepo)(nil)

func TestCleanupWorker_DeleteExpired_Batches(t *testing.T) {
	t.Parallel()

	repo := &stubCleanupRepo{
		deleteResults: []int{2, 2, 1},
	}

	worker := NewCleanupWorker(repo, WithBatchSize(2))

	deleted, err := worker.DeleteExpired(context.Background(), time.Now().UTC())
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}

	if deleted != 5 {
		t.Fatalf("unexpected deleted total: got=%d want=5", deleted)
	}

	if calls := repo.calls(); calls != 3 {
		t.Fatalf("unexpected delete calls: got=%d want=3", calls)
	}
}

func TestCleanupWorker_DeleteExpired_Error(t *testing.T) {
	t.Parallel()

	repo := &stubCleanupRepo{
		deleteErrors: []error{errors.New("boom")},
	}

	worker := NewCleanupWorker(repo, WithBatchSize(10))

	deleted, err := worker.DeleteExpired(context.Background(), time.Now().UTC())
	if err == nil {
		t.Fatal("expected DeleteExpired error")
	}
	if deleted != 0 {
		t.Fatalf("unexpected deleted total: got=%d want=0", deleted)
	}
}

func TestCleanupWorker_DeleteExpired_MemoryRepository(t *testing.T) {
	t.Parallel()

	repo := memory.NewIdempotencyRepository()
	now := time.Now().UTC()
	for _, key := range []string{"expired-1", "expired-2", "expired-3"} {
		if _, err := repo.CreateProcessing(key, "hash", now.Add(-time.Minute)); err != nil {
			t.Fatalf("CreateProcessing(%s): %v", key, err)
		}
	}
	if _, err := repo.CreateProcessing("live", "hash", now.Add(time.Hour)); err != nil {
		t.Fatalf("CreateProcessing(live): %v", err)
	}

	m := metrics.NewOrderServiceMetricsWithRegisterer(prometheus.NewRegistry())
	worker := NewCleanupWorker(repo, WithBatchSize(2), WithMetrics(m))

	deleted, err := worker.DeleteExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("unexpected deleted total: got=%d want=3", deleted)
	}
	if _, err := repo.Get("live"); err != nil {
		t.Fatalf("live key must survive cleanup: %v", err)
	}
	if _, err := repo.Get("expired-1"); !errors.Is(err, domain.ErrIdempotencyKeyNotFound) {
		t.Fatalf("expired key must be removed, got err=%v", err)
	}
}

func TestCleanupWorker_RecordsRuns(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.NewOrderServiceMetricsWithRegisterer(reg)
	repo := &stubCleanupRepo{deleteResults: []int{4}, deleteErrors: []error{nil, errors.New("boom")}}
	worker := NewCleanupWorker(repo, WithBatchSize(10), WithMetrics(m))

	worker.cleanup(context.Background(), time.Now().UTC())
	worker.cleanup(context.Background(), time.Now().UTC())

	if got := counterValue(t, reg, "orders_idempotency_keys_purged_total"); got != 4 {
		t.Fatalf("unexpected purged count: got=%v want=4", got)
	}
	if count := testutil.CollectAndCount(reg, "orders_idempotency_cleanup_runs_total"); count != 2 {
		t.Fatalf("expected ok and error series, got %d", count)
	}
}

func TestCleanupWorker_Run_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	repo := &stubCleanupRepo{
		deleteResults: []int{0, 0, 0},
	}

	worker := NewCleanupWorker(
		repo,
		WithInterval(5*time.Millisecond),
		WithBatchSize(10),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancel")
	}

	if calls := repo.calls(); calls == 0 {
		t.Fatal("expected cleanup to be called at least once")
	}
}

type stubCleanupRepo struct {
	mu sync.Mutex

	deleteResults []int
	deleteErrors  []error
	callCount     int
}

func (s *stubCleanupRepo) CreateProcessing(string, string, time.Time) (domain.IdempotencyRecord, error) {
	panic("not implemented")
}

func (s *stubCleanupRepo) Get(string) (domain.IdempotencyRecord, error) {
	panic("not implemented")
}

func (s *stubCleanupRepo) MarkDone(string, []byte, int) error {
	panic("not implemented")
}

func (s *stubCleanupRepo) MarkFailed(string, []byte, int) error {
	panic("not implemented")
}

func (s *stubCleanupRepo) DeleteExpired(_ time.Time, _ int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callCount++

	if len(s.deleteErrors) > 0 {
		err := s.deleteErrors[0]
		s.deleteErrors = s.deleteErrors[1:]
		if err != nil {
			return 0, err
		}
	}

	if len(s.deleteResults) == 0 {
		return 0, nil
	}
	result := s.deleteResults[0]
	s.deleteResults = s.deleteResults[1:]
	return result, nil
}

func (s *stubCleanupRepo) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callCount
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		var total float64
		for _, metric := range family.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
		return total
	}
	t.Fatalf("metric %s not found", name)
	return 0
}
