package app

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestInitOrderDependencies_Memory(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	deps, err := initOrderDependencies(context.Background(), cfg, log.WithField("test", "memory-storage"))
	if err != nil {
		t.Fatalf("initOrderDependencies(memory) failed: %v", err)
	}
	if deps.orders == nil {
		t.Fatal("orders should not be nil for memory storage")
	}
	if deps.idempotency == nil {
		t.Fatal("idempotency should not be nil for memory storage")
	}
	if deps.newsletter == nil {
		t.Fatal("newsletter should not be nil for memory storage")
	}
	if deps.outbox == nil {
		t.Fatal("outbox should not be nil for memory storage")
	}
	if deps.store != nil {
		t.Fatal("store should be nil for memory storage")
	}
	if err := deps.Close(); err != nil {
		t.Fatalf("Close() for memory storage failed: %v", err)
	}
}

func TestInitOrderDependencies_PostgresRequiresDSN(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Orders.Storage = StorageDriverPostgres
	_, err := initOrderDependencies(context.Background(), cfg, log.WithField("test", "postgres-missing-dsn"))
	if err == nil {
		t.Fatal("expected error when postgres driver is selected without DSN")
	}
}

func TestInitOrderDependencies_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Orders.Storage = "sqlite"
	_, err := initOrderDependencies(context.Background(), cfg, log.WithField("test", "unsupported-driver"))
	if err == nil {
		t.Fatal("expected error for unsupported storage driver")
	}
}

func TestInitCartRepository_Memory(t *testing.T) {
	t.Parallel()

	repo, store, err := initCartRepository(context.Background(), DefaultConfig(), log.WithField("test", "cart-memory"))
	if err != nil {
		t.Fatalf("initCartRepository(memory) failed: %v", err)
	}
	if repo == nil {
		t.Fatal("repo should not be nil")
	}
	if store != nil {
		t.Fatal("store should be nil for memory storage")
	}
}

func TestInitCartRepository_File(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Storefront.CartStorage = StorageDriverFile
	cfg.Storefront.CartDir = t.TempDir()

	repo, store, err := initCartRepository(context.Background(), cfg, log.WithField("test", "cart-file"))
	if err != nil {
		t.Fatalf("initCartRepository(file) failed: %v", err)
	}
	if repo == nil {
		t.Fatal("repo should not be nil")
	}
	if store != nil {
		t.Fatal("store should be nil for file storage")
	}
}

func TestInitCartRepository_PostgresRequiresDSN(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Storefront.CartStorage = StorageDriverPostgres
	if _, _, err := initCartRepository(context.Background(), cfg, log.WithField("test", "cart-postgres")); err == nil {
		t.Fatal("expected error when postgres driver is selected without DSN")
	}
}

func TestInitCartRepository_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Storefront.CartStorage = "redis"
	if _, _, err := initCartRepository(context.Background(), cfg, log.WithField("test", "cart-unsupported")); err == nil {
		t.Fatal("expected error for unsupported storage driver")
	}
}
