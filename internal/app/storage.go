package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/file"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
)

// orderDependencies — хранилища сервиса заказов.
type orderDependencies struct {
	orders      domain.OrderRepository
	idempotency domain.IdempotencyRepository
	newsletter  domain.NewsletterRepository
	outbox      domain.OutboxRepository
	store       *postgres.Store
}

func (d *orderDependencies) Close() error {
	if d == nil {
		return nil
	}
	return d.store.Close()
}

// initOrderDependencies выбирает хранилища по cfg.Orders.Storage.
func initOrderDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*orderDependencies, error) {
	switch cfg.Orders.Storage {
	case StorageDriverMemory, "":
		logger.Info("order service uses in-memory storage")
		return &orderDependencies{
			orders:      memory.NewOrderRepository(),
			idempotency: memory.NewIdempotencyRepository(),
			newsletter:  memory.NewNewsletterRepository(),
			outbox:      memory.NewOutboxRepository(),
		}, nil
	case StorageDriverPostgres:
		store, err := openPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		return &orderDependencies{
			orders:      postgres.NewOrderRepository(store),
			idempotency: postgres.NewIdempotencyRepository(store),
			newsletter:  postgres.NewNewsletterRepository(store),
			outbox:      postgres.NewOutboxRepository(store),
			store:       store,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Orders.Storage)
	}
}

// initCartRepository выбирает хранилище снимков корзин. store не nil только для postgres.
func initCartRepository(ctx context.Context, cfg Config, logger *log.Entry) (domain.CartRepository, *postgres.Store, error) {
	switch cfg.Storefront.CartStorage {
	case StorageDriverMemory, "":
		logger.Info("carts are kept in memory")
		return memory.NewCartRepository(), nil, nil
	case StorageDriverFile:
		repo, err := file.NewCartRepository(cfg.Storefront.CartDir)
		if err != nil {
			return nil, nil, err
		}
		logger.WithField("dir", cfg.Storefront.CartDir).Info("carts are stored in files")
		return repo, nil, nil
	case StorageDriverPostgres:
		store, err := openPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewCartRepository(store), store, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.Storefront.CartStorage)
	}
}

// openPostgres открывает подключение и при AutoMigrate применяет миграции.
func openPostgres(ctx context.Context, cfg PostgresConfig, logger *log.Entry) (*postgres.Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres dsn is required for postgres storage")
	}
	pool := postgres.DefaultPoolConfig()
	if cfg.MaxOpenConns > 0 {
		pool.MaxOpenConns = cfg.MaxOpenConns
		pool.MaxIdleConns = cfg.MaxOpenConns
	}

	store, err := postgres.OpenWithPool(ctx, cfg.DSN, pool)
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}
	if cfg.AutoMigrate {
		if err := store.MigrateUp(ctx, 0); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		state, err := store.MigrationStatus(ctx)
		if err == nil {
			logger.WithFields(log.Fields{
				"version": state.Version,
				"applied": state.Applied,
				"pending": len(state.Pending),
			}).Info("postgres migrations applied")
		}
	}
	return store, nil
}
