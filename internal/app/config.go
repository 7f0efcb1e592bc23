package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/pricing"
	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
)

// StorageDriver выбирает хранилище.
type StorageDriver string

const (
	StorageDriverMemory   StorageDriver = "memory"
	StorageDriverFile     StorageDriver = "file"
	StorageDriverPostgres StorageDriver = "postgres"
)

// Config описывает настройки обоих процессов: витрины и сервиса заказов.
type Config struct {
	Storefront StorefrontConfig   `yaml:"storefront"`
	Orders     OrderServiceConfig `yaml:"orders"`
	Postgres   PostgresConfig     `yaml:"postgres"`
	Kafka      KafkaConfig        `yaml:"kafka"`
	Pricing    PricingConfig      `yaml:"pricing"`
}

// StorefrontConfig — JSON API витрины.
type StorefrontConfig struct {
	HTTPAddr    string `yaml:"http_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
	// OrderServiceURL — единственная обязательная настройка ядра оформления.
	OrderServiceURL string `yaml:"order_service_url"`
	// OrderTimeout ограничивает отправку заказа; при 0 таймаута нет.
	OrderTimeout       time.Duration `yaml:"order_timeout"`
	CartStorage        StorageDriver `yaml:"cart_storage"`
	CartDir            string        `yaml:"cart_dir"`
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout"`
}

// OrderServiceConfig — эталонный сервис заказов.
type OrderServiceConfig struct {
	HTTPAddr                    string        `yaml:"http_addr"`
	GRPCAddr                    string        `yaml:"grpc_addr"`
	MetricsAddr                 string        `yaml:"metrics_addr"`
	Storage                     StorageDriver `yaml:"storage"`
	IdempotencyCleanupInterval  time.Duration `yaml:"idempotency_cleanup_interval"`
	IdempotencyCleanupBatchSize int           `yaml:"idempotency_cleanup_batch_size"`
	// Outbox работает, только когда настроена Kafka.
	OutboxPollInterval time.Duration `yaml:"outbox_poll_interval"`
	OutboxMaxAttempts  int           `yaml:"outbox_max_attempts"`
}

// PostgresConfig используется, когда одно из хранилищ postgres.
type PostgresConfig struct {
	DSN          string `yaml:"dsn"`
	AutoMigrate  bool   `yaml:"auto_migrate"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// KafkaConfig — пустой список брокеров отключает публикацию событий.
type KafkaConfig struct {
	Brokers         []string `yaml:"brokers"`
	OrderTopic      string   `yaml:"order_topic"`
	NewsletterTopic string   `yaml:"newsletter_topic"`
	DLQTopic        string   `yaml:"dlq_topic"`
}

// PricingConfig задаёт правила в денежных единицах, как их пишет оператор.
type PricingConfig struct {
	FreeShippingThreshold float64          `yaml:"free_shipping_threshold"`
	FlatShipping          float64          `yaml:"flat_shipping"`
	TaxPercent            int64            `yaml:"tax_percent"`
	PromoCodes            map[string]int64 `yaml:"promo_codes"`
}

// DefaultConfig возвращает настройки для локального запуска.
func DefaultConfig() Config {
	rules := pricing.DefaultRules()
	return Config{
		Storefront: StorefrontConfig{
			HTTPAddr:           ":8080",
			MetricsAddr:        ":9090",
			OrderServiceURL:    "http://localhost:8001",
			CartStorage:        StorageDriverMemory,
			CartDir:            "data/carts",
			SessionIdleTimeout: 24 * time.Hour,
		},
		Orders: OrderServiceConfig{
			HTTPAddr:                    ":8001",
			GRPCAddr:                    ":50051",
			MetricsAddr:                 ":9091",
			Storage:                     StorageDriverMemory,
			IdempotencyCleanupInterval:  10 * time.Minute,
			IdempotencyCleanupBatchSize: 500,
			OutboxPollInterval:          time.Second,
			OutboxMaxAttempts:           3,
		},
		Postgres: PostgresConfig{
			AutoMigrate:  true,
			MaxOpenConns: postgres.DefaultPoolConfig().MaxOpenConns,
		},
		Kafka: KafkaConfig{
			OrderTopic:      kafka.TopicOrderEvents,
			NewsletterTopic: kafka.TopicNewsletterEvents,
			DLQTopic:        kafka.TopicDeadLetter,
		},
		Pricing: PricingConfig{
			FreeShippingThreshold: domain.MinorToMajor(rules.FreeShippingThresholdMinor),
			FlatShipping:          domain.MinorToMajor(rules.FlatShippingMinor),
			TaxPercent:            rules.TaxPercent,
			PromoCodes:            rules.PromoCodes,
		},
	}
}

// LoadFile накладывает YAML-файл на base. Неизвестные ключи считаются ошибкой.
// Список promo_codes из файла заменяет коды по умолчанию целиком.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return base, fmt.Errorf("read config file: %w", err)
	}

	cfg := base
	cfg.Pricing.PromoCodes = nil
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return base, fmt.Errorf("parse config file: %w", err)
	}
	if cfg.Pricing.PromoCodes == nil {
		cfg.Pricing.PromoCodes = base.Pricing.PromoCodes
	}
	return cfg, nil
}

// Rules переводит правила из денежных единиц в минимальные.
func (p PricingConfig) Rules() pricing.Rules {
	codes := make(map[string]int64, len(p.PromoCodes))
	for code, pct := range p.PromoCodes {
		codes[strings.ToUpper(strings.TrimSpace(code))] = pct
	}
	return pricing.Rules{
		FreeShippingThresholdMinor: domain.ParseMajor(p.FreeShippingThreshold),
		FlatShippingMinor:          domain.ParseMajor(p.FlatShipping),
		TaxPercent:                 p.TaxPercent,
		PromoCodes:                 codes,
	}
}

// ValidateStorefront проверяет настройки витрины.
func (c Config) ValidateStorefront() error {
	if strings.TrimSpace(c.Storefront.OrderServiceURL) == "" {
		return errors.New("order service url is required")
	}
	if err := c.validateDriver(c.Storefront.CartStorage, StorageDriverMemory, StorageDriverFile, StorageDriverPostgres); err != nil {
		return fmt.Errorf("cart storage: %w", err)
	}
	if c.Storefront.CartStorage == StorageDriverFile && strings.TrimSpace(c.Storefront.CartDir) == "" {
		return errors.New("cart dir is required for file storage")
	}
	return c.Pricing.Rules().Validate()
}

// ValidateOrderService проверяет настройки сервиса заказов.
func (c Config) ValidateOrderService() error {
	if err := c.validateDriver(c.Orders.Storage, StorageDriverMemory, StorageDriverPostgres); err != nil {
		return fmt.Errorf("order storage: %w", err)
	}
	return nil
}

func (c Config) validateDriver(driver StorageDriver, allowed ...StorageDriver) error {
	for _, a := range allowed {
		if driver != a {
			continue
		}
		if driver == StorageDriverPostgres && strings.TrimSpace(c.Postgres.DSN) == "" {
			return errors.New("postgres dsn is required for postgres storage")
		}
		return nil
	}
	return fmt.Errorf("unsupported storage driver %q", driver)
}
