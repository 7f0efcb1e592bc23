package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Переменные окружения, переопределяющие Config.
const (
	EnvConfigFile = "STOREFRONT_CONFIG"

	EnvStorefrontHTTPAddr      = "STOREFRONT_HTTP_ADDR"
	EnvStorefrontMetricsAddr   = "STOREFRONT_METRICS_ADDR"
	EnvOrderServiceURL         = "STOREFRONT_ORDER_SERVICE_URL"
	EnvOrderTimeout            = "STOREFRONT_ORDER_TIMEOUT"
	EnvCartStorage             = "STOREFRONT_CART_STORAGE"
	EnvCartDir                 = "STOREFRONT_CART_DIR"
	EnvSessionIdleTimeout      = "STOREFRONT_SESSION_IDLE_TIMEOUT"
	EnvOrdersHTTPAddr          = "ORDERS_HTTP_ADDR"
	EnvOrdersGRPCAddr          = "ORDERS_GRPC_ADDR"
	EnvOrdersMetricsAddr       = "ORDERS_METRICS_ADDR"
	EnvOrdersStorage           = "ORDERS_STORAGE"
	EnvIdempotencyCleanup      = "ORDERS_IDEMPOTENCY_CLEANUP_INTERVAL"
	EnvIdempotencyCleanupBatch = "ORDERS_IDEMPOTENCY_CLEANUP_BATCH_SIZE"
	EnvOutboxPollInterval      = "ORDERS_OUTBOX_POLL_INTERVAL"
	EnvOutboxMaxAttempts       = "ORDERS_OUTBOX_MAX_ATTEMPTS"
	EnvPostgresDSN             = "POSTGRES_DSN"
	EnvPostgresAutoMigrate     = "POSTGRES_AUTO_MIGRATE"
	EnvPostgresMaxOpenConns    = "POSTGRES_MAX_OPEN_CONNS"
	EnvKafkaBrokers            = "KAFKA_BROKERS"
	EnvKafkaOrderTopic         = "KAFKA_ORDER_TOPIC"
	EnvKafkaNewsletterTopic    = "KAFKA_NEWSLETTER_TOPIC"
	EnvKafkaDLQTopic           = "KAFKA_DLQ_TOPIC"
)

// EnvLookup совместим с os.LookupEnv.
type EnvLookup func(string) (string, bool)

// ConfigFromEnv строит конфигурацию: значения по умолчанию, затем YAML-файл из
// STOREFRONT_CONFIG, затем переменные окружения. Некорректные значения не
// прерывают запуск: поле остаётся прежним, а причина попадает в warnings.
// Ошибка возвращается только если указанный файл нельзя прочитать.
func ConfigFromEnv(lookup EnvLookup) (Config, []string, error) {
	cfg := DefaultConfig()
	if path, ok := nonEmpty(lookup, EnvConfigFile); ok {
		loaded, err := LoadFile(path, cfg)
		if err != nil {
			return cfg, nil, err
		}
		cfg = loaded
	}

	var warnings []string
	warn := func(key, raw string, err error) {
		warnings = append(warnings, fmt.Sprintf("invalid %s=%q: %v, keeping default", key, raw, err))
	}

	setString(lookup, EnvStorefrontHTTPAddr, &cfg.Storefront.HTTPAddr)
	setString(lookup, EnvStorefrontMetricsAddr, &cfg.Storefront.MetricsAddr)
	setString(lookup, EnvOrderServiceURL, &cfg.Storefront.OrderServiceURL)
	setString(lookup, EnvCartDir, &cfg.Storefront.CartDir)
	if raw, ok := nonEmpty(lookup, EnvCartStorage); ok {
		cfg.Storefront.CartStorage = StorageDriver(strings.ToLower(raw))
	}
	if raw, ok := nonEmpty(lookup, EnvOrderTimeout); ok {
		if v, err := ParseDuration(raw, nonNegative, "must be >= 0"); err != nil {
			warn(EnvOrderTimeout, raw, err)
		} else {
			cfg.Storefront.OrderTimeout = v
		}
	}
	if raw, ok := nonEmpty(lookup, EnvSessionIdleTimeout); ok {
		if v, err := ParseDuration(raw, positive, "must be > 0"); err != nil {
			warn(EnvSessionIdleTimeout, raw, err)
		} else {
			cfg.Storefront.SessionIdleTimeout = v
		}
	}

	setString(lookup, EnvOrdersHTTPAddr, &cfg.Orders.HTTPAddr)
	setString(lookup, EnvOrdersGRPCAddr, &cfg.Orders.GRPCAddr)
	setString(lookup, EnvOrdersMetricsAddr, &cfg.Orders.MetricsAddr)
	if raw, ok := nonEmpty(lookup, EnvOrdersStorage); ok {
		cfg.Orders.Storage = StorageDriver(strings.ToLower(raw))
	}
	if raw, ok := nonEmpty(lookup, EnvIdempotencyCleanup); ok {
		if v, err := ParseDuration(raw, positive, "must be > 0"); err != nil {
			warn(EnvIdempotencyCleanup, raw, err)
		} else {
			cfg.Orders.IdempotencyCleanupInterval = v
		}
	}
	if raw, ok := nonEmpty(lookup, EnvIdempotencyCleanupBatch); ok {
		if v, err := ParseInt(raw, func(v int) bool { return v > 0 }, "must be > 0"); err != nil {
			warn(EnvIdempotencyCleanupBatch, raw, err)
		} else {
			cfg.Orders.IdempotencyCleanupBatchSize = v
		}
	}

	if raw, ok := nonEmpty(lookup, EnvOutboxPollInterval); ok {
		if v, err := ParseDuration(raw, positive, "must be > 0"); err != nil {
			warn(EnvOutboxPollInterval, raw, err)
		} else {
			cfg.Orders.OutboxPollInterval = v
		}
	}
	if raw, ok := nonEmpty(lookup, EnvOutboxMaxAttempts); ok {
		if v, err := ParseInt(raw, func(v int) bool { return v > 0 }, "must be > 0"); err != nil {
			warn(EnvOutboxMaxAttempts, raw, err)
		} else {
			cfg.Orders.OutboxMaxAttempts = v
		}
	}

	setString(lookup, EnvPostgresDSN, &cfg.Postgres.DSN)
	if raw, ok := nonEmpty(lookup, EnvPostgresAutoMigrate); ok {
		if v, err := ParseBool(raw); err != nil {
			warn(EnvPostgresAutoMigrate, raw, err)
		} else {
			cfg.Postgres.AutoMigrate = v
		}
	}
	if raw, ok := nonEmpty(lookup, EnvPostgresMaxOpenConns); ok {
		if v, err := ParseInt(raw, func(v int) bool { return v > 0 }, "must be > 0"); err != nil {
			warn(EnvPostgresMaxOpenConns, raw, err)
		} else {
			cfg.Postgres.MaxOpenConns = v
		}
	}

	if raw, ok := lookup(EnvKafkaBrokers); ok {
		cfg.Kafka.Brokers = parseBrokers(raw)
	}
	setString(lookup, EnvKafkaOrderTopic, &cfg.Kafka.OrderTopic)
	setString(lookup, EnvKafkaNewsletterTopic, &cfg.Kafka.NewsletterTopic)
	setString(lookup, EnvKafkaDLQTopic, &cfg.Kafka.DLQTopic)

	return cfg, warnings, nil
}

// ParseBool принимает true/false, 1/0, yes/no, on/off без учёта регистра.
func ParseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value %q", raw)
	}
}

// ParseInt разбирает целое и проверяет его valid.
func ParseInt(raw string, valid func(int) bool, rule string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if valid != nil && !valid(v) {
		return 0, fmt.Errorf("value %d %s", v, rule)
	}
	return v, nil
}

// ParseDuration разбирает длительность и проверяет её valid.
func ParseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if valid != nil && !valid(v) {
		return 0, fmt.Errorf("value %s %s", v, rule)
	}
	return v, nil
}

func positive(v time.Duration) bool { return v > 0 }
func nonNegative(v time.Duration) bool { return v >= 0 }

func nonEmpty(lookup EnvLookup, key string) (string, bool) {
	raw, ok := lookup(key)
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func setString(lookup EnvLookup, key string, dst *string) {
	if v, ok := nonEmpty(lookup, key); ok {
		*dst = v
	}
}
