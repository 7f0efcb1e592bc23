package app

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/outbox"
)

// parseBrokers разбирает список брокеров через запятую, пропуская пустые элементы.
func parseBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// initKafkaProducer инициализирует Kafka producer если brokers не пустой.
// Возвращает nil, nil если brokers пустой.
func initKafkaProducer(brokers []string, logger *log.Entry) (*kafka.Producer, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	producer, err := kafka.NewProducer(brokers, logger.WithField("layer", "kafka"))
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil, err
	}

	logger.WithField("brokers", brokers).Info("kafka producer initialized")
	return producer, nil
}

// newEventPublisher собирает паблишер событий сервиса заказов. События пишутся в outbox,
// в Kafka их переносит outbox.Worker. Без producer паблишер молча пропускает события.
func newEventPublisher(producer *kafka.Producer, repo domain.OutboxRepository, cfg KafkaConfig) *kafka.Publisher {
	if producer == nil || repo == nil {
		return kafka.NewPublisher(nil, cfg.OrderTopic, cfg.NewsletterTopic)
	}
	return kafka.NewPublisher(kafka.NewOutboxWriter(repo), cfg.OrderTopic, cfg.NewsletterTopic)
}

// newOutboxWorker переносит записи outbox в Kafka; неотправленные после MaxAttempts уходят в DLQ.
func newOutboxWorker(producer *kafka.Producer, repo domain.OutboxRepository, cfg Config, m *metrics.OrderServiceMetrics, logger *log.Entry) *outbox.Worker {
	return outbox.NewWorker(
		repo,
		kafka.NewOutboxRelay(producer),
		outbox.WithDLQPublisher(kafka.NewDLQPublisher(producer, cfg.Kafka.DLQTopic)),
		outbox.WithMetrics(m),
		outbox.WithLogger(logger.WithField("layer", "outbox")),
		outbox.WithPollInterval(cfg.Orders.OutboxPollInterval),
		outbox.WithMaxAttempts(cfg.Orders.OutboxMaxAttempts),
	)
}

// closeKafka закрывает Kafka producer если он не nil.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
