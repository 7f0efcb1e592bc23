package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/app"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

// setupLogger настраивает формат и уровень логирования витрины.
func setupLogger() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
	if raw, ok := os.LookupEnv("LOG_LEVEL"); ok {
		if level, err := log.ParseLevel(raw); err == nil {
			log.SetLevel(level)
		}
	}
}

// readConfig собирает конфигурацию из файла и переменных окружения.
func readConfig() (app.Config, error) {
	cfg, warnings, err := app.ConfigFromEnv(os.LookupEnv)
	for _, w := range warnings {
		log.Warn(w)
	}
	return cfg, err
}

func main() {
	setupLogger()
	cfg, err := readConfig()
	if err != nil {
		log.WithError(err).Fatal("не удалось прочитать конфигурацию")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"version":       version.GetVersion(),
		"http_addr":     cfg.Storefront.HTTPAddr,
		"metrics_addr":  cfg.Storefront.MetricsAddr,
		"order_service": cfg.Storefront.OrderServiceURL,
		"cart_storage":  cfg.Storefront.CartStorage,
	}).Info("запускаем витрину LUXE")

	if err := app.RunStorefront(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("витрина завершилась с ошибкой")
	}

	log.Info("витрина остановлена")
}
