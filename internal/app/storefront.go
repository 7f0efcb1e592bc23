package app

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/catalog"
	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/orderclient"
	"github.com/vladislavdragonenkov/storefront/internal/pricing"
	"github.com/vladislavdragonenkov/storefront/internal/service/storefront"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

const sessionEvictionInterval = 10 * time.Minute

// RunStorefront запускает JSON API витрины и блокируется до отмены ctx.
func RunStorefront(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "storefront")
	if err := cfg.ValidateStorefront(); err != nil {
		return err
	}

	engine, err := pricing.NewEngine(cfg.Pricing.Rules())
	if err != nil {
		return err
	}

	carts, store, err := initCartRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.WithError(err).Warn("failed to close postgres store")
		}
	}()

	clientOpts := []orderclient.Option{orderclient.WithLogger(logger.WithField("layer", "orderclient"))}
	if cfg.Storefront.OrderTimeout > 0 {
		clientOpts = append(clientOpts, orderclient.WithTimeout(cfg.Storefront.OrderTimeout))
	}
	orders, err := orderclient.New(cfg.Storefront.OrderServiceURL, clientOpts...)
	if err != nil {
		return err
	}

	checkoutMetrics := metrics.NewCheckoutMetrics()
	hub := storefront.NewHub(carts, checkoutMetrics, logger.WithField("layer", "sessions"))
	handler := storefront.NewHandler(hub, catalog.Default(), engine, orders, checkoutMetrics, logger.WithField("layer", "http"))

	router := newRouter(logger.WithField("layer", "http"), metrics.NewHTTPMetrics(prometheus.DefaultRegisterer, "storefront"))
	handler.Routes(router)

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("order-service", healthcheck.NewOptionalChecker("order-service", dialChecker(orders.BaseURL())))
	if store != nil {
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", store.Ping))
	}
	metricsSrv := startMetricsServer(ctx, cfg.Storefront.MetricsAddr, logger, healthHandler)

	srv, lis, err := listenHTTP(cfg.Storefront.HTTPAddr, router)
	if err != nil {
		shutdownHTTP(metricsSrv, logger)
		return err
	}

	go hub.RunEviction(ctx, sessionEvictionInterval, cfg.Storefront.SessionIdleTimeout)

	errCh := make(chan error, 1)
	serve(srv, lis, errCh)
	logger.WithFields(log.Fields{
		"addr":          lis.Addr().String(),
		"order_service": orders.BaseURL(),
	}).Info("storefront API listening")

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем витрину")
		shutdownHTTP(srv, logger)
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		return err
	}
}
