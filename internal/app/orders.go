package app

import (
	"context"
	"errors"
	"net"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/idempotency"
	"github.com/vladislavdragonenkov/storefront/internal/service/orders"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

// ordersServiceName — имя сервиса в gRPC health.
const ordersServiceName = "storefront.orders"

// RunOrderService запускает HTTP API сервиса заказов и gRPC health, блокируется до отмены ctx.
func RunOrderService(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "order-service")
	if err := cfg.ValidateOrderService(); err != nil {
		return err
	}

	deps, err := initOrderDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.WithError(err).Warn("failed to close postgres store")
		}
	}()

	// Kafka необязательна: без брокеров заказы принимаются, события не публикуются.
	producer, _ := initKafkaProducer(cfg.Kafka.Brokers, logger)
	defer closeKafka(producer, logger)

	orderMetrics := metrics.NewOrderServiceMetrics()

	// Outbox останавливается раньше producer: отложенные вызовы выполняются в обратном порядке.
	if producer != nil {
		relayCtx, cancelRelay := context.WithCancel(ctx)
		relayDone := make(chan struct{})
		relay := newOutboxWorker(producer, deps.outbox, cfg, orderMetrics, logger)
		go func() {
			defer close(relayDone)
			relay.Run(relayCtx)
		}()
		defer func() {
			cancelRelay()
			<-relayDone
		}()
	}

	svc := orders.NewService(
		deps.orders,
		deps.newsletter,
		orders.WithPublisher(newEventPublisher(producer, deps.outbox, cfg.Kafka)),
		orders.WithMetrics(orderMetrics),
		orders.WithLogger(logger.WithField("layer", "service")),
	)
	handler := orders.NewHandler(svc, deps.idempotency, orderMetrics, logger.WithField("layer", "http"))

	router := newRouter(logger.WithField("layer", "http"), metrics.NewHTTPMetrics(prometheus.DefaultRegisterer, "orders"))
	handler.Routes(router)

	cleanup := idempotency.NewCleanupWorker(
		deps.idempotency,
		idempotency.WithLogger(logger.WithField("layer", "idempotency-cleanup")),
		idempotency.WithMetrics(orderMetrics),
		idempotency.WithInterval(cfg.Orders.IdempotencyCleanupInterval),
		idempotency.WithBatchSize(cfg.Orders.IdempotencyCleanupBatchSize),
	)
	go cleanup.Run(ctx)

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	if deps.store != nil {
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", deps.store.Ping))
	}
	metricsSrv := startMetricsServer(ctx, cfg.Orders.MetricsAddr, logger, healthHandler)

	grpcServer, healthServer := newGRPCServer(logger)
	grpcLis, err := net.Listen("tcp", cfg.Orders.GRPCAddr)
	if err != nil {
		shutdownHTTP(metricsSrv, logger)
		return err
	}
	httpSrv, httpLis, err := listenHTTP(cfg.Orders.HTTPAddr, router)
	if err != nil {
		_ = grpcLis.Close()
		shutdownHTTP(metricsSrv, logger)
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Infof("gRPC сервер слушает %s", grpcLis.Addr())
		err := grpcServer.Serve(grpcLis)
		if errors.Is(err, grpc.ErrServerStopped) {
			err = nil
		}
		errCh <- err
	}()
	serve(httpSrv, httpLis, errCh)
	logger.WithField("addr", httpLis.Addr().String()).Info("order service API listening")

	stop := func() {
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		healthServer.SetServingStatus(ordersServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
		shutdownHTTP(httpSrv, logger)
		stopGRPC(grpcServer, logger)
		shutdownHTTP(metricsSrv, logger)
	}

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем сервис заказов")
		stop()
		return ctx.Err()
	case err := <-errCh:
		stop()
		return err
	}
}

// newGRPCServer создаёт gRPC сервер с health, reflection и метриками.
func newGRPCServer(logger *log.Entry) (*grpc.Server, *health.Server) {
	grpcMetrics := promgrpc.NewServerMetrics()
	if err := prometheus.Register(grpcMetrics); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*promgrpc.ServerMetrics); ok {
				grpcMetrics = existing
			}
		} else {
			logger.WithError(err).Warn("failed to register grpc metrics")
		}
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()))

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(ordersServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	// reflection нужен grpcurl в окружениях без proto-файлов.
	reflection.Register(grpcServer)
	grpcMetrics.InitializeMetrics(grpcServer)

	return grpcServer, healthServer
}

func stopGRPC(srv *grpc.Server, logger *log.Entry) {
	stopped := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(shutdownTimeout):
		logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
		srv.Stop()
	}
}
