package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/inventory-backend/internal/cfg"
	v1Grpc "github.com/DRSN-tech/inventory-backend/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/inventory-backend/internal/delivery/v1/http"
	"github.com/DRSN-tech/inventory-backend/internal/infrastructure/kafka"
	minioInfra "github.com/DRSN-tech/inventory-backend/internal/infrastructure/minio"
	s3Repo "github.com/DRSN-tech/inventory-backend/internal/repository/minio"
	"github.com/DRSN-tech/inventory-backend/internal/repository/pgdb"
	"github.com/DRSN-tech/inventory-backend/internal/repository/redis"
	"github.com/DRSN-tech/inventory-backend/internal/usecase"
	"github.com/DRSN-tech/inventory-backend/pkg/clients"
	"github.com/DRSN-tech/inventory-backend/pkg/closer"
	"github.com/DRSN-tech/inventory-backend/pkg/e"
	"github.com/DRSN-tech/inventory-backend/pkg/logger"
	"github.com/DRSN-tech/inventory-backend/pkg/metrics"
	"github.com/DRSN-tech/inventory-backend/pkg/postgres"
	"github.com/DRSN-tech/inventory-backend/pkg/tr"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jimlawless/whereami"
)

const (
	initTimeout     = 10 * time.Second
	shutdownTimeout = 15 * time.Second
	forcedTimeout   = 3 * time.Second
)

// App собирает зависимости и управляет жизненным циклом серверов и фоновых процессов.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer

	httpSrv *v1Http.Server
	grpcSrv *v1Grpc.GRPCServer
	worker  *kafka.OutboxWorker

	// bgCtx живёт до конца Run: фоновые загрузки чеков отменяются только после закрытия всех ресурсов
	bgCtx    context.Context
	bgCancel context.CancelFunc
}

func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{
		cfg:    cfg,
		logger: log,
		closer: closer.New(forcedTimeout),
	}
	a.bgCtx, a.bgCancel = context.WithCancel(context.Background())

	if err := a.init(); err != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if closeErr := a.closer.Close(ctx); closeErr != nil {
			log.Warnf("cleanup after failed init: %v", closeErr)
		}
		a.bgCancel()
		return nil, err
	}

	return a, nil
}

func (a *App) init() error {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	db, err := initPGDB(ctx, a.logger, a.cfg)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.Add("postgres", func(context.Context) error {
		db.Close()
		return nil
	})

	redisClient := clients.NewRedisClient(a.cfg.Redis)
	a.closer.Add("redis", redisClient.Close)
	if err := redisClient.Ping(ctx); err != nil {
		a.logger.Errorf(err, "failed to connect to redis")
		return e.Wrap(whereami.WhereAmI(), err)
	}

	minioClient, err := clients.NewMinIOClient(a.cfg.Minio)
	if err != nil {
		a.logger.Errorf(err, "failed to initialize minio client")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if err := clients.EnsureBucket(ctx, minioClient, a.cfg.Minio.BucketName); err != nil {
		a.logger.Errorf(err, "failed to initialize MinIO bucket")
		return e.Wrap(whereami.WhereAmI(), err)
	}

	producer := kafka.NewProducer(a.logger, a.cfg.Kafka)
	a.closer.Add("kafka producer", producer.Close)
	// Продажи не зависят от брокера: события копятся в outbox до его появления
	if err := producer.EnsureTopic(initTimeout); err != nil {
		a.logger.Warnf("kafka topic is not ready, outbox will retry: %v", err)
	}

	// Repositories
	txManager := tr.NewManager(db.Pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	productRepo := pgdb.NewProductRepo(db.Pool)
	saleRepo := pgdb.NewSaleRepo(db.Pool)
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool)
	reportRepo := pgdb.NewReportRepo(db.SQLX())
	cacheRepo := redis.NewCacheRepo(redisClient, a.cfg.Redis, a.logger)
	receiptRepo := s3Repo.NewReceiptRepo(minioClient, a.cfg.Minio)

	// Infrastructure
	receipts := minioInfra.NewReceiptArchive(receiptRepo, a.logger, a.bgCtx, a.cfg.Minio.UploadTimeout)
	a.closer.Add("receipt archive", receipts.Wait)

	a.worker = kafka.NewOutboxWorker(outboxRepo, a.logger, producer, a.cfg.Outbox, db.Dsn)
	a.closer.Add("outbox worker", a.worker.Stop)

	registry := metrics.NewRegistry()
	salesMetrics := metrics.NewSalesMetrics(registry)
	serverMetrics := metrics.NewServerMetrics(registry, "api")

	// Usecases
	saleUC := usecase.NewSaleUC(
		txManager,
		productRepo,
		saleRepo,
		outboxRepo,
		reportRepo,
		receiptRepo,
		cacheRepo,
		receipts,
		salesMetrics,
		a.logger,
		a.cfg.Sales.MaxLimit,
	)
	productUC := usecase.NewProductUC(productRepo, cacheRepo, a.logger)
	reportUC := usecase.NewReportUC(reportRepo, cacheRepo, a.logger)

	a.grpcSrv = v1Grpc.NewGRPCServer(a.cfg.Grpc, a.logger)
	a.closer.Add("grpc server", a.grpcSrv.Stop)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, a.logger, a.cfg.Http, registry, serverMetrics)
	router.Init(saleUC, productUC, reportUC, db, a.cfg.Sales.RecentLimit)

	a.httpSrv = v1Http.NewServer(r, a.cfg.Http)
	a.closer.Add("http server", a.httpSrv.Stop)

	return nil
}

// Run запускает серверы и outbox-worker и блокируется до сигнала остановки или падения сервера.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer a.bgCancel()

	a.worker.Start(a.bgCtx)

	errCh := make(chan error, 2)
	go func() {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			errCh <- e.Wrap("gRPC server", err)
		}
	}()

	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil {
			errCh <- e.Wrap("HTTP server", err)
		}
	}()

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "server fatal error")
	case <-ctx.Done():
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	// Балансировщик должен перестать слать трафик раньше, чем закроются соединения
	a.grpcSrv.SetServing(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Warnf("shutdown finished with errors: %v", err)
		if appErr == nil && !errors.Is(err, context.DeadlineExceeded) {
			appErr = err
		}
	}

	a.logger.Infof("Application shutdown complete")
	return appErr
}

func initPGDB(ctx context.Context, logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(ctx, cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		db.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
