package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"fulfillment-backend/internal/config"
	completionHandler "fulfillment-backend/internal/domains/completion/handler"
	completionJob "fulfillment-backend/internal/domains/completion/job"
	completionService "fulfillment-backend/internal/domains/completion/service"
	"fulfillment-backend/internal/domains/inspection/classifier"
	inspectionHandler "fulfillment-backend/internal/domains/inspection/handler"
	inspectionService "fulfillment-backend/internal/domains/inspection/service"
	procurementHandler "fulfillment-backend/internal/domains/procurement/handler"
	procurementService "fulfillment-backend/internal/domains/procurement/service"
	reportHandler "fulfillment-backend/internal/domains/report/handler"
	reportService "fulfillment-backend/internal/domains/report/service"
	requestHandler "fulfillment-backend/internal/domains/request/handler"
	requestService "fulfillment-backend/internal/domains/request/service"
	reservationHandler "fulfillment-backend/internal/domains/reservation/handler"
	reservationService "fulfillment-backend/internal/domains/reservation/service"
	sourcingHandler "fulfillment-backend/internal/domains/sourcing/handler"
	sourcingModel "fulfillment-backend/internal/domains/sourcing/model"
	sourcingService "fulfillment-backend/internal/domains/sourcing/service"
	supplierHandler "fulfillment-backend/internal/domains/supplier/handler"
	supplierService "fulfillment-backend/internal/domains/supplier/service"
	warehouseHandler "fulfillment-backend/internal/domains/warehouse/handler"
	warehouseService "fulfillment-backend/internal/domains/warehouse/service"
	infraCache "fulfillment-backend/internal/infrastructure/cache"
	"fulfillment-backend/internal/infrastructure/database"
	"fulfillment-backend/internal/infrastructure/events"
	"fulfillment-backend/internal/infrastructure/storage"
	"fulfillment-backend/internal/store"
	"fulfillment-backend/internal/store/memory"
	"fulfillment-backend/pkg/cache"
	"fulfillment-backend/pkg/jwt"
	"fulfillment-backend/pkg/logger"
)

// Container holds every long-lived dependency of the API process.
// Build order: config, infrastructure, services, handlers.
type Container struct {
	Config *config.Config

	// Infrastructure. DB, Redis and Asynq stay nil with APP_STORE=memory.
	DB         *database.PostgresDB
	Redis      *infraCache.RedisClient
	Cache      cache.Cache
	Store      store.Store
	Asynq      *asynq.Client
	Events     events.Publisher
	Images     inspectionService.ImageStore
	JWTManager *jwt.Manager

	// Services
	CompletionService  completionService.Service
	SourcingService    sourcingService.Service
	RequestService     requestService.Service
	ReservationService reservationService.Service
	InspectionService  inspectionService.Service
	ProcurementService procurementService.Service
	WarehouseService   warehouseService.Service
	SupplierService    supplierService.Service
	ReportService      reportService.Service

	// Handlers
	CompletionHandler  *completionHandler.CompletionHandler
	SourcingHandler    *sourcingHandler.SourcingHandler
	RequestHandler     *requestHandler.RequestHandler
	ReservationHandler *reservationHandler.ReservationHandler
	InspectionHandler  *inspectionHandler.InspectionHandler
	ProcurementHandler *procurementHandler.ProcurementHandler
	WarehouseHandler   *warehouseHandler.WarehouseHandler
	SupplierHandler    *supplierHandler.SupplierHandler
	ReportHandler      *reportHandler.ReportHandler
}

// NewContainer loads the configuration and builds the dependency graph.
func NewContainer() (*Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return Build(cfg)
}

// Build wires a container from an already loaded configuration.
func Build(cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}
	logger.Info("initializing container", map[string]interface{}{
		"environment": cfg.App.Environment,
		"store":       cfg.App.Store,
	})

	if err := c.initInfrastructure(); err != nil {
		c.Cleanup()
		return nil, err
	}
	c.initServices()
	c.initHandlers()

	logger.Info("container initialized", nil)
	return c, nil
}

func (c *Container) initInfrastructure() error {
	cfg := c.Config
	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)

	if cfg.App.Store == "memory" {
		st := memory.New()
		product := st.Seed().Demo()
		logger.Warn("using in-memory store, data is lost on exit", map[string]interface{}{
			"demo_product_id": product.String(),
		})
		c.Store = st
		c.Cache = cache.NewMemory()
		c.Images = storage.NewMemoryStorage()
		c.Events = events.NoopPublisher{}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.NewPostgresDB(cfg.Database.PoolConfig())
	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	c.DB = db
	c.Store = store.NewPostgresStore(db.Pool)
	logger.Info("database connected", map[string]interface{}{"host": cfg.Database.Host})

	redisClient := infraCache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := redisClient.Connect(ctx); err != nil {
		// The cache is an optimization; run without it.
		logger.Error("redis connection failed, caching disabled", err)
	} else {
		c.Redis = redisClient
		c.Cache = redisClient
	}

	c.Asynq = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Host,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	images, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
	if err != nil {
		return fmt.Errorf("failed to init object storage: %w", err)
	}
	c.Images = images

	if cfg.Kafka.Enabled() {
		c.Events = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	} else {
		c.Events = events.NoopPublisher{}
	}
	return nil
}

func (c *Container) initServices() {
	cfg := c.Config

	var recheck completionService.RecheckQueue
	if c.Asynq != nil {
		recheck = completionJob.NewEnqueuer(c.Asynq)
	}
	c.CompletionService = completionService.NewService(c.Store, c.Cache, cfg.Sourcing.StatusCacheTTL, c.Events, recheck)

	options := SourcingOptions(cfg)
	autoConfirm := cfg.Supplier.AutoConfirm()
	c.SourcingService = sourcingService.NewSourcingService(c.Store, options, autoConfirm, c.CompletionService, c.Cache)
	c.RequestService = requestService.NewRequestService(c.Store, c.SourcingService, c.Cache)
	c.ReservationService = reservationService.NewReservationService(c.Store, c.CompletionService)
	c.ProcurementService = procurementService.NewProcurementService(c.Store, c.SourcingService, options, autoConfirm, c.CompletionService)
	c.InspectionService = inspectionService.NewInspectionService(
		c.Store,
		c.Images,
		storage.NewImageProcessor(cfg.Classifier.MaxImageBytes),
		NewClassifier(cfg.Classifier),
		c.CompletionService,
	)
	c.WarehouseService = warehouseService.NewWarehouseService(c.Store, c.Cache)
	c.SupplierService = supplierService.NewSupplierService(c.Store, c.Cache)
	c.ReportService = reportService.NewReportService(c.Store)
}

func (c *Container) initHandlers() {
	c.CompletionHandler = completionHandler.NewCompletionHandler(c.CompletionService)
	c.SourcingHandler = sourcingHandler.NewSourcingHandler(c.SourcingService)
	c.RequestHandler = requestHandler.NewRequestHandler(c.RequestService)
	c.ReservationHandler = reservationHandler.NewReservationHandler(c.ReservationService)
	c.InspectionHandler = inspectionHandler.NewInspectionHandler(c.InspectionService, c.Config.Classifier.MaxImageBytes)
	c.ProcurementHandler = procurementHandler.NewProcurementHandler(c.ProcurementService)
	c.WarehouseHandler = warehouseHandler.NewWarehouseHandler(c.WarehouseService)
	c.SupplierHandler = supplierHandler.NewSupplierHandler(c.SupplierService)
	c.ReportHandler = reportHandler.NewReportHandler(c.ReportService)
}

// SourcingOptions maps the sourcing section onto planner options.
func SourcingOptions(cfg *config.Config) sourcingModel.Options {
	return sourcingModel.Options{
		SameCityDays:  cfg.Sourcing.SameCityDays,
		OtherCityDays: cfg.Sourcing.OtherCityDays,
		FavoredHubs:   cfg.Sourcing.FavoredHubs,
		PreviewTTL:    cfg.Sourcing.PreviewCacheTTL,
	}
}

// NewClassifier returns the HTTP classifier, or the mock when no API key is set.
func NewClassifier(cfg config.ClassifierConfig) classifier.Classifier {
	if cfg.APIKey == "" {
		logger.Warn("CLASSIFIER_API_KEY not set, using mock classifier", nil)
		return classifier.NewMockClassifier(time.Now().UnixNano())
	}
	return classifier.NewHTTPClassifier(classifier.HTTPConfig{
		URL:     cfg.APIURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		RPS:     cfg.RPS,
		Timeout: cfg.Timeout,
	})
}

// Cleanup releases connections. Safe on a partially built container.
func (c *Container) Cleanup() {
	if c.Asynq != nil {
		if err := c.Asynq.Close(); err != nil {
			logger.Error("failed to close asynq client", err)
		}
	}
	if c.Events != nil {
		if err := c.Events.Close(); err != nil {
			logger.Error("failed to close event publisher", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Error("failed to close redis", err)
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
	logger.Info("container cleanup completed", nil)
}
