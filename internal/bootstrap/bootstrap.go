package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/supplyops/wc-optimizer/internal/config"
	"github.com/supplyops/wc-optimizer/internal/core/domain"
	"github.com/supplyops/wc-optimizer/internal/core/ports"
	"github.com/supplyops/wc-optimizer/internal/core/usecase"
	natsevents "github.com/supplyops/wc-optimizer/internal/infrastructure/events/nats"
	graphstore "github.com/supplyops/wc-optimizer/internal/infrastructure/graph/neo4j"
	"github.com/supplyops/wc-optimizer/internal/infrastructure/ingest"
	"github.com/supplyops/wc-optimizer/internal/infrastructure/repository/postgres"
	"github.com/supplyops/wc-optimizer/internal/infrastructure/resilience"
	"github.com/supplyops/wc-optimizer/internal/infrastructure/storage/localfs"
	"github.com/supplyops/wc-optimizer/internal/observability/logging"
	"github.com/supplyops/wc-optimizer/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Log     *slog.Logger
	Metrics *metrics.ServerMetrics

	Catalog  ports.AnalysisCatalog
	Ingestor ports.DatasetIngestor
	Admin    ports.StoreAdmin
	Gate     ports.QueryGate

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	log := logging.NewJSONLogger("wc-optimizer", cfg.LogLevel)
	slog.SetDefault(log)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	store := postgres.NewDatasetStore(db)
	inventoryRepo := postgres.NewInventoryRepository(db)
	salesRepo := postgres.NewSalesRepository(db)
	ledgerRepo := postgres.NewLedgerRepository(db)
	supplierRepo := postgres.NewSupplierRepository(db)
	catalogRepo := postgres.NewCatalogRepository(db)
	shipmentRepo := postgres.NewShipmentRepository(db)
	queryRunner := postgres.NewQueryRunner(db)
	columnReader := postgres.NewColumnReader(db)

	executor := resilience.NewExecutor(resilience.DefaultConfig(), log)
	graph, err := graphstore.NewStore(ctx, graphstore.Config{
		URI:      cfg.Neo4jURI,
		Username: cfg.Neo4jUser,
		Password: cfg.Neo4jPassword,
		Database: cfg.Neo4jDatabase,
	}, executor, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init graph store: %w", err)
	}

	var events ports.EventPublisher = noopPublisher{}
	var publisher *natsevents.Publisher
	if cfg.NATSEnabled {
		publisher, err = natsevents.NewPublisher(cfg.NATSURL, cfg.NATSSubject, log,
			natsevents.Options{Executor: executor})
		if err != nil {
			log.Warn("nats unavailable, dataset events disabled", "error", err)
		} else {
			events = publisher
		}
	}

	serverMetrics := metrics.NewServerMetrics("api")

	defaults := engineDefaults(cfg)
	avail := usecase.NewAvailabilityResolver(store)
	metricsEngine := usecase.NewMetricsEngine(avail, inventoryRepo, salesRepo, ledgerRepo, catalogRepo, defaults)
	inventoryEngine := usecase.NewInventoryEngine(inventoryRepo, salesRepo, catalogRepo, avail, defaults)
	demandEngine := usecase.NewDemandEngine(salesRepo, columnReader, avail, defaults)
	supplierEngine := usecase.NewSupplierEngine(supplierRepo, graph, avail, log)
	dataOps := usecase.NewDataOpsEngine(store, graph, avail, inventoryRepo, salesRepo,
		supplierRepo, catalogRepo, ledgerRepo, shipmentRepo, catalogRepo, log)
	gate := usecase.NewSQLGate(queryRunner, cfg.QueryRowCap)

	archive, err := localfs.New(cfg.UploadArchivePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init upload archive: %w", err)
	}
	ingestor := usecase.NewIngestor(ingest.NewParser(), store, graph, supplierRepo, events, archive, log)
	catalog := usecase.NewCatalog(avail, metricsEngine, inventoryEngine, demandEngine,
		supplierEngine, dataOps, gate, serverMetrics)

	return &App{
		Config:   cfg,
		Log:      log,
		Metrics:  serverMetrics,
		Catalog:  catalog,
		Ingestor: ingestor,
		Admin:    dataOps,
		Gate:     gate,
		closeFn: func() {
			if publisher != nil {
				publisher.Close()
			}
			_ = graph.Close(context.Background())
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func engineDefaults(cfg config.Config) domain.EngineDefaults {
	d := domain.DefaultEngineDefaults()
	if cfg.HoldingCostRate > 0 {
		d.HoldingCostRate = cfg.HoldingCostRate
	}
	if cfg.OrderCost > 0 {
		d.OrderCost = cfg.OrderCost
	}
	if cfg.ServiceLevel > 0 {
		d.ServiceLevel = cfg.ServiceLevel
	}
	if cfg.DeadStockDays > 0 {
		d.DeadStockDays = cfg.DeadStockDays
	}
	if cfg.StockoutHorizonDays > 0 {
		d.StockoutHorizonDays = cfg.StockoutHorizonDays
	}
	if cfg.ForecastWindowDays > 0 {
		d.ForecastWindowDays = cfg.ForecastWindowDays
	}
	if cfg.ForecastHorizonDays > 0 {
		d.ForecastHorizonDays = cfg.ForecastHorizonDays
	}
	if cfg.AnomalyZThreshold > 0 {
		d.AnomalyZThreshold = cfg.AnomalyZThreshold
	}
	if cfg.QueryRowCap > 0 {
		d.QueryRowCap = cfg.QueryRowCap
	}
	return d
}

type noopPublisher struct{}

func (noopPublisher) PublishDatasetReplaced(context.Context, domain.Category, int64) error {
	return nil
}
