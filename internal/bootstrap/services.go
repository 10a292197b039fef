package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/krishnx/vestigas/config"
	"github.com/krishnx/vestigas/internal/adapters/partner"
	"github.com/krishnx/vestigas/internal/core"
	"github.com/krishnx/vestigas/internal/data"
	"github.com/krishnx/vestigas/internal/domain/normalize"
	"github.com/krishnx/vestigas/internal/domain/scoring"
	"github.com/krishnx/vestigas/internal/observability/statsd"
	"github.com/krishnx/vestigas/internal/service"
)

// ServiceContainer holds the constructed application services.
type ServiceContainer struct {
	Ingest     *service.IngestService
	Deliveries *service.DeliveryQueryService
	Statsd     *statsd.Client
}

// ServiceDeps holds everything needed to construct the services.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB      // nil when running on in-memory stores
	RedisClient *redis.Client // nil when no Redis is configured
	Logger      *slog.Logger
}

// NewServices constructs the application services from shared infrastructure.
func NewServices(deps *ServiceDeps) (*ServiceContainer, error) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var (
		jobRepo      core.JobRepository
		deliveryRepo core.DeliveryRepository
	)
	if deps.DB != nil {
		jobRepo = data.NewJobRepo(deps.DB)
		deliveryRepo = data.NewDeliveryRepo(deps.DB)
	} else {
		logger.Warn("no database configured, using in-memory stores")
		memJobs := data.NewMemJobRepo()
		memDeliveries := data.NewMemDeliveryRepo()
		memDeliveries.SetJobResolver(memJobs)
		jobRepo = memJobs
		deliveryRepo = memDeliveries
	}

	var cacheRepo core.CacheRepository
	if deps.RedisClient != nil {
		cacheRepo = data.NewRedisCacheRepo(deps.RedisClient)
	} else {
		cacheRepo = data.NewMemCacheRepo()
	}

	clients, err := buildPartnerClients(cfg)
	if err != nil {
		return nil, err
	}

	sink, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.Statsd.Enabled,
		Address: cfg.Statsd.Address,
		Prefix:  cfg.Statsd.Prefix,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build statsd client: %w", err)
	}

	fetcher, err := service.NewFetchService(service.FetchServiceOptions{
		Clients: clients,
		Config: service.FetchConfig{
			Timeout:     cfg.Fetch.Timeout,
			MaxAttempts: cfg.Fetch.MaxAttempts,
			BackoffBase: cfg.Fetch.BackoffBase,
		},
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build fetch service: %w", err)
	}

	scorer, err := scoring.NewEngine(map[string]float64{
		scoring.CriterionCompleteness: cfg.Scoring.CompletenessWeight,
		scoring.CriterionDelivered:    cfg.Scoring.DeliveredWeight,
		scoring.CriterionSigned:       cfg.Scoring.SignedWeight,
	})
	if err != nil {
		return nil, fmt.Errorf("build scoring engine: %w", err)
	}

	ingest, err := service.NewIngestService(service.IngestServiceOptions{
		Deps: service.IngestDeps{
			Jobs:       jobRepo,
			Deliveries: deliveryRepo,
			Fetcher:    fetcher,
			Normalizer: normalize.DefaultEngine(),
			Scorer:     scorer,
			Cache:      cacheRepo,
			Metrics:    sink,
		},
		ResultCacheTTL: cfg.Scoring.ResultCacheTTL,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build ingest service: %w", err)
	}

	deliveries, err := service.NewDeliveryQueryService(service.DeliveryQueryServiceOptions{
		Repo:   deliveryRepo,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build delivery query service: %w", err)
	}

	return &ServiceContainer{Ingest: ingest, Deliveries: deliveries, Statsd: sink}, nil
}

func buildPartnerClients(cfg *config.AppConfig) ([]core.PartnerClient, error) {
	endpoints := map[string]string{
		normalize.PartnerA: cfg.Partners.PartnerAURL,
		normalize.PartnerB: cfg.Partners.PartnerBURL,
	}

	clients := make([]core.PartnerClient, 0, len(endpoints))
	for _, id := range []string{normalize.PartnerA, normalize.PartnerB} {
		baseURL := endpoints[id]
		if baseURL == "" {
			continue
		}
		client, err := partner.NewHTTPClient(partner.ClientOptions{
			PartnerID: id,
			BaseURL:   baseURL,
			Timeout:   cfg.Fetch.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("build partner client %s: %w", id, err)
		}
		clients = append(clients, client)
	}
	if len(clients) == 0 {
		return nil, fmt.Errorf("no partner feeds configured, set PARTNER_A_URL or PARTNER_B_URL")
	}
	return clients, nil
}
