package httpx

import (
	"log/slog"
	"net/http"

	"github.com/krishnx/vestigas/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Ingest     *service.IngestService
	Deliveries *service.DeliveryQueryService
	Logger     *slog.Logger // Optional: request logging and panic recovery
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	jobHandlers := &JobHandlers{Svc: services.Ingest}
	deliveryHandlers := &DeliveryHandlers{Svc: services.Deliveries}

	mux.Handle("POST /fetch", http.HandlerFunc(jobHandlers.CreateFetchJob))
	mux.Handle("GET /jobs/{id}", http.HandlerFunc(jobHandlers.GetJob))
	mux.Handle("GET /jobs/{id}/results", http.HandlerFunc(jobHandlers.GetJobResults))
	mux.Handle("GET /deliveries", http.HandlerFunc(deliveryHandlers.ListDeliveries))

	mux.Handle("GET /health", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /health", http.HandlerFunc(healthHandler))
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var handler http.Handler = mux
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}
