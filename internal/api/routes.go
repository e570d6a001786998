package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/RMahshie/twinion/internal/api/handlers"
	"github.com/RMahshie/twinion/internal/processing"
	"github.com/RMahshie/twinion/internal/repository"
	"github.com/RMahshie/twinion/internal/storage"
	"github.com/RMahshie/twinion/pkg/models"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(router chi.Router, api huma.API, s3Service storage.S3Service, runRepo repository.RunRepository, processingSvc processing.ProcessingService, defaults models.RunSettings, gatherer prometheus.Gatherer, logger zerolog.Logger) {
	// Initialize handlers
	runHandler := handlers.NewRunHandler(runRepo, s3Service, processingSvc, defaults, logger)

	// Register run routes
	huma.Register(api, huma.Operation{
		OperationID: "createRun",
		Method:      http.MethodPost,
		Path:        "/api/runs",
		Summary:     "Create a new run",
		Description: "Creates a run record and returns upload URLs for its dataset and hit list",
		Tags:        []string{"Runs"},
	}, runHandler.CreateRun)

	huma.Register(api, huma.Operation{
		OperationID: "startProcessing",
		Method:      http.MethodPost,
		Path:        "/api/runs/{id}/process",
		Summary:     "Start processing run",
		Description: "Starts extraction of an uploaded dataset and hit list",
		Tags:        []string{"Runs"},
	}, runHandler.StartProcessing)

	huma.Register(api, huma.Operation{
		OperationID: "getRunStatus",
		Method:      http.MethodGet,
		Path:        "/api/runs/{id}/status",
		Summary:     "Get run status",
		Description: "Returns the current status, progress and counts of a run",
		Tags:        []string{"Runs"},
	}, runHandler.GetRunStatus)

	huma.Register(api, huma.Operation{
		OperationID: "listHits",
		Method:      http.MethodGet,
		Path:        "/api/runs/{id}/hits",
		Summary:     "List output units",
		Description: "Lists the stored output unit of every processed hit",
		Tags:        []string{"Hits"},
	}, runHandler.ListHits)

	huma.Register(api, huma.Operation{
		OperationID: "getHit",
		Method:      http.MethodGet,
		Path:        "/api/runs/{id}/hits/{hit}",
		Summary:     "Get output unit",
		Description: "Returns the extraction records of one hit",
		Tags:        []string{"Hits"},
	}, runHandler.GetHit)

	// Prometheus scrape endpoint
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
