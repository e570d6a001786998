package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RMahshie/twinion/internal/processing"
	"github.com/RMahshie/twinion/internal/repository"
	"github.com/RMahshie/twinion/internal/storage"
	"github.com/RMahshie/twinion/pkg/models"
)

// uploadExpiry matches the lifetime of presigned upload URLs
const uploadExpiry = 15 * time.Minute

// RunHandler handles run-related HTTP requests
type RunHandler struct {
	repo          repository.RunRepository
	s3Service     storage.S3Service
	processingSvc processing.ProcessingService
	defaults      models.RunSettings
	logger        zerolog.Logger
}

// NewRunHandler creates a new run handler. defaults fill every setting a
// request leaves unset.
func NewRunHandler(repo repository.RunRepository, s3Service storage.S3Service, processingSvc processing.ProcessingService, defaults models.RunSettings, logger zerolog.Logger) *RunHandler {
	return &RunHandler{
		repo:          repo,
		s3Service:     s3Service,
		processingSvc: processingSvc,
		defaults:      defaults,
		logger:        logger,
	}
}

// CreateRun registers a run and returns upload URLs for its two inputs
func (h *RunHandler) CreateRun(ctx context.Context, req *models.CreateRunRequest) (*models.CreateRunResponse, error) {
	runID := uuid.New()
	logger := h.logger.With().Str("runID", runID.String()).Logger()

	settings := h.defaults
	if req.Body.TimeHalfWindow != nil {
		settings.TimeHalfWindow = *req.Body.TimeHalfWindow
	}
	if req.Body.MassDelta != nil {
		settings.MassDelta = *req.Body.MassDelta
	}
	if req.Body.SmoothingHalfWidth != nil {
		settings.SmoothingHalfWidth = *req.Body.SmoothingHalfWidth
	}
	if req.Body.MaxHits != nil {
		settings.MaxHits = *req.Body.MaxHits
	}
	if settings.TimeHalfWindow < 0 || settings.SmoothingHalfWidth < 0 || settings.MaxHits < 1 {
		return nil, huma.Error400BadRequest("Invalid extraction settings", nil)
	}

	datasetKey := fmt.Sprintf("runs/%s/dataset.mzML", runID)
	hitsKey := fmt.Sprintf("runs/%s/hits.csv", runID)

	logger.Info().Str("datasetKey", datasetKey).Str("hitsKey", hitsKey).Msg("Generating S3 upload URLs")
	datasetURL, err := h.s3Service.GenerateUploadURL(ctx, datasetKey, storage.ContentTypeMzML)
	if err != nil {
		return nil, uploadError(err)
	}
	hitsURL, err := h.s3Service.GenerateUploadURL(ctx, hitsKey, storage.ContentTypeCSV)
	if err != nil {
		return nil, uploadError(err)
	}

	now := time.Now()
	run := &models.Run{
		ID:         runID.String(),
		DatasetKey: datasetKey,
		HitsKey:    hitsKey,
		Settings:   settings,
		Status:     models.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.repo.Create(ctx, run); err != nil {
		return nil, huma.Error500InternalServerError("Failed to create run", err)
	}

	logger.Info().Msg("Run created, returning upload URLs to client")
	return &models.CreateRunResponse{
		Body: models.CreateRunResponseBody{
			ID:               run.ID,
			Status:           run.Status,
			Settings:         run.Settings,
			DatasetKey:       datasetKey,
			DatasetUploadURL: datasetURL,
			HitsKey:          hitsKey,
			HitsUploadURL:    hitsURL,
			ExpiresIn:        int(uploadExpiry.Seconds()),
		},
	}, nil
}

// GetRunStatus returns the current status of a run
func (h *RunHandler) GetRunStatus(ctx context.Context, req *models.RunIDRequest) (*models.GetRunStatusResponse, error) {
	run, _, err := h.lookup(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	message := statusMessage(run.Status, run.Progress)
	if run.Status == models.StatusFailed && run.ErrorMsg != nil {
		message = *run.ErrorMsg
	}

	return &models.GetRunStatusResponse{
		Body: models.GetRunStatusResponseBody{
			ID:          run.ID,
			Status:      run.Status,
			Progress:    run.Progress,
			Message:     message,
			HitCount:    run.HitCount,
			RecordCount: run.RecordCount,
		},
	}, nil
}

// StartProcessing starts extraction of an uploaded run
func (h *RunHandler) StartProcessing(ctx context.Context, req *models.RunIDRequest) (*models.StartProcessingResponse, error) {
	run, runID, err := h.lookup(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if run.Status == models.StatusProcessing {
		return nil, huma.Error409Conflict("Run is already processing",
			fmt.Errorf("run status is %s", run.Status))
	}

	h.logger.Info().Str("runID", run.ID).Msg("Starting background processing goroutine")
	go func() {
		if err := h.processingSvc.ProcessRun(context.Background(), runID); err != nil {
			h.logger.Error().Err(err).Str("runID", runID.String()).Msg("Processing failed")
			if err := h.repo.UpdateError(context.Background(), runID, fmt.Sprintf("Processing failed: %v", err)); err != nil {
				h.logger.Error().Err(err).Str("runID", runID.String()).Msg("Failed to mark run as failed")
			}
		}
	}()

	resp := &models.StartProcessingResponse{}
	resp.Body.Message = "Processing started successfully"
	return resp, nil
}

// ListHits lists the stored output units of a run
func (h *RunHandler) ListHits(ctx context.Context, req *models.RunIDRequest) (*models.ListHitsResponse, error) {
	run, runID, err := h.lookup(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	hits, err := h.repo.ListHits(ctx, runID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list hits", err)
	}

	resp := &models.ListHitsResponse{}
	resp.Body.RunID = run.ID
	resp.Body.Hits = hits
	return resp, nil
}

// GetHit returns the records of one output unit
func (h *RunHandler) GetHit(ctx context.Context, req *models.GetHitRequest) (*models.GetHitResponse, error) {
	runID, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid run ID", err)
	}

	unit, err := h.repo.GetHit(ctx, runID, req.Hit)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, huma.Error404NotFound("Hit not found", err)
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to get hit", err)
	}

	resp := &models.GetHitResponse{}
	resp.Body.RunID = unit.RunID
	resp.Body.HitNumber = unit.HitNumber
	resp.Body.Records = unit.Records
	return resp, nil
}

// lookup parses id and loads its run
func (h *RunHandler) lookup(ctx context.Context, id string) (*models.Run, uuid.UUID, error) {
	runID, err := uuid.Parse(id)
	if err != nil {
		return nil, uuid.Nil, huma.Error400BadRequest("Invalid run ID", err)
	}

	run, err := h.repo.GetByID(ctx, runID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, runID, huma.Error404NotFound("Run not found", err)
	}
	if err != nil {
		return nil, runID, huma.Error500InternalServerError("Failed to get run", err)
	}
	return run, runID, nil
}

func uploadError(err error) error {
	if strings.Contains(err.Error(), "invalid content type") {
		return huma.Error400BadRequest("Upload format not supported.", err)
	}
	return huma.Error500InternalServerError("Failed to prepare upload. Please try again.", err)
}

// statusMessage creates a human-readable status message
func statusMessage(status string, progress int) string {
	switch status {
	case models.StatusPending:
		return "Waiting for dataset and hit list upload..."
	case models.StatusProcessing:
		switch {
		case progress < 20:
			return "Starting extraction..."
		case progress < 50:
			return "Loading dataset..."
		case progress < 60:
			return "Reading hit list..."
		default:
			return "Extracting ion chromatograms..."
		}
	case models.StatusCompleted:
		return "Extraction complete!"
	case models.StatusFailed:
		return "Extraction failed."
	default:
		return "Unknown status"
	}
}
