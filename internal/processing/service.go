package processing

import (
	"context"
	"fmt"
	"path"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RMahshie/twinion/internal/dataset"
	"github.com/RMahshie/twinion/internal/extraction"
	"github.com/RMahshie/twinion/internal/hits"
	"github.com/RMahshie/twinion/internal/metrics"
	"github.com/RMahshie/twinion/internal/repository"
	"github.com/RMahshie/twinion/internal/sink"
	"github.com/RMahshie/twinion/internal/storage"
	"github.com/RMahshie/twinion/pkg/models"
)

type ProcessingService interface {
	ProcessRun(ctx context.Context, runID uuid.UUID) error
}

type processingService struct {
	s3            storage.S3Service
	repository    repository.RunRepository
	resultsPrefix string // Empty disables uploading output units
	logger        zerolog.Logger
	metrics       *metrics.Metrics
}

func NewProcessingService(s3Service storage.S3Service, repo repository.RunRepository, resultsPrefix string, logger zerolog.Logger, m *metrics.Metrics) ProcessingService {
	return &processingService{
		s3:            s3Service,
		repository:    repo,
		resultsPrefix: resultsPrefix,
		logger:        logger,
		metrics:       m,
	}
}

func (s *processingService) ProcessRun(ctx context.Context, runID uuid.UUID) error {
	logger := s.logger.With().Str("runID", runID.String()).Logger()

	// Step 1: Update to processing status
	if err := s.repository.UpdateStatus(ctx, runID, models.StatusProcessing, 10); err != nil {
		return err
	}

	// Step 2: Get run details
	run, err := s.repository.GetByID(ctx, runID)
	if err != nil {
		return err
	}

	// Step 3: Load the dataset
	if err := s.repository.UpdateStatus(ctx, runID, models.StatusProcessing, 20); err != nil {
		return err
	}
	data, err := s.loadDataset(ctx, run.DatasetKey)
	if err != nil {
		logger.Error().Err(err).Str("datasetKey", run.DatasetKey).Msg("Failed to load dataset")
		s.fail(ctx, runID, "Failed to load dataset")
		return nil // Don't return error, status is updated to failed
	}
	logger.Info().Int("spectra", data.Len()).Int("peaks", data.Peaks()).Msg("Dataset loaded")

	// Step 4: Open the hit list
	if err := s.repository.UpdateStatus(ctx, runID, models.StatusProcessing, 50); err != nil {
		return err
	}
	hitsFile, err := s.s3.OpenFile(ctx, run.HitsKey)
	if err != nil {
		logger.Error().Err(err).Str("hitsKey", run.HitsKey).Msg("Failed to open hit list")
		s.fail(ctx, runID, "Failed to download hit list")
		return nil // Don't return error, status is updated to failed
	}
	defer hitsFile.Close()

	// Step 5: Extract every hit
	if err := s.repository.UpdateStatus(ctx, runID, models.StatusProcessing, 60); err != nil {
		return err
	}
	sinks := sink.Multi{sink.NewRepository(s.repository, run.ID)}
	if s.resultsPrefix != "" {
		sinks = append(sinks, sink.NewS3(s.s3, path.Join(s.resultsPrefix, run.ID)))
	}

	settings := extraction.Settings{
		TimeHalfWindow:     run.Settings.TimeHalfWindow,
		MassDelta:          run.Settings.MassDelta,
		SmoothingHalfWidth: run.Settings.SmoothingHalfWidth,
		MaxHits:            run.Settings.MaxHits,
		Workers:            1,
	}
	pipeline := extraction.New(data, settings, logger, s.metrics)

	summary, err := pipeline.Run(ctx, hits.NewSource(hitsFile), sinks)
	if countErr := s.repository.UpdateCounts(ctx, runID, summary.Hits, summary.Records); countErr != nil {
		logger.Warn().Err(countErr).Msg("Failed to store run counts")
	}
	if err != nil {
		s.fail(ctx, runID, fmt.Sprintf("Extraction failed: %v", err))
		return fmt.Errorf("extraction failed: %w", err)
	}

	// Step 6: Mark complete
	if err := s.repository.UpdateStatus(ctx, runID, models.StatusCompleted, 100); err != nil {
		return err
	}
	s.metrics.RunFinished(models.StatusCompleted)

	logger.Info().Int("hits", summary.Hits).Int("records", summary.Records).Msg("Run completed")
	return nil
}

func (s *processingService) loadDataset(ctx context.Context, key string) (*dataset.Dataset, error) {
	f, err := s.s3.OpenFile(ctx, key)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return dataset.ReadMzML(f)
}

func (s *processingService) fail(ctx context.Context, runID uuid.UUID, msg string) {
	if err := s.repository.UpdateError(ctx, runID, msg); err != nil {
		s.logger.Error().Err(err).Str("runID", runID.String()).Msg("Failed to mark run as failed")
	}
	s.metrics.RunFinished(models.StatusFailed)
}
