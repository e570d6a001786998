package repository

import (
	"context"
	"errors"

	"github.com/RMahshie/twinion/pkg/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a run or hit unit does not exist
var ErrNotFound = errors.New("not found")

// RunRepository defines the interface for run data operations
type RunRepository interface {
	Create(ctx context.Context, run *models.Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Run, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, progress int) error
	UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error
	UpdateCounts(ctx context.Context, id uuid.UUID, hits, records int) error
	HitRepository
}

// HitRepository stores and serves per-hit output units
type HitRepository interface {
	StoreHit(ctx context.Context, unit *models.HitUnit) error
	ListHits(ctx context.Context, runID uuid.UUID) ([]models.HitSummary, error)
	GetHit(ctx context.Context, runID uuid.UUID, hitNumber int) (*models.HitUnit, error)
}
