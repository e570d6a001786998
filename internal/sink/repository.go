package sink

import (
	"context"
	"time"

	"github.com/RMahshie/twinion/internal/extraction"
	"github.com/RMahshie/twinion/internal/repository"
	"github.com/RMahshie/twinion/pkg/models"
)

// Repository stores units under a run in the run ledger.
type Repository struct {
	repo  repository.HitRepository
	runID string
	now   func() time.Time
}

var _ extraction.Sink = (*Repository)(nil)

// NewRepository creates a sink storing units for runID.
func NewRepository(repo repository.HitRepository, runID string) *Repository {
	return &Repository{repo: repo, runID: runID, now: time.Now}
}

// Prepare is a no-op: the run row already exists.
func (r *Repository) Prepare(ctx context.Context) error { return nil }

// Write stores the unit.
func (r *Repository) Write(ctx context.Context, hitNumber int, records []models.ExtractionRecord) error {
	return r.repo.StoreHit(ctx, &models.HitUnit{
		RunID:     r.runID,
		HitNumber: hitNumber,
		Records:   records,
		CreatedAt: r.now(),
	})
}
