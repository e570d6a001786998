package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/RMahshie/twinion/internal/repository"
	"github.com/RMahshie/twinion/pkg/models"
	"github.com/google/uuid"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            UUID PRIMARY KEY,
	dataset_key   TEXT NOT NULL,
	hits_key      TEXT NOT NULL,
	settings      JSONB NOT NULL,
	status        TEXT NOT NULL,
	progress      INTEGER NOT NULL DEFAULT 0,
	hit_count     INTEGER NOT NULL DEFAULT 0,
	record_count  INTEGER NOT NULL DEFAULT 0,
	error_message TEXT,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL,
	completed_at  TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS hit_units (
	run_id       UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	hit_number   INTEGER NOT NULL,
	record_count INTEGER NOT NULL,
	records      JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, hit_number)
);`

// PostgresRunRepository implements RunRepository for PostgreSQL
type PostgresRunRepository struct {
	db *sql.DB
}

// NewPostgresRunRepository creates a new PostgreSQL run repository
func NewPostgresRunRepository(db *sql.DB) *PostgresRunRepository {
	return &PostgresRunRepository{db: db}
}

var _ repository.RunRepository = (*PostgresRunRepository)(nil)

// Migrate creates the tables if they do not exist
func (r *PostgresRunRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Create inserts a new run record
func (r *PostgresRunRepository) Create(ctx context.Context, run *models.Run) error {
	settings, err := json.Marshal(run.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	query := `
		INSERT INTO runs (id, dataset_key, hits_key, settings, status, progress, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = r.db.ExecContext(ctx, query,
		run.ID,
		run.DatasetKey,
		run.HitsKey,
		string(settings),
		run.Status,
		run.Progress,
		run.CreatedAt,
		run.UpdatedAt)

	return err
}

// GetByID retrieves a run by ID
func (r *PostgresRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Run, error) {
	query := `
		SELECT id, dataset_key, hits_key, settings, status, progress, hit_count, record_count,
		       error_message, created_at, updated_at, completed_at
		FROM runs
		WHERE id = $1`

	var run models.Run
	var settings string
	var errorMsg sql.NullString
	var completedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID,
		&run.DatasetKey,
		&run.HitsKey,
		&settings,
		&run.Status,
		&run.Progress,
		&run.HitCount,
		&run.RecordCount,
		&errorMsg,
		&run.CreatedAt,
		&run.UpdatedAt,
		&completedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(settings), &run.Settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if errorMsg.Valid {
		run.ErrorMsg = &errorMsg.String
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}

	return &run, nil
}

// UpdateStatus updates the status and progress of a run
func (r *PostgresRunRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, progress int) error {
	query := `
		UPDATE runs
		SET status = $1, progress = $2, updated_at = NOW(),
		    completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END
		WHERE id = $3`

	return r.execOne(ctx, id, query, status, progress, id)
}

// UpdateError marks a run as failed with a message
func (r *PostgresRunRepository) UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error {
	query := `
		UPDATE runs
		SET status = 'failed', error_message = $1, updated_at = NOW()
		WHERE id = $2`

	return r.execOne(ctx, id, query, errorMsg, id)
}

// UpdateCounts stores how many hits and records a run produced
func (r *PostgresRunRepository) UpdateCounts(ctx context.Context, id uuid.UUID, hits, records int) error {
	query := `
		UPDATE runs
		SET hit_count = $1, record_count = $2, updated_at = NOW()
		WHERE id = $3`

	return r.execOne(ctx, id, query, hits, records, id)
}

// StoreHit stores one output unit, replacing any earlier unit for the same hit
func (r *PostgresRunRepository) StoreHit(ctx context.Context, unit *models.HitUnit) error {
	records := unit.Records
	if records == nil {
		records = []models.ExtractionRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	query := `
		INSERT INTO hit_units (run_id, hit_number, record_count, records, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (run_id, hit_number)
		DO UPDATE SET record_count = EXCLUDED.record_count, records = EXCLUDED.records, created_at = EXCLUDED.created_at`

	_, err = r.db.ExecContext(ctx, query,
		unit.RunID,
		unit.HitNumber,
		len(records),
		string(data),
		unit.CreatedAt)

	return err
}

// ListHits returns the units of a run ordered by hit number
func (r *PostgresRunRepository) ListHits(ctx context.Context, runID uuid.UUID) ([]models.HitSummary, error) {
	query := `
		SELECT hit_number, record_count
		FROM hit_units
		WHERE run_id = $1
		ORDER BY hit_number`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hits := []models.HitSummary{}
	for rows.Next() {
		var h models.HitSummary
		if err := rows.Scan(&h.HitNumber, &h.RecordCount); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}

	return hits, rows.Err()
}

// GetHit retrieves one output unit
func (r *PostgresRunRepository) GetHit(ctx context.Context, runID uuid.UUID, hitNumber int) (*models.HitUnit, error) {
	query := `
		SELECT run_id, hit_number, records, created_at
		FROM hit_units
		WHERE run_id = $1 AND hit_number = $2`

	var unit models.HitUnit
	var records string

	err := r.db.QueryRowContext(ctx, query, runID, hitNumber).Scan(
		&unit.RunID,
		&unit.HitNumber,
		&records,
		&unit.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s hit %d: %w", runID, hitNumber, repository.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(records), &unit.Records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal records: %w", err)
	}

	return &unit, nil
}

// execOne runs an update that must touch exactly one run
func (r *PostgresRunRepository) execOne(ctx context.Context, id uuid.UUID, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", id, repository.ErrNotFound)
	}
	return nil
}
