package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RMahshie/twinion/internal/extraction"
	"github.com/RMahshie/twinion/pkg/models"
)

// Directory writes each unit to <dir>/hit_<n> as whitespace separated rows.
type Directory struct {
	dir      string
	permFile os.FileMode
	permDir  os.FileMode
}

var _ extraction.Sink = (*Directory)(nil)

// NewDirectory creates a directory sink rooted at dir.
func NewDirectory(dir string) (*Directory, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	return &Directory{dir: dir, permFile: 0o644, permDir: 0o755}, nil
}

// Prepare creates the output directory if it does not exist.
func (d *Directory) Prepare(ctx context.Context) error {
	if err := os.MkdirAll(d.dir, d.permDir); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// Write replaces the unit file for hitNumber.
func (d *Directory) Write(ctx context.Context, hitNumber int, records []models.ExtractionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.WriteFile(d.Path(hitNumber), extraction.Encode(records), d.permFile)
}

// Path returns the file written for hitNumber.
func (d *Directory) Path(hitNumber int) string {
	return filepath.Join(d.dir, UnitName(hitNumber))
}
