// Package sink writes per-hit output units.
package sink

import (
	"context"
	"fmt"

	"github.com/RMahshie/twinion/internal/extraction"
	"github.com/RMahshie/twinion/pkg/models"
)

// UnitName names the output unit of a 1-based hit number.
func UnitName(hitNumber int) string {
	return fmt.Sprintf("hit_%d", hitNumber)
}

// Multi writes every unit to each sink in order and stops at the first
// error.
type Multi []extraction.Sink

var _ extraction.Sink = Multi(nil)

// Prepare prepares every sink.
func (m Multi) Prepare(ctx context.Context) error {
	for _, s := range m {
		if err := s.Prepare(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Write forwards the unit to every sink.
func (m Multi) Write(ctx context.Context, hitNumber int, records []models.ExtractionRecord) error {
	for _, s := range m {
		if err := s.Write(ctx, hitNumber, records); err != nil {
			return err
		}
	}
	return nil
}
