// Package dataset holds the time-ordered spectra of one mass spectrometry
// run, fully materialized in memory.
package dataset

import (
	"errors"
	"fmt"

	"github.com/RMahshie/twinion/pkg/models"
)

var (
	ErrUnsortedTime   = errors.New("spectra are not ordered by time")
	ErrUnsortedMass   = errors.New("spectrum masses are not ascending")
	ErrLengthMismatch = errors.New("mass and intensity arrays differ in length")
)

// Dataset is an immutable, time-ordered sequence of spectra.
type Dataset struct {
	spectra []models.Spectrum
}

// New wraps spectra, which must already be ordered by time.
func New(spectra []models.Spectrum) *Dataset {
	return &Dataset{spectra: spectra}
}

// Len returns the number of spectra.
func (d *Dataset) Len() int {
	return len(d.spectra)
}

// At returns the i-th spectrum.
func (d *Dataset) At(i int) models.Spectrum {
	return d.spectra[i]
}

// Spectra exposes the underlying ordered slice. Callers must not modify it.
func (d *Dataset) Spectra() []models.Spectrum {
	return d.spectra
}

// Peaks counts mass/intensity pairs across all spectra.
func (d *Dataset) Peaks() int {
	n := 0
	for i := range d.spectra {
		n += len(d.spectra[i].Masses)
	}
	return n
}

// Validate checks the ordering and alignment the extraction engine assumes.
func (d *Dataset) Validate() error {
	for i := range d.spectra {
		s := &d.spectra[i]
		if i > 0 && s.Time < d.spectra[i-1].Time {
			return fmt.Errorf("spectrum %d at time %v: %w", i, s.Time, ErrUnsortedTime)
		}
		if len(s.Masses) != len(s.Intensities) {
			return fmt.Errorf("spectrum %d: %d masses, %d intensities: %w",
				i, len(s.Masses), len(s.Intensities), ErrLengthMismatch)
		}
		for j := 1; j < len(s.Masses); j++ {
			if s.Masses[j] < s.Masses[j-1] {
				return fmt.Errorf("spectrum %d position %d: %w", i, j, ErrUnsortedMass)
			}
		}
	}
	return nil
}
