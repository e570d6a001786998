// Package extraction slices a twin-ion window out of a dataset for each hit
// and smooths the light and heavy ion intensities.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/RMahshie/twinion/internal/dataset"
	"github.com/RMahshie/twinion/internal/metrics"
	"github.com/RMahshie/twinion/internal/search"
	"github.com/RMahshie/twinion/internal/smoothing"
	"github.com/RMahshie/twinion/pkg/models"
)

// Defaults for Settings.
const (
	DefaultTimeHalfWindow = 20.0
	DefaultMassDelta      = 6.0201
	DefaultMaxHits        = 1000
)

// Settings fixes the extraction policy applied to every hit.
type Settings struct {
	TimeHalfWindow     float64
	MassDelta          float64
	SmoothingHalfWidth int
	MaxHits            int
	// Workers > 1 extracts hits concurrently. Output units keep their hit
	// numbers but may be written out of order.
	Workers int
}

// DefaultSettings returns the reference extraction policy.
func DefaultSettings() Settings {
	return Settings{
		TimeHalfWindow:     DefaultTimeHalfWindow,
		MassDelta:          DefaultMassDelta,
		SmoothingHalfWidth: smoothing.DefaultHalfWidth,
		MaxHits:            DefaultMaxHits,
		Workers:            1,
	}
}

// HitReader yields hits in input order and io.EOF at the end.
type HitReader interface {
	Next() (models.Hit, error)
}

// Sink receives one output unit per hit.
type Sink interface {
	// Prepare creates the destination before any unit is written.
	Prepare(ctx context.Context) error
	Write(ctx context.Context, hitNumber int, records []models.ExtractionRecord) error
}

// Summary reports what a run produced.
type Summary struct {
	Hits    int
	Records int
}

// Pipeline extracts hits against one dataset. It holds no per-hit state.
type Pipeline struct {
	data     *dataset.Dataset
	settings Settings
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// New creates a pipeline. m may be nil.
func New(data *dataset.Dataset, settings Settings, logger zerolog.Logger, m *metrics.Metrics) *Pipeline {
	if settings.Workers < 1 {
		settings.Workers = 1
	}
	return &Pipeline{
		data:     data,
		settings: settings,
		logger:   logger,
		metrics:  m,
	}
}

// Extract returns one record per spectrum in the hit's time window.
//
// The window runs from the spectrum located for hit.Time-TimeHalfWindow to
// the one located for hit.Time+TimeHalfWindow, both inclusive.
func (p *Pipeline) Extract(hit models.Hit) []models.ExtractionRecord {
	spectra := p.data.Spectra()

	first, ok := search.Index(hit.Time-p.settings.TimeHalfWindow, spectra, spectrumTime)
	if !ok {
		return []models.ExtractionRecord{}
	}
	last, _ := search.Index(hit.Time+p.settings.TimeHalfWindow, spectra, spectrumTime)
	if last < first {
		return []models.ExtractionRecord{}
	}

	massLow := hit.Mass
	massHigh := hit.Mass + p.settings.MassDelta

	records := make([]models.ExtractionRecord, 0, last-first+1)
	for i := first; i <= last; i++ {
		records = append(records, p.record(&spectra[i], massLow, massHigh))
	}
	return records
}

func (p *Pipeline) record(s *models.Spectrum, massLow, massHigh float64) models.ExtractionRecord {
	r := models.ExtractionRecord{Time: s.Time}
	r.MassLow, r.IntensityLow, r.LowFound = p.peak(s, massLow)
	r.MassHigh, r.IntensityHigh, r.HighFound = p.peak(s, massHigh)
	return r
}

// peak smooths the masses and intensities around the position located for
// target.
func (p *Pipeline) peak(s *models.Spectrum, target float64) (mass, intensity float64, found bool) {
	idx, ok := search.Floats(target, s.Masses)
	intensity, found = smoothing.WindowMean(idx, ok, s.Intensities, p.settings.SmoothingHalfWidth)
	mass, _ = smoothing.WindowMean(idx, ok, s.Masses, p.settings.SmoothingHalfWidth)
	return mass, intensity, found
}

func spectrumTime(s models.Spectrum) float64 { return s.Time }

// Run prepares sink, then extracts and writes each hit until hits is
// exhausted or MaxHits hits have been processed. The first read, parse or
// write error stops the run; units already written are left in place.
func (p *Pipeline) Run(ctx context.Context, hits HitReader, sink Sink) (Summary, error) {
	if err := sink.Prepare(ctx); err != nil {
		return Summary{}, fmt.Errorf("failed to prepare output: %w", err)
	}

	p.logger.Info().
		Int("spectra", p.data.Len()).
		Float64("time_half_window", p.settings.TimeHalfWindow).
		Float64("mass_delta", p.settings.MassDelta).
		Int("max_hits", p.settings.MaxHits).
		Int("workers", p.settings.Workers).
		Msg("Starting extraction")

	var (
		summary Summary
		err     error
	)
	if p.settings.Workers > 1 {
		summary, err = p.runConcurrent(ctx, hits, sink)
	} else {
		summary, err = p.runSequential(ctx, hits, sink)
	}
	if err != nil {
		return summary, err
	}

	p.logger.Info().Int("hits", summary.Hits).Int("records", summary.Records).Msg("Extraction finished")
	return summary, nil
}

func (p *Pipeline) runSequential(ctx context.Context, hits HitReader, sink Sink) (Summary, error) {
	var summary Summary
	for summary.Hits < p.settings.MaxHits {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		hit, err := hits.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return summary, err
		}

		n, err := p.process(ctx, hit, sink)
		if err != nil {
			return summary, err
		}
		summary.Hits++
		summary.Records += n
	}

	if summary.Hits == p.settings.MaxHits {
		p.logger.Debug().Int("max_hits", p.settings.MaxHits).Msg("Hit cap reached")
	}
	return summary, nil
}

func (p *Pipeline) runConcurrent(ctx context.Context, hits HitReader, sink Sink) (Summary, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.settings.Workers)

	var (
		mu      sync.Mutex
		summary Summary
	)

	read := 0
	for read < p.settings.MaxHits {
		if gctx.Err() != nil {
			break
		}

		hit, err := hits.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			g.Go(func() error { return err })
			break
		}
		read++

		g.Go(func() error {
			n, err := p.process(gctx, hit, sink)
			if err != nil {
				return err
			}
			mu.Lock()
			summary.Hits++
			summary.Records += n
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return summary, err
}

func (p *Pipeline) process(ctx context.Context, hit models.Hit, sink Sink) (int, error) {
	start := time.Now()
	records := p.Extract(hit)

	if err := sink.Write(ctx, hit.Number, records); err != nil {
		return 0, fmt.Errorf("hit %d: failed to write output: %w", hit.Number, err)
	}

	elapsed := time.Since(start)
	p.metrics.ObserveHit(len(records), elapsed)
	p.logger.Debug().
		Int("hit", hit.Number).
		Float64("time", hit.Time).
		Float64("mass", hit.Mass).
		Int("records", len(records)).
		Dur("elapsed", elapsed).
		Msg("Extracted hit")
	return len(records), nil
}
