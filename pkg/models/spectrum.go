package models

// Spectrum is one instrument scan. Masses are ascending and index-aligned
// with Intensities.
type Spectrum struct {
	Time        float64
	Masses      []float64
	Intensities []float64
}

// Hit is one twin-ion candidate read from a hit list.
type Hit struct {
	Number    int // 1-based position in the hit list
	Time      float64
	Mass      float64 // light ion m/z
	Intensity float64
	Score     float64
}

// ExtractionRecord is one output row for a (hit, spectrum) pair.
//
// LowFound and HighFound are false when the mass lookup had no usable index;
// the corresponding mass and intensity are then zero.
type ExtractionRecord struct {
	Time          float64 `json:"time" doc:"Spectrum retention time"`
	MassLow       float64 `json:"mass_low" doc:"Smoothed m/z found near the light mass"`
	IntensityLow  float64 `json:"intensity_low" doc:"Smoothed intensity near the light mass"`
	MassHigh      float64 `json:"mass_high" doc:"Smoothed m/z found near the heavy mass"`
	IntensityHigh float64 `json:"intensity_high" doc:"Smoothed intensity near the heavy mass"`
	LowFound      bool    `json:"low_found" doc:"Whether a light ion peak was located"`
	HighFound     bool    `json:"high_found" doc:"Whether a heavy ion peak was located"`
}
