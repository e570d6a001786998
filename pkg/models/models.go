package models

import (
	"time"
)

// Run statuses
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Body struct {
		Status  string    `json:"status" example:"healthy" doc:"Service health status"`
		Version string    `json:"version" example:"1.0.0" doc:"API version"`
		Time    time.Time `json:"time" doc:"Current server time"`
	}
}

// RunSettings holds the extraction parameters of a run
type RunSettings struct {
	TimeHalfWindow     float64 `json:"time_half_window" doc:"Half width of the retention time window"`
	MassDelta          float64 `json:"mass_delta" doc:"m/z difference between heavy and light ion"`
	SmoothingHalfWidth int     `json:"smoothing_half_width" doc:"Neighbors averaged on each side of a peak"`
	MaxHits            int     `json:"max_hits" doc:"Maximum number of hits processed"`
}

// Run represents one extraction over a dataset and a hit list (for internal use)
type Run struct {
	ID          string      `json:"id"`
	DatasetKey  string      `json:"dataset_key"`
	HitsKey     string      `json:"hits_key"`
	Settings    RunSettings `json:"settings"`
	Status      string      `json:"status"`
	Progress    int         `json:"progress"`
	HitCount    int         `json:"hit_count"`
	RecordCount int         `json:"record_count"`
	ErrorMsg    *string     `json:"error_message,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// HitUnit is the stored output unit of one hit
type HitUnit struct {
	RunID     string             `json:"run_id"`
	HitNumber int                `json:"hit_number"`
	Records   []ExtractionRecord `json:"records"`
	CreatedAt time.Time          `json:"created_at"`
}

// CreateRunRequest represents a request to register a new run
type CreateRunRequest struct {
	Body struct {
		TimeHalfWindow     *float64 `json:"time_half_window,omitempty" minimum:"0" doc:"Override for the retention time half window"`
		MassDelta          *float64 `json:"mass_delta,omitempty" doc:"Override for the twin-ion mass delta"`
		SmoothingHalfWidth *int     `json:"smoothing_half_width,omitempty" minimum:"0" doc:"Override for the smoothing half width"`
		MaxHits            *int     `json:"max_hits,omitempty" minimum:"1" doc:"Override for the hit cap"`
	}
}

// CreateRunResponseBody is the body of the create run response
type CreateRunResponseBody struct {
	ID               string      `json:"id" doc:"Run unique identifier"`
	Status           string      `json:"status" doc:"Initial run status"`
	Settings         RunSettings `json:"settings" doc:"Effective extraction settings"`
	DatasetKey       string      `json:"dataset_key" doc:"Object key the mzML dataset is uploaded to"`
	DatasetUploadURL string      `json:"dataset_upload_url" doc:"Presigned S3 URL for the mzML dataset"`
	HitsKey          string      `json:"hits_key" doc:"Object key the hit list is uploaded to"`
	HitsUploadURL    string      `json:"hits_upload_url" doc:"Presigned S3 URL for the CSV hit list"`
	ExpiresIn        int         `json:"expires_in" doc:"Upload URL expiration in seconds"`
}

// CreateRunResponse represents the response from creating a run
type CreateRunResponse struct {
	Body CreateRunResponseBody
}

// RunIDRequest addresses a single run
type RunIDRequest struct {
	ID string `path:"id" doc:"Run ID"`
}

// GetRunStatusResponseBody is the body of the status response
type GetRunStatusResponseBody struct {
	ID          string `json:"id" doc:"Run ID"`
	Status      string `json:"status" enum:"pending,processing,completed,failed" doc:"Run status"`
	Progress    int    `json:"progress" minimum:"0" maximum:"100" doc:"Run progress percentage"`
	Message     string `json:"message,omitempty" doc:"Human-readable status message"`
	HitCount    int    `json:"hit_count" doc:"Hits processed"`
	RecordCount int    `json:"record_count" doc:"Records emitted"`
}

// GetRunStatusResponse represents the current status of a run
type GetRunStatusResponse struct {
	Body GetRunStatusResponseBody
}

// HitSummary describes one stored output unit
type HitSummary struct {
	HitNumber   int `json:"hit_number" doc:"1-based hit position"`
	RecordCount int `json:"record_count" doc:"Rows in the unit"`
}

// ListHitsResponse lists the output units of a run in hit order
type ListHitsResponse struct {
	Body struct {
		RunID string       `json:"run_id" doc:"Run ID"`
		Hits  []HitSummary `json:"hits" doc:"Output units ordered by hit number"`
	}
}

// GetHitRequest addresses one output unit
type GetHitRequest struct {
	ID  string `path:"id" doc:"Run ID"`
	Hit int    `path:"hit" minimum:"1" doc:"1-based hit number"`
}

// GetHitResponse returns the rows of one output unit
type GetHitResponse struct {
	Body struct {
		RunID     string             `json:"run_id" doc:"Run ID"`
		HitNumber int                `json:"hit_number" doc:"1-based hit number"`
		Records   []ExtractionRecord `json:"records" doc:"time, mass_low, intensity_low, mass_high, intensity_high rows"`
	}
}

// StartProcessingResponse represents the response from starting processing
type StartProcessingResponse struct {
	Body struct {
		Message string `json:"message" doc:"Confirmation message"`
	}
}
