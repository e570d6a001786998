package sink

import (
	"context"
	"path"

	"github.com/RMahshie/twinion/internal/extraction"
	"github.com/RMahshie/twinion/internal/storage"
	"github.com/RMahshie/twinion/pkg/models"
)

// S3 uploads each unit to <prefix>/hit_<n>.
type S3 struct {
	store  storage.S3Service
	prefix string
}

var _ extraction.Sink = (*S3)(nil)

// NewS3 creates an object storage sink.
func NewS3(store storage.S3Service, prefix string) *S3 {
	return &S3{store: store, prefix: prefix}
}

// Prepare is a no-op: object keys need no container.
func (s *S3) Prepare(ctx context.Context) error { return nil }

// Write uploads the encoded unit.
func (s *S3) Write(ctx context.Context, hitNumber int, records []models.ExtractionRecord) error {
	return s.store.UploadFile(ctx, s.Key(hitNumber), storage.ContentTypeText, extraction.Encode(records))
}

// Key returns the object key for hitNumber.
func (s *S3) Key(hitNumber int) string {
	return path.Join(s.prefix, UnitName(hitNumber))
}
