package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3Service_RequiresBucket(t *testing.T) {
	_, err := NewS3Service(context.Background(), S3Config{})
	assert.ErrorContains(t, err, "S3_BUCKET")
}

func TestValidateContentType(t *testing.T) {
	for _, ct := range []string{ContentTypeMzML, "text/xml", ContentTypeCSV, ContentTypeText} {
		assert.NoError(t, validateContentType(ct), ct)
	}
	assert.Error(t, validateContentType("audio/wav"))
}

func TestGenerateUploadURL(t *testing.T) {
	svc, err := NewS3Service(context.Background(), S3Config{
		Bucket:    "twinion-test",
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	})
	require.NoError(t, err)

	url, err := svc.GenerateUploadURL(context.Background(), "runs/abc/hits.csv", ContentTypeCSV)
	require.NoError(t, err)
	assert.Contains(t, url, "http://localhost:9000/twinion-test/runs/abc/hits.csv")
	assert.Contains(t, url, "X-Amz-Signature")

	_, err = svc.GenerateUploadURL(context.Background(), "runs/abc/hits.csv", "image/png")
	assert.ErrorContains(t, err, "invalid content type")
}
