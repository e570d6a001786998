// Package source opens run inputs from the local filesystem or object
// storage.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/RMahshie/twinion/internal/storage"
)

// S3Scheme prefixes inputs read from the configured bucket.
const S3Scheme = "s3://"

// Open returns a reader for uri. "s3://KEY" reads KEY through store, any
// other value is a local path. store may be nil when only local paths are
// used.
func Open(ctx context.Context, uri string, store storage.S3Service) (io.ReadCloser, error) {
	if key, ok := strings.CutPrefix(uri, S3Scheme); ok {
		if store == nil {
			return nil, fmt.Errorf("%s: object storage is not configured", uri)
		}
		if key == "" {
			return nil, fmt.Errorf("%s: empty object key", uri)
		}
		return store.OpenFile(ctx, key)
	}

	f, err := os.Open(uri)
	if err != nil {
		return nil, err
	}
	return f, nil
}
