package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
)

// ProofStore stores payment proof and receipt artifacts. Callers persist only
// the returned object path; readers get short-lived presigned URLs.
type ProofStore interface {
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, objectPath string) error
	GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}

// ProofObjectPath builds a unique object path such as "proofs/12/<uuid>.jpg"
func ProofObjectPath(prefix string, entityID int32, ext string) string {
	return path.Join(prefix, fmt.Sprintf("%d", entityID), uuid.New().String()+ext)
}
