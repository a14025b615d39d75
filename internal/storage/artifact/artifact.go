// Package artifact stores generated onboarding archives. Backends share a
// small Store interface so the onboarding service does not care whether
// archives live on local disk or in S3.
package artifact

import (
	"context"
	"fmt"
	"io"

	"srql-engine/internal/common"
	"srql-engine/internal/config"
)

// Store reads and writes immutable artifacts by key.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Health(ctx context.Context) error
}

// New creates a store for the configured backend.
func New(ctx context.Context, cfg config.ArtifactsConfig) (Store, error) {
	switch cfg.Backend {
	case "local", "filesystem", "fs":
		return NewLocalStore(cfg.LocalFS.BasePath)
	case "s3":
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, common.NewError(common.ErrInvalidInput,
			fmt.Sprintf("unsupported artifact backend: %s", cfg.Backend))
	}
}
