package artifact

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"srql-engine/internal/common"
)

// LocalStore keeps artifacts under a base directory on local disk.
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates the base directory if needed.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if baseDir == "" {
		return nil, common.NewError(common.ErrInvalidInput, "artifact base path is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, common.NewErrorWithCause(common.ErrArtifactUnavailable, "failed to create artifact directory", err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

// Put writes the artifact atomically via a temp file rename.
func (s *LocalStore) Put(ctx context.Context, key string, body io.Reader) error {
	fullPath := s.fullPath(key)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return common.NewErrorWithCause(common.ErrArtifactUnavailable, "failed to create artifact directory", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".artifact-*")
	if err != nil {
		return common.NewErrorWithCause(common.ErrArtifactUnavailable, "failed to stage artifact", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return common.NewErrorWithCause(common.ErrArtifactUnavailable, "failed to write artifact", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return common.NewErrorWithCause(common.ErrArtifactUnavailable, "failed to write artifact", err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		os.Remove(tmpName)
		return common.NewErrorWithCause(common.ErrArtifactUnavailable, "failed to store artifact", err)
	}
	return nil
}

// Get opens the artifact for reading.
func (s *LocalStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	file, err := os.Open(s.fullPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.NewError(common.ErrArtifactNotFound, "artifact not found: "+key)
		}
		return nil, common.NewErrorWithCause(common.ErrArtifactUnavailable, "failed to open artifact", err)
	}
	return file, nil
}

// Delete removes the artifact. Deleting a missing artifact is not an error.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.fullPath(key))
	if err != nil && !os.IsNotExist(err) {
		return common.NewErrorWithCause(common.ErrArtifactUnavailable, "failed to delete artifact", err)
	}
	return nil
}

// Health verifies the base directory is writable.
func (s *LocalStore) Health(ctx context.Context) error {
	probe := filepath.Join(s.baseDir, ".health")
	file, err := os.Create(probe)
	if err != nil {
		return common.NewErrorWithCause(common.ErrArtifactUnavailable, "artifact directory is not writable", err)
	}
	file.Close()
	os.Remove(probe)
	return nil
}

// fullPath cleans the key to keep artifacts inside the base directory.
// Rooting the key before cleaning collapses any ".." segments.
func (s *LocalStore) fullPath(key string) string {
	clean := strings.TrimPrefix(filepath.Clean("/"+key), "/")
	return filepath.Join(s.baseDir, clean)
}
