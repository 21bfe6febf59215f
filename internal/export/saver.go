package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"parley/internal/domain"
)

// StageArtifact writes the artifact to a temporary file in the destination's
// directory and renames it into place. The temporary file never outlives the call.
func StageArtifact(ctx context.Context, destination string, artifact domain.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(destination)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".parley-export-*")
	if err != nil {
		return fmt.Errorf("stage %s: %w", artifact.Filename, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(artifact.Data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("stage %s: %w", artifact.Filename, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("stage %s: %w", artifact.Filename, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("stage %s: %w", artifact.Filename, err)
	}
	if err := os.Rename(tmpPath, destination); err != nil {
		return fmt.Errorf("move %s: %w", artifact.Filename, err)
	}
	return nil
}

// DirectorySaver drops exports into a fixed directory under their download name.
type DirectorySaver struct {
	dir string
}

func NewDirectorySaver(dir string) *DirectorySaver {
	return &DirectorySaver{dir: dir}
}

func (s *DirectorySaver) Save(ctx context.Context, artifact domain.Artifact) (string, error) {
	destination := filepath.Join(s.dir, filepath.Base(artifact.Filename))
	if err := StageArtifact(ctx, destination, artifact); err != nil {
		return "", err
	}
	return destination, nil
}

// StreamSaver writes the artifact to a writer, typically an HTTP response.
type StreamSaver struct {
	w      io.Writer
	before func(domain.Artifact)
}

// NewStreamSaver returns a saver that calls before (if set) and then copies the
// artifact bytes to w.
func NewStreamSaver(w io.Writer, before func(domain.Artifact)) *StreamSaver {
	return &StreamSaver{w: w, before: before}
}

func (s *StreamSaver) Save(_ context.Context, artifact domain.Artifact) (string, error) {
	if s.before != nil {
		s.before(artifact)
	}
	if _, err := s.w.Write(artifact.Data); err != nil {
		return "", fmt.Errorf("write %s: %w", artifact.Filename, err)
	}
	return artifact.Filename, nil
}
