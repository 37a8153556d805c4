package bundle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/trace"
)

// Store persists bundles on disk. Writes go through a temp file plus rename
// so a crash mid-write can never leave a truncated bundle behind.
type Store struct {
	path   string
	tracer trace.Tracer
}

func NewStore(path string, tracer trace.Tracer) *Store {
	return &Store{path: path, tracer: tracer}
}

func (s *Store) Path() string { return s.path }

func (s *Store) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && !info.IsDir()
}

func (s *Store) Save(ctx context.Context, b *ModelBundle) error {
	_, span := s.tracer.Start(ctx, "bundleStore.Save")
	defer span.End()

	data, err := b.Marshal()
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create bundle dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp bundle: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp bundle: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace bundle: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (*ModelBundle, error) {
	_, span := s.tracer.Start(ctx, "bundleStore.Load")
	defer span.End()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}
	b, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decode bundle %s: %w", s.path, err)
	}
	return b, nil
}
