package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/isoplan/planner/internal/domain/plan"
)

// Source tells where a loaded document came from.
type Source string

const (
	SourceFile    Source = "file"
	SourceDefault Source = "default"
)

// codec sorts map keys so saved files diff cleanly, and leaves <, > and &
// readable in free-text fields.
var codec = sonic.Config{
	SortMapKeys:    true,
	EscapeHTML:     false,
	ValidateString: true,
}.Froze()

// Store persists the whole plan document as one JSON file.
type Store struct {
	path   string
	logger *zap.Logger

	// Sessions share the file; writes are serialized.
	mu sync.Mutex
}

// NewStore creates a store for the file at path.
func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the document. Any failure yields plan.Default(); failures
// other than a missing file are logged and otherwise swallowed.
func (s *Store) Load() (*plan.Document, Source) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("Failed to read plan file, using defaults", zap.String("path", s.path), zap.Error(err))
		}
		return plan.Default(), SourceDefault
	}

	doc, err := Decode(data)
	if err != nil {
		s.logger.Warn("Failed to decode plan file, using defaults", zap.String("path", s.path), zap.Error(err))
		return plan.Default(), SourceDefault
	}
	return doc, SourceFile
}

// Save overwrites the file with doc. It writes a temp file in the same
// directory, syncs it and renames it over the target, so a crash leaves
// either the old or the new document. doc is only read.
func (s *Store) Save(doc *plan.Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write plan: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync plan: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close plan: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to set plan permissions: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace plan file: %w", err)
	}
	committed = true

	s.logger.Debug("Plan saved", zap.String("path", s.path), zap.Int("bytes", len(data)))
	return nil
}

// Encode renders the document as indented JSON with a trailing newline.
func Encode(doc *plan.Document) ([]byte, error) {
	data, err := codec.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal plan: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses and normalizes a JSON document.
func Decode(data []byte) (*plan.Document, error) {
	var doc plan.Document
	if err := codec.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}
	doc.Normalize()
	return &doc, nil
}
