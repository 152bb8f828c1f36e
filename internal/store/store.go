// Package store persists record lists as indented JSON files under an
// output directory, one file per top-level operation.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Fmazzesi/zefixtools/pkg/models"
)

// TakeoversFile is the file name used for takeover chains.
const TakeoversFile = "takeovers.json"

// SearchFile returns the file name for a search on name.
func SearchFile(name string, simple bool) string {
	base := safeName(name) + "_companies"
	if simple {
		base += "_simple"
	}
	return base + ".json"
}

// AcquirersFile returns the file name for the acquirers of id.
func AcquirersFile(id models.EHRAID) string {
	return id.String() + "_acquirers.json"
}

// safeName keeps a user-supplied name inside the output directory.
func safeName(name string) string {
	name = strings.TrimSpace(name)
	r := strings.NewReplacer("/", "_", `\`, "_", string(os.PathSeparator), "_")
	name = r.Replace(name)
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}

// Store writes files into one directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// New returns a Store rooted at dir ("" means the working directory).
func New(dir string, logger *slog.Logger) *Store {
	if dir == "" {
		dir = "."
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger.With("component", "store")}
}

// Dir returns the output directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the full path for a file name.
func (s *Store) Path(name string) string { return filepath.Join(s.dir, name) }

// Save encodes v with a four-space indent and writes it atomically to
// name inside the output directory. It returns the written path.
func (s *Store) Save(name string, v any) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("store: create %s: %w", s.dir, err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("store: encode %s: %w", name, err)
	}

	path := s.Path(name)
	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(name)+".*")
	if err != nil {
		return "", fmt.Errorf("store: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("store: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("store: write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("store: write %s: %w", path, err)
	}

	s.logger.Info("data saved", "path", path, "bytes", buf.Len())
	return path, nil
}

// Load decodes a file written by Save.
func Load[T any](path string) (T, error) {
	var v T
	data, err := os.ReadFile(path)
	if err != nil {
		return v, fmt.Errorf("store: %w", err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("store: decode %s: %w", path, err)
	}
	return v, nil
}

// LoadFirms reads a saved list of normalized firms.
func LoadFirms(path string) ([]models.Firm, error) {
	return Load[[]models.Firm](path)
}
