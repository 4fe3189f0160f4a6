// Package template stores and loads column-mapping templates: named
// dictionaries mapping a canonical field (barcode, sku, product_name,
// stock, selling_price, brand, and for suppliers cost, currency and
// currency_column) to the cleaned header name found in a given
// marketplace, internal or supplier export file.
package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/utasoy/market-reconciler/internal/valueparse"
)

// Mapping is a canonical-field -> source-column-name dictionary for
// one marketplace template.
type Mapping map[string]string

// Store persists and retrieves named Mappings.
type Store interface {
	Load(name string) (Mapping, error)
	Save(name string, m Mapping) error
	List() ([]string, error)
}

// FileStore keeps one JSON file per template under Dir, mirroring the
// original CONFIG_DIR layout so operator-authored templates survive a
// process restart without a database.
type FileStore struct {
	Dir string
	mu  sync.Mutex
}

// NewFileStore ensures Dir exists and returns a FileStore rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("template: create dir: %w", err)
	}
	return &FileStore{Dir: dir}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.Dir, name+".json")
}

// Load reads a template by name, cleaning every column value the same
// way an uploaded file's own headers are cleaned so the mapping always
// compares equal to what read-time header cleaning produces. A
// missing template yields an empty Mapping, not an error.
func (s *FileStore) Load(name string) (Mapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return Mapping{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("template: read %s: %w", name, err)
	}

	var stored map[string]string
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("template: parse %s: %w", name, err)
	}

	out := make(Mapping, len(stored))
	for k, v := range stored {
		out[k] = valueparse.CleanColumnName(v)
	}
	return out, nil
}

// Save writes m as indented JSON, atomically replacing any previous
// template of the same name.
func (s *FileStore) Save(name string, m Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return fmt.Errorf("template: marshal %s: %w", name, err)
	}

	tmp := s.path(name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("template: write %s: %w", name, err)
	}
	return os.Rename(tmp, s.path(name))
}

// List returns every stored template name, without the .json suffix.
func (s *FileStore) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("template: list: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	return names, nil
}
