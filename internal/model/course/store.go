package course

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store exposes read-only catalog access for HTTP handlers.
type Store interface {
	List() []Module
	FindByID(id string) (Module, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Module
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied modules.
func NewMemoryStore(items []Module) *MemoryStore {
	return &MemoryStore{items: append([]Module(nil), items...)}
}

// List returns the modules in catalog order.
func (s *MemoryStore) List() []Module {
	return append([]Module(nil), s.items...)
}

// FindByID looks up a module by identifier.
func (s *MemoryStore) FindByID(id string) (Module, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Module{}, false
}

type catalogFile struct {
	Modules []Module `yaml:"modules"`
}

// LoadFile reads a YAML catalog of the form `modules: [...]`.
func LoadFile(path string) ([]Module, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML catalog.
func Parse(raw []byte) ([]Module, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(file.Modules) == 0 {
		return nil, errors.New("catalog has no modules")
	}

	seen := make(map[string]struct{}, len(file.Modules))
	for i, m := range file.Modules {
		if strings.TrimSpace(m.ID) == "" || strings.TrimSpace(m.Title) == "" {
			return nil, fmt.Errorf("module %d: id and title are required", i)
		}
		if !m.Level.Valid() {
			return nil, fmt.Errorf("module %s: unknown level %q", m.ID, m.Level)
		}
		if _, dup := seen[m.ID]; dup {
			return nil, fmt.Errorf("module %s: duplicate id", m.ID)
		}
		seen[m.ID] = struct{}{}
	}
	return file.Modules, nil
}
