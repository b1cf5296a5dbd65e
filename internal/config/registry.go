package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"

	"github.com/Yeseh/cortex-sub001/internal/mempath"
)

// Registry maps store names to absolute root directories. On disk:
//
//	{
//	  // comments and trailing commas are allowed
//	  "stores": {
//	    "default": "/home/me/.config/cortex/memory",
//	    "work": "/srv/notes",
//	  },
//	}
type Registry struct {
	path   string
	stores map[string]string
}

type registryFile struct {
	Stores map[string]string `json:"stores"`
}

// LoadRegistry reads the registry at path. A missing file is an empty
// registry; Save creates it.
func LoadRegistry(path string) (*Registry, error) {
	reg := &Registry{path: path, stores: map[string]string{}}

	if path == "" {
		return reg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return reg, nil
		}

		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%w %s: invalid JSONC: %w", ErrRegistryInvalid, path, err)
	}

	var file registryFile

	err = json.Unmarshal(standardized, &file)
	if err != nil {
		return nil, fmt.Errorf("%w %s: invalid JSON: %w", ErrRegistryInvalid, path, err)
	}

	for name, root := range file.Stores {
		err = validateEntry(name, root)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %q: %w", ErrRegistryInvalid, path, name, err)
		}

		reg.stores[name] = filepath.Clean(root)
	}

	return reg, nil
}

// Path returns the file the registry was loaded from.
func (r *Registry) Path() string {
	return r.path
}

// Add registers name at root. Existing names are refused.
func (r *Registry) Add(name, root string) error {
	err := validateEntry(name, root)
	if err != nil {
		return err
	}

	if _, ok := r.stores[name]; ok {
		return fmt.Errorf("%w: %s", ErrStoreExists, name)
	}

	r.stores[name] = filepath.Clean(root)

	return nil
}

// Remove unregisters name. The store directory is left untouched.
func (r *Registry) Remove(name string) error {
	if _, ok := r.stores[name]; !ok {
		return fmt.Errorf("%w: %s", ErrStoreUnknown, name)
	}

	delete(r.stores, name)

	return nil
}

// Resolve returns the root registered for name.
func (r *Registry) Resolve(name string) (string, bool) {
	root, ok := r.stores[name]

	return root, ok
}

// Names returns the registered store names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Save writes the registry atomically, creating its directory if needed.
func (r *Registry) Save() error {
	if r.path == "" {
		return ErrNoConfigDir
	}

	data, err := json.MarshalIndent(registryFile{Stores: r.stores}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	data = append(data, '\n')

	err = os.MkdirAll(filepath.Dir(r.path), 0o750)
	if err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}

	err = atomic.WriteFile(r.path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("write registry %s: %w", r.path, err)
	}

	return nil
}

func validateEntry(name, root string) error {
	if !mempath.ValidSegment(name) {
		return fmt.Errorf("%w: %q", ErrStoreNameInvalid, name)
	}

	if !filepath.IsAbs(root) {
		return fmt.Errorf("%w: %q", ErrStoreRootRelative, root)
	}

	return nil
}
