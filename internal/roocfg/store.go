// Package roocfg persists the roo-code mode/model configuration as a flat JSON file.
package roocfg

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/zeebo/blake3"
)

// DefaultModel is assigned to newly created modes.
const DefaultModel = "x-ai/grok-4-fast"

var (
	ErrModeNotFound = errors.New("mode not found")
	ErrModeExists   = errors.New("mode already exists")
)

// Config is the on-disk document.
type Config struct {
	Modes       []string          `json:"modes"`
	ModelConfig map[string]string `json:"model_config"`
}

// Document is a loaded Config bound to its file.
type Document struct {
	Config

	path    string
	digest  [32]byte
	existed bool
	logger  *slog.Logger
}

// Load reads the whole file at path. A missing file yields an empty config.
func Load(path string, logger *slog.Logger) (*Document, error) {
	if logger == nil {
		logger = slog.Default()
	}
	doc := &Document{path: path, logger: logger}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			doc.normalize()
			return doc, nil
		}
		return nil, fmt.Errorf("read roo-code config: %w", err)
	}

	if err := json.Unmarshal(data, &doc.Config); err != nil {
		return nil, fmt.Errorf("parse roo-code config %s: %w", path, err)
	}
	doc.digest = blake3.Sum256(data)
	doc.existed = true
	doc.normalize()
	return doc, nil
}

func (d *Document) normalize() {
	if d.Modes == nil {
		d.Modes = []string{}
	}
	if d.ModelConfig == nil {
		d.ModelConfig = map[string]string{}
	}
}

// Path returns the file the document was loaded from.
func (d *Document) Path() string { return d.path }

// SetModel assigns model to an existing mode.
func (d *Document) SetModel(mode, model string) error {
	if _, ok := d.ModelConfig[mode]; !ok {
		return fmt.Errorf("%w: %q", ErrModeNotFound, mode)
	}
	d.ModelConfig[mode] = model
	return nil
}

// CreateMode appends a new mode bound to DefaultModel.
func (d *Document) CreateMode(name string) error {
	if slices.Contains(d.Modes, name) {
		return fmt.Errorf("%w: %q", ErrModeExists, name)
	}
	d.Modes = append(d.Modes, name)
	d.ModelConfig[name] = DefaultModel
	return nil
}

// SortedModels returns the configured modes in name order.
func (d *Document) SortedModels() []string {
	modes := make([]string, 0, len(d.ModelConfig))
	for m := range d.ModelConfig {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	return modes
}

// Save rewrites the whole file through a temp file and rename. There is no
// locking; a concurrent modification since Load is logged and then overwritten.
func (d *Document) Save() error {
	d.checkConcurrentWrite()

	data, err := json.MarshalIndent(d.Config, "", "  ")
	if err != nil {
		return fmt.Errorf("encode roo-code config: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".roo-code-*.json")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Rename(tmpName, d.path); err != nil {
		return fmt.Errorf("replace roo-code config: %w", err)
	}

	d.digest = blake3.Sum256(data)
	d.existed = true
	return nil
}

func (d *Document) checkConcurrentWrite() {
	current, err := os.ReadFile(d.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if d.existed {
			d.logger.Warn("roo-code config was removed since it was loaded", "path", d.path)
		}
	case err != nil:
		d.logger.Warn("cannot re-read roo-code config before save", "path", d.path, "error", err)
	case !d.existed || blake3.Sum256(current) != d.digest:
		d.logger.Warn("roo-code config changed on disk since it was loaded, overwriting", "path", d.path)
	}
}
