// Package directory provides the read-only provider directory used by the
// routing stage. It is loaded once at startup from the embedded default list
// or from a JSON or TOML file and never changes afterwards.
package directory

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/upb/triage-pipeline/models"
	"github.com/upb/triage-pipeline/services"
)

//go:embed providers.json
var defaultProviders []byte

// Directory is an immutable, ordered list of providers
type Directory struct {
	providers []models.Provider
}

// tomlFile is the layout of a TOML directory file
type tomlFile struct {
	Providers []models.Provider `toml:"providers"`
}

// Default returns the directory bundled with the binary
func Default() (*Directory, error) {
	return ParseJSON(defaultProviders)
}

// Load reads the directory from path. An empty path returns the bundled
// default. The format is picked from the file extension.
func Load(path string, logger *zap.Logger) (*Directory, error) {
	if path == "" {
		d, err := Default()
		if err == nil {
			logger.Info("Loaded default provider directory", zap.Int("providers", d.Len()))
		}
		return d, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.WrapSentinel(services.ErrInvalidDirectory, fmt.Errorf("read %s: %w", path, err))
	}

	var d *Directory
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		d, err = ParseJSON(data)
	case ".toml":
		d, err = ParseTOML(data)
	default:
		return nil, services.WrapSentinel(services.ErrInvalidDirectory, fmt.Errorf("unsupported directory format %q", ext))
	}
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded provider directory",
		zap.String("path", path),
		zap.Int("providers", d.Len()))
	return d, nil
}

// ParseJSON builds a directory from a JSON array of providers
func ParseJSON(data []byte) (*Directory, error) {
	var providers []models.Provider
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&providers); err != nil {
		return nil, services.WrapSentinel(services.ErrInvalidDirectory, err)
	}
	return New(providers)
}

// ParseTOML builds a directory from a TOML document with [[providers]] tables
func ParseTOML(data []byte) (*Directory, error) {
	var file tomlFile
	md, err := toml.Decode(string(data), &file)
	if err != nil {
		return nil, services.WrapSentinel(services.ErrInvalidDirectory, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, services.WrapSentinel(services.ErrInvalidDirectory, fmt.Errorf("unknown keys: %v", undecoded))
	}
	return New(file.Providers)
}

// New validates providers and returns a directory holding a copy of them
func New(providers []models.Provider) (*Directory, error) {
	seen := make(map[string]struct{}, len(providers))
	list := make([]models.Provider, 0, len(providers))

	for i, p := range providers {
		if err := p.Validate(); err != nil {
			return nil, services.WrapSentinel(services.ErrInvalidDirectory, fmt.Errorf("provider %d: %w", i, err))
		}
		if _, dup := seen[p.ID]; dup {
			return nil, services.WrapSentinel(services.ErrDuplicateProvider, fmt.Errorf("provider id %s", p.ID))
		}
		seen[p.ID] = struct{}{}
		list = append(list, clone(p))
	}

	return &Directory{providers: list}, nil
}

// All returns every provider in directory order
func (d *Directory) All() []models.Provider {
	out := make([]models.Provider, 0, len(d.providers))
	for _, p := range d.providers {
		out = append(out, clone(p))
	}
	return out
}

// BySpecialty returns providers whose specialty equals specialty, in directory order
func (d *Directory) BySpecialty(specialty string) []models.Provider {
	out := []models.Provider{}
	for _, p := range d.providers {
		if p.Specialty == specialty {
			out = append(out, clone(p))
		}
	}
	return out
}

// Len returns the number of providers
func (d *Directory) Len() int {
	return len(d.providers)
}

func clone(p models.Provider) models.Provider {
	if p.Languages != nil {
		p.Languages = append([]string(nil), p.Languages...)
	} else {
		p.Languages = []string{}
	}
	return p
}
