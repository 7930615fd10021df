// Package catalog reads the inbox-source catalog exported by the account
// configuration service. The catalog is authoritative truth for which
// sources exist; the navigation model reconciles against it on every
// initialize.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Catalog errors.
var (
	ErrInvalidCatalog = errors.New("invalid source catalog")
)

// Info describes one configured inbox source.
type Info struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Kind  string `json:"kind"` // "address" or "domain"
}

// Provider supplies the ordered inbox-source list.
type Provider interface {
	Sources() ([]Info, error)
}

// FileProvider reads the catalog from the JSON file the account service
// exports. A missing file means "no sources configured yet".
type FileProvider struct {
	path string
}

// NewFileProvider creates a provider over the given file.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: strings.TrimSpace(path)}
}

// Path returns the catalog file path.
func (p *FileProvider) Path() string { return p.path }

// Sources returns the configured sources in declared order. Entries with
// an empty id are rejected; duplicate ids keep the first occurrence.
func (p *FileProvider) Sources() ([]Info, error) {
	if p.path == "" {
		return nil, nil
	}

	payload, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read source catalog: %w", err)
	}
	if len(payload) == 0 {
		return nil, nil
	}

	var file struct {
		Sources []Info `json:"sources"`
	}
	if err := json.Unmarshal(payload, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	seen := make(map[string]struct{}, len(file.Sources))
	out := make([]Info, 0, len(file.Sources))
	for _, info := range file.Sources {
		info.ID = strings.TrimSpace(info.ID)
		if info.ID == "" {
			return nil, fmt.Errorf("%w: source with empty id", ErrInvalidCatalog)
		}
		if _, dup := seen[info.ID]; dup {
			continue
		}
		seen[info.ID] = struct{}{}
		if info.Label == "" {
			info.Label = info.ID
		}
		if info.Kind != "domain" {
			info.Kind = "address"
		}
		out = append(out, info)
	}
	return out, nil
}

// StaticProvider serves a fixed source list, for tests and the feed probe.
type StaticProvider struct {
	infos []Info
}

// NewStaticProvider creates a provider over the given list.
func NewStaticProvider(infos []Info) *StaticProvider {
	return &StaticProvider{infos: append([]Info(nil), infos...)}
}

// Sources returns the fixed list.
func (p *StaticProvider) Sources() ([]Info, error) {
	return append([]Info(nil), p.infos...), nil
}
