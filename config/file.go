package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/restlens/go-restlens/model"
)

// File is the layout of a provider file.
//
//	[[providers]]
//	id = "jira"
//	pattern = "\\b([A-Z]+-\\d+)\\b"
//	url = "https://lens.example.com/jira"
//	files = ["**/*.md"]
type File struct {
	Providers []model.Provider `toml:"providers"`
}

// Load reads providers from a TOML file.
func Load(filename string) ([]model.Provider, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	providers, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("cannot load %s: %w", filename, err)
	}
	return providers, nil
}

// Parse decodes providers from TOML data. Declaration order is kept. A
// provider table with a field of the wrong type is logged and skipped.
func Parse(data []byte) ([]model.Provider, error) {
	var f struct {
		Providers []map[string]any `toml:"providers"`
	}
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	entries := make([]entry, len(f.Providers))
	for i, table := range f.Providers {
		entries[i] = entry{fields: table}
	}
	return decodeProviders(entries), nil
}

// Encode writes providers as TOML.
func Encode(providers []model.Provider) ([]byte, error) {
	return toml.Marshal(File{Providers: providers})
}
