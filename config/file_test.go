package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/restlens/go-restlens/config"
	"github.com/restlens/go-restlens/model"
	"github.com/stretchr/testify/require"
)

const providerFile = `
[[providers]]
id = "jira"
pattern = '\b([A-Z]+-\d+)\b'
flags = "i"
url = "https://lens.example.com/jira"
files = ["**/*.md"]

[[providers]]
id = "api"
pattern = 'GET (\S+)'
url = "https://lens.example.com/api?v=1"
`

func TestParse(t *testing.T) {
	providers, err := config.Parse([]byte(providerFile))
	require.NoError(t, err)
	require.Equal(t, []model.Provider{
		{
			ID:      "jira",
			Pattern: `\b([A-Z]+-\d+)\b`,
			Flags:   "i",
			URL:     "https://lens.example.com/jira",
			Files:   []string{"**/*.md"},
		},
		{
			ID:      "api",
			Pattern: `GET (\S+)`,
			URL:     "https://lens.example.com/api?v=1",
		},
	}, providers)
	require.NoError(t, model.ValidateProviders(providers))
}

func TestParseBad(t *testing.T) {
	_, err := config.Parse([]byte("[[providers]\nid = 1"))
	require.Error(t, err)
}

func TestParseSkipsBadProvider(t *testing.T) {
	data := `
[[providers]]
id = "bad"
pattern = 5
url = "https://b"

[[providers]]
id = "good"
pattern = "x"
url = "https://a"

[[providers]]
id = "badfiles"
pattern = "y"
url = "https://c"
files = "*.md"
`
	providers, err := config.Parse([]byte(data))
	require.NoError(t, err)
	require.Equal(t, []model.Provider{{ID: "good", Pattern: "x", URL: "https://a"}}, providers)
}

func TestLoadAndEncode(t *testing.T) {
	providers, err := config.Parse([]byte(providerFile))
	require.NoError(t, err)

	data, err := config.Encode(providers)
	require.NoError(t, err)

	filename := filepath.Join(t.TempDir(), "restlens.toml")
	require.NoError(t, os.WriteFile(filename, data, 0o644))

	loaded, err := config.Load(filename)
	require.NoError(t, err)
	require.Equal(t, providers, loaded)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
