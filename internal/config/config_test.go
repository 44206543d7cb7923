package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OMDB_API_KEY", "")
	t.Setenv("OSCAR_OMDB_API_KEYS", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://en.wikipedia.org", cfg.Wikipedia.Domain)
	assert.Equal(t, "/wiki/List_of_Academy_Awards_ceremonies", cfg.Wikipedia.CeremoniesPath)
	assert.Equal(t, 40, cfg.Pipeline.RecentCeremonies)
	assert.Equal(t, "ceremony_base.csv", cfg.Output.CeremoniesFile)
	assert.Equal(t, "winners_base.csv", cfg.Output.NominationsFile)
	assert.Equal(t, "oscar_winners_enriched.csv", cfg.Output.EnrichedFile)
	assert.Equal(t, ";", cfg.Output.EnrichedDelimiter)
	assert.Equal(t, "local", cfg.Storage.Provider)
	assert.Equal(t, 8, cfg.OMDb.MaxConcurrency)
	assert.Equal(t, 30*time.Second, cfg.OMDb.Timeout())
	assert.Empty(t, cfg.OMDb.APIKeyList())
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Setenv("OMDB_API_KEY", "")
	t.Setenv("OSCAR_OMDB_API_KEYS", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
logging:
  development: false
  level: warn
wikipedia:
  domain: https://fr.wikipedia.org
http:
  timeout_seconds: 5
  requests_per_second: 2
omdb:
  api_keys: "k1;k2"
  max_concurrency: 2
  requests_per_second: 4.5
pipeline:
  recent_ceremonies: 10
  skip_failed_ceremonies: true
output:
  enriched_delimiter: ","
  xlsx: true
storage:
  provider: gcs
  gcs_bucket: oscar-artifacts
  prefix: runs
pubsub:
  project_id: proj
  topic_name: oscar-runs
`
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Logging.Development)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "https://fr.wikipedia.org", cfg.Wikipedia.Domain)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout())
	assert.InDelta(t, 2.0, cfg.HTTP.RequestsPerSecond, 0.001)
	assert.Equal(t, []string{"k1", "k2"}, cfg.OMDb.APIKeyList())
	assert.Equal(t, 2, cfg.OMDb.MaxConcurrency)
	assert.InDelta(t, 4.5, cfg.OMDb.RequestsPerSecond, 0.001)
	assert.Equal(t, 10, cfg.Pipeline.RecentCeremonies)
	assert.True(t, cfg.Pipeline.SkipFailedCeremonies)
	assert.Equal(t, ',', Delimiter(cfg.Output.EnrichedDelimiter))
	assert.True(t, cfg.Output.XLSX)
	assert.Equal(t, "oscar-artifacts", cfg.Storage.GCSBucket)
	assert.Equal(t, "oscar-runs", cfg.PubSub.TopicName)
}

func TestLoadReadsAPIKeysFromEnvironment(t *testing.T) {
	t.Setenv("OSCAR_OMDB_API_KEYS", "")
	t.Setenv("OMDB_API_KEY", " alpha ; beta;;gamma ")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, cfg.OMDb.APIKeyList())
}

func TestLoadEnvOverridesNestedKeys(t *testing.T) {
	t.Setenv("OMDB_API_KEY", "")
	t.Setenv("OSCAR_OMDB_API_KEYS", "")
	t.Setenv("OSCAR_PIPELINE_RECENT_CEREMONIES", "3")
	t.Setenv("OSCAR_STORAGE_PROVIDER", "memory")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Pipeline.RecentCeremonies)
	assert.Equal(t, "memory", cfg.Storage.Provider)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() Config {
		return Config{
			Wikipedia: WikipediaConfig{Domain: "https://en.wikipedia.org", CeremoniesPath: "/wiki/List"},
			HTTP:      HTTPConfig{TimeoutSeconds: 10},
			OMDb:      OMDbConfig{BaseURL: "http://www.omdbapi.com/", TimeoutSeconds: 10},
			Pipeline:  PipelineConfig{RecentCeremonies: 40},
			Output: OutputConfig{
				CeremoniesDelimiter:  ",",
				NominationsDelimiter: ",",
				EnrichedDelimiter:    ";",
			},
			Storage: StorageConfig{Provider: "local", LocalDir: "out"},
		}
	}
	require.NoError(t, valid().Validate())

	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative domain", func(c *Config) { c.Wikipedia.Domain = "en.wikipedia.org" }},
		{"path without slash", func(c *Config) { c.Wikipedia.CeremoniesPath = "wiki/List" }},
		{"zero http timeout", func(c *Config) { c.HTTP.TimeoutSeconds = 0 }},
		{"empty omdb url", func(c *Config) { c.OMDb.BaseURL = "" }},
		{"negative rps", func(c *Config) { c.OMDb.RequestsPerSecond = -1 }},
		{"negative page rps", func(c *Config) { c.HTTP.RequestsPerSecond = -1 }},
		{"negative recent", func(c *Config) { c.Pipeline.RecentCeremonies = -1 }},
		{"long delimiter", func(c *Config) { c.Output.EnrichedDelimiter = ";;" }},
		{"empty delimiter", func(c *Config) { c.Output.CeremoniesDelimiter = "" }},
		{"quote delimiter", func(c *Config) { c.Output.NominationsDelimiter = `"` }},
		{"carriage return delimiter", func(c *Config) { c.Output.EnrichedDelimiter = "\r" }},
		{"newline delimiter", func(c *Config) { c.Output.CeremoniesDelimiter = "\n" }},
		{"gcs without bucket", func(c *Config) { c.Storage.Provider = "gcs" }},
		{"unknown provider", func(c *Config) { c.Storage.Provider = "s3" }},
		{"topic without project", func(c *Config) { c.PubSub.TopicName = "runs" }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
