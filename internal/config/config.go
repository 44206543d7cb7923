// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/viper"

	"github.com/JakeFAU/oscar-cost-crawler/internal/logging"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Logging   logging.Config  `mapstructure:"logging"`
	Wikipedia WikipediaConfig `mapstructure:"wikipedia"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	OMDb      OMDbConfig      `mapstructure:"omdb"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Output    OutputConfig    `mapstructure:"output"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Sink      SinkConfig      `mapstructure:"sink"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// WikipediaConfig locates the source pages.
type WikipediaConfig struct {
	Domain         string `mapstructure:"domain"`
	CeremoniesPath string `mapstructure:"ceremonies_path"`
}

// HTTPConfig configures the page fetcher.
type HTTPConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxBodyBytes   int    `mapstructure:"max_body_bytes"`
	RespectRobots  bool   `mapstructure:"respect_robots"`
	// RequestsPerSecond spaces page fetches per host; 0 disables spacing.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// OMDbConfig configures the enrichment engine.
type OMDbConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// APIKeys is the raw semicolon-delimited credential list.
	APIKeys           string  `mapstructure:"api_keys"`
	MaxConcurrency    int     `mapstructure:"max_concurrency"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
}

// PipelineConfig governs the orchestrator.
type PipelineConfig struct {
	RecentCeremonies     int  `mapstructure:"recent_ceremonies"`
	SkipFailedCeremonies bool `mapstructure:"skip_failed_ceremonies"`
}

// OutputConfig controls artifact names and delimiters.
type OutputConfig struct {
	CeremoniesFile       string `mapstructure:"ceremonies_file"`
	NominationsFile      string `mapstructure:"nominations_file"`
	EnrichedFile         string `mapstructure:"enriched_file"`
	CeremoniesDelimiter  string `mapstructure:"ceremonies_delimiter"`
	NominationsDelimiter string `mapstructure:"nominations_delimiter"`
	EnrichedDelimiter    string `mapstructure:"enriched_delimiter"`
	XLSX                 bool   `mapstructure:"xlsx"`
}

// StorageConfig selects where artifacts are written.
type StorageConfig struct {
	Provider  string `mapstructure:"provider"`
	LocalDir  string `mapstructure:"local_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// SinkConfig enables relational mirrors of the enriched dataset.
type SinkConfig struct {
	Postgres PostgresSinkConfig `mapstructure:"postgres"`
	SQLite   SQLiteSinkConfig   `mapstructure:"sqlite"`
}

// PostgresSinkConfig controls the Postgres mirror.
type PostgresSinkConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// SQLiteSinkConfig controls the SQLite mirror.
type SQLiteSinkConfig struct {
	Path string `mapstructure:"path"`
}

// PubSubConfig holds metadata for run notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// MetricsConfig toggles the ops server.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("OSCAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := v.BindEnv("omdb.api_keys", "OSCAR_OMDB_API_KEYS", "OMDB_API_KEY"); err != nil {
		return Config{}, fmt.Errorf("bind omdb env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
	v.SetDefault("wikipedia.domain", "https://en.wikipedia.org")
	v.SetDefault("wikipedia.ceremonies_path", "/wiki/List_of_Academy_Awards_ceremonies")
	v.SetDefault("http.user_agent", "oscar-cost-crawler/0.1 (+https://github.com/JakeFAU/oscar-cost-crawler)")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_body_bytes", 20*1024*1024)
	v.SetDefault("http.respect_robots", false)
	v.SetDefault("http.requests_per_second", 0)
	v.SetDefault("omdb.base_url", "http://www.omdbapi.com/")
	v.SetDefault("omdb.api_keys", "")
	v.SetDefault("omdb.max_concurrency", 8)
	v.SetDefault("omdb.requests_per_second", 0)
	v.SetDefault("omdb.timeout_seconds", 30)
	v.SetDefault("pipeline.recent_ceremonies", 40)
	v.SetDefault("pipeline.skip_failed_ceremonies", false)
	v.SetDefault("output.ceremonies_file", "ceremony_base.csv")
	v.SetDefault("output.nominations_file", "winners_base.csv")
	v.SetDefault("output.enriched_file", "oscar_winners_enriched.csv")
	v.SetDefault("output.ceremonies_delimiter", ",")
	v.SetDefault("output.nominations_delimiter", ",")
	v.SetDefault("output.enriched_delimiter", ";")
	v.SetDefault("output.xlsx", false)
	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.local_dir", ".")
	v.SetDefault("storage.prefix", "")
	v.SetDefault("storage.gcs_bucket", "")
	v.SetDefault("sink.postgres.dsn", "")
	v.SetDefault("sink.sqlite.path", "")
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "")
	v.SetDefault("sink.postgres.table", "oscar_nominations")
	v.SetDefault("sink.postgres.max_conns", 4)
	v.SetDefault("metrics.addr", "")
}

// Validate enforces required values and reasonable limits. Missing OMDb keys
// are not an error here because the listing and scrape commands do not need them.
func (c Config) Validate() error {
	u, err := url.Parse(c.Wikipedia.Domain)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("wikipedia.domain must be an absolute URL, got %q", c.Wikipedia.Domain)
	}
	if !strings.HasPrefix(c.Wikipedia.CeremoniesPath, "/") {
		return fmt.Errorf("wikipedia.ceremonies_path must start with /")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxBodyBytes < 0 {
		return fmt.Errorf("http.max_body_bytes must be >= 0")
	}
	if c.HTTP.RequestsPerSecond < 0 {
		return fmt.Errorf("http.requests_per_second must be >= 0")
	}
	if c.OMDb.BaseURL == "" {
		return fmt.Errorf("omdb.base_url must be set")
	}
	if c.OMDb.TimeoutSeconds <= 0 {
		return fmt.Errorf("omdb.timeout_seconds must be > 0")
	}
	if c.OMDb.RequestsPerSecond < 0 {
		return fmt.Errorf("omdb.requests_per_second must be >= 0")
	}
	if c.Pipeline.RecentCeremonies < 0 {
		return fmt.Errorf("pipeline.recent_ceremonies must be >= 0")
	}
	for key, delim := range map[string]string{
		"output.ceremonies_delimiter":  c.Output.CeremoniesDelimiter,
		"output.nominations_delimiter": c.Output.NominationsDelimiter,
		"output.enriched_delimiter":    c.Output.EnrichedDelimiter,
	} {
		if len([]rune(delim)) != 1 {
			return fmt.Errorf("%s must be a single character, got %q", key, delim)
		}
		if !ValidDelimiter([]rune(delim)[0]) {
			return fmt.Errorf("%s cannot be used as a CSV delimiter, got %q", key, delim)
		}
	}
	switch c.Storage.Provider {
	case "local":
		if strings.TrimSpace(c.Storage.LocalDir) == "" {
			return fmt.Errorf("storage.local_dir must be set when storage.provider is local")
		}
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set when storage.provider is gcs")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage.provider %q", c.Storage.Provider)
	}
	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic_name is set")
	}
	return nil
}

// APIKeyList splits the raw credential list on semicolons, dropping blanks.
func (c OMDbConfig) APIKeyList() []string {
	parts := strings.Split(c.APIKeys, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Timeout converts the configured seconds into a duration.
func (c OMDbConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Timeout converts the configured seconds into a duration.
func (c HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ValidDelimiter reports whether encoding/csv accepts r as a separator.
func ValidDelimiter(r rune) bool {
	return r != 0 && r != '"' && r != '\r' && r != '\n' && utf8.ValidRune(r) && r != utf8.RuneError
}

// Delimiter returns the first rune of a validated delimiter setting.
func Delimiter(raw string) rune {
	for _, r := range raw {
		return r
	}
	return ','
}
