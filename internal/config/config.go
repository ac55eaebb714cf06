// Package config layers defaults, an optional bookintegrate.yaml and
// BOOKINTEGRATE_* environment variables into the pipeline settings.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/lehigh-university-libraries/bookintegrate/internal/sources"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "BOOKINTEGRATE"

// APIKeyEnv is read for the bibliographic API key
const APIKeyEnv = "GOOGLE_BOOKS_API_KEY"

// Keys
const (
	KeyLandingDir     = "landing_dir"
	KeyGoodreadsPath  = "goodreads_path"
	KeyGoogleBooks    = "googlebooks_path"
	KeyStandardDir    = "standard_dir"
	KeyStagingDir     = "staging_dir"
	KeyDocsDir        = "docs_dir"
	KeyMetricsFormat  = "metrics_format"
	KeyAPIKey         = "google_books_api_key"
	KeyEnrichDelay    = "enrich.delay"
	KeyEnrichRetries  = "enrich.max_retries"
	KeyEnrichBackoff  = "enrich.backoff"
	KeyEnrichTimeout  = "enrich.timeout"
	KeyExportDir      = "export.dir"
	KeyExportXLSX     = "export.xlsx"
	KeyWarehousePath  = "warehouse.path"
	KeyWarehouseBatch = "warehouse.batch_size"
)

// Settings is the resolved configuration
type Settings struct {
	LandingDir      string `mapstructure:"landing_dir"`
	GoodreadsPath   string `mapstructure:"goodreads_path"`
	GoogleBooksPath string `mapstructure:"googlebooks_path"`
	StandardDir     string `mapstructure:"standard_dir"`
	StagingDir      string `mapstructure:"staging_dir"`
	DocsDir         string `mapstructure:"docs_dir"`
	MetricsFormat   string `mapstructure:"metrics_format"`
	APIKey          string `mapstructure:"google_books_api_key"`

	Enrich    Enrich    `mapstructure:"enrich"`
	Export    Export    `mapstructure:"export"`
	Warehouse Warehouse `mapstructure:"warehouse"`
}

// Enrich configures the bibliographic API lookups
type Enrich struct {
	Delay      time.Duration `mapstructure:"delay"`
	MaxRetries int           `mapstructure:"max_retries"`
	Backoff    time.Duration `mapstructure:"backoff"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// Export configures flat-file exports
type Export struct {
	Dir  string `mapstructure:"dir"`
	XLSX bool   `mapstructure:"xlsx"`
}

// Warehouse configures the SQLite load
type Warehouse struct {
	Path      string `mapstructure:"path"`
	BatchSize int    `mapstructure:"batch_size"`
}

// New returns a viper instance with defaults and environment binding set up
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyLandingDir, "landing")
	v.SetDefault(KeyGoodreadsPath, "")
	v.SetDefault(KeyGoogleBooks, "")
	v.SetDefault(KeyStandardDir, "standard")
	v.SetDefault(KeyStagingDir, "staging")
	v.SetDefault(KeyDocsDir, "docs")
	v.SetDefault(KeyMetricsFormat, "json")
	v.SetDefault(KeyAPIKey, "")
	v.SetDefault(KeyEnrichDelay, 300*time.Millisecond)
	v.SetDefault(KeyEnrichRetries, 3)
	v.SetDefault(KeyEnrichBackoff, 2*time.Second)
	v.SetDefault(KeyEnrichTimeout, 20*time.Second)
	v.SetDefault(KeyExportDir, "export")
	v.SetDefault(KeyExportXLSX, false)
	v.SetDefault(KeyWarehousePath, filepath.Join("warehouse", "books.db"))
	v.SetDefault(KeyWarehouseBatch, 500)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// the API key keeps its conventional unprefixed name
	_ = v.BindEnv(KeyAPIKey, APIKeyEnv, EnvPrefix+"_"+strings.ToUpper(KeyAPIKey))

	return v
}

// LoadEnvFiles loads .env then .env.local into the process environment.
// Missing files are ignored.
func LoadEnvFiles() {
	for _, name := range []string{".env", ".env.local"} {
		if err := godotenv.Load(name); err == nil {
			slog.Debug("Loaded env file", "path", name)
		}
	}
}

// ReadFile reads configFile, or bookintegrate.yaml from the working
// directory when configFile is empty. Only an explicitly named file is
// required to exist.
func ReadFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("bookintegrate")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	slog.Debug("Using config file", "path", v.ConfigFileUsed())
	return nil
}

// Resolve decodes the viper state into Settings and fills derived paths
func Resolve(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if s.GoodreadsPath == "" {
		s.GoodreadsPath = filepath.Join(s.LandingDir, sources.GoodreadsFile)
	}
	if s.GoogleBooksPath == "" {
		s.GoogleBooksPath = filepath.Join(s.LandingDir, sources.GoogleBooksFile)
	}
	s.MetricsFormat = strings.ToLower(strings.TrimSpace(s.MetricsFormat))

	if s.Enrich.MaxRetries < 1 {
		return nil, fmt.Errorf("enrich.max_retries must be at least 1, got %d", s.Enrich.MaxRetries)
	}
	if s.Warehouse.BatchSize < 1 {
		return nil, fmt.Errorf("warehouse.batch_size must be at least 1, got %d", s.Warehouse.BatchSize)
	}
	return &s, nil
}
