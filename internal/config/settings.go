package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rpgo/estimated-tax/internal/domain"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides, e.g. ESTAX_DATABASE_DSN.
const EnvPrefix = "ESTAX"

// Settings are the application settings read from the config file, the
// environment and command line flags.
type Settings struct {
	Database     DatabaseSettings `mapstructure:"database"`
	Logging      LoggingSettings  `mapstructure:"logging"`
	TaxYear      int              `mapstructure:"tax_year"`
	FilingStatus string           `mapstructure:"filing_status"`
}

// DatabaseSettings selects the storage backend.
type DatabaseSettings struct {
	Backend string `mapstructure:"backend"`
	DSN     string `mapstructure:"dsn"`
}

// LoggingSettings configures the zap logger.
type LoggingSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// SetDefaults registers the default value of every setting on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.backend", "sqlite")
	v.SetDefault("database.dsn", "estax.db")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "")
	v.SetDefault("tax_year", 2025)
	v.SetDefault("filing_status", string(domain.Single))
}

// LoadSettings reads settings into a fresh viper instance.
func LoadSettings(path string) (*Settings, error) {
	return Load(viper.New(), path)
}

// Load reads settings through v, which may already have flags bound. With an
// empty path it looks for estax.yaml in the working directory and in
// $HOME/.config/estax; a missing file there is not an error.
func Load(v *viper.Viper, path string) (*Settings, error) {
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("estax")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "estax"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return &s, nil
}

// Validate checks the settings that have a fixed set of values.
func (s *Settings) Validate() error {
	if s.Database.Backend == "" {
		return fmt.Errorf("database.backend is required")
	}
	if s.TaxYear <= 0 {
		return fmt.Errorf("tax_year must be positive, got %d", s.TaxYear)
	}
	code, err := domain.ParseFilingStatusCode(s.FilingStatus)
	if err != nil {
		return fmt.Errorf("filing_status: %w", err)
	}
	s.FilingStatus = string(code)
	switch s.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", s.Logging.Format)
	}
	return nil
}

// DefaultFilingStatus returns the configured filing status code.
func (s *Settings) DefaultFilingStatus() domain.FilingStatusCode {
	return domain.FilingStatusCode(s.FilingStatus)
}
