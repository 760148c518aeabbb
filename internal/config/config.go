package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/wegman-software/osm-footprints/internal/geomath"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "FOOTPRINTS"

// Storage sinks
const (
	SinkDir     = "dir"
	SinkHTTP    = "http"
	SinkPostGIS = "postgis"
)

// Config holds the global configuration
type Config struct {
	// Region source settings
	Region      string        `mapstructure:"region"` // west,south,east,north
	OverpassURL string        `mapstructure:"overpass-url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	StyleFile   string        `mapstructure:"style"` // YAML tag selectors, empty = built-in defaults
	// RequestInterval is the minimum spacing between Overpass requests, 0 = unlimited
	RequestInterval time.Duration `mapstructure:"request-interval"`

	// Output settings
	OutputDir string `mapstructure:"output-dir"`
	Sink      string `mapstructure:"sink"`     // dir, http or postgis
	SaveURL   string `mapstructure:"save-url"` // base URL of a footprints server, for the http sink

	// Database settings
	DBHost     string `mapstructure:"db-host"`
	DBPort     int    `mapstructure:"db-port"`
	DBName     string `mapstructure:"db-name"`
	DBUser     string `mapstructure:"db-user"`
	DBPassword string `mapstructure:"db-password"`
	DBSchema   string `mapstructure:"db-schema"`

	// Server settings
	ListenAddr      string        `mapstructure:"listen"`
	CORSOrigins     []string      `mapstructure:"cors-origins"`
	MetricsInterval time.Duration `mapstructure:"metrics-interval"` // 0 = no system metrics

	// Logging
	LogFile string `mapstructure:"log-file"` // empty = no file logging
	Verbose bool   `mapstructure:"verbose"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		OverpassURL:     "https://overpass-api.de/api/interpreter",
		Timeout:         60 * time.Second,
		OutputDir:       "./footprints",
		Sink:            SinkDir,
		DBHost:          "localhost",
		DBPort:          5432,
		DBName:          "osm",
		DBUser:          "postgres",
		DBSchema:        "public",
		ListenAddr:      ":5000",
		CORSOrigins:     []string{"*"},
		MetricsInterval: 30 * time.Second,
	}
}

// Load builds the configuration from, in increasing precedence: defaults,
// an optional YAML config file, a .env file, FOOTPRINTS_* environment
// variables and explicitly set flags. Flag names match the mapstructure keys.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	v.SetConfigType("yaml")
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("footprints")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	def := DefaultConfig()
	v.SetDefault("region", def.Region)
	v.SetDefault("overpass-url", def.OverpassURL)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("style", def.StyleFile)
	v.SetDefault("request-interval", def.RequestInterval)
	v.SetDefault("output-dir", def.OutputDir)
	v.SetDefault("sink", def.Sink)
	v.SetDefault("save-url", def.SaveURL)
	v.SetDefault("db-host", def.DBHost)
	v.SetDefault("db-port", def.DBPort)
	v.SetDefault("db-name", def.DBName)
	v.SetDefault("db-user", def.DBUser)
	v.SetDefault("db-password", def.DBPassword)
	v.SetDefault("db-schema", def.DBSchema)
	v.SetDefault("listen", def.ListenAddr)
	v.SetDefault("cors-origins", def.CORSOrigins)
	v.SetDefault("metrics-interval", def.MetricsInterval)
	v.SetDefault("log-file", def.LogFile)
	v.SetDefault("verbose", def.Verbose)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Bounds parses the configured region
func (c *Config) Bounds() (geomath.Region, error) {
	if c.Region == "" {
		return geomath.Region{}, fmt.Errorf("region is required (west,south,east,north)")
	}
	return geomath.ParseRegion(c.Region)
}

// ConnectionString returns a PostgreSQL connection string
func (c *Config) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBName, c.DBUser,
	)
	if c.DBPassword != "" {
		connStr += fmt.Sprintf(" password=%s", c.DBPassword)
	}
	return connStr
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Region != "" {
		if _, err := geomath.ParseRegion(c.Region); err != nil {
			return fmt.Errorf("invalid region: %w", err)
		}
	}
	if c.OverpassURL == "" {
		return fmt.Errorf("overpass url is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.RequestInterval < 0 {
		return fmt.Errorf("request interval must not be negative")
	}

	switch c.Sink {
	case SinkDir:
		if c.OutputDir == "" {
			return fmt.Errorf("output directory is required for the dir sink")
		}
	case SinkHTTP:
		if c.SaveURL == "" {
			return fmt.Errorf("save url is required for the http sink")
		}
	case SinkPostGIS:
		if c.DBName == "" || c.DBSchema == "" {
			return fmt.Errorf("database name and schema are required for the postgis sink")
		}
	default:
		return fmt.Errorf("unknown sink %q (want %s, %s or %s)", c.Sink, SinkDir, SinkHTTP, SinkPostGIS)
	}
	return nil
}
