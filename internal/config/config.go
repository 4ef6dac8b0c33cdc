/*
 * Copyright 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/generator"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/schema"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "DDG"

// DefaultOutputFile is where generated INSERT statements are written.
const DefaultOutputFile = "insert_statements.sql"

// SupportedDialects lists the dialects accepted by the database layer.
var SupportedDialects = []string{"postgres", "cloudsqlpostgres", "mysql", "cloudsqlmysql", "sqlserver", "cloudsqlsqlserver", "sqlite"}

// Config holds all configuration for the application
type Config struct {
	Database     DatabaseConfig      `mapstructure:"database"`
	Generation   GenerationConfig    `mapstructure:"generation"`
	Server       ServerConfig        `mapstructure:"server"`
	JoinColumns  []schema.JoinColumn `mapstructure:"join_columns"`
	GeminiAPIKey string              `mapstructure:"gemini_api_key"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Dialect                        string `mapstructure:"dialect"`
	Host                           string `mapstructure:"host"`
	Port                           int    `mapstructure:"port"`
	User                           string `mapstructure:"user"`
	Password                       string `mapstructure:"password"`
	DBName                         string `mapstructure:"dbname"`
	SSLMode                        string `mapstructure:"sslmode"`
	CloudSQLInstanceConnectionName string `mapstructure:"cloudsql_instance_connection_name"`
	UsePrivateIP                   bool   `mapstructure:"use_private_ip"`
}

// GenerationConfig tunes value synthesis.
type GenerationConfig struct {
	PlaceholderCount int                  `mapstructure:"placeholder_count"`
	IntRange         generator.IntRange   `mapstructure:"int_range"`
	NumericRange     generator.FloatRange `mapstructure:"numeric_range"`
	// TimestampStart and TimestampEnd are dates or RFC 3339 times. Both empty
	// selects the window of one year around today.
	TimestampStart string `mapstructure:"timestamp_start"`
	TimestampEnd   string `mapstructure:"timestamp_end"`
	Seed           *int64 `mapstructure:"seed"`
	OutputFile     string `mapstructure:"output_file"`
	StringExamples bool   `mapstructure:"string_examples"`
	ExamplesPerCol int    `mapstructure:"examples_per_column"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

var globalConfig *Config

// GetConfig returns a default configuration. Configuration will be set by flags in root.go
func GetConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Dialect: "postgres",
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		Generation: GenerationConfig{
			PlaceholderCount: generator.DefaultPlaceholderCount,
			IntRange:         generator.IntRange{Min: 1, Max: 1000},
			NumericRange:     generator.FloatRange{Min: 0, Max: 9999},
			OutputFile:       DefaultOutputFile,
			ExamplesPerCol:   10,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

// SetConfig sets the global configuration.
func SetConfig(cfg *Config) {
	globalConfig = cfg
}

// Current returns the configuration installed by SetConfig, or the defaults.
func Current() *Config {
	if globalConfig == nil {
		return GetConfig()
	}
	return globalConfig
}

// LoadDotEnv loads the given .env files into the process environment. Missing
// files are ignored; variables already set are kept.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env", ".env.local"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load builds a Config from the defaults, the optional config file at path
// and DDG_* environment variables, in increasing priority. Without a path,
// ddg.config.{yaml,json} in the working directory is used when present.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, GetConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("generation.seed")
	_ = v.BindEnv("gemini_api_key", EnvPrefix+"_GEMINI_API_KEY", "GEMINI_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("ddg.config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("database.dialect", d.Database.Dialect)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "")
	v.SetDefault("database.sslmode", d.Database.SSLMode)
	v.SetDefault("database.cloudsql_instance_connection_name", "")
	v.SetDefault("database.use_private_ip", false)

	v.SetDefault("generation.placeholder_count", d.Generation.PlaceholderCount)
	v.SetDefault("generation.int_range.min", d.Generation.IntRange.Min)
	v.SetDefault("generation.int_range.max", d.Generation.IntRange.Max)
	v.SetDefault("generation.numeric_range.min", d.Generation.NumericRange.Min)
	v.SetDefault("generation.numeric_range.max", d.Generation.NumericRange.Max)
	v.SetDefault("generation.timestamp_start", "")
	v.SetDefault("generation.timestamp_end", "")
	v.SetDefault("generation.output_file", d.Generation.OutputFile)
	v.SetDefault("generation.string_examples", false)
	v.SetDefault("generation.examples_per_column", d.Generation.ExamplesPerCol)

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
}

// Validate checks the dialect, ranges and timestamp window.
func (c *Config) Validate() error {
	if c.Database.Dialect != "" && !isSupportedDialect(c.Database.Dialect) {
		return fmt.Errorf("unsupported dialect: %s (only %s are supported)", c.Database.Dialect, strings.Join(SupportedDialects, ", "))
	}
	g := c.Generation
	if g.PlaceholderCount < 1 {
		return fmt.Errorf("placeholder count must be at least 1, got %d", g.PlaceholderCount)
	}
	if g.IntRange.Min > g.IntRange.Max {
		return fmt.Errorf("int range minimum %d is greater than maximum %d", g.IntRange.Min, g.IntRange.Max)
	}
	if g.NumericRange.Min > g.NumericRange.Max {
		return fmt.Errorf("numeric range minimum %g is greater than maximum %g", g.NumericRange.Min, g.NumericRange.Max)
	}
	if _, err := g.TimestampRange(); err != nil {
		return err
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", c.Server.Port)
	}
	return nil
}

func isSupportedDialect(dialect string) bool {
	for _, d := range SupportedDialects {
		if d == dialect {
			return true
		}
	}
	return false
}

var timestampLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func parseTimestamp(v string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q: expected YYYY-MM-DD, 'YYYY-MM-DD HH:MM:SS' or RFC 3339", v)
}

// TimestampRange returns the configured window, or nil when neither bound is
// set. Setting only one bound is an error.
func (g GenerationConfig) TimestampRange() (*generator.TimeRange, error) {
	if g.TimestampStart == "" && g.TimestampEnd == "" {
		return nil, nil
	}
	if g.TimestampStart == "" || g.TimestampEnd == "" {
		return nil, fmt.Errorf("timestamp start and end must be set together")
	}
	start, err := parseTimestamp(g.TimestampStart)
	if err != nil {
		return nil, err
	}
	end, err := parseTimestamp(g.TimestampEnd)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("timestamp end %s is before start %s", g.TimestampEnd, g.TimestampStart)
	}
	return &generator.TimeRange{Start: start, End: end}, nil
}

// GeneratorConfig converts the generation settings into a generator.Config.
func (g GenerationConfig) GeneratorConfig() (generator.Config, error) {
	tr, err := g.TimestampRange()
	if err != nil {
		return generator.Config{}, err
	}
	intRange := g.IntRange
	numericRange := g.NumericRange
	return generator.Config{
		PlaceholderCount: g.PlaceholderCount,
		Seed:             g.Seed,
		Options: generator.Options{
			IntRange:       &intRange,
			NumericRange:   &numericRange,
			TimestampRange: tr,
		},
	}, nil
}
