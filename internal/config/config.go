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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Dictionary DictionaryConfig `mapstructure:"dictionary"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Report     ReportConfig     `mapstructure:"report"`
	Verbose    bool             `mapstructure:"verbose"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Dialect                        string `mapstructure:"dialect"`
	Host                           string `mapstructure:"host"`
	Port                           int    `mapstructure:"port"`
	User                           string `mapstructure:"user"`
	Password                       string `mapstructure:"password"`
	DBName                         string `mapstructure:"name"`
	Schema                         string `mapstructure:"schema"`
	SSLMode                        string `mapstructure:"sslmode"`
	CloudSQLInstanceConnectionName string `mapstructure:"cloudsql_instance_connection_name"`
	UsePrivateIP                   bool   `mapstructure:"cloudsql_use_private_ip"`
}

// DictionaryConfig controls how tables are sampled and which ones are included.
type DictionaryConfig struct {
	SampleSize      int      `mapstructure:"sample_size"`
	RandomSample    bool     `mapstructure:"random_sample"`
	ExcludePrefixes []string `mapstructure:"exclude_prefixes"`
	Tables          string   `mapstructure:"tables"`
}

// LLMConfig selects and configures the summarization service.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	Endpoint    string        `mapstructure:"endpoint"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ReportConfig controls where and how the dictionary is persisted.
type ReportConfig struct {
	OutputFilename string   `mapstructure:"output_filename"`
	Format         string   `mapstructure:"format"`
	MetricsFile    string   `mapstructure:"metrics_file"`
	S3             S3Config `mapstructure:"s3"`
}

// S3Config describes an optional S3-compatible upload target for the report.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// Enabled reports whether an upload target was configured.
func (c S3Config) Enabled() bool {
	return strings.TrimSpace(c.Bucket) != ""
}

const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DefaultSampleSize     = 5
	DefaultOllamaEndpoint = "http://localhost:11434/api/generate"
	DefaultOllamaModel    = "gemma3:4b"
	DefaultGeminiModel    = "gemini-1.5-flash-latest"
	DefaultOpenAIEndpoint = "https://api.openai.com/v1"
	DefaultOpenAIModel    = "gpt-4o-mini"

	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatParquet  = "parquet"

	envPrefix = "DATADICT"
)

// SupportedDialects lists every dialect name a handler is registered under.
var SupportedDialects = []string{"postgres", "cloudsqlpostgres", "mysql", "cloudsqlmysql", "sqlserver", "cloudsqlsqlserver", "sqlite"}

var defaultPorts = map[string]int{
	"postgres":  5432,
	"mysql":     3306,
	"sqlserver": 1433,
}

// Default returns the configuration used when nothing else is supplied.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Dialect: "postgres",
			SSLMode: "disable",
		},
		Dictionary: DictionaryConfig{
			SampleSize:      DefaultSampleSize,
			RandomSample:    true,
			ExcludePrefixes: []string{"SYS", "DBC"},
		},
		LLM: LLMConfig{
			Provider:    ProviderOllama,
			MaxAttempts: 1,
		},
		Report: ReportConfig{
			Format: FormatCSV,
		},
	}
}

// Load builds a Config from defaults, an optional YAML file, DATADICT_* environment
// variables and the given flags, in increasing order of precedence. flags maps a config
// key (e.g. "database.host") to the flag that overrides it; only flags the user changed
// take effect.
func Load(cfgFile string, flags map[string]*pflag.Flag) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	for key, flag := range flags {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("failed to bind flag --%s: %w", flag.Name, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.applyDerivedDefaults()
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("database.dialect", d.Database.Dialect)
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 0)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "")
	v.SetDefault("database.schema", "")
	v.SetDefault("database.sslmode", d.Database.SSLMode)
	v.SetDefault("database.cloudsql_instance_connection_name", "")
	v.SetDefault("database.cloudsql_use_private_ip", false)

	v.SetDefault("dictionary.sample_size", d.Dictionary.SampleSize)
	v.SetDefault("dictionary.random_sample", d.Dictionary.RandomSample)
	v.SetDefault("dictionary.exclude_prefixes", d.Dictionary.ExcludePrefixes)
	v.SetDefault("dictionary.tables", "")

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.endpoint", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.max_attempts", d.LLM.MaxAttempts)
	v.SetDefault("llm.timeout", time.Duration(0))

	v.SetDefault("report.output_filename", "")
	v.SetDefault("report.format", d.Report.Format)
	v.SetDefault("report.metrics_file", "")
	v.SetDefault("report.s3.endpoint", "")
	v.SetDefault("report.s3.region", "")
	v.SetDefault("report.s3.bucket", "")
	v.SetDefault("report.s3.prefix", "")
	v.SetDefault("report.s3.access_key_id", "")
	v.SetDefault("report.s3.secret_access_key", "")
	v.SetDefault("report.s3.use_ssl", false)

	v.SetDefault("verbose", false)
}

// applyDerivedDefaults fills values that depend on other settings.
func (c *Config) applyDerivedDefaults() {
	c.Database.Dialect = strings.ToLower(strings.TrimSpace(c.Database.Dialect))
	if c.Database.Port == 0 {
		c.Database.Port = defaultPorts[strings.TrimPrefix(c.Database.Dialect, "cloudsql")]
	}

	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	switch c.LLM.Provider {
	case ProviderOllama:
		if c.LLM.Endpoint == "" {
			c.LLM.Endpoint = DefaultOllamaEndpoint
		}
		if c.LLM.Model == "" {
			c.LLM.Model = DefaultOllamaModel
		}
	case ProviderGemini:
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		}
		if c.LLM.Model == "" {
			c.LLM.Model = DefaultGeminiModel
		}
	case ProviderOpenAI:
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if c.LLM.Endpoint == "" {
			c.LLM.Endpoint = DefaultOpenAIEndpoint
		}
		if c.LLM.Model == "" {
			c.LLM.Model = DefaultOpenAIModel
		}
	}
	if c.LLM.MaxAttempts < 1 {
		c.LLM.MaxAttempts = 1
	}

	c.Report.Format = strings.ToLower(strings.TrimSpace(c.Report.Format))
	if c.Report.Format == "md" {
		c.Report.Format = FormatMarkdown
	}
}

// Validate checks that the configuration can drive a run. It does not check
// credentials that are collected interactively.
func (c *Config) Validate() error {
	if !isSupportedDialect(c.Database.Dialect) {
		return fmt.Errorf("unsupported dialect: %s (only %s are supported)", c.Database.Dialect, strings.Join(SupportedDialects, ", "))
	}
	if strings.HasPrefix(c.Database.Dialect, "cloudsql") && c.Database.CloudSQLInstanceConnectionName == "" {
		return fmt.Errorf("--cloudsql-instance-connection-name is required for dialect %s", c.Database.Dialect)
	}
	if c.Dictionary.SampleSize < 1 {
		return fmt.Errorf("sample_size must be at least 1, got %d", c.Dictionary.SampleSize)
	}
	switch c.LLM.Provider {
	case ProviderOllama:
	case ProviderGemini, ProviderOpenAI:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm provider %s requires an API key", c.LLM.Provider)
		}
	default:
		return fmt.Errorf("unsupported llm provider: %s (expected %s, %s or %s)", c.LLM.Provider, ProviderOllama, ProviderGemini, ProviderOpenAI)
	}
	switch c.Report.Format {
	case FormatCSV, FormatMarkdown, FormatParquet:
	default:
		return fmt.Errorf("unsupported report format: %s (expected %s, %s or %s)", c.Report.Format, FormatCSV, FormatMarkdown, FormatParquet)
	}
	return nil
}

// IsFileDialect reports whether the dialect addresses a local database file
// rather than a network server.
func (c DatabaseConfig) IsFileDialect() bool {
	return c.Dialect == "sqlite"
}

// DisplayName is the database name written into reports. File databases are
// named by the file's base name so reports do not leak local paths.
func (c DatabaseConfig) DisplayName() string {
	if c.IsFileDialect() && c.DBName != "" {
		return filepath.Base(c.DBName)
	}
	return c.DBName
}

func isSupportedDialect(dialect string) bool {
	for _, d := range SupportedDialects {
		if d == dialect {
			return true
		}
	}
	return false
}
