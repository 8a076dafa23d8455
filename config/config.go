package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config/config.yml"

var envConfigPaths = map[string]string{
	environmentProduction: "config/config.production.yml",
	environmentStaging:    "config/config.staging.yml",
}

type Config struct {
	Sdrflow  SdrflowConfig  `yaml:"sdrflow"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Input    InputConfig    `yaml:"input"`
	Output   OutputConfig   `yaml:"output"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Storage  StorageConfig  `yaml:"storage"`
}

type SdrflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type MetricsConfig struct {
	CloudWatch     bool          `yaml:"cloudwatch"`
	Namespace      string        `yaml:"namespace"`
	Dashboard      string        `yaml:"dashboard"`
	ReportInterval time.Duration `yaml:"report_interval"`
}

type InputConfig struct {
	File string `yaml:"file"`
}

type OutputConfig struct {
	Dir            string        `yaml:"dir"`
	StructuredFile string        `yaml:"structured_file"`
	CombinedFile   string        `yaml:"combined_file"`
	Formats        FormatsConfig `yaml:"formats"`
}

type FormatsConfig struct {
	CSV     bool `yaml:"csv"`
	Parquet bool `yaml:"parquet"`
}

type AnalysisConfig struct {
	Currencies []string `yaml:"currencies"`
	// ReferenceDate overrides "today" for bucketing and unwind detection.
	// Format 2006-01-02; empty means the wall clock date.
	ReferenceDate string `yaml:"reference_date"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	Prefix          string `yaml:"prefix"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

// DefaultCurrencies is the set of reported currencies when the configuration
// does not override it.
var DefaultCurrencies = []string{"USD", "EUR", "GBP", "JPY", "INR", "SGD", "AUD", "THB", "TWD", "KRW", "HKD"}

func LoadConfig(path string) (*Config, error) {
	path = resolveEnvSpecificPath(path, defaultConfigPath, envConfigPaths)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Output: OutputConfig{
			Dir:            "output",
			StructuredFile: "structured_output.csv",
			CombinedFile:   "market_commentary.txt",
			Formats:        FormatsConfig{CSV: true},
		},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if len(config.Analysis.Currencies) == 0 {
		config.Analysis.Currencies = append([]string(nil), DefaultCurrencies...)
	}
	for i, ccy := range config.Analysis.Currencies {
		config.Analysis.Currencies[i] = strings.ToUpper(strings.TrimSpace(ccy))
	}

	// Override S3 settings from environment variables if available
	if config.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}

	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Sdrflow.Name == "" {
		return fmt.Errorf("sdrflow.name is required")
	}

	if cfg.Sdrflow.Version == "" {
		return fmt.Errorf("sdrflow.version is required")
	}

	if cfg.Input.File == "" {
		return fmt.Errorf("input.file is required")
	}

	if cfg.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}

	if !cfg.Output.Formats.CSV && !cfg.Output.Formats.Parquet {
		return fmt.Errorf("at least one of output.formats.csv and output.formats.parquet must be enabled")
	}

	if cfg.Analysis.ReferenceDate != "" {
		if _, err := time.Parse("2006-01-02", cfg.Analysis.ReferenceDate); err != nil {
			return fmt.Errorf("analysis.reference_date must be YYYY-MM-DD: %w", err)
		}
	}

	for _, ccy := range cfg.Analysis.Currencies {
		if len(ccy) != 3 {
			return fmt.Errorf("analysis.currencies entry '%s' is not a 3-letter code", ccy)
		}
	}

	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if cfg.Storage.S3.AccessKeyID == "" || cfg.Storage.S3.SecretAccessKey == "" {
			return fmt.Errorf("storage.s3.access_key_id and storage.s3.secret_access_key are required when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
	}

	return nil
}

// ReferenceDate resolves the analysis reference date, falling back to the
// current wall clock date in UTC.
func (c *Config) ReferenceDate() time.Time {
	if c.Analysis.ReferenceDate != "" {
		if d, err := time.Parse("2006-01-02", c.Analysis.ReferenceDate); err == nil {
			return d
		}
	}
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
