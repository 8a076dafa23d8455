package config

import (
	"os"
	"testing"
)

// writeTempConfig creates a minimal configuration file required for LoadConfig
// and returns its path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	return f.Name()
}

const minimalYAML = `sdrflow:
  name: "TestApp"
  version: "1.0"
input:
  file: "trade_data.csv"
output:
  dir: "out"
storage:
  s3:
    enabled: false
`

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t, minimalYAML)
	defer os.Remove(path)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Sdrflow.Name != "TestApp" {
		t.Errorf("unexpected name: %s", cfg.Sdrflow.Name)
	}
	if cfg.Input.File != "trade_data.csv" {
		t.Errorf("unexpected input file: %s", cfg.Input.File)
	}
	if !cfg.Output.Formats.CSV {
		t.Errorf("expected csv format enabled by default")
	}
	if len(cfg.Analysis.Currencies) != len(DefaultCurrencies) {
		t.Errorf("expected default currencies, got %v", cfg.Analysis.Currencies)
	}
}

func TestLoadConfigCurrenciesNormalized(t *testing.T) {
	path := writeTempConfig(t, minimalYAML+`analysis:
  currencies: [" usd", "eur "]
`)
	defer os.Remove(path)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Analysis.Currencies[0] != "USD" || cfg.Analysis.Currencies[1] != "EUR" {
		t.Errorf("currencies not normalized: %v", cfg.Analysis.Currencies)
	}
}

func TestLoadConfigMissingInput(t *testing.T) {
	path := writeTempConfig(t, `sdrflow:
  name: "TestApp"
  version: "1.0"
output:
  dir: "out"
`)
	defer os.Remove(path)

	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected validation error for missing input.file")
	}
}

func TestLoadConfigBadReferenceDate(t *testing.T) {
	path := writeTempConfig(t, minimalYAML+`analysis:
  reference_date: "01/02/2024"
`)
	defer os.Remove(path)

	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected validation error for bad reference date")
	}
}

func TestReferenceDateOverride(t *testing.T) {
	cfg := &Config{Analysis: AnalysisConfig{ReferenceDate: "2024-03-20"}}
	d := cfg.ReferenceDate()
	if d.Year() != 2024 || d.Month() != 3 || d.Day() != 20 {
		t.Errorf("unexpected reference date: %v", d)
	}
}

func TestIsValidS3Bucket(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"valid-bucket", true},
		{"Invalid", false},
		{"ab", false},
		{"my..bucket", false},
	}
	for _, c := range cases {
		if got := isValidS3Bucket(c.name); got != c.valid {
			t.Errorf("isValidS3Bucket(%q) = %v, want %v", c.name, got, c.valid)
		}
	}
}
