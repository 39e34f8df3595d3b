package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// FileName is the default config file, looked up in the working directory.
const FileName = "stmtcheck.yaml"

// EnvFile is loaded into the environment before env overrides are applied.
const EnvFile = ".env"

// ErrNoAPIKey is returned by RequireAPIKey when no key is configured.
var ErrNoAPIKey = errors.New("OPENAI_API_KEY not found in environment variables or config")

// Config represents the top-level stmtcheck.yaml configuration.
type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	PDF        PDFConfig        `yaml:"pdf"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Integrity  IntegrityConfig  `yaml:"integrity"`
	Reconcile  ReconcileConfig  `yaml:"reconcile"`
	Report     ReportConfig     `yaml:"report"`
	Log        LogConfig        `yaml:"log"`
}

// LLMConfig selects the extraction service.
type LLMConfig struct {
	APIKey            string        `yaml:"api_key,omitempty"` // prefer OPENAI_API_KEY
	BaseURL           string        `yaml:"base_url,omitempty"`
	Model             string        `yaml:"model"`
	TransactionModel  string        `yaml:"transaction_model"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout"`
}

// PDFConfig bounds the accepted input.
type PDFConfig struct {
	MaxFileMB int `yaml:"max_file_mb"`
	MaxPages  int `yaml:"max_pages"`
}

// ExtractionConfig controls transaction extraction.
type ExtractionConfig struct {
	Concurrency     int `yaml:"concurrency"`
	MaxTransactions int `yaml:"max_transactions"`
}

// IntegrityConfig controls the page integrity screen.
type IntegrityConfig struct {
	Enabled bool `yaml:"enabled"`
	Enforce bool `yaml:"enforce"`  // fail the analysis on an integrity issue
	AIAudit bool `yaml:"ai_audit"` // one extra LLM request per page
}

// ReconcileConfig controls balance reconciliation.
type ReconcileConfig struct {
	// Tolerance overrides the currency-derived tolerance, e.g. "0.01".
	Tolerance string `yaml:"tolerance,omitempty"`
}

// ReportConfig controls output.
type ReportConfig struct {
	Sample    int    `yaml:"sample"`
	RunLogDir string `yaml:"run_log_dir,omitempty"` // empty disables the run log
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:            "gpt-4o-2024-08-06",
			TransactionModel: "gpt-4o-mini",
			Timeout:          2 * time.Minute,
		},
		PDF: PDFConfig{
			MaxFileMB: 50,
			MaxPages:  1000,
		},
		Extraction: ExtractionConfig{
			Concurrency:     4,
			MaxTransactions: 24000,
		},
		Integrity: IntegrityConfig{
			Enabled: true,
		},
		Report: ReportConfig{
			Sample: 5,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Load reads a stmtcheck.yaml file from disk. Keys missing from the file keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Resolve builds the effective configuration: defaults, then the config file,
// then .env, then the environment. An empty path means FileName if it exists.
func Resolve(path string) (*Config, error) {
	cfg := Default()
	switch {
	case path != "":
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	default:
		loaded, err := Load(FileName)
		if err == nil {
			cfg = loaded
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := godotenv.Load(EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", EnvFile, err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from environment variables looked up with lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("OPENAI_API_KEY", &c.LLM.APIKey)
	str("OPENAI_BASE_URL", &c.LLM.BaseURL)
	str("STMTCHECK_MODEL", &c.LLM.Model)
	str("STMTCHECK_TRANSACTION_MODEL", &c.LLM.TransactionModel)
	str("STMTCHECK_LOG_LEVEL", &c.Log.Level)
	str("STMTCHECK_LOG_FORMAT", &c.Log.Format)
	str("STMTCHECK_RUN_LOG_DIR", &c.Report.RunLogDir)
	str("STMTCHECK_TOLERANCE", &c.Reconcile.Tolerance)

	if v, ok := lookup("STMTCHECK_CONCURRENCY"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing STMTCHECK_CONCURRENCY %q: %w", v, err)
		}
		c.Extraction.Concurrency = n
	}
	if v, ok := lookup("STMTCHECK_REQUESTS_PER_SECOND"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parsing STMTCHECK_REQUESTS_PER_SECOND %q: %w", v, err)
		}
		c.LLM.RequestsPerSecond = f
	}
	return nil
}

// Validate checks ranges and formats.
func (c *Config) Validate() error {
	if c.PDF.MaxFileMB <= 0 {
		return fmt.Errorf("pdf.max_file_mb must be positive, got %d", c.PDF.MaxFileMB)
	}
	if c.PDF.MaxPages <= 0 {
		return fmt.Errorf("pdf.max_pages must be positive, got %d", c.PDF.MaxPages)
	}
	if c.Extraction.Concurrency <= 0 {
		return fmt.Errorf("extraction.concurrency must be positive, got %d", c.Extraction.Concurrency)
	}
	if c.Report.Sample < 0 {
		return fmt.Errorf("report.sample must not be negative, got %d", c.Report.Sample)
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	if _, err := c.Reconcile.ToleranceValue(); err != nil {
		return err
	}
	return nil
}

// ToleranceValue parses the tolerance override. Zero means "derive from the
// currency".
func (r ReconcileConfig) ToleranceValue() (decimal.Decimal, error) {
	if strings.TrimSpace(r.Tolerance) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(r.Tolerance))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing reconcile.tolerance %q: %w", r.Tolerance, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("reconcile.tolerance must not be negative, got %s", r.Tolerance)
	}
	return d, nil
}

// RequireAPIKey returns ErrNoAPIKey when no LLM key is configured.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return ErrNoAPIKey
	}
	return nil
}
