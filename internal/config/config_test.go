package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.LLM.Model = "gpt-4o"
	cfg.Extraction.Concurrency = 8
	cfg.Integrity.Enforce = true
	cfg.Reconcile.Tolerance = "0.01"
	cfg.Report.RunLogDir = "runs"

	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "gpt-4o-2024-08-06", cfg.LLM.Model)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.TransactionModel)
	assert.Equal(t, 2*time.Minute, cfg.LLM.Timeout)
	assert.Equal(t, 50, cfg.PDF.MaxFileMB)
	assert.Equal(t, 1000, cfg.PDF.MaxPages)
	assert.Equal(t, 4, cfg.Extraction.Concurrency)
	assert.Equal(t, 24000, cfg.Extraction.MaxTransactions)
	assert.True(t, cfg.Integrity.Enabled)
	assert.False(t, cfg.Integrity.Enforce)
	assert.False(t, cfg.Integrity.AIAudit)
	assert.Equal(t, 5, cfg.Report.Sample)
	assert.Empty(t, cfg.LLM.APIKey)
	require.NoError(t, cfg.Validate())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("extraction:\n  concurrency: 2\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Extraction.Concurrency)
	assert.Equal(t, 24000, cfg.Extraction.MaxTransactions)
	assert.Equal(t, "gpt-4o-2024-08-06", cfg.LLM.Model)
	assert.True(t, cfg.Integrity.Enabled)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("llm: [unterminated"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, Default())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "model: gpt-4o-2024-08-06")
	assert.Contains(t, contents, "max_pages: 1000")
	assert.Contains(t, contents, "concurrency: 4")
	assert.Contains(t, contents, "enabled: true")
	assert.NotContains(t, contents, "api_key")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"OPENAI_API_KEY":                "sk-test",
		"OPENAI_BASE_URL":               "http://localhost:8080/v1",
		"STMTCHECK_MODEL":               "gpt-4o",
		"STMTCHECK_TRANSACTION_MODEL":   "  gpt-4o  ",
		"STMTCHECK_CONCURRENCY":         "9",
		"STMTCHECK_REQUESTS_PER_SECOND": "2.5",
		"STMTCHECK_LOG_LEVEL":           "debug",
		"STMTCHECK_LOG_FORMAT":          "json",
		"STMTCHECK_RUN_LOG_DIR":         "/tmp/runs",
		"STMTCHECK_TOLERANCE":           "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "http://localhost:8080/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, "gpt-4o", cfg.LLM.TransactionModel)
	assert.Equal(t, 9, cfg.Extraction.Concurrency)
	assert.InDelta(t, 2.5, cfg.LLM.RequestsPerSecond, 0.001)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/tmp/runs", cfg.Report.RunLogDir)
	assert.Empty(t, cfg.Reconcile.Tolerance)
}

func TestApplyEnv_BadNumber(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(func(k string) (string, bool) {
		if k == "STMTCHECK_CONCURRENCY" {
			return "lots", true
		}
		return "", false
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STMTCHECK_CONCURRENCY")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"zero pages", func(c *Config) { c.PDF.MaxPages = 0 }, "pdf.max_pages"},
		{"zero size", func(c *Config) { c.PDF.MaxFileMB = 0 }, "pdf.max_file_mb"},
		{"zero concurrency", func(c *Config) { c.Extraction.Concurrency = 0 }, "extraction.concurrency"},
		{"negative sample", func(c *Config) { c.Report.Sample = -1 }, "report.sample"},
		{"bad tolerance", func(c *Config) { c.Reconcile.Tolerance = "cents" }, "reconcile.tolerance"},
		{"negative tolerance", func(c *Config) { c.Reconcile.Tolerance = "-1" }, "must not be negative"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestToleranceValue(t *testing.T) {
	d, err := ReconcileConfig{}.ToleranceValue()
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	d, err = ReconcileConfig{Tolerance: " 0.01 "}.ToleranceValue()
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.01").Equal(d))
}

func TestRequireAPIKey(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, cfg.RequireAPIKey(), ErrNoAPIKey)
	cfg.LLM.APIKey = "sk-test"
	assert.NoError(t, cfg.RequireAPIKey())
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("STMTCHECK_MODEL", "")

	// No stmtcheck.yaml and no .env: defaults.
	cfg, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, Default().LLM.Model, cfg.LLM.Model)

	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("report:\n  sample: 3\n"), 0o644))
	cfg, err = Resolve("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Report.Sample)

	// Env wins over the file.
	t.Setenv("STMTCHECK_MODEL", "gpt-4o")
	cfg, err = Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)

	_, err = Resolve(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolve_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	// Registers the key for restore; godotenv does not override set variables.
	t.Setenv("OPENAI_API_KEY", "")
	require.NoError(t, os.Unsetenv("OPENAI_API_KEY"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, EnvFile), []byte("OPENAI_API_KEY=sk-from-dotenv\n"), 0o600))
	cfg, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "sk-from-dotenv", cfg.LLM.APIKey)
}
