package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultDataDir, cfg.Paths.DataDir)
	assert.Equal(t, DefaultOutputDir, cfg.Paths.OutputDir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, MaxValidAge, cfg.Pipeline.MaxAge)
	assert.Equal(t, BillingCapAmount, cfg.Pipeline.BillingCap)
	assert.Equal(t, MinRoomNumber, cfg.Pipeline.MinRoomNumber)
	assert.Equal(t, MaxRoomNumber, cfg.Pipeline.MaxRoomNumber)
	assert.True(t, cfg.Observability.MetricsEnabled)
}

func TestDefault_Validates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.resolvePaths())
	assert.NoError(t, cfg.validate())
}

func TestValidate_NormalizesLogging(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "console"
	cfg.Logging.Output = "syslog"
	cfg.Logging.FilePath = ""
	cfg.Logging.Level = "INFO"
	require.NoError(t, cfg.resolvePaths())

	require.NoError(t, cfg.validate())

	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, DefaultLogOutput, cfg.Logging.Output)
	assert.Equal(t, DefaultLogFile, cfg.Logging.FilePath)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"zero max age", func(c *Config) { c.Pipeline.MaxAge = 0 }},
		{"negative billing cap", func(c *Config) { c.Pipeline.BillingCap = -1 }},
		{"room range inverted", func(c *Config) { c.Pipeline.MaxRoomNumber = 0 }},
		{"missing data dir", func(c *Config) { c.Paths.DataDir = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			require.NoError(t, cfg.resolvePaths())
			tt.mutate(cfg)
			assert.Error(t, cfg.validate())
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MEDCLI_LOGGING_LEVEL", "debug")
	t.Setenv("MEDCLI_PIPELINE_MAX_AGE", "100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 100, cfg.Pipeline.MaxAge)
	// Untouched values keep their defaults
	assert.Equal(t, BillingCapAmount, cfg.Pipeline.BillingCap)
}

func TestLoad_FileOverlay(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
logging:
  level: warn
pipeline:
  max_age: 110
  emit_bom: true
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 110, cfg.Pipeline.MaxAge)
	assert.True(t, cfg.Pipeline.EmitBOM)
	assert.Equal(t, DefaultDataDir, cfg.Paths.DataDir, "file keys absent keep defaults")
}

func TestNewPaths(t *testing.T) {
	p := NewPaths(PathsConfig{
		BaseDir:   "/srv/medcli",
		DataDir:   "data",
		OutputDir: "data/output",
		LogsDir:   "logs",
	})

	assert.Equal(t, filepath.Join("/srv/medcli", "data"), p.DataDir)
	assert.Equal(t, filepath.Join("/srv/medcli", "data/output", CleanedCSVName), p.CleanedCSV)
	assert.Equal(t, filepath.Join("/srv/medcli", "data/output", MLReadyCSVName), p.MLReadyCSV)
	assert.Equal(t, filepath.Join("/srv/medcli", "logs", TraceName), p.TraceFile)
}

func TestNewPaths_AbsoluteDirsKept(t *testing.T) {
	p := NewPaths(PathsConfig{
		BaseDir:   "/srv/medcli",
		DataDir:   "/mnt/raw",
		OutputDir: "out",
		LogsDir:   "logs",
	})

	assert.Equal(t, "/mnt/raw", p.DataDir)
	assert.Equal(t, filepath.Join("/srv/medcli", "out"), p.OutputDir)
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	p := NewPaths(PathsConfig{
		BaseDir:   base,
		DataDir:   "data",
		OutputDir: "data/output",
		LogsDir:   "logs",
	})

	require.NoError(t, p.EnsureDirectories())

	for _, dir := range []string{p.DataDir, p.OutputDir, p.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "present.csv")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(filepath.Join(dir, "absent.csv")))
}
