package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 9090
database:
  driver: postgres
  host: db.internal
  port: 5432
  user: risk
  password: secret
  name: riskdb
llm:
  baseURL: http://llm.internal:8000/v1
  model: qwen2.5-7b-instruct
scoring:
  approveBelow: 25
  denyAt: 65
facts:
  searchURL: http://core.internal/loans/search
  token: Bearer abc
auth:
  keys:
    alice: key-1
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "http://llm.internal:8000/v1", cfg.LLM.BaseURL)
	assert.Equal(t, 25.0, cfg.Scoring.ApproveBelow)
	assert.Equal(t, 65.0, cfg.Scoring.DenyAt)
	assert.Equal(t, "key-1", cfg.Auth.Keys["alice"])
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 0\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 45, cfg.LLM.TimeoutSeconds)
	assert.Equal(t, 1, cfg.LLM.MaxRetries)
	assert.Equal(t, 100.0, cfg.Scoring.RawMax)
	assert.Equal(t, 30.0, cfg.Scoring.ApproveBelow)
	assert.Equal(t, 70.0, cfg.Scoring.DenyAt)
	assert.Equal(t, 3, cfg.Reporting.MaxAttempts)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDSNHelpers(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t,
		"risk:secret@tcp(db.internal:5432)/riskdb?parseTime=true&charset=utf8mb4&loc=UTC",
		cfg.MySQLDSN())
	assert.Equal(t,
		"host=db.internal port=5432 user=risk password=secret dbname=riskdb sslmode=disable",
		cfg.PostgresDSN())
}
