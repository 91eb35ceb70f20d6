package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"AI_PROVIDER", "GEMINI_API_KEY", "OPENAI_API_KEY", "API_KEY", "AI_MODEL", "SCRIPTLENS_PORT", "LOG_LEVEL", "DATABASE_URL"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadMissingKeyIsFatal(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestLoadDefaultsWithEnvKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("SCRIPTLENS_PORT", "9090")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, cfg.AI.Provider)
	assert.Equal(t, "g-key", cfg.AI.APIKey)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Workspace.MaxConcurrent)
	assert.Equal(t, 1024, cfg.Workspace.MaxWorkspaces)
	assert.False(t, cfg.ArchiveEnabled())
}

func TestLoadFileAndOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "o-key")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/scriptlens?sslmode=disable")
	p := writeConfig(t, `
server:
  port: 8181
ai:
  provider: openai
  apiKey: ${OPENAI_API_KEY}
  model: gpt-4o
  timeout: 45s
workspace:
  liveDelay: 750ms
  maxConcurrent: 2
minio:
  endpoint: localhost:9000
  bucketName: reports
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "o-key", cfg.AI.APIKey)
	assert.Equal(t, 45*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 750*time.Millisecond, cfg.Workspace.LiveDelay)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.True(t, cfg.ArchiveEnabled())
	assert.True(t, cfg.PublishEnabled())
	assert.Equal(t, "postgres://u:p@db/scriptlens?sslmode=disable", cfg.DSN())
}

func TestLoadRejectsInvalid(t *testing.T) {
	clearEnv(t)
	p := writeConfig(t, "ai:\n  provider: claude\n  apiKey: x\n")
	_, err := Load(p)
	assert.ErrorContains(t, err, "validating config")

	p = writeConfig(t, "server: [")
	_, err = Load(p)
	assert.ErrorContains(t, err, "parsing config file")
}

func TestHeuristicNeedsNoKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("AI_PROVIDER", "heuristic")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ProviderHeuristic, cfg.AI.Provider)
}

func TestDSNHelpers(t *testing.T) {
	c := Default()
	c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Name = "u", "p", "h", 3306, "d"
	assert.Equal(t, "u:p@tcp(h:3306)/d?parseTime=true&charset=utf8mb4&loc=UTC", c.DSN())
	c.Database.Driver = "postgres"
	assert.Contains(t, c.DSN(), "dbname=d")
}
