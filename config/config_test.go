package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ProviderOpenAI, cfg.Model.Provider)
	assert.Equal(t, 50, cfg.Workflow.MaxSteps)
	assert.Equal(t, BackendMemory, cfg.Memory.Backend)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beeflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model:
  provider: anthropic
  name: claude-3-5-haiku-latest
  temperature: 0.2
memory:
  backend: redis
  window: 10
  redis:
    addr: redis:6379
    ttl: 2h
workflow:
  max_steps: 20
log:
  level: debug
  format: json
`), 0o600))

	t.Setenv(EnvProvider, "")
	t.Setenv(EnvAnthropicKey, "sk-ant")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderAnthropic, cfg.Model.Provider)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.Model.Name)
	require.NotNil(t, cfg.Model.Temperature)
	assert.InDelta(t, 0.2, *cfg.Model.Temperature, 1e-9)
	assert.Equal(t, "sk-ant", cfg.Model.APIKey)
	assert.Equal(t, BackendRedis, cfg.Memory.Backend)
	assert.Equal(t, "redis:6379", cfg.Memory.Redis.Addr)
	assert.Equal(t, 2*time.Hour, cfg.Memory.Redis.TTL)
	assert.Equal(t, "beeflow:history:", cfg.Memory.Redis.Prefix)
	assert.Equal(t, 20, cfg.Workflow.MaxSteps)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: [unterminated"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv_Overrides(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		EnvProvider:     "openai",
		EnvModel:        "gpt-4.1",
		EnvLogLevel:     "warn",
		EnvRedisAddr:    "cache:6379",
		EnvMaxSteps:     "12",
		EnvOpenAIKey:    "sk-test",
		EnvAnthropicKey: "ignored",
	}))
	require.NoError(t, err)

	assert.Equal(t, "gpt-4.1", cfg.Model.Name)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "cache:6379", cfg.Memory.Redis.Addr)
	assert.Equal(t, 12, cfg.Workflow.MaxSteps)
	assert.Equal(t, "sk-test", cfg.Model.APIKey)
}

func TestApplyEnv_BadMaxSteps(t *testing.T) {
	err := Default().ApplyEnv(env(map[string]string{EnvMaxSteps: "many"}))
	assert.ErrorContains(t, err, EnvMaxSteps)
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Model.Provider = "llama"
	cfg.Memory.Backend = "etcd"
	cfg.Log.Level = "loud"
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "model.provider")
	assert.ErrorContains(t, err, "memory.backend")
	assert.ErrorContains(t, err, "log.level")
	assert.ErrorContains(t, err, "log.format")
}

func TestValidate_RedisNeedsAddr(t *testing.T) {
	cfg := Default()
	cfg.Memory.Backend = BackendRedis
	cfg.Memory.Redis.Addr = ""

	assert.ErrorContains(t, cfg.Validate(), "memory.redis.addr")
}
