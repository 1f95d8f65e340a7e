package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 0},
		Database: DatabaseConfig{
			Driver: "redis",
			Addrs:  []string{"localhost:6379"},
		},
	}
	assert.Error(t, cfg.Validate())
}

func TestValidate_InvalidDriver(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Driver: "postgres"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.driver")
}

func TestValidate_MissingRedisAddrs(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Driver: "redis"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.addrs")
}

func TestValidate_MemoryDriverNeedsNoAddrs(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Driver: "memory"},
	}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_WordLengthBounds(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Driver: "memory"},
		Feedback: FeedbackConfig{MinWordLen: 5, MaxWordLen: 3},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_word_len")
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, 10, cfg.HTTP.ReadTimeoutSec)
	assert.Equal(t, 10, cfg.HTTP.WriteTimeoutSec)
	assert.Equal(t, 10, cfg.HTTP.ShutdownSec)
	assert.Equal(t, "redis", cfg.Database.Driver)
	assert.Equal(t, "relfeed", cfg.Database.Index)
	assert.Equal(t, "id", cfg.Database.UniqueKey)
	assert.Equal(t, "relfeed:", cfg.Database.KeyPrefix)
	assert.Equal(t, 10, cfg.Database.ReadinessTimeout)
	assert.Equal(t, 25, cfg.Feedback.MaxQueryTermsPerField)
	assert.Equal(t, 1, cfg.Feedback.MinTermFreq)
	assert.Equal(t, 1, cfg.Feedback.MinDocFreq)
	assert.Equal(t, 75, cfg.Feedback.MaxDocFreqPct)
	assert.Equal(t, 3, cfg.Feedback.MinWordLen)
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{
			Driver: "memory", UniqueKey: "doc_id", KeyPrefix: "custom:", ReadinessTimeout: 15,
		},
		Feedback: FeedbackConfig{MaxQueryTermsPerField: 50, MinWordLen: 4},
	}
	cfg.ApplyDefaults()

	assert.Equal(t, 30, cfg.HTTP.ReadTimeoutSec)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "doc_id", cfg.Database.UniqueKey)
	assert.Equal(t, "custom:", cfg.Database.KeyPrefix)
	assert.Equal(t, 50, cfg.Feedback.MaxQueryTermsPerField)
	assert.Equal(t, 4, cfg.Feedback.MinWordLen)
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))

	yaml := `
http:
  port: 8080
database:
  driver: redis
  addrs:
    - ${RELFEED_TEST_ADDR:-localhost:6379}
  password: ${RELFEED_TEST_PASSWORD}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "test.yaml"), []byte(yaml), 0o600))

	t.Setenv("RELFEED_TEST_PASSWORD", "s3cret")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("test")
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost:6379"}, cfg.Database.Addrs)
	assert.Equal(t, "s3cret", cfg.Database.Password)
}
