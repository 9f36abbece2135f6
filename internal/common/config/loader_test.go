package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
camunda:
  broker_address: ${TEST_ZEEBE_ADDRESS}
database:
  postgres:
    host: localhost
    database: procurement
    user: procurement
  elasticsearch:
    url: http://localhost:9200
  redis:
    address: localhost:6379
workers:
  validate-vendor-submission:
    enabled: true
  check-document-expiry:
    enabled: false
    max_jobs_active: 2
qualification:
  expiry_warning_days: 14
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("TEST_ZEEBE_ADDRESS", "zeebe:26500")

	cfg, err := LoadFromFile(writeConfig(t, testConfig))
	require.NoError(t, err)

	assert.Equal(t, "zeebe:26500", cfg.Camunda.BrokerAddress)
	assert.Equal(t, []string{"http://localhost:9200"}, cfg.Database.Elasticsearch.GetAddresses())
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, 14, cfg.Qualification.ExpiryWarningDays)
	assert.Equal(t, "qualified-vendors", cfg.Qualification.SearchIndex)
	assert.Equal(t, 30*24*time.Hour, cfg.Qualification.DraftTTLDuration())

	w := GetWorkerConfig(cfg, "validate-vendor-submission")
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 3, w.MaxRetries)

	assert.False(t, IsWorkerEnabled(cfg, "check-document-expiry"))
	assert.True(t, IsWorkerEnabled(cfg, "manage-vendor-draft"))
	assert.Equal(t, 2, GetWorkerConfig(cfg, "check-document-expiry").MaxJobsActive)
}

func TestLoadFromFile_MissingBroker(t *testing.T) {
	t.Setenv("TEST_ZEEBE_ADDRESS", "")

	_, err := LoadFromFile(writeConfig(t, testConfig))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "camunda.broker_address")
}

func TestLoadFromFile_BadTimezone(t *testing.T) {
	t.Setenv("TEST_ZEEBE_ADDRESS", "zeebe:26500")

	_, err := LoadFromFile(writeConfig(t, testConfig+"app:\n  timezone: Mars/Olympus\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app.timezone")
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
