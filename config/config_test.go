package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "localhost", cfg.Store.Host)
	assert.Equal(t, 8086, cfg.Store.Port)
	assert.Equal(t, 1000, cfg.Query.RowLimit)
	assert.Equal(t, "14d", cfg.Query.DefaultWindow)
	assert.Equal(t, 256, cfg.Cache.Capacity)
}

func TestLoad(t *testing.T) {
	yamlData := `
store:
  host: "tsdb.example.org"
  port: 9096
  timeout: "30s"
query:
  row_limit: 500
  default_window: "7d"
cache:
  capacity: 64
`
	cfg, err := Load(strings.NewReader(yamlData))
	require.NoError(t, err)

	assert.Equal(t, "tsdb.example.org", cfg.Store.Host)
	assert.Equal(t, 9096, cfg.Store.Port)
	assert.Equal(t, 500, cfg.Query.RowLimit)
	assert.Equal(t, "7d", cfg.Query.DefaultWindow)
	assert.Equal(t, 64, cfg.Cache.Capacity)
	// Unset sections keep their defaults.
	assert.Equal(t, "5s", cfg.Query.BatchGrace)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadInvalid(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{"malformed yaml", "store: [not a map"},
		{"bad port", "store:\n  port: 99999"},
		{"negative row limit", "query:\n  row_limit: -1"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tc.yaml))
			require.Error(t, err)
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg, err := LoadFromFile(t.TempDir() + "/does-not-exist.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParseDuration(t *testing.T) {
	def := 42 * time.Second
	assert.Equal(t, 30*time.Second, ParseDuration("30s", def, nil))
	assert.Equal(t, 14*24*time.Hour, ParseDuration("2w", def, nil))
	assert.Equal(t, def, ParseDuration("", def, nil))
	assert.Equal(t, def, ParseDuration("0", def, nil))
	assert.Equal(t, def, ParseDuration("garbage", def, nil))
}

func TestTimeoutHelpers(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 60*time.Second, cfg.StoreTimeout(10*time.Second, nil))
	assert.Equal(t, 5*time.Second, cfg.BatchGrace(time.Second, nil))

	cfg.Store.Timeout = "bogus"
	assert.Equal(t, 10*time.Second, cfg.StoreTimeout(10*time.Second, nil))
}
