package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	raw := `
mongo:
  host: localhost:27017
  dbname: stock_discussion
  username: app
  password: secret
  authSource: admin
gcs:
  bucket: data-lake
  basePath: marketing/stock_discussion
server:
  addr: ":9090"
scrape:
  timezone: Asia/Seoul
  requestDelay: 500ms
  detailWorkers: 4
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "localhost:27017", cfg.Mongo.Host)
	require.Equal(t, "data-lake", cfg.GCS.Bucket)
	require.Equal(t, ":9090", cfg.Server.Addr)
	require.Equal(t, 500*time.Millisecond, cfg.Scrape.RequestDelay.Std())
	require.Equal(t, 4, cfg.Scrape.DetailWorkers)

	// Unset fields pick up defaults.
	require.Equal(t, 3, cfg.Scrape.MaxRetries)
	require.Equal(t, 100, cfg.Scrape.BrowserSwitchPage)
}

func TestLoadConfigDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mongo:\n  host: localhost:27017\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "Asia/Seoul", cfg.Scrape.Timezone)
	require.Equal(t, time.Second, cfg.Scrape.RequestDelay.Std())

	loc, err := cfg.Location()
	require.NoError(t, err)
	require.NotNil(t, loc)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
