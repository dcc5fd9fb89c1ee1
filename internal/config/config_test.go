package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/dyluth/frontdesk/pkg/desk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "frontdesk.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `version: "1.0"
hotel:
  name: lotus
  floors: 3
  rooms_per_floor: 6
  default_rate: 1800
storage:
  base_dir: /srv/hotel
remote:
  api_base: https://example.com/api/
  flush_interval: 10s
`)

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "lotus", config.Hotel.Name)
	assert.Equal(t, desk.Layout{Floors: 3, RoomsPerFloor: 6, DefaultRate: 1800}, config.Layout())
	assert.Equal(t, "/srv/hotel", config.Storage.BaseDir)
	assert.Equal(t, "https://example.com/api", config.Remote.APIBase)
	assert.Equal(t, 10*time.Second, config.FlushEvery())
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "version: \"1.0\"\nhotel:\n  name: lotus\n")

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, desk.DefaultLayout(), config.Layout())
	assert.Equal(t, 500, config.Storage.SnapshotMaxItems)
	assert.Equal(t, "redis://localhost:6379", config.Redis.URL)
	assert.Equal(t, 5*time.Second, config.FlushEvery())
	assert.Equal(t, ":4000", config.Server.Listen)
	assert.Equal(t, "1234", config.Admin.Password)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "console", config.Logging.Format)
}

func TestLoad_FileNotFound(t *testing.T) {
	config, err := Load("/nonexistent/frontdesk.yml")
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "version: \"1.0\"\nhotel:\n  - this is invalid\n    yaml syntax\n")

	config, err := Load(path)
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{"unsupported version", Config{Version: "2.0", Hotel: HotelConfig{Name: "x"}}, "unsupported version: 2.0"},
		{"missing hotel name", Config{Version: "1.0"}, "hotel.name is required"},
		{"hotel name with colon", Config{Version: "1.0", Hotel: HotelConfig{Name: "a:b"}}, "must not contain"},
		{"too many floors", Config{Version: "1.0", Hotel: HotelConfig{Name: "x", Floors: 120}}, "hotel.floors"},
		{"negative rate", Config{Version: "1.0", Hotel: HotelConfig{Name: "x", DefaultRate: -1}}, "hotel.default_rate"},
		{"bad flush interval", Config{Version: "1.0", Hotel: HotelConfig{Name: "x"}, Remote: RemoteConfig{FlushInterval: "soon"}}, "remote.flush_interval"},
		{"negative flush interval", Config{Version: "1.0", Hotel: HotelConfig{Name: "x"}, Remote: RemoteConfig{FlushInterval: "-1s"}}, "must be positive"},
		{"bad log format", Config{Version: "1.0", Hotel: HotelConfig{Name: "x"}, Logging: LoggingConfig{Format: "xml"}}, "invalid logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	config := Default()
	env := map[string]string{
		"FRONTDESK_REDIS_URL":      "redis://cache:6379/2",
		"FRONTDESK_BASE_DIR":       "/data/hotel",
		"FRONTDESK_API_BASE":       "https://remote.example/api",
		"FRONTDESK_LISTEN":         ":8080",
		"FRONTDESK_ADMIN_PASSWORD": "s3cret",
	}
	config.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "redis://cache:6379/2", config.Redis.URL)
	assert.Equal(t, "/data/hotel", config.Storage.BaseDir)
	assert.Equal(t, "https://remote.example/api", config.Remote.APIBase)
	assert.Equal(t, ":8080", config.Server.Listen)
	assert.Equal(t, "s3cret", config.Admin.Password)
}

func TestLoadOrDefault(t *testing.T) {
	t.Setenv("FRONTDESK_LISTEN", ":9000")

	config, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, "default", config.Hotel.Name)
	assert.Equal(t, ":9000", config.Server.Listen)
}

func TestTemplate_Loads(t *testing.T) {
	body := fmt.Sprintf(Template, strconv.Quote("lotus"), strconv.Quote("/srv/hotel"))
	config, err := Load(writeConfig(t, body))
	require.NoError(t, err)
	assert.Equal(t, "lotus", config.Hotel.Name)
	assert.Equal(t, "/srv/hotel", config.Storage.BaseDir)
	assert.Empty(t, config.Remote.APIBase)
}
