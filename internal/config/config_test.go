package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
name = "Test"

[network]
bind_address = "127.0.0.1:43595"
tick_rate = "300ms"
auth_timeout = "2s"

[auth]
mode = "postgres"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Test", cfg.Server.Name)
	assert.Equal(t, uint16(317), cfg.Server.Revision)
	assert.Equal(t, "127.0.0.1:43595", cfg.Network.BindAddress)
	assert.Equal(t, 300*time.Millisecond, cfg.Network.TickRate)
	assert.Equal(t, 2*time.Second, cfg.Network.AuthTimeout)
	assert.Equal(t, 128, cfg.Network.InQueueSize)
	assert.Equal(t, "postgres", cfg.Auth.Mode)
	assert.Equal(t, "data/cache", cfg.Cache.Directory)
	assert.Equal(t, 5*time.Minute, cfg.Server.Autosave)
	assert.NotZero(t, cfg.Server.StartTime)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"auth mode", "[auth]\nmode = \"ldap\"\n"},
		{"tick rate", "[network]\ntick_rate = \"0s\"\n"},
		{"max players", "[auth]\nmax_players = 4000\n"},
		{"max players at list terminator", "[auth]\nmax_players = 2047\n"},
		{"syntax", "[server\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPathHonoursEnvironment(t *testing.T) {
	t.Setenv("OLDSCAPE_CONFIG", "")
	assert.Equal(t, DefaultPath, Path())
	t.Setenv("OLDSCAPE_CONFIG", "/etc/oldscape.toml")
	assert.Equal(t, "/etc/oldscape.toml", Path())
}
