package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServer_Defaults(t *testing.T) {
	cfg, err := LoadServer()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "0.0.0.0:3000", cfg.Addr())
}

func TestLoadServer_PortFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")

	cfg, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoadClient_Defaults(t *testing.T) {
	cfg, err := LoadClient(Options{})
	require.NoError(t, err)

	assert.Equal(t, DefaultServer, cfg.ServerURL)
	assert.Equal(t, "ws://localhost:3000/ws", cfg.WebSocketURL)
	assert.Equal(t, []string{DefaultSTUN}, cfg.GetSTUNServers())
	assert.Nil(t, cfg.GetTURNServers())
}

func TestLoadClient_FlagBeatsEnv(t *testing.T) {
	t.Setenv("WATCHPARTY_SERVER", "https://env.example.com")

	cfg, err := LoadClient(Options{Server: "https://flag.example.com/"})
	require.NoError(t, err)

	assert.Equal(t, "https://flag.example.com", cfg.ServerURL, "trailing slash stripped, flag wins")
	assert.Equal(t, "wss://flag.example.com/ws", cfg.WebSocketURL)
}

func TestLoadClient_EnvBeatsDefault(t *testing.T) {
	t.Setenv("WATCHPARTY_SERVER", "http://env.example.com:9000")
	t.Setenv("STUN_SERVER", "stun:stun.example.com:3478")

	cfg, err := LoadClient(Options{})
	require.NoError(t, err)

	assert.Equal(t, "ws://env.example.com:9000/ws", cfg.WebSocketURL)
	assert.Equal(t, "stun:stun.example.com:3478", cfg.STUNServer)
}

func TestLoadClient_BadScheme(t *testing.T) {
	_, err := LoadClient(Options{Server: "ftp://example.com"})
	require.Error(t, err)
}

func TestWebsocketURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://localhost:3000", "ws://localhost:3000/ws"},
		{"https://party.example.com", "wss://party.example.com/ws"},
		{"ws://direct.example.com", "ws://direct.example.com/ws"},
		{"wss://direct.example.com", "wss://direct.example.com/ws"},
	}
	for _, tt := range tests {
		got, err := websocketURL(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestClient_TURN(t *testing.T) {
	cfg := &Client{TURNServer: "turn:turn.example.com", TURNUser: "alice", TURNPass: "s3cret"}

	servers := cfg.GetTURNServers()
	require.Len(t, servers, 2)
	assert.Equal(t, "turn:turn.example.com:3478?transport=udp", servers[0])
	assert.Equal(t, "turn:turn.example.com:3478?transport=tcp", servers[1])

	user, pass := cfg.GetTURNCredentials()
	assert.Equal(t, "alice", user)
	assert.Equal(t, "s3cret", pass)
}
