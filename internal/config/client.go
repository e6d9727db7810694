package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Default client configuration values.
const (
	DefaultServer = "http://localhost:3000"
	DefaultSTUN   = "stun:stun.l.google.com:19302"
)

// Client holds the participant CLI configuration.
type Client struct {
	// ServerURL is the coordinator's base HTTP URL.
	ServerURL string

	// WebSocketURL is derived from ServerURL.
	WebSocketURL string

	// ICE servers for the peer connection.
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
}

// Options carries CLI flag overrides for LoadClient.
type Options struct {
	Server     string
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
}

// LoadClient reads client configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func LoadClient(opts Options) (*Client, error) {
	server := firstOf(opts.Server, os.Getenv("WATCHPARTY_SERVER"), DefaultServer)
	server = strings.TrimRight(server, "/")

	wsURL, err := websocketURL(server)
	if err != nil {
		return nil, err
	}

	return &Client{
		ServerURL:    server,
		WebSocketURL: wsURL,
		STUNServer:   firstOf(opts.STUNServer, os.Getenv("STUN_SERVER"), DefaultSTUN),
		TURNServer:   firstOf(opts.TURNServer, os.Getenv("TURN_SERVER")),
		TURNUser:     firstOf(opts.TURNUser, os.Getenv("TURN_USERNAME")),
		TURNPass:     firstOf(opts.TURNPass, os.Getenv("TURN_PASSWORD")),
	}, nil
}

func websocketURL(server string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid server URL scheme %q", u.Scheme)
	}
	u.Path = "/ws"
	return u.String(), nil
}

// GetSTUNServers returns STUN server URLs as strings.
func (c *Client) GetSTUNServers() []string {
	return []string{c.STUNServer}
}

// GetTURNServers returns TURN server URLs if configured.
func (c *Client) GetTURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("%s:3478?transport=udp", c.TURNServer),
		fmt.Sprintf("%s:3478?transport=tcp", c.TURNServer),
	}
}

// GetTURNCredentials returns TURN username and password.
func (c *Client) GetTURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
