package cli

import (
	"os"
	"path/filepath"
	"strings"
)

// Config holds CLI configuration
type Config struct {
	ServerURL   string
	Session     string
	SessionFile string
	Output      string
	Verbose     bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:   getEnvOrDefault("DUELBOARD_SERVER", "http://localhost:8080"),
		Session:     os.Getenv("DUELBOARD_SESSION"),
		SessionFile: getEnvOrDefault("DUELBOARD_SESSION_FILE", defaultSessionFile()),
		Output:      "text",
		Verbose:     false,
	}
}

// LoadSession loads the session cookie value from file if not already set
func (c *Config) LoadSession() error {
	if c.Session != "" {
		return nil
	}

	data, err := os.ReadFile(c.SessionFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // No session file is fine; the server mints a guest
		}
		return err
	}

	c.Session = strings.TrimSpace(string(data))
	return nil
}

// SaveSession saves the session cookie value to the session file
func (c *Config) SaveSession(session string) error {
	c.Session = session

	dir := filepath.Dir(c.SessionFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	return os.WriteFile(c.SessionFile, []byte(session), 0600)
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".duelboard/session"
	}
	return filepath.Join(home, ".duelboard", "session")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
