package e2e_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duelboard/duelboard/internal/api"
	"github.com/duelboard/duelboard/internal/factory"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath  string
	serverURL   string
	sessionFile string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(projectRoot, "bin", "duelboard-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/duelboard")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	// Create temp session file
	sessionFile := filepath.Join(t.TempDir(), "session")

	return &cliRunner{
		binaryPath:  binaryPath,
		serverURL:   serverURL,
		sessionFile: sessionFile,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--session-file", r.sessionFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	addr     string
	emails   *factory.RecordingEmailSender
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	// Create application with a recording email sender so tests can pull
	// magic-link tokens out of band
	emails := &factory.RecordingEmailSender{}
	app, err := factory.New(factory.Config{
		EmailSender: emails,
	})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:      testLogger(),
		Sessions:    app.SessionService,
		MagicLinks:  app.MagicLinkService,
		RateLimiter: app.RateLimiter,
		CsrfGuard:   app.CsrfGuard,
		Clock:       app.Clock,
		Gateway:     app.Gateway,
	})

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		addr:   serverURL,
		emails: emails,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			app.RoomManager.Cleanup()
		},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// tokenFromLink pulls the raw token out of a captured magic-link URL
func tokenFromLink(t *testing.T, link string) string {
	t.Helper()

	u, err := url.Parse(link)
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}

// Response types for JSON parsing

type identityResponse struct {
	GuestID     string `json:"guest_id"`
	AccountID   string `json:"account_id"`
	DisplayName string `json:"display_name"`
	IsAccount   bool   `json:"is_account"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_AuthFlow(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// First contact mints a guest identity
	output, err := cli.run("auth", "me")
	require.NoError(t, err, "output: %s", output)

	var guest identityResponse
	require.NoError(t, json.Unmarshal([]byte(output), &guest))
	assert.False(t, guest.IsAccount)
	assert.NotEmpty(t, guest.GuestID)

	// The same session file resolves to the same guest
	output, err = cli.run("auth", "me")
	require.NoError(t, err, "output: %s", output)

	var again identityResponse
	require.NoError(t, json.Unmarshal([]byte(output), &again))
	assert.Equal(t, guest.GuestID, again.GuestID)

	// Request a login link and pull the token from the captured email
	output, err = cli.run("auth", "login", "alice@example.com")
	require.NoError(t, err, "output: %s", output)

	sent := ts.emails.Last()
	require.NotNil(t, sent, "no magic link email captured")
	assert.Equal(t, "alice@example.com", sent.Email)
	token := tokenFromLink(t, sent.URL)

	// Redeem the token
	output, err = cli.run("auth", "verify", token)
	require.NoError(t, err, "output: %s", output)

	var account identityResponse
	require.NoError(t, json.Unmarshal([]byte(output), &account))
	assert.True(t, account.IsAccount)
	assert.Equal(t, "alice", account.DisplayName)
	assert.Equal(t, guest.GuestID, account.GuestID, "guest lineage carries forward")

	// Redeeming again fails
	output, err = cli.run("auth", "verify", token)
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "used")

	// Logout mints a brand new guest
	output, err = cli.run("auth", "logout")
	require.NoError(t, err, "output: %s", output)

	output, err = cli.run("auth", "me")
	require.NoError(t, err, "output: %s", output)

	var fresh identityResponse
	require.NoError(t, json.Unmarshal([]byte(output), &fresh))
	assert.False(t, fresh.IsAccount)
	assert.NotEqual(t, guest.GuestID, fresh.GuestID)
}

func TestCLI_ErrorHandling(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Verify with a bogus token
	output, err := cli.run("auth", "verify", "not-a-real-token")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "invalid")

	// Login with a malformed email
	output, err = cli.run("auth", "login", "not-an-email")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "email")
}
