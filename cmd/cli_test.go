package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu           sync.Mutex
	sessions     []map[string]string
	terminations []url.Values
	server       *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	backend := &fakeBackend{}
	backend.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		switch query.Get("cmd") {
		case "get_activity":
			backend.mu.Lock()
			defer backend.mu.Unlock()
			payload := map[string]any{
				"response": map[string]any{
					"result": "success",
					"data":   map[string]any{"sessions": backend.sessions},
				},
			}
			_ = json.NewEncoder(w).Encode(payload)
		case "terminate_session":
			backend.mu.Lock()
			backend.terminations = append(backend.terminations, query)
			backend.mu.Unlock()
			_, _ = fmt.Fprint(w, `{"response":{"result":"success"}}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	t.Cleanup(backend.server.Close)

	return backend
}

func (b *fakeBackend) serve(username, sessionID, sessionKey string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions = append(b.sessions, map[string]string{
		"username":    username,
		"session_id":  sessionID,
		"session_key": sessionKey,
	})
}

func (b *fakeBackend) terminated() []url.Values {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]url.Values(nil), b.terminations...)
}

func TestVersionCommand(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeConfigFixture(home, ""))

	stdout, _, err := executeCLI(t, home, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "dev")
}

func TestServersListShowsActiveAndSkipped(t *testing.T) {
	backend := newFakeBackend(t)

	home := t.TempDir()
	servers := fmt.Sprintf(`version = 1

[[servers]]
name = "plex-main"
url = %q
api_key = "key-main"

[[servers]]
name = "plex-spare"
url = "http://plex-spare:8181"
api_key = ""
`, backend.server.URL)
	require.NoError(t, writeConfigFixture(home, servers))

	stdout, _, err := executeCLI(t, home, "servers")
	require.NoError(t, err)
	assert.Contains(t, stdout, "plex-main")
	assert.Contains(t, stdout, "active")
	assert.Contains(t, stdout, "plex-spare")
	assert.Contains(t, stdout, "skipped")
}

func TestStatusRendersActivityWithoutTerminating(t *testing.T) {
	backend := newFakeBackend(t)
	backend.serve("alice", "sid-1", "41")
	backend.serve("alice", "sid-2", "42")
	backend.serve("alice", "sid-3", "43")

	home := t.TempDir()
	require.NoError(t, writeConfigFixture(home, singleServerFixture(backend)))

	stdout, _, err := executeCLI(t, home, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "alice")
	assert.Contains(t, stdout, "3 streams")
	assert.Contains(t, stdout, "[over limit]")
	assert.Contains(t, stdout, "sid-1")
	assert.Empty(t, backend.terminated())
}

func TestCheckTerminatesViolatorSessions(t *testing.T) {
	backend := newFakeBackend(t)
	backend.serve("alice", "sid-1", "41")
	backend.serve("alice", "sid-2", "42")
	backend.serve("alice", "sid-3", "43")
	backend.serve("bob", "sid-9", "99")

	home := t.TempDir()
	require.NoError(t, writeConfigFixture(home, singleServerFixture(backend)))

	stdout, _, err := executeCLI(t, home, "check")
	require.NoError(t, err)
	assert.Contains(t, stdout, "terminations: 3")

	terminated := backend.terminated()
	require.Len(t, terminated, 3)
	ids := make([]string, 0, len(terminated))
	for _, query := range terminated {
		ids = append(ids, query.Get("session_id"))
		assert.Contains(t, query.Get("message"), "alice")
		assert.Contains(t, query.Get("message"), "more than 2 active streams")
	}
	assert.ElementsMatch(t, []string{"sid-1", "sid-2", "sid-3"}, ids)
}

func TestCheckDryRunDoesNotTerminate(t *testing.T) {
	backend := newFakeBackend(t)
	backend.serve("alice", "sid-1", "41")
	backend.serve("alice", "sid-2", "42")
	backend.serve("alice", "sid-3", "43")

	home := t.TempDir()
	require.NoError(t, writeConfigFixture(home, singleServerFixture(backend)))

	stdout, _, err := executeCLI(t, home, "check", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[over limit]")
	assert.Empty(t, backend.terminated())
}

func TestCheckExemptUserKeepsSessions(t *testing.T) {
	backend := newFakeBackend(t)
	backend.serve("admin", "sid-1", "41")
	backend.serve("admin", "sid-2", "42")
	backend.serve("admin", "sid-3", "43")
	backend.serve("admin", "sid-4", "44")

	home := t.TempDir()
	require.NoError(t, writeConfigFixtureWithSettings(home, singleServerFixture(backend), `exempt_usernames = ["admin"]`))

	stdout, _, err := executeCLI(t, home, "check")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[exempt]")
	assert.Empty(t, backend.terminated())
}

func TestCheckJSONOutput(t *testing.T) {
	backend := newFakeBackend(t)
	backend.serve("alice", "sid-1", "41")

	home := t.TempDir()
	require.NoError(t, writeConfigFixture(home, singleServerFixture(backend)))

	stdout, _, err := executeCLI(t, home, "check", "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, "\"Verdicts\"")
	assert.Contains(t, stdout, "\"within-limit\"")
}

func TestCheckSurvivesUnreachableServer(t *testing.T) {
	backend := newFakeBackend(t)
	backend.serve("alice", "sid-1", "41")

	down := newFakeBackend(t)
	downURL := down.server.URL
	down.server.Close()

	home := t.TempDir()
	servers := fmt.Sprintf(`version = 1

[[servers]]
name = "plex-main"
url = %q
api_key = "key-main"

[[servers]]
name = "plex-down"
url = %q
api_key = "key-down"
`, backend.server.URL, downURL)
	require.NoError(t, writeConfigFixture(home, servers))

	stdout, _, err := executeCLI(t, home, "check")
	require.NoError(t, err)
	assert.Contains(t, stdout, "alice")
	assert.Contains(t, stdout, "plex-down")
	assert.Contains(t, stdout, "unreachable")
}

func TestCheckResolvesEnvSecretReference(t *testing.T) {
	backend := newFakeBackend(t)
	backend.serve("alice", "sid-1", "41")

	home := t.TempDir()
	t.Setenv("PLEX_MAIN_API_KEY", "key-main")
	servers := fmt.Sprintf(`version = 1

[[servers]]
name = "plex-main"
url = %q
api_key = "env:PLEX_MAIN_API_KEY"
`, backend.server.URL)
	require.NoError(t, writeConfigFixture(home, servers))

	stdout, _, err := executeCLI(t, home, "check")
	require.NoError(t, err)
	assert.Contains(t, stdout, "alice")
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func singleServerFixture(backend *fakeBackend) string {
	return fmt.Sprintf(`version = 1

[[servers]]
name = "plex-main"
url = %q
api_key = "key-main"
`, backend.server.URL)
}

func writeConfigFixture(home, servers string) error {
	return writeConfigFixtureWithSettings(home, servers, "")
}

func writeConfigFixtureWithSettings(home, servers, extraSettings string) error {
	configDir := filepath.Join(home, ".streamguard")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}

	settings := strings.Join([]string{
		"poll_interval_seconds = 60",
		"max_streams_per_user = 2",
		extraSettings,
	}, "\n")
	if err := os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(settings+"\n"), 0o644); err != nil {
		return err
	}

	if servers == "" {
		return nil
	}

	return os.WriteFile(filepath.Join(configDir, "servers.toml"), []byte(servers), 0o644)
}
