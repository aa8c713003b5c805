package cli

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foundry/internal/fakeapi"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	return Execute(context.Background(), args)
}

func TestCommandsAgainstDevService(t *testing.T) {
	srv := httptest.NewServer(fakeapi.NewServer(fakeapi.NewStore(), fakeapi.Options{JWTSecret: "cli-secret"}).Router())
	defer srv.Close()

	t.Setenv("FOUNDRY_API_URL", srv.URL)
	t.Setenv("FOUNDRY_SESSION_BACKEND", "sqlite")
	t.Setenv("FOUNDRY_SQLITE_PATH", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("FOUNDRY_LOG_LEVEL", "error")

	require.NoError(t, run(t, "login", "cli@example.com"))
	require.NoError(t, run(t, "whoami"))
	require.NoError(t, run(t, "protocols", "2026-10-19"))
	require.NoError(t, run(t, "bookings", "--type", "training"))
	require.NoError(t, run(t, "metrics"))
	require.NoError(t, run(t, "check", "--stats"))
	require.NoError(t, run(t, "achievements"))
	require.Error(t, run(t, "toggle", "42", "--date", "2026-10-19"))
	require.NoError(t, run(t, "logout"))
	require.Error(t, run(t, "protocols"))
}

func TestRejectsBadConfig(t *testing.T) {
	t.Setenv("FOUNDRY_SESSION_BACKEND", "keychain")
	require.Error(t, run(t, "whoami"))
}

func TestFailedCommandStillClosesClient(t *testing.T) {
	srv := httptest.NewServer(fakeapi.NewServer(fakeapi.NewStore(), fakeapi.Options{JWTSecret: "cli-secret"}).Router())
	defer srv.Close()

	t.Setenv("FOUNDRY_API_URL", srv.URL)
	t.Setenv("FOUNDRY_SESSION_BACKEND", "memory")
	t.Setenv("FOUNDRY_LOG_LEVEL", "error")

	e := &env{}
	err := execute(context.Background(), e, []string{"protocols", "2026-10-19"})
	require.Error(t, err, "unauthenticated read fails")
	assert.Nil(t, e.app)

	second := &env{}
	require.NoError(t, execute(context.Background(), second, []string{"whoami"}))
	assert.Nil(t, second.app)
	assert.Nil(t, e.app, "earlier runs are not touched again")
}
