package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/snapshot/internal/config"
	"github.com/zeusync/snapshot/internal/core/components"
	"github.com/zeusync/snapshot/internal/core/models"
	"github.com/zeusync/snapshot/internal/core/snapshot"
	"github.com/zeusync/snapshot/internal/injector"
	"github.com/zeusync/snapshot/internal/transfer"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDemoPrintsDocument(t *testing.T) {
	out, err := execute(t, "demo", "--followers", "1")
	require.NoError(t, err)

	doc, err := snapshot.ParseDocument([]byte(strings.TrimSpace(out)))
	require.NoError(t, err)
	assert.Equal(t, components.Registry().Names(), doc.Types())
	rows, ok := doc.Column("Follow")
	require.True(t, ok)
	assert.Len(t, rows, 2)
}

func TestDemoThenInspect(t *testing.T) {
	file := filepath.Join(t.TempDir(), "demo.json")
	_, err := execute(t, "demo", "-o", file)
	require.NoError(t, err)

	out, err := execute(t, "inspect", file)
	require.NoError(t, err)
	assert.Contains(t, out, "fingerprint: ")
	assert.Contains(t, out, "load: 5 entities, 1 orphans")
	assert.NotContains(t, out, "unknown types")
}

func TestInspectReportsDrift(t *testing.T) {
	file := filepath.Join(t.TempDir(), "drift.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"Name":[[4,{"value":"x"}]],"Mana":[[4,3]]}`), 0o600))

	out, err := execute(t, "inspect", file)
	require.NoError(t, err)
	assert.Contains(t, out, "load: 1 entities, 0 orphans")
	assert.Contains(t, out, "unknown types: Mana")
	assert.Contains(t, out, "missing types: Position, Velocity")
}

func TestInspectRejectsMalformed(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"Name":[[-1,null]]}`), 0o600))

	_, err := execute(t, "inspect", file)
	assert.ErrorIs(t, err, snapshot.ErrNegativeIdentity)
}

func TestInvalidConfig(t *testing.T) {
	path := writeConfig(t, "snapshot:\n  on_dangling_reference: maybe\n")
	_, err := execute(t, "--config", path, "demo")
	assert.Error(t, err)

	_, err = execute(t, "--log-level", "loud", "demo")
	assert.Error(t, err)
}

func TestArchiveCommands(t *testing.T) {
	path := writeConfig(t, "archive:\n  dir: "+filepath.Join(t.TempDir(), "archive")+"\n")
	file := filepath.Join(t.TempDir(), "demo.json")
	_, err := execute(t, "--config", path, "demo", "-o", file)
	require.NoError(t, err)

	out, err := execute(t, "--config", path, "archive", "put", "autosave", file)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "autosave "))

	out, err = execute(t, "--config", path, "archive", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "autosave")

	out, err = execute(t, "--config", path, "archive", "get", "autosave")
	require.NoError(t, err)
	original, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.JSONEq(t, string(original), out)

	_, err = execute(t, "--config", path, "archive", "rm", "autosave")
	require.NoError(t, err)
	out, err = execute(t, "--config", path, "archive", "ls")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestFetchCommand(t *testing.T) {
	w := models.NewWorld()
	require.NoError(t, components.Demo(w, snapshot.DefaultMarker, 2))
	e, err := snapshot.NewEngine(components.Registry(), snapshot.DefaultOptions())
	require.NoError(t, err)
	want, err := e.Save(w)
	require.NoError(t, err)

	server := transfer.NewServer(transfer.DefaultConfig(), transfer.SourceFunc(func(context.Context) ([]byte, error) {
		return e.Save(w)
	}), nil)
	s := httptest.NewServer(server.Handler())
	defer s.Close()

	out, err := execute(t, "fetch", "ws"+strings.TrimPrefix(s.URL, "http")+"/snapshot")
	require.NoError(t, err)
	assert.Equal(t, string(want), strings.TrimSpace(out))
}

func TestRunServeStopsWithContext(t *testing.T) {
	cfg := config.Default()
	cfg.Transfer.ListenAddr = "127.0.0.1:0"
	cfg.Log.Level = "error"
	app, err := injector.InitializeApp(cfg)
	require.NoError(t, err)

	w := models.NewWorld()
	require.NoError(t, components.Demo(w, app.Engine.Options().Marker, 1))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	assert.NoError(t, runServe(ctx, app, w))
}
