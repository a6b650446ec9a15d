package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/mariner3d/marinerctl/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "marinerctl.yaml")
	require.NoError(t, config.Default().Save(cfgPath))

	opts := &options{}
	t.Cleanup(opts.closeLog)
	cmd := newRootCmd(opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{
		"--config", cfgPath,
		"--url", srv.URL,
		"--log-file", filepath.Join(dir, "debug.log"),
	}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func newStatusServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/print_status", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"state": "PRINTING", "selected_file": "lattice.ctb", "progress": 20,
			"current_layer": 53, "layer_count": 79, "time_left_secs": 9840,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStatusCommand(t *testing.T) {
	out, err := runCLI(t, newStatusServer(t), "status")
	require.NoError(t, err)
	assert.Contains(t, out, "State: PRINTING\n")
	assert.NotContains(t, out, "Printing")
	assert.Contains(t, out, "lattice.ctb")
	assert.Contains(t, out, "20%   2h44 left   53/79 layers")
}

func TestStatusCommand_JSONKeepsWireState(t *testing.T) {
	out, err := runCLI(t, newStatusServer(t), "status", "--json")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "PRINTING", got["state"])
	assert.Equal(t, "lattice.ctb", got["selected_file"])
}

func TestPauseCommand_ServerErrorIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/printer/command/pause_print", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"title": "Not Printing", "description": "Nothing to pause."})
	}))
	defer srv.Close()

	_, err := runCLI(t, srv, "pause")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Nothing to pause.")
}

func TestListCommand_HidesDotfiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "models/", r.URL.Query().Get("path"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"directories": []map[string]string{{"dirname": "old"}, {"dirname": ".trash"}},
			"files":       []map[string]any{{"filename": "a.ctb", "path": "models/a.ctb", "can_be_printed": true}},
		})
	}))
	defer srv.Close()

	out, err := runCLI(t, srv, "ls", "models")
	require.NoError(t, err)
	assert.Contains(t, out, "old/")
	assert.Contains(t, out, "a.ctb")
	assert.NotContains(t, out, ".trash")
}
