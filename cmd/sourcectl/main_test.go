package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnines/nexus-source/pkg/config"
	"github.com/saturnines/nexus-source/pkg/errors"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"sourcectl"}, args...))
	return out.String(), err
}

func TestInitSignVerify(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "plugin.yaml")
	script := filepath.Join(dir, "script.js")
	require.NoError(t, os.WriteFile(script, []byte("source.enable = function() {};\n"), 0o644))

	_, err := run(t, "init", "-c", cfg, "--name", "Tube", "--url", "https://tube.example")
	require.NoError(t, err)

	p, err := config.DefaultLoader().Load(cfg)
	require.NoError(t, err)
	assert.Equal(t, "Tube", p.Manifest.Name)
	assert.Len(t, p.Manifest.ID, 36)
	assert.Equal(t, "main", p.Endpoints.Selected)

	_, err = run(t, "init", "-c", cfg, "--name", "Tube", "--url", "https://tube.example")
	assert.Error(t, err)

	_, err = run(t, "keygen", "--out", dir, "--bits", "1024")
	require.NoError(t, err)

	_, err = run(t, "sign", "-c", cfg, "--script", script, "--key", filepath.Join(dir, "signing_key.pem"))
	require.NoError(t, err)

	out, err := run(t, "verify", "-c", cfg, "--script", script)
	require.NoError(t, err)
	assert.Contains(t, out, "signature ok")

	require.NoError(t, os.WriteFile(script, []byte("source.enable = function() { evil(); };\n"), 0o644))
	_, err = run(t, "verify", "-c", cfg, "--script", script)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestQueryCommands(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, map[string]any{"n": float64(3), "s": "abc"}, body["variables"])
			_, _ = w.Write([]byte(`{"data":{"via":"post"}}`))
		case http.MethodGet:
			assert.Equal(t, "Home", r.URL.Query().Get("operationName"))
			_, _ = w.Write([]byte(`{"data":{"via":"get"}}`))
		}
	}))
	defer server.Close()

	dir := t.TempDir()
	cfg := filepath.Join(dir, "plugin.yaml")
	zero := 0
	require.NoError(t, config.Save(cfg, &config.Plugin{
		Manifest:  config.Manifest{ID: "id", Name: "Tube"},
		Endpoints: config.Endpoints{URLs: map[string]string{"main": server.URL}},
		Retry:     config.Retry{Retries: &zero, DelayMS: &zero},
	}))

	out, err := run(t, "query", "-c", cfg, "--var", "n=3", "--var", "s=abc", "{ via }")
	require.NoError(t, err)
	assert.JSONEq(t, `{"via":"post"}`, out)

	out, err = run(t, "persisted", "-c", cfg, "--operation", "Home", "--hash", "h")
	require.NoError(t, err)
	assert.JSONEq(t, `{"via":"get"}`, out)

	_, err = run(t, "query", "-c", cfg, "--endpoint", "missing", "{ via }")
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}

func TestParseVars(t *testing.T) {
	vars, err := parseVars([]string{"a=1", "b=true", "c=hello", `d={"x":[1]}`, "e="})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a": float64(1),
		"b": true,
		"c": "hello",
		"d": map[string]any{"x": []any{float64(1)}},
		"e": "",
	}, vars)

	_, err = parseVars([]string{"novalue"})
	assert.Error(t, err)
}
