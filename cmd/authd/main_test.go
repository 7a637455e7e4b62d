package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/internal/config"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		config.EnvJWTSecret, config.EnvDatabaseURL, config.EnvRedisURL,
		config.EnvPostmarkToken, config.EnvAddr, config.EnvLogLevel,
	} {
		t.Setenv(key, "")
	}
}

// cancelOnWrite cancels the run context once the startup line is logged.
type cancelOnWrite struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	marker string
	cancel context.CancelFunc
}

func (w *cancelOnWrite) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if bytes.Contains(p, []byte(w.marker)) {
		w.cancel()
	}
	return w.buf.Write(p)
}

func TestRunRefusesToStartWithoutSecret(t *testing.T) {
	clearEnv(t)

	err := run(context.Background(), "", &bytes.Buffer{}, &bytes.Buffer{})
	require.ErrorIs(t, err, authcore.ErrMissingSigningKey)
}

func TestRunWiresSQLiteAndStops(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "authd.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
addr = "127.0.0.1:0"

[log]
format = "text"
level = "debug"

[token]
secret = "cmd-test-secret"

[storage]
credentials = "sqlite"
sqlite_path = "`+filepath.ToSlash(filepath.Join(dir, "auth.db"))+`"
`), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stdout := &cancelOnWrite{marker: "starting authd", cancel: cancel}
	require.NoError(t, run(ctx, path, stdout, &bytes.Buffer{}))
	assert.True(t, strings.Contains(stdout.buf.String(), "starting authd"), stdout.buf.String())
	assert.FileExists(t, filepath.Join(dir, "auth.db"))
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	newLogger(config.LogConfig{Level: "info", Format: "json"}, &buf).Info("hello")
	assert.True(t, strings.HasPrefix(buf.String(), "{"), buf.String())

	buf.Reset()
	newLogger(config.LogConfig{Level: "warn", Format: "text"}, &buf).Info("hidden")
	assert.Empty(t, buf.String())
}
