package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/cryfox/vaultcore/internal/config"
	"github.com/cryfox/vaultcore/internal/engine"
	"github.com/cryfox/vaultcore/internal/kdf"
	"github.com/cryfox/vaultcore/internal/logging"
	"github.com/stretchr/testify/require"
)

var cheapParams = kdf.Params{Time: 1, Memory: 64, Threads: 1, KeyLen: kdf.KeySize}

// noTerminal makes readSecret read plain lines from the app input.
func noTerminal(t *testing.T) {
	t.Helper()
	orig := isTerminal
	isTerminal = func(int) bool { return false }
	t.Cleanup(func() { isTerminal = orig })
}

func silencePrintln(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		parts := make([]string, len(a))
		for i, v := range a {
			parts[i] = strings.TrimSpace(strings.ReplaceAll(toString(v), "\n", " "))
		}
		lines = append(lines, strings.Join(parts, " "))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// stubClipboard records clipboard writes.
func stubClipboard(t *testing.T) *[]string {
	t.Helper()
	var writes []string
	orig := clipboardWrite
	clipboardWrite = func(s string) error {
		writes = append(writes, s)
		return nil
	}
	t.Cleanup(func() { clipboardWrite = orig })
	return &writes
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	var cfg config.Config
	cfg.LoadDefaults(t.TempDir())
	cfg.ClipboardClearAfter = 0
	return &cfg
}

func openTestEngine(t *testing.T, cfg *config.Config) *engine.Engine {
	t.Helper()
	e, err := engine.Open(context.Background(), cfg, logging.Nop(), engine.WithKDFParams(cheapParams))
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

// newTestApp returns an App over a real engine whose input is the given
// lines.
func newTestApp(t *testing.T, cfg *config.Config, lines ...string) (*App, *bytes.Buffer) {
	t.Helper()
	noTerminal(t)
	out := &bytes.Buffer{}
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	return NewApp(cfg, logging.Nop(), openTestEngine(t, cfg), in, out), out
}

// setupVault creates the master password "hunter2" on a fresh config.
func setupVault(t *testing.T, cfg *config.Config) {
	t.Helper()
	a, _ := newTestApp(t, cfg, "hunter2", "hunter2")
	require.NoError(t, a.Setup(context.Background()))
	require.NoError(t, a.Close())
}
