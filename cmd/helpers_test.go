// File: cmd/helpers_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/autosign/internal/observability"
	"github.com/xkilldash9x/autosign/internal/orchestrator"
)

// resetForTest isolates a test from global logger state, the real browser
// and any config.yaml or log file in the working directory.
func resetForTest(t *testing.T) {
	t.Helper()
	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)

	original := launchBrowser
	t.Cleanup(func() { launchBrowser = original })

	dir := t.TempDir()
	t.Setenv("AUTOSIGN_LOGGER_LOG_FILE", filepath.Join(dir, "autosign.log"))
	t.Setenv("AUTOSIGN_LOGGER_LEVEL", "fatal")
	t.Setenv("AUTOSIGN_SCREENSHOTS_BASE_DIR", filepath.Join(dir, "screenshots"))
}

// executeCommand runs a fresh command tree with args and stdin, returning
// everything written to stdout and stderr.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	rootCmd := NewRootCommand()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func createTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

var _ orchestrator.Launcher = launchBrowser
