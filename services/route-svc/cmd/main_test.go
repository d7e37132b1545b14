package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routefinder/pkg/apperror"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(bytes.NewBufferString(stdin))
	root.SetOut(&out)
	root.SetErr(&out)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"console", "serve", "query", "migrate"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestConsoleCmd_Usage(t *testing.T) {
	_, err := execute(t, "", "console", "input.txt")

	require.Error(t, err)
	assert.Equal(t, consoleUsage, err.Error())
}

func TestConsoleCmd_Run(t *testing.T) {
	t.Setenv("ROUTEFINDER_AUDIT_BACKEND", "noop")
	dir := t.TempDir()
	input := filepath.Join(dir, "input.txt")
	require.NoError(t, os.WriteFile(input, []byte("0 1\n0 0\n"), 0o644))

	out, err := execute(t, "1\n1\n10\n\n0\n",
		"console", input, filepath.Join(dir, "output.txt"), filepath.Join(dir, "errors.txt"))

	require.NoError(t, err)
	assert.Contains(t, out, "Final vertex: 2, route length: 1, route: 1 -> 2\n")
}

func TestQueryCmd_Validation(t *testing.T) {
	dir := t.TempDir()
	matrix := filepath.Join(dir, "m.txt")
	require.NoError(t, os.WriteFile(matrix, []byte("0 1 1 0"), 0o644))

	t.Run("matrix required", func(t *testing.T) {
		_, err := execute(t, "", "query")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"matrix" not set`)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, "", "query", "--matrix", filepath.Join(dir, "none.txt"))
		assert.True(t, apperror.Is(err, apperror.CodeFileNotFound))
	})

	t.Run("source out of range", func(t *testing.T) {
		_, err := execute(t, "", "query", "--matrix", matrix, "--source", "3")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "received '3', but must be in range from '1' to '2'")
	})
}

func TestQueryCmd_ClientConfig(t *testing.T) {
	t.Setenv("ROUTEFINDER_RETRY_MAX_ATTEMPTS", "7")
	t.Setenv("ROUTEFINDER_RETRY_TIMEOUT", "9s")

	cmd := newQueryCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--addr", "svc:1", "--timeout", "2s"}))

	cc := clientConfig(cmd)
	assert.Equal(t, "svc:1", cc.Address)
	assert.Equal(t, 7, cc.MaxRetries)
	assert.Equal(t, 2*time.Second, cc.Timeout)
}

func TestRootCmd_MissingConfigFile(t *testing.T) {
	_, err := execute(t, "", "--config", filepath.Join(t.TempDir(), "absent.yaml"), "migrate", "status")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestMigrateCmd_InvalidAction(t *testing.T) {
	_, err := execute(t, "", "migrate", "sideways")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid argument")
}
