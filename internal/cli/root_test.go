package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "pushdown", cmd.Use)
	assert.Contains(t, cmd.Long, "fall back to the engine")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"translate", "check", "test"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
}

func TestCommandFlags(t *testing.T) {
	testCmd := findCommand(t, "test")
	for flag, def := range map[string]string{"update": "false", "filter": "", "db": ":memory:"} {
		f := testCmd.Flags().Lookup(flag)
		require.NotNil(t, f, flag)
		assert.Equal(t, def, f.DefValue, flag)
	}

	strict := findCommand(t, "check").Flags().Lookup("strict")
	require.NotNil(t, strict)
	assert.Equal(t, "false", strict.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ranges.yaml", rangesDoc)

	_, _, err := execute(t, "translate", path, "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "load", errors.New("inner")))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
	assert.Equal(t, "outer: load: inner", wrapped.Error())
}

func TestRootOptionsLogger(t *testing.T) {
	buf := &bytes.Buffer{}

	quiet := (&RootOptions{}).Logger(buf)
	quiet.Debug("hidden")
	assert.Empty(t, buf.String())

	loud := (&RootOptions{Verbose: true}).Logger(buf)
	assert.True(t, loud.Enabled(context.Background(), slog.LevelDebug))
	loud.Debug("shown", "k", 1)
	assert.Contains(t, buf.String(), "msg=shown k=1")
}
