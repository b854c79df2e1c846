package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// writeFile writes content to name inside dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func findCommand(t *testing.T, name string) *cobra.Command {
	t.Helper()
	sub, _, err := NewRootCommand().Find([]string{name})
	require.NoError(t, err)
	return sub
}

const rangesDoc = `name: ranges
filters:
  - name: adults
    filter:
      cmp: {left: {prop: 1}, op: ge, right: {const: 18}}
    expect:
      outcome: pushed
      condition: "prop[1] >= 18"
      ids: [2]
  - name: lazy
    filter:
      and:
        - init: true
        - has: {prop: 2}
    expect:
      outcome: fallback
vertices:
  - {id: 1, label: 1, props: {"1": 10}}
  - {id: 2, label: 1, props: {"1": 30}}
`

const taggedDoc = `name: tagged
filters:
  - name: plain
    filter:
      has: {prop: 1}
  - name: tagged
    filter:
      cmp: {left: {tag: a, prop: 1}, op: eq, right: {const: 1}}
`
