package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const peopleCUE = `
package queries

query: adults: {
	collection: "People"
	params: [30]
	steps: [
		{op: "Where", args: [{lambda: "p => p.age > $0"}]},
		{op: "OrderBy", args: [{lambda: "p => p.name"}]},
	]
}
`

const peopleYAML = `
queries:
  - name: names
    collection: People
    steps:
      - op: Select
        args: [{lambda: "p => p.name"}]
`

const adultsAQL = "FOR p IN @@C0 FILTER p.age > @P0 SORT p.name ASC RETURN p"

// writeFiles creates files under a new temp dir and returns the dir.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

// execute runs cmd with args and returns its stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
