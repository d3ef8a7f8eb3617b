package docs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"server-console/pkg/args"
	"server-console/pkg/cmd"
)

func testRegistry(t *testing.T) *cmd.Registry {
	t.Helper()
	noop := func(context.Context, *cmd.Invocation) error { return nil }
	reg := cmd.NewRegistry()

	kickSchema, err := args.NewSchema(
		args.ArgSpec{Name: "target", Type: args.Text()},
		args.ArgSpec{Name: "reason", Type: args.Text(), Optional: true, Rest: true},
	)
	require.NoError(t, err)

	reg.MustRegister(
		cmd.MustDefine(cmd.Descriptor{Name: "kick", Aliases: []string{"k"}, Description: "Disconnect a player.", Category: "Moderation", Permission: "moderator", Handler: cmd.HandlerBound, Schema: kickSchema, Run: noop}),
		cmd.MustDefine(cmd.Descriptor{Name: "help", Description: "Show commands.", Category: "Information", Handler: cmd.HandlerRaw, Run: noop}),
		cmd.MustDefine(cmd.Descriptor{Name: "restart", Description: "Restart.", Category: "Server", Handler: cmd.HandlerRaw, RawUsage: "<delay>", Async: true, Run: noop}),
	)
	return reg
}

func weight(c string) int {
	return map[string]int{"Information": 0, "Moderation": 20, "Server": 40}[c]
}

func TestWriteReference(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, WriteReference(&sb, testRegistry(t), weight, ""))
	out := sb.String()

	assert.True(t, strings.HasPrefix(out, "# Console commands"))
	assert.Contains(t, out, "### Information\n\n- **`help`** - Show commands.\n")
	assert.Contains(t, out, "- **`kick <target> <reason...>`** - Disconnect a player. _(aliases: k; requires moderator)_")
	assert.Contains(t, out, "- **`restart <delay>`** - Restart. _(background job)_")
	assert.Less(t, strings.Index(out, "### Moderation"), strings.Index(out, "### Server"))
}

func TestWriteReferenceCustomTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "README.md.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("intro\n{{.CommandSections}}outro\n"), 0o644))

	var sb strings.Builder
	require.NoError(t, WriteReference(&sb, testRegistry(t), weight, path))
	assert.True(t, strings.HasPrefix(sb.String(), "intro\n### Information"))
	assert.True(t, strings.HasSuffix(sb.String(), "outro\n"))

	assert.Error(t, WriteReference(&sb, testRegistry(t), weight, filepath.Join(t.TempDir(), "nope")))
}
