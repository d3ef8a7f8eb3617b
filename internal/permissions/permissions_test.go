package permissions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sample = `
default: moderator
callers:
  "42": admin
  banned-bot: user
`

func TestParse(t *testing.T) {
	tbl, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, LevelModerator, tbl.Default)
	assert.Equal(t, LevelAdmin, tbl.LevelOf("42", "discord"))
	assert.Equal(t, LevelUser, tbl.LevelOf("banned-bot", "discord"))
	assert.Equal(t, LevelModerator, tbl.LevelOf("7", "discord"))
	assert.Equal(t, LevelOwner, tbl.LevelOf("root", SourceConsole))
	assert.Equal(t, LevelUser, tbl.LevelOf("banned-bot", SourceConsole), "listed callers keep their level")
}

func TestParseUnknownLevel(t *testing.T) {
	_, err := Parse([]byte("default: wizard\n"))
	assert.ErrorIs(t, err, ErrUnknownLevel)
}

func TestLoadMissingFile(t *testing.T) {
	tbl, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, LevelUser, tbl.LevelOf("someone", "discord"))
	assert.Equal(t, LevelOwner, tbl.LevelOf("local", SourceConsole))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "permissions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, tbl.Callers, 2)
}

func TestAllows(t *testing.T) {
	tbl, err := Parse([]byte(sample))
	require.NoError(t, err)

	tests := []struct {
		caller, source, required string
		want                     bool
	}{
		{"7", "discord", "", true},
		{"7", "discord", "moderator", true},
		{"7", "discord", "admin", false},
		{"42", "discord", "Admin", true},
		{"42", "discord", "owner", false},
		{"me", SourceConsole, "owner", true},
	}
	for _, tt := range tests {
		got, err := tbl.Allows(tt.caller, tt.source, tt.required)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s/%s needs %s", tt.caller, tt.source, tt.required)
	}

	_, err = tbl.Allows("7", "discord", "god")
	assert.ErrorIs(t, err, ErrUnknownLevel)
}

func TestNilTable(t *testing.T) {
	var tbl *Table
	assert.Equal(t, LevelUser, tbl.LevelOf("x", "discord"))
	assert.Equal(t, LevelOwner, tbl.LevelOf("x", SourceConsole))
}

func TestLevelYAMLRoundTrip(t *testing.T) {
	out, err := yaml.Marshal(Table{Default: LevelAdmin, Callers: map[string]Level{"1": LevelOwner}})
	require.NoError(t, err)
	assert.Contains(t, string(out), "default: admin")

	back, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, LevelOwner, back.Callers["1"])
	assert.Equal(t, "Level(9)", Level(9).String())
}
