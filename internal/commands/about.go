// /internal/commands/about.go
package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"server-console/internal/config"
	"server-console/internal/version"
	"server-console/pkg/cmd"
	"server-console/pkg/util"
)

func init() {
	Register(&Command{
		Sort:        10,
		Name:        "about",
		Description: "Show server and console information.",
		Category:    config.CategoryInformation,
		Handler:     aboutHandler,
	})
}

func aboutHandler(ctx context.Context, env *Env, inv *cmd.Invocation) error {
	inv.Reply(buildAboutMessage(env))
	return nil
}

func buildAboutMessage(env *Env) string {
	buildDate := "unknown"
	if version.BuildDate != "" {
		if t, err := time.Parse(time.RFC3339, version.BuildDate); err == nil {
			buildDate = util.FormatTime(t, "YYYY-MM-DD")
		} else {
			buildDate = "invalid date"
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", version.AppName, version.AppDescription)
	fmt.Fprintf(&sb, "Release: %s, revision %s (Go %s)\n", buildDate, version.Revision(), strings.TrimPrefix(version.GoVersion(), "go"))
	fmt.Fprintf(&sb, "Uptime: %s\n", util.HumanDuration(env.Server.Uptime()))
	fmt.Fprintf(&sb, "Players online: %d\n", env.Server.Roster.Len())
	if env.Storage != nil {
		st := env.Storage.Stats()
		fmt.Fprintf(&sb, "Storage: %s (%d records, %d bytes)\n", st.FilePath, len(st.Keys), st.MemorySize)
	}
	fmt.Fprintf(&sb, "Commands: %d", env.Registry.Len())
	return sb.String()
}
