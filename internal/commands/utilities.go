package commands

import (
	"context"
	"fmt"
	"strings"

	"server-console/internal/config"
	"server-console/pkg/args"
	"server-console/pkg/cmd"
	"server-console/pkg/util"
)

func init() {
	Register(&Command{
		Sort:        0,
		Name:        "echo",
		Description: "Repeat the words after the command, untouched.",
		Category:    config.CategoryUtilities,
		Raw:         true,
		RawUsage:    "<words...>",
		Handler:     echoHandler,
	})

	Register(&Command{
		Sort:        10,
		Name:        "history",
		Description: "Show recently run commands.",
		Category:    config.CategoryUtilities,
		Permission:  "moderator",
		Args: []args.ArgSpec{
			{Name: "count", Type: args.Int(), Optional: true, Default: 10, Help: "how many to show"},
		},
		Handler: historyHandler,
	})
}

func echoHandler(ctx context.Context, env *Env, inv *cmd.Invocation) error {
	if inv.Tokens.Len() == 0 {
		inv.Reply("(nothing to echo)")
		return nil
	}
	inv.Reply(inv.Tokens.JoinFrom(0))
	return nil
}

func historyHandler(ctx context.Context, env *Env, inv *cmd.Invocation) error {
	n := inv.Args.Int("count")
	if n <= 0 {
		return fmt.Errorf("count must be positive")
	}
	list, err := env.Storage.FetchCommandHistory(n)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		inv.Reply("No commands recorded yet.")
		return nil
	}

	var sb strings.Builder
	for _, rec := range list {
		status := "ok"
		if rec.Failed() {
			status = "failed"
		}
		who := rec.CallerName
		if who == "" {
			who = rec.CallerID
		}
		fmt.Fprintf(&sb, "%s  %s@%s  %s  [%s]\n", util.FormatTime(rec.Datetime, "YYYY-MM-DD hh:mm:ss"), who, rec.Source, rec.Line, status)
	}
	inv.Reply(strings.TrimRight(sb.String(), "\n"))
	return nil
}
