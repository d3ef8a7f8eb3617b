package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"server-console/internal/config"
	"server-console/pkg/args"
	"server-console/pkg/cmd"
)

const (
	actionStatus int64 = iota
	actionEnable
	actionDisable
)

var commandsAction = args.Enum("action",
	args.EnumMember{Name: "status", Value: actionStatus},
	args.EnumMember{Name: "enable", Value: actionEnable},
	args.EnumMember{Name: "disable", Value: actionDisable},
)

func init() {
	Register(&Command{
		Sort:        50,
		Name:        "commands",
		Description: "Show, enable or disable command categories.",
		Category:    config.CategoryServer,
		Permission:  "admin",
		Args: []args.ArgSpec{
			{Name: "action", Type: commandsAction, Optional: true},
			{Name: "category", Type: args.Text(), Optional: true},
		},
		Handler: commandsHandler,
	})
}

func commandsHandler(ctx context.Context, env *Env, inv *cmd.Invocation) error {
	action := inv.Args.Enum("action").Value
	if action == actionStatus {
		return commandsStatus(env, inv)
	}

	category, ok := matchCategory(inv.Args.String("category"))
	if !ok {
		return fmt.Errorf("unknown category %q, choose one of: %s", inv.Args.String("category"), strings.Join(categoryNames(), ", "))
	}

	switch action {
	case actionDisable:
		if category == config.CategoryInformation || category == config.CategoryServer {
			return fmt.Errorf("the %s category cannot be disabled", category)
		}
		if err := env.Storage.DisableCategory(category); err != nil {
			return err
		}
		inv.Replyf("Disabled %s commands.", category)
	case actionEnable:
		if err := env.Storage.EnableCategory(category); err != nil {
			return err
		}
		inv.Replyf("Enabled %s commands.", category)
	}
	return nil
}

func commandsStatus(env *Env, inv *cmd.Invocation) error {
	var sb strings.Builder
	for _, name := range categoryNames() {
		off, err := env.Storage.IsCategoryDisabled(name)
		if err != nil {
			return err
		}
		state := "enabled"
		if off {
			state = "disabled"
		}
		fmt.Fprintf(&sb, "%s: %s\n", name, state)
	}
	inv.Reply(strings.TrimRight(sb.String(), "\n"))
	return nil
}

func categoryNames() []string {
	out := make([]string, 0, len(config.CategoryWeights))
	for name := range config.CategoryWeights {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool {
		return config.CategoryWeight(out[i]) < config.CategoryWeight(out[j])
	})
	return out
}

func matchCategory(s string) (string, bool) {
	for name := range config.CategoryWeights {
		if strings.EqualFold(name, s) {
			return name, true
		}
	}
	return "", false
}
