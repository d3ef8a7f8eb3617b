package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"server-console/internal/config"
	"server-console/internal/game"
	"server-console/pkg/args"
	"server-console/pkg/cmd"
)

func init() {
	Register(&Command{
		Sort:        0,
		Name:        "players",
		Aliases:     []string{"who", "list"},
		Description: "List connected players.",
		Category:    config.CategoryPlayers,
		Handler:     playersHandler,
	})

	Register(&Command{
		Sort:        10,
		Name:        "join",
		Description: "Connect a test player to the server.",
		Category:    config.CategoryPlayers,
		Permission:  "admin",
		Args: []args.ArgSpec{
			{Name: "name", Type: args.Text(), Help: "single-word player name"},
		},
		Handler: joinHandler,
	})

	Register(&Command{
		Sort:        20,
		Name:        "setrole",
		Aliases:     []string{"role"},
		Description: "Change a player's role and optionally their health.",
		Category:    config.CategoryPlayers,
		Permission:  "moderator",
		Args: []args.ArgSpec{
			{Name: "target", Type: args.Ref(game.PlayerKind), Help: "player name or #id"},
			{Name: "role", Type: game.RoleType},
			{Name: "health", Type: args.Nullable(args.Int()), Optional: true, Help: "0-100, unchanged when omitted"},
		},
		Handler: setRoleHandler,
	})
}

func playersHandler(ctx context.Context, env *Env, inv *cmd.Invocation) error {
	players := env.Server.Roster.List()
	if len(players) == 0 {
		inv.Reply("No players online.")
		return nil
	}
	inv.Reply(formatPlayers(players))
	return nil
}

func formatPlayers(players []game.Player) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d player(s) online:\n", len(players))
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	for _, p := range players {
		extra := ""
		if p.Muted != 0 {
			extra = "muted: " + p.Muted.String()
		}
		fmt.Fprintf(tw, "  #%s\t%s\t%s\thp %d\t%s\t%s\n", p.ID, p.Name, p.Role, p.Health, p.Position, extra)
	}
	tw.Flush()
	return strings.TrimRight(sb.String(), "\n")
}

func joinHandler(ctx context.Context, env *Env, inv *cmd.Invocation) error {
	p, err := env.Server.Join(inv.Args.String("name"))
	if err != nil {
		return err
	}
	inv.Replyf("%s joined.", p)
	return nil
}

func setRoleHandler(ctx context.Context, env *Env, inv *cmd.Invocation) error {
	target := inv.Args.Entity("target")
	role := game.Role(inv.Args.Enum("role").Value)

	p, err := env.Server.SetRole(target.EntityID(), role)
	if err != nil {
		return err
	}
	if inv.Args.Has("health") {
		if p, err = env.Server.SetHealth(p.ID, inv.Args.Int("health")); err != nil {
			return err
		}
		inv.Replyf("%s is now a %s with %d health.", p, p.Role, p.Health)
		return nil
	}
	inv.Replyf("%s is now a %s.", p, p.Role)
	return nil
}

// names lists entity names in order for replies.
func names(es []args.Entity) string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.EntityName()
	}
	sort.Strings(out)
	return strings.Join(out, ", ")
}
