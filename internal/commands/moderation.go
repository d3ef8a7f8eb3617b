package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"server-console/internal/config"
	"server-console/internal/game"
	"server-console/pkg/args"
	"server-console/pkg/cmd"
	"server-console/pkg/util"
)

// maxBanMinutes caps timed bans at ten years; longer bans should be permanent.
const maxBanMinutes = 10 * 365 * 24 * 60

func init() {
	Register(&Command{
		Sort:        0,
		Name:        "kick",
		Aliases:     []string{"k"},
		Description: "Disconnect a player.",
		Category:    config.CategoryModeration,
		Permission:  "moderator",
		Args: []args.ArgSpec{
			{Name: "target", Type: args.Ref(game.PlayerKind), Help: "player name or #id"},
			{Name: "reason", Type: args.Text(), Optional: true, Rest: true, Help: "shown to the player"},
		},
		Handler: kickHandler,
	})

	Register(&Command{
		Sort:        10,
		Name:        "ban",
		Description: "Ban a player name, optionally for a number of minutes.",
		Category:    config.CategoryModeration,
		Permission:  "admin",
		Args: []args.ArgSpec{
			{Name: "target", Type: args.Text(), Help: "player name, online or not"},
			{Name: "minutes", Type: args.Int(), Optional: true, Help: "0 or omitted bans permanently"},
			{Name: "reason", Type: args.Text(), Optional: true, Rest: true},
		},
		Check:   checkBan,
		Handler: banHandler,
	})

	Register(&Command{
		Sort:        20,
		Name:        "unban",
		Description: "Lift a ban.",
		Category:    config.CategoryModeration,
		Permission:  "admin",
		Args: []args.ArgSpec{
			{Name: "name", Type: args.Text()},
		},
		Handler: unbanHandler,
	})

	Register(&Command{
		Sort:        30,
		Name:        "bans",
		Description: "List active bans.",
		Category:    config.CategoryModeration,
		Permission:  "moderator",
		Handler:     bansHandler,
	})

	Register(&Command{
		Sort:        40,
		Name:        "mute",
		Description: "Mute players on some or all chat channels.",
		Category:    config.CategoryModeration,
		Permission:  "moderator",
		Args: []args.ArgSpec{
			{Name: "targets", Type: args.List(args.Ref(game.PlayerKind)), Help: "player list, * for everyone"},
			{Name: "channels", Type: game.ChannelType, Optional: true, Default: args.EnumValue{Name: "all", Value: int64(game.ChannelAll)}, Help: "e.g. global|team, all when omitted"},
		},
		Handler: muteHandler,
	})

	Register(&Command{
		Sort:        50,
		Name:        "unmute",
		Description: "Let players talk again.",
		Category:    config.CategoryModeration,
		Permission:  "moderator",
		Args: []args.ArgSpec{
			{Name: "targets", Type: args.List(args.Ref(game.PlayerKind)), Help: "player list, * for everyone"},
		},
		Handler: unmuteHandler,
	})
}

func kickHandler(ctx context.Context, env *Env, inv *cmd.Invocation) error {
	target := inv.Args.Entity("target")
	reason := inv.Args.String("reason")

	p, err := env.Server.Kick(target.EntityID(), reason)
	if err != nil {
		return err
	}
	if reason != "" {
		inv.Replyf("Kicked %s: %s", p, reason)
	} else {
		inv.Replyf("Kicked %s.", p)
	}
	return nil
}

func checkBan(env *Env, inv *cmd.Invocation) error {
	minutes := inv.Args.Int("minutes")
	if minutes < 0 {
		return fmt.Errorf("minutes cannot be negative")
	}
	if minutes > maxBanMinutes {
		return fmt.Errorf("minutes must be at most %d, use 0 for a permanent ban", maxBanMinutes)
	}
	return nil
}

func banHandler(ctx context.Context, env *Env, inv *cmd.Invocation) error {
	name := inv.Args.String("target")
	minutes := inv.Args.Int("minutes")

	b, kicked := env.Server.Ban(name, inv.Caller.String(), time.Duration(minutes)*time.Minute, inv.Args.String("reason"))

	var sb strings.Builder
	fmt.Fprintf(&sb, "Banned %s", b.Name)
	if b.Permanent() {
		sb.WriteString(" permanently")
	} else {
		fmt.Fprintf(&sb, " for %s", util.HumanDuration(b.Until.Sub(b.Created)))
	}
	if b.Reason != "" {
		fmt.Fprintf(&sb, ": %s", b.Reason)
	}
	sb.WriteString(".")
	if kicked {
		sb.WriteString(" They were online and have been kicked.")
	}
	inv.Reply(sb.String())
	return nil
}

func unbanHandler(ctx context.Context, env *Env, inv *cmd.Invocation) error {
	name := inv.Args.String("name")
	if err := env.Server.Unban(name); err != nil {
		return err
	}
	inv.Replyf("Unbanned %s.", name)
	return nil
}

func bansHandler(ctx context.Context, env *Env, inv *cmd.Invocation) error {
	bans := env.Server.Bans()
	if len(bans) == 0 {
		inv.Reply("No active bans.")
		return nil
	}

	var sb strings.Builder
	for _, b := range bans {
		until := "permanent"
		if !b.Permanent() {
			until = "until " + util.FormatTime(b.Until, "YYYY-MM-DD hh:mm")
		}
		fmt.Fprintf(&sb, "%s (%s, by %s)", b.Name, until, b.By)
		if b.Reason != "" {
			fmt.Fprintf(&sb, ": %s", b.Reason)
		}
		sb.WriteString("\n")
	}
	inv.Reply(strings.TrimRight(sb.String(), "\n"))
	return nil
}

func muteHandler(ctx context.Context, env *Env, inv *cmd.Invocation) error {
	ch := game.Channel(inv.Args.Enum("channels").Value)
	targets := inv.Args.Entities("targets")
	if len(targets) == 0 {
		return errNoPlayers
	}
	for _, t := range targets {
		if _, err := env.Server.Mute(t.EntityID(), ch); err != nil {
			return err
		}
	}
	inv.Replyf("Muted %s on %s.", names(targets), ch)
	return nil
}

func unmuteHandler(ctx context.Context, env *Env, inv *cmd.Invocation) error {
	targets := inv.Args.Entities("targets")
	if len(targets) == 0 {
		return errNoPlayers
	}
	for _, t := range targets {
		if _, err := env.Server.Mute(t.EntityID(), 0); err != nil {
			return err
		}
	}
	inv.Replyf("Unmuted %s.", names(targets))
	return nil
}
