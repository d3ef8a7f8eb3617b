package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"server-console/internal/config"
	"server-console/internal/game"
	"server-console/pkg/args"
	"server-console/pkg/cmd"
	"server-console/pkg/jobmgr"
	"server-console/pkg/util"
)

// maxRestartDelay bounds the restart countdown, in seconds.
const maxRestartDelay = 3600

func init() {
	Register(&Command{
		Sort:        0,
		Name:        "say",
		Aliases:     []string{"broadcast"},
		Description: "Broadcast a message to every player on the global channel.",
		Category:    config.CategoryServer,
		Permission:  "moderator",
		Args: []args.ArgSpec{
			{Name: "message", Type: args.Text(), Rest: true},
		},
		Handler: sayHandler,
	})

	Register(&Command{
		Sort:        10,
		Name:        "whisper",
		Aliases:     []string{"w", "tell"},
		Description: "Send a private message to one player.",
		Category:    config.CategoryServer,
		Permission:  "moderator",
		Args: []args.ArgSpec{
			{Name: "target", Type: args.Ref(game.PlayerKind)},
			{Name: "message", Type: args.Text(), Rest: true},
		},
		Handler: whisperHandler,
	})

	Register(&Command{
		Sort:        20,
		Name:        "restart",
		Description: "Announce a restart, count down and restart the server.",
		Category:    config.CategoryServer,
		Permission:  "admin",
		Async:       true,
		Args: []args.ArgSpec{
			{Name: "delay", Type: args.Int(), Help: "seconds before the restart"},
			{Name: "message", Type: args.Text(), Rest: true, Help: "shown to players"},
		},
		Check:   checkRestart,
		Handler: restartHandler,
	})

	Register(&Command{
		Sort:        30,
		Name:        "jobs",
		Description: "List running background jobs.",
		Category:    config.CategoryServer,
		Handler:     jobsHandler,
	})

	Register(&Command{
		Sort:        40,
		Name:        "cancel",
		Aliases:     []string{"stop"},
		Description: "Cancel a running job by ID or name.",
		Category:    config.CategoryServer,
		Permission:  "admin",
		Args: []args.ArgSpec{
			{Name: "job", Type: args.Text(), Help: "job ID, short ID or command name"},
		},
		Handler: cancelHandler,
	})
}

func sayHandler(ctx context.Context, env *Env, inv *cmd.Invocation) error {
	b := env.Server.Say(inv.Caller.String(), inv.Args.String("message"), game.ChannelGlobal)
	inv.Replyf("Sent to %d player(s).", b.Recipients)
	return nil
}

func whisperHandler(ctx context.Context, env *Env, inv *cmd.Invocation) error {
	target := inv.Args.Entity("target")
	p, ok := env.Server.Roster.Get(target.EntityID())
	if !ok {
		return fmt.Errorf("%w: %s", game.ErrNoSuchPlayer, target.EntityName())
	}
	if p.Muted.Has(game.ChannelWhisper) {
		return fmt.Errorf("%s is muted on whisper", p)
	}
	env.Server.Say(inv.Caller.String(), "@"+p.Name+" "+inv.Args.String("message"), game.ChannelWhisper)
	inv.Replyf("Whispered to %s.", p)
	return nil
}

func checkRestart(env *Env, inv *cmd.Invocation) error {
	if delay := inv.Args.Int("delay"); delay < 0 || delay > maxRestartDelay {
		return fmt.Errorf("delay must be between 0 and %d seconds", maxRestartDelay)
	}
	return nil
}

// restartHandler runs as a job: its replies reach the caller once the
// countdown is over or cancelled.
func restartHandler(ctx context.Context, env *Env, inv *cmd.Invocation) error {
	delay := inv.Args.Int("delay")
	msg := inv.Args.String("message")
	from := inv.Caller.String()

	env.Server.Say(from, fmt.Sprintf("Server restart in %s: %s", util.HumanDuration(time.Duration(delay)*time.Second), msg), game.ChannelGlobal)
	announcements := 1

	ticker := time.NewTicker(env.tick())
	defer ticker.Stop()

	for remaining := delay; remaining > 0; {
		select {
		case <-ctx.Done():
			env.Server.Say(from, "Restart cancelled.", game.ChannelGlobal)
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("restart countdown timed out with %ds left", remaining)
			}
			return fmt.Errorf("restart cancelled with %ds left", remaining)
		case <-ticker.C:
			remaining--
		}
		if remaining > 0 && (remaining%10 == 0 || remaining <= 5) {
			env.Server.Say(from, fmt.Sprintf("Restarting in %ds.", remaining), game.ChannelGlobal)
			announcements++
		}
	}

	env.Server.Restart()
	env.Logger.Info("restart completed", zap.String("by", from), zap.Int("delay", delay))
	inv.Replyf("Server restarted after %ds (%d announcements).", delay, announcements)
	return nil
}

func jobsHandler(ctx context.Context, env *Env, inv *cmd.Invocation) error {
	if env.Jobs == nil {
		inv.Reply("Background jobs are not enabled.")
		return nil
	}
	jobs := env.Jobs.List()
	if len(jobs) == 0 {
		inv.Reply(env.Jobs.Status())
		return nil
	}

	var sb strings.Builder
	for _, j := range jobs {
		fmt.Fprintf(&sb, "%s  %s  started by %s, running for %s\n",
			jobmgr.ShortID(j.ID), j.Name, j.Owner, util.HumanDuration(time.Since(j.Started)))
	}
	inv.Reply(strings.TrimRight(sb.String(), "\n"))
	return nil
}

func cancelHandler(ctx context.Context, env *Env, inv *cmd.Invocation) error {
	if env.Jobs == nil {
		return jobmgr.ErrNotRunning
	}
	ref := inv.Args.String("job")
	if err := env.Jobs.Stop(ref); err != nil {
		return err
	}
	inv.Replyf("Cancelling %s.", ref)
	return nil
}
