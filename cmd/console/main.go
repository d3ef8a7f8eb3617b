// cmd/console/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"server-console/internal/commands"
	"server-console/internal/config"
	"server-console/internal/discord"
	"server-console/internal/docs"
	"server-console/internal/permissions"
	v "server-console/internal/version"
	"server-console/pkg/cmd"
)

// errCommandFailed makes exec exit non-zero after the failure was printed.
var errCommandFailed = errors.New("command failed")

type rootFlags struct {
	envFile string
	verbose bool
	caller  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errCommandFailed) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "console",
		Short: v.AppDescription,
		Long: `Administration console for the game server.

Run without arguments to start an interactive prompt. Type help there for a
list of commands.`,
		Version:       versionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, _ []string) error {
			return withApp(c, flags, func(ctx context.Context, a *app) error {
				g, ctx := errgroup.WithContext(ctx)
				cleanerCtx, stopCleaner := context.WithCancel(ctx)
				g.Go(func() error { return a.runCleaner(cleanerCtx) })
				g.Go(func() error {
					defer stopCleaner()
					return repl(ctx, a.disp, consoleCaller(flags), c.InOrStdin(), c.OutOrStdout())
				})
				return g.Wait()
			})
		},
	}

	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "file to load environment variables from")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log at debug level")
	root.PersistentFlags().StringVar(&flags.caller, "caller", "operator", "name recorded for commands typed here")

	root.AddCommand(
		newExecCmd(flags),
		newCommandsCmd(flags),
		newDiscordCmd(flags),
		newDocsCmd(),
	)
	return root
}

func newExecCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <command line...>",
		Short: "Run one command line and exit",
		Long: `Runs a single command line as the console operator. Background jobs
started by the line are waited for before exiting.

Example:
  console exec kick Bob spamming
  console exec 'teleport Alice (10 0 5)'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return withApp(c, flags, func(ctx context.Context, a *app) error {
				con := &console{w: c.OutOrStdout()}
				job, err := a.disp.DispatchJob(ctx, consoleCaller(flags), strings.Join(args, " "), con.reply)
				if job != nil {
					select {
					case <-job.Done():
						err = job.Err()
					case <-ctx.Done():
						err = ctx.Err()
					}
				}
				if err != nil {
					a.log.Debug("exec failed", zap.Error(err))
					return errCommandFailed
				}
				return nil
			})
		},
	}
}

func newCommandsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "commands [command]",
		Short: "List console commands, or describe one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return withApp(c, flags, func(ctx context.Context, a *app) error {
				con := &console{w: c.OutOrStdout()}
				line := strings.TrimSpace("help " + strings.Join(args, " "))
				if err := a.disp.Dispatch(ctx, consoleCaller(flags), line, con.reply); err != nil {
					return errCommandFailed
				}
				return nil
			})
		},
	}
}

func newDiscordCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "discord",
		Short: "Serve the console to Discord chat until interrupted",
		RunE: func(c *cobra.Command, _ []string) error {
			return withApp(c, flags, func(ctx context.Context, a *app) error {
				if err := a.cfg.RequireDiscord(); err != nil {
					return err
				}
				bot, err := discord.New(a.cfg.DiscordToken, a.cfg.CommandPrefix, a.disp, discord.WithLogger(a.log.Named("discord")))
				if err != nil {
					return err
				}

				a.log.Info("starting discord bot", zap.String("prefix", a.cfg.CommandPrefix))
				g, ctx := errgroup.WithContext(ctx)
				g.Go(func() error { return a.runCleaner(ctx) })
				g.Go(func() error { return bot.Run(ctx) })
				return g.Wait()
			})
		},
	}
}

func newDocsCmd() *cobra.Command {
	var tmplPath, outPath string
	c := &cobra.Command{
		Use:   "docs",
		Short: "Write the Markdown command reference",
		RunE: func(c *cobra.Command, _ []string) error {
			env := &commands.Env{}
			if err := commands.Install(env); err != nil {
				return err
			}

			w := c.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return docs.WriteReference(w, env.Registry, config.CategoryWeight, tmplPath)
		},
	}
	c.Flags().StringVar(&tmplPath, "template", "", "template with a {{.CommandSections}} placeholder")
	c.Flags().StringVarP(&outPath, "out", "o", "", "file to write instead of stdout")
	return c
}

// withApp builds the app, runs fn and closes the app whatever fn returns.
func withApp(c *cobra.Command, flags *rootFlags, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(flags.envFile, flags.verbose)
	if err != nil {
		return err
	}
	runErr := fn(c.Context(), a)
	if err := a.close(); err != nil {
		a.log.Warn("shutdown incomplete", zap.Error(err))
	}
	return runErr
}

func consoleCaller(flags *rootFlags) cmd.Caller {
	return cmd.Caller{ID: flags.caller, Name: flags.caller, Source: permissions.SourceConsole}
}

func versionString() string {
	s := v.Revision()
	if v.BuildDate != "" {
		s += " (" + v.BuildDate + ")"
	}
	return s
}
