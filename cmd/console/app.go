package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"server-console/internal/commands"
	"server-console/internal/config"
	"server-console/internal/game"
	"server-console/internal/logging"
	"server-console/internal/middleware"
	"server-console/internal/permissions"
	"server-console/internal/storage"
	"server-console/pkg/cmd"
	"server-console/pkg/jobmgr"
	"server-console/pkg/throttle"
)

const banCleanInterval = time.Minute

// app holds everything a console session runs against.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	store *storage.Storage
	srv   *game.Server
	jobs  *jobmgr.Manager
	env   *commands.Env
	disp  *cmd.Dispatcher
}

func newApp(envFile string, verbose bool) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	log, err := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		JSON:       cfg.LogJSON,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Verbose:    verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	store, err := storage.New(storage.Options{
		Path:         cfg.StoragePath,
		HistoryLimit: cfg.HistoryLimit,
		Logger:       log,
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	a := &app{cfg: cfg, log: log, store: store}
	if err := a.wire(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire() error {
	a.srv = game.NewServer(game.WithStore(a.store), game.WithLogger(a.log.Named("game")))
	players, err := a.store.LoadPlayers()
	if err != nil {
		return fmt.Errorf("load players: %w", err)
	}
	bans, err := a.store.LoadBans()
	if err != nil {
		return fmt.Errorf("load bans: %w", err)
	}
	a.srv.Restore(players, bans)

	perms, err := permissions.Load(a.cfg.PermissionsPath)
	if err != nil {
		return err
	}

	jobLog := a.log.Named("jobs")
	a.jobs = jobmgr.NewManager(func(status string) {
		jobLog.Debug("job status", zap.String("status", status))
	})

	a.env = &commands.Env{
		Server:  a.srv,
		Storage: a.store,
		Jobs:    a.jobs,
		Perms:   perms,
		Logger:  a.log.Named("commands"),
	}
	if err := commands.Install(a.env); err != nil {
		return err
	}

	a.disp = cmd.NewDispatcher(a.env.Registry,
		cmd.WithResolver(a.srv.Roster),
		cmd.WithMaxDepth(a.cfg.MaxNesting),
		cmd.WithJobs(a.jobs, a.cfg.JobTimeout),
		cmd.WithLogger(a.log.Named("dispatch")),
		cmd.WithMiddleware(
			middleware.WithCategoryCheck(a.store, a.log),
			middleware.WithPermissionCheck(perms),
			middleware.WithRateLimit(throttle.NewCallerLimiter(a.cfg.RateLimit, a.cfg.RateBurst)),
			middleware.WithCommandLogger(a.store, a.log),
		),
	)

	a.log.Info("console ready",
		zap.Int("commands", a.env.Registry.Len()),
		zap.Int("players", a.srv.Roster.Len()),
		zap.Int("bans", len(bans)),
	)
	return nil
}

// runCleaner prunes expired bans until ctx is done.
func (a *app) runCleaner(ctx context.Context) error {
	storage.RunBanCleaner(ctx, a.srv, banCleanInterval, a.log)
	return nil
}

// close cancels running jobs and flushes storage.
func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	if err := a.jobs.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop jobs: %w", err))
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	_ = a.log.Sync()
	return errors.Join(errs...)
}
