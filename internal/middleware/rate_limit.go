package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"server-console/internal/permissions"
	"server-console/pkg/cmd"
	"server-console/pkg/throttle"
)

var ErrRateLimited = errors.New("too many commands")

// WithRateLimit applies a per-caller token bucket. The local console is
// never limited.
func WithRateLimit(l *throttle.CallerLimiter) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			if inv.Caller.Source == permissions.SourceConsole {
				return c.Run(ctx, inv)
			}
			key := inv.Caller.Source + ":" + inv.Caller.ID
			if !l.Allow(key) {
				wait := l.Delay(key).Round(100 * time.Millisecond)
				return fmt.Errorf("%w: try again in %s", ErrRateLimited, wait)
			}
			return c.Run(ctx, inv)
		})
	}
}
