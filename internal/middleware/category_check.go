package middleware

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"server-console/pkg/cmd"
)

var ErrCategoryDisabled = errors.New("command disabled")

// CategoryStore reports which command categories are switched off.
type CategoryStore interface {
	IsCategoryDisabled(category string) (bool, error)
}

// WithCategoryCheck refuses commands whose category has been disabled.
// Lookup failures let the command through.
func WithCategoryCheck(store CategoryStore, log *zap.Logger) cmd.Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			desc := cmd.Describe(c)
			if desc == nil || desc.Category == "" {
				return c.Run(ctx, inv)
			}
			disabled, err := store.IsCategoryDisabled(desc.Category)
			if err != nil {
				log.Warn("category lookup failed", zap.String("category", desc.Category), zap.Error(err))
				return c.Run(ctx, inv)
			}
			if disabled {
				return fmt.Errorf("%w: the %s category is switched off. Use commands status to see what is disabled",
					ErrCategoryDisabled, desc.Category)
			}
			return c.Run(ctx, inv)
		})
	}
}
