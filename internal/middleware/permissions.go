package middleware

import (
	"context"
	"errors"
	"fmt"

	"server-console/internal/permissions"
	"server-console/pkg/cmd"
)

var ErrPermissionDenied = errors.New("permission denied")

// WithPermissionCheck refuses commands whose Descriptor.Permission is above
// the caller's level in tbl.
func WithPermissionCheck(tbl *permissions.Table) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			desc := cmd.Describe(c)
			if desc == nil || desc.Permission == "" {
				return c.Run(ctx, inv)
			}

			ok, err := tbl.Allows(inv.Caller.ID, inv.Caller.Source, desc.Permission)
			if err != nil {
				return fmt.Errorf("check permission for %s: %w", desc.Name, err)
			}
			if !ok {
				return fmt.Errorf("%w: %s requires %s, you are %s",
					ErrPermissionDenied, desc.Name, desc.Permission,
					tbl.LevelOf(inv.Caller.ID, inv.Caller.Source))
			}
			return c.Run(ctx, inv)
		})
	}
}
