package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"server-console/internal/storage"
	"server-console/pkg/cmd"
)

// HistoryStore receives one record per dispatched command.
type HistoryStore interface {
	AppendCommandToHistory(rec storage.CommandHistoryRecord) error
}

// WithCommandLogger records every command run, failed ones included, in the
// history store. Commands handed to a background job are recorded when the
// job finishes, with the job's result.
func WithCommandLogger(store HistoryStore, log *zap.Logger) cmd.Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			start := time.Now()
			record := func(err error) {
				rec := storage.CommandHistoryRecord{
					InvocationID: inv.ID,
					CallerID:     inv.Caller.ID,
					CallerName:   inv.Caller.Name,
					Source:       inv.Caller.Source,
					Command:      c.Name(),
					Line:         inv.Line,
					Took:         time.Since(start),
					Datetime:     start,
				}
				if err != nil {
					rec.Error = cmd.ReplyText(err)
				}
				if e := store.AppendCommandToHistory(rec); e != nil {
					log.Warn("failed to log command", zap.String("command", c.Name()), zap.Error(e))
				}
			}

			err := c.Run(ctx, inv)
			if err == nil && inv.Job() != nil {
				inv.OnJobDone(record)
				return nil
			}
			record(err)
			return err
		})
	}
}
