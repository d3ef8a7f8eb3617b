package storage

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// BanPruner drops bans that have run out and reports how many it removed.
type BanPruner interface {
	PruneBans() int
}

// RunBanCleaner removes expired bans every interval until ctx is done. Call
// from main or app lifecycle.
func RunBanCleaner(ctx context.Context, p BanPruner, interval time.Duration, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := p.PruneBans(); n > 0 {
				log.Info("expired bans removed", zap.Int("count", n))
			}
		}
	}
}
