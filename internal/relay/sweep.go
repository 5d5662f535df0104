package relay

import (
	"context"

	"go.uber.org/zap"
)

// Sweep runs one expiry pass immediately. The loop also runs it every
// sweep interval.
func (r *Relay) Sweep(ctx context.Context) error {
	return r.do(ctx, r.sweep)
}

// sweep drops expired bullets, prunes players that stopped reporting, and
// reaps rooms that were created but never joined.
func (r *Relay) sweep() {
	now := r.now()
	for _, rm := range r.store.All() {
		if n := rm.ExpireBullets(now); n > 0 {
			r.metrics.BulletsExpired(n)
		}

		stale := rm.StalePlayers(now, r.cfg.StaleTimeout)
		for _, id := range stale {
			r.removePlayer(rm, id, "stale")
		}
		if len(stale) > 0 {
			r.metrics.PlayersPruned(len(stale))
			continue
		}

		if rm.PlayerCount() == 0 && now.Sub(rm.CreatedAt) > r.cfg.StaleTimeout {
			if r.store.DeleteIfEmpty(rm.ID) {
				r.metrics.RoomDeleted()
				r.logger.Info("room deleted (never joined)", zap.String("room", rm.ID))
			}
		}
	}
}
