package workers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"dthink_backend/internal/logger"
	"dthink_backend/internal/session"
)

// Sweeper runs the periodic housekeeping tasks: pruning expired sessions
// and expiring stale invites.
type Sweeper struct {
	db       *gorm.DB
	sessions session.Store
	interval time.Duration
}

func NewSweeper(db *gorm.DB, sessions session.Store, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Sweeper{db: db, sessions: sessions, interval: interval}
}

func (w *Sweeper) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.WorkerLog("sweeper", "stop", nil)
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *Sweeper) sweep() {
	if n, err := w.sessions.Prune(); err != nil {
		logger.WorkerLog("sweeper", "session prune", err)
	} else if n > 0 {
		logger.Info("pruned expired sessions", "count", n)
	}

	result := w.db.Exec(`
		UPDATE project_invites
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'pending'
		AND expires_at < NOW()
	`)
	if result.Error != nil {
		logger.WorkerLog("sweeper", "invite expiry", result.Error)
	} else if result.RowsAffected > 0 {
		logger.Info("expired stale invites", "count", result.RowsAffected)
	}
}
