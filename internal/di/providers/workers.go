package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/fitchallenge/fitchallenge-server/internal/logger"
	"github.com/fitchallenge/fitchallenge-server/internal/service"
)

const sessionCleanupInterval = time.Hour

// SessionCleanupJob runs periodic session cleanup.
type SessionCleanupJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSessionCleanupJob provides the periodic session cleanup job.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	sessions := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		// Initial cleanup on startup
		if _, err := sessions.DeleteExpiredSessions(ctx); err != nil {
			log.Warn("Initial session cleanup failed", "error", err)
		}
		sessions.RunCleanup(ctx, sessionCleanupInterval)
	}()

	log.Info("Session cleanup job started", "interval", sessionCleanupInterval)

	return &SessionCleanupJob{cancel: cancel}, nil
}
