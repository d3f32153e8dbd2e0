package scheduler

import (
	"context"

	"github.com/google/uuid"

	"github.com/shaharia-lab/notifyd/internal/notification"
)

// fire delivers a single request with concurrency limiting.
func (s *Scheduler) fire(id string, jobID uuid.UUID, repeats bool) {
	// Acquire semaphore.
	s.semaphore <- struct{}{}
	defer func() { <-s.semaphore }()

	if !repeats {
		s.forget(id, jobID)
	}

	ctx := context.Background()
	req, err := s.cfg.Store.GetPending(ctx, id)
	if err != nil {
		s.logger.Error("failed to load request for delivery",
			"notification_id", id, "error", err)
		return
	}
	if req == nil {
		// Canceled after the job was queued.
		s.logger.Debug("fired request no longer pending", "notification_id", id)
		return
	}

	firedAt := s.now()
	s.cfg.Metrics.Fired(notification.EncodeTrigger(req.Trigger).Kind)
	if err := s.cfg.Deliverer.Deliver(ctx, *req, firedAt); err != nil {
		s.logger.Error("failed to deliver notification",
			"notification_id", id, "error", err)
		return
	}
	s.logger.Info("trigger fired", "notification_id", id, "repeats", repeats)
}
