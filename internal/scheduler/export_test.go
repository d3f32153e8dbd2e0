package scheduler

import (
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/shaharia-lab/notifyd/internal/notification"
)

// ExportedFire exposes the private fire method for external tests.
func (s *Scheduler) ExportedFire(id string, repeats bool) {
	s.mu.Lock()
	jobID := s.jobs[id]
	s.mu.Unlock()
	s.fire(id, jobID, repeats)
}

// ExportedBuildJobDefinition exposes buildJobDefinition for external tests.
func (s *Scheduler) ExportedBuildJobDefinition(req notification.Request) (gocron.JobDefinition, error) {
	def, _, err := s.buildJobDefinition(req)
	return def, err
}

// ExportedYearlyCron exposes yearlyCron for external tests.
var ExportedYearlyCron = yearlyCron

// ExportedNextInterval exposes nextInterval for external tests.
func ExportedNextInterval(submitted time.Time, every time.Duration, now time.Time) time.Time {
	return nextInterval(submitted, every, now)
}
