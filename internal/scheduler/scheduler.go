package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"flywatch/internal/monitor"
)

// Scheduler periodically runs the monitor's check cycle for all active
// locations.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *monitor.Service
	interval  time.Duration
}

// New creates a Scheduler running in the given timezone.
func New(service *monitor.Service, interval time.Duration, tz *time.Location) *Scheduler {
	if tz == nil {
		tz = time.UTC
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(tz),
		service:   service,
		interval:  interval,
	}
}

// Start schedules the periodic check job and starts the underlying
// scheduler asynchronously. The first run fires immediately.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 30
	}

	_, err := s.scheduler.Every(minutes).Minutes().StartImmediately().Do(func() {
		log.Println("scheduler: running weather check cycle")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		s.service.CheckAll(ctx)
		log.Println("scheduler: weather check cycle completed")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
