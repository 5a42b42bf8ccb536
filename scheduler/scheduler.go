package scheduler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/sautihealth/sauti/config"
)

// Broadcaster is the slice of the orchestrator the scheduler drives.
type Broadcaster interface {
	AutoBroadcast(ctx context.Context) bool
}

// Scheduler fires scheduled broadcasts. Two modes: a fixed interval
// (testing, demos) or a daily wall-clock time in the configured timezone
// (production). A manual tick endpoint is exposed for external cron
// services and curl.
type Scheduler struct {
	broadcaster      Broadcaster
	interval         time.Duration
	dailyAt          string
	location         *time.Location
	broadcastOnStart bool
}

func New(broadcaster Broadcaster, cfg config.SchedulerConfig) *Scheduler {
	return &Scheduler{
		broadcaster:      broadcaster,
		interval:         cfg.Interval(),
		dailyAt:          cfg.DailyAt,
		location:         cfg.Location(),
		broadcastOnStart: cfg.BroadcastOnStart,
	}
}

// Run drives the broadcast loop until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	if s.broadcastOnStart {
		log.Println("INFO (Scheduler): Startup broadcast enabled, firing now")
		s.fire(ctx)
	}

	if s.interval > 0 {
		s.runInterval(ctx)
		return
	}
	s.runDaily(ctx)
}

// HandleTick is an HTTP handler that triggers one broadcast run.
// Used by external cron services or manual curl requests.
func (s *Scheduler) HandleTick(w http.ResponseWriter, r *http.Request) {
	log.Println("INFO (Scheduler): Tick triggered via HTTP")

	if !s.broadcaster.AutoBroadcast(r.Context()) {
		http.Error(w, "broadcast run aborted", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK: broadcast completed"))
}

func (s *Scheduler) runInterval(ctx context.Context) {
	log.Printf("INFO (Scheduler): Broadcasting every %v", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx)
		}
	}
}

func (s *Scheduler) runDaily(ctx context.Context) {
	log.Printf("INFO (Scheduler): Broadcasting daily at %s (%s)", s.dailyAt, s.location)

	for {
		next, err := s.nextDailyRun(time.Now().In(s.location))
		if err != nil {
			log.Printf("ERROR (Scheduler): Invalid daily schedule %q: %v", s.dailyAt, err)
			return
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.fire(ctx)
		}
	}
}

// nextDailyRun returns the next occurrence of the configured HH:MM
// strictly after now, in the scheduler timezone.
func (s *Scheduler) nextDailyRun(now time.Time) (time.Time, error) {
	at, err := time.Parse("15:04", s.dailyAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse daily time %q: %w", s.dailyAt, err)
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, s.location)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next, nil
}

func (s *Scheduler) fire(ctx context.Context) {
	log.Println("INFO (Scheduler): Starting scheduled broadcast run")
	if s.broadcaster.AutoBroadcast(ctx) {
		log.Println("INFO (Scheduler): Scheduled broadcast run completed")
	} else {
		log.Println("WARN (Scheduler): Scheduled broadcast run aborted")
	}
}
