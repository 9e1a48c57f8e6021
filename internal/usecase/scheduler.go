package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	defaultPollInterval = time.Minute
	defaultTimeOfDay    = "08:00"
	stopTimeout         = 2 * time.Second
)

// ScheduleSpec is the daily trigger definition: a wall-clock time of day
// plus an IANA timezone name. Immutable once the scheduler starts.
type ScheduleSpec struct {
	TimeOfDay string
	Timezone  string
}

// Scheduler owns one background polling loop that fires the job once per
// daily trigger. Trigger state lives on the scheduler itself; there is no
// process-wide registry shared between instances.
type Scheduler struct {
	job    func(ctx context.Context) error
	logger *slog.Logger

	loc   *time.Location
	sched cron.Schedule

	poll time.Duration
	now  func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
	next    time.Time

	// runMu serializes scheduled triggers with manual RunOnce calls so no
	// two pipeline executions ever overlap.
	runMu sync.Mutex
}

// NewScheduler resolves the spec into an owned trigger schedule. An
// unknown timezone falls back to UTC and an unparseable time of day falls
// back to 08:00; startup never fails on configuration.
func NewScheduler(spec ScheduleSpec, job func(ctx context.Context) error, logger *slog.Logger) *Scheduler {
	s := &Scheduler{
		job:    job,
		logger: logger,
		poll:   defaultPollInterval,
		now:    time.Now,
	}

	s.loc = resolveLocation(spec.Timezone, logger)

	timeOfDay := spec.TimeOfDay
	sched, err := parseDailySpec(timeOfDay)
	if err != nil {
		if logger != nil {
			logger.Warn("invalid schedule time, using default",
				"timeOfDay", timeOfDay, "default", defaultTimeOfDay, "error", err)
		}
		sched, _ = parseDailySpec(defaultTimeOfDay)
	}
	s.sched = sched

	return s
}

// Start arms the next trigger and launches the polling loop. Calling it on
// a running scheduler is a logged no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.log("scheduler is already running")
		return
	}

	s.next = s.sched.Next(s.now().In(s.loc))
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	s.running = true

	go s.loop(s.stopCh, s.done)

	s.log("scheduler started", "next_run", s.next.Format(time.RFC3339), "tz", s.loc.String())
}

// Stop clears the armed trigger and waits (bounded) for the loop to exit.
// Calling it on a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.log("scheduler is not running")
		return
	}
	s.running = false
	s.next = time.Time{}
	close(s.stopCh)
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
	case <-time.After(stopTimeout):
		s.log("scheduler loop did not exit before timeout")
	}
	s.log("scheduler stopped")
}

// RunOnce invokes the job synchronously on the caller and returns its
// error, regardless of whether the scheduler is running. It shares the
// single-flight guard with scheduled triggers.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	return s.invoke(ctx)
}

// NextRun reports the armed trigger instant, zero when stopped.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Running reports whether the polling loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// loop polls on a fixed interval. The next trigger is re-armed before the
// job runs, and Schedule.Next is strictly future-looking, so one trigger
// instant can never fire twice even when a run outlasts the interval.
func (s *Scheduler) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			now := s.now().In(s.loc)

			s.mu.Lock()
			due := s.running && !s.next.IsZero() && !now.Before(s.next)
			if due {
				s.next = s.sched.Next(now)
			}
			s.mu.Unlock()

			if due {
				if err := s.invoke(context.Background()); err != nil && s.logger != nil {
					s.logger.Error("scheduled run failed", "error", err)
				}
				s.mu.Lock()
				next := s.next
				s.mu.Unlock()
				s.log("trigger fired", "next_run", next.Format(time.RFC3339))
			}
		}
	}
}

func (s *Scheduler) invoke(ctx context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.job(ctx)
}

func (s *Scheduler) log(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func resolveLocation(timezone string, logger *slog.Logger) *time.Location {
	if timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		if logger != nil {
			logger.Warn("unknown timezone, falling back to UTC", "timezone", timezone, "error", err)
		}
		return time.UTC
	}
	return loc
}

// parseDailySpec turns "HH:MM" into a cron schedule firing once per day.
func parseDailySpec(timeOfDay string) (cron.Schedule, error) {
	parts := strings.Split(strings.TrimSpace(timeOfDay), ":")
	if len(parts) != 2 {
		return nil, fmt.Errorf("time of day %q is not HH:MM", timeOfDay)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return nil, fmt.Errorf("invalid hour in %q", timeOfDay)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("invalid minute in %q", timeOfDay)
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return parser.Parse(fmt.Sprintf("%d %d * * *", minute, hour))
}
