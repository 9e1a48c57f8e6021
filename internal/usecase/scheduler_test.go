package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// testScheduler builds a scheduler polling every millisecond against the
// given clock, with job invocations reported on the returned channel.
func testScheduler(spec ScheduleSpec, clock *fakeClock) (*Scheduler, chan struct{}) {
	fired := make(chan struct{}, 16)
	s := NewScheduler(spec, func(ctx context.Context) error {
		fired <- struct{}{}
		return nil
	}, nil)
	s.poll = time.Millisecond
	s.now = clock.Now
	return s, fired
}

func waitFire(t *testing.T, fired <-chan struct{}) {
	t.Helper()
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatalf("job did not fire in time")
	}
}

func assertNoFire(t *testing.T, fired <-chan struct{}) {
	t.Helper()
	select {
	case <-fired:
		t.Fatalf("job fired unexpectedly")
	case <-time.After(30 * time.Millisecond):
	}
}

func TestSchedulerFiresOncePerDailyTrigger(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2025, time.March, 10, 7, 59, 30, 0, time.UTC)}
	s, fired := testScheduler(ScheduleSpec{TimeOfDay: "08:00", Timezone: "UTC"}, clock)

	s.Start()
	defer s.Stop()

	want := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	if got := s.NextRun(); !got.Equal(want) {
		t.Fatalf("NextRun = %v, want %v", got, want)
	}

	clock.Advance(time.Minute)
	waitFire(t, fired)
	assertNoFire(t, fired)

	clock.Advance(24 * time.Hour)
	waitFire(t, fired)
	assertNoFire(t, fired)
}

func TestSchedulerStartIsIdempotent(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2025, time.March, 10, 7, 59, 30, 0, time.UTC)}
	s, fired := testScheduler(ScheduleSpec{TimeOfDay: "08:00", Timezone: "UTC"}, clock)

	s.Start()
	s.Start()
	defer s.Stop()

	if !s.Running() {
		t.Fatalf("scheduler should be running")
	}

	clock.Advance(time.Minute)
	waitFire(t, fired)
	assertNoFire(t, fired)
}

func TestSchedulerStopBeforeStartIsNoOp(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	s, _ := testScheduler(ScheduleSpec{TimeOfDay: "08:00"}, clock)

	s.Stop()

	if s.Running() {
		t.Fatalf("scheduler should not be running")
	}
	if !s.NextRun().IsZero() {
		t.Fatalf("NextRun should be zero when stopped")
	}
}

func TestSchedulerStopSilencesTriggers(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2025, time.March, 10, 7, 59, 30, 0, time.UTC)}
	s, fired := testScheduler(ScheduleSpec{TimeOfDay: "08:00", Timezone: "UTC"}, clock)

	s.Start()
	s.Stop()

	if !s.NextRun().IsZero() {
		t.Fatalf("NextRun should clear on stop")
	}

	clock.Advance(time.Minute)
	assertNoFire(t, fired)
}

func TestSchedulerNextRunHonorsTimezone(t *testing.T) {
	t.Parallel()

	// 00:00 UTC is already past 08:00 in Tokyo, so the next trigger is
	// tomorrow 08:00 JST, which is 23:00 UTC today.
	clock := &fakeClock{t: time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)}
	s, _ := testScheduler(ScheduleSpec{TimeOfDay: "08:00", Timezone: "Asia/Tokyo"}, clock)

	s.Start()
	defer s.Stop()

	want := time.Date(2025, time.March, 10, 23, 0, 0, 0, time.UTC)
	if got := s.NextRun(); !got.Equal(want) {
		t.Fatalf("NextRun = %v, want %v", got.UTC(), want)
	}
}

func TestSchedulerFallsBackOnBadConfig(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)}
	s, _ := testScheduler(ScheduleSpec{TimeOfDay: "not-a-time", Timezone: "Not/AZone"}, clock)

	s.Start()
	defer s.Stop()

	want := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	if got := s.NextRun(); !got.Equal(want) {
		t.Fatalf("NextRun = %v, want %v", got.UTC(), want)
	}
}

func TestSchedulerRunOnceWorksWithoutStart(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	s, fired := testScheduler(ScheduleSpec{TimeOfDay: "08:00"}, clock)

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}

	select {
	case <-fired:
	default:
		t.Fatalf("RunOnce should invoke the job synchronously")
	}
}

func TestSchedulerRunOnceReturnsJobError(t *testing.T) {
	t.Parallel()

	jobErr := errors.New("run blew up")
	s := NewScheduler(ScheduleSpec{TimeOfDay: "08:00"}, func(ctx context.Context) error {
		return jobErr
	}, nil)

	if err := s.RunOnce(context.Background()); !errors.Is(err, jobErr) {
		t.Fatalf("RunOnce error = %v, want the job error", err)
	}
}

func TestSchedulerRunsNeverOverlap(t *testing.T) {
	t.Parallel()

	var active, maxActive int32
	clock := &fakeClock{t: time.Date(2025, time.March, 10, 7, 59, 30, 0, time.UTC)}
	s := NewScheduler(ScheduleSpec{TimeOfDay: "08:00", Timezone: "UTC"}, func(ctx context.Context) error {
		n := atomic.AddInt32(&active, 1)
		for {
			seen := atomic.LoadInt32(&maxActive)
			if n <= seen || atomic.CompareAndSwapInt32(&maxActive, seen, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return nil
	}, nil)
	s.poll = time.Millisecond
	s.now = clock.Now

	s.Start()
	defer s.Stop()

	clock.Advance(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RunOnce(context.Background())
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&maxActive); got != 1 {
		t.Fatalf("job ran %d times concurrently, want 1", got)
	}
}
