package ride_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yash181999/Cycle-Tracking-App/internal/ride"
	"github.com/yash181999/Cycle-Tracking-App/internal/ride/ridetest"
)

var errSignal = errors.New("signal lost")

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTracker(t *testing.T) (*ride.Tracker, *ridetest.Source, *ridetest.Clock) {
	t.Helper()
	src := &ridetest.Source{}
	clock := ridetest.NewClock(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	return ride.NewTracker(src, clock, quietLogger()), src, clock
}

func TestTrackerStartSubscribesHighAccuracy(t *testing.T) {
	tr, src, clock := newTracker(t)

	snap, err := tr.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if snap.Status != ride.StatusTracking || snap.ID == "" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if !snap.StartTime.Equal(clock.Now()) {
		t.Fatalf("unexpected start time")
	}
	sub := src.Last()
	if sub == nil || sub.Accuracy != ride.AccuracyHigh {
		t.Fatalf("expected high accuracy subscription")
	}
	if clock.LastTicker() == nil {
		t.Fatalf("expected ticker")
	}
}

func TestTrackerTicksFormatElapsed(t *testing.T) {
	tr, _, clock := newTracker(t)
	if _, err := tr.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	ticker := clock.LastTicker()
	for i := 0; i < 65; i++ {
		if !ticker.Fire(time.Second) {
			t.Fatalf("tick %d not received", i)
		}
	}
	ridetest.WaitFor(t, func() bool { return tr.Snapshot().ElapsedTicks == 65 })
}

func TestTrackerAppendsSamples(t *testing.T) {
	tr, src, _ := newTracker(t)
	_, _ = tr.Start(context.Background())

	sub := src.Last()
	sub.Push(0, 0)
	sub.Push(0, 0.01)
	sub.Push(0, 0.01)

	ridetest.WaitFor(t, func() bool { return len(tr.Snapshot().Path) == 3 })
	path := tr.Snapshot().Path
	if path[1].Latitude != 0.01 || path[2].Latitude != 0.01 {
		t.Fatalf("unexpected path: %+v", path)
	}
}

func TestTrackerPauseHaltsTicksAndSamples(t *testing.T) {
	tr, src, clock := newTracker(t)
	_, _ = tr.Start(context.Background())

	ticker := clock.LastTicker()
	ticker.Fire(time.Second)
	ridetest.WaitFor(t, func() bool { return tr.Snapshot().ElapsedTicks == 1 })

	snap, err := tr.Pause()
	if err != nil || snap.Status != ride.StatusPaused {
		t.Fatalf("pause: %v", err)
	}
	if !ticker.Stopped() {
		t.Fatalf("ticker not stopped on pause")
	}
	ticker.Fire(20 * time.Millisecond)

	sub := src.Last()
	if sub.Unsubscribes() != 0 {
		t.Fatalf("pause must keep the subscription")
	}
	sub.Push(1, 1)
	time.Sleep(20 * time.Millisecond)
	if got := tr.Snapshot(); len(got.Path) != 0 || got.ElapsedTicks != 1 {
		t.Fatalf("paused ride changed: %+v", got)
	}

	if _, err := tr.Pause(); !errors.Is(err, ride.ErrNotTracking) {
		t.Fatalf("expected ErrNotTracking, got %v", err)
	}
}

func TestTrackerStopReleasesOnce(t *testing.T) {
	tr, src, clock := newTracker(t)
	_, _ = tr.Start(context.Background())
	ticker := clock.LastTicker()

	clock.Advance(time.Minute)
	snap, err := tr.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if snap.Status != ride.StatusStopped || !snap.EndTime.Equal(clock.Now()) {
		t.Fatalf("unexpected stop snapshot: %+v", snap)
	}
	if !ticker.Stopped() {
		t.Fatalf("ticker not stopped")
	}
	if _, err := tr.Stop(); !errors.Is(err, ride.ErrNotActive) {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}
	tr.Close()
	if n := src.Last().Unsubscribes(); n != 1 {
		t.Fatalf("expected exactly one unsubscribe, got %d", n)
	}
}

func TestTrackerStopFromPaused(t *testing.T) {
	tr, src, _ := newTracker(t)
	_, _ = tr.Start(context.Background())
	_, _ = tr.Pause()
	if _, err := tr.Stop(); err != nil {
		t.Fatalf("stop from paused: %v", err)
	}
	if src.Last().Unsubscribes() != 1 {
		t.Fatalf("subscription not released")
	}
}

func TestTrackerStopWithoutSamples(t *testing.T) {
	tr, _, _ := newTracker(t)
	_, _ = tr.Start(context.Background())
	snap, err := tr.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if len(snap.Path) != 0 {
		t.Fatalf("expected empty path")
	}
}

func TestTrackerRestartDiscardsPreviousRide(t *testing.T) {
	tr, src, clock := newTracker(t)
	first, _ := tr.Start(context.Background())
	firstSub := src.Last()
	firstTicker := clock.LastTicker()
	firstSub.Push(10, 10)
	ridetest.WaitFor(t, func() bool { return len(tr.Snapshot().Path) == 1 })

	second, _ := tr.Start(context.Background())
	if second.ID == first.ID {
		t.Fatalf("expected a new ride id")
	}
	if firstSub.Unsubscribes() != 1 || !firstTicker.Stopped() {
		t.Fatalf("previous ride handles not released")
	}

	firstSub.Push(11, 11)
	secondSub := src.Last()
	secondSub.Push(20, 20)

	ridetest.WaitFor(t, func() bool { return len(tr.Snapshot().Path) == 1 })
	time.Sleep(20 * time.Millisecond)
	path := tr.Snapshot().Path
	if len(path) != 1 || path[0].Longitude != 20 {
		t.Fatalf("expected only samples from the second ride, got %+v", path)
	}
}

func TestTrackerLocationErrorKeepsTracking(t *testing.T) {
	tr, src, _ := newTracker(t)

	var mu sync.Mutex
	var failures []error
	tr.Observe(func(c ride.Change) {
		if c.Kind == ride.ChangeLocationError {
			mu.Lock()
			failures = append(failures, c.Err)
			mu.Unlock()
		}
	})

	_, _ = tr.Start(context.Background())
	sub := src.Last()
	sub.Fail(errSignal)
	sub.Push(1, 2)

	ridetest.WaitFor(t, func() bool { return len(tr.Snapshot().Path) == 1 })
	if tr.Snapshot().Status != ride.StatusTracking {
		t.Fatalf("location error changed status")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(failures) != 1 || !errors.Is(failures[0], ride.ErrLocationUnavailable) {
		t.Fatalf("expected one location failure, got %v", failures)
	}
}

func TestTrackerSubscribeFailureDegrades(t *testing.T) {
	tr, src, clock := newTracker(t)
	src.Err = errors.New("permission denied")

	snap, err := tr.Start(context.Background())
	if err != nil {
		t.Fatalf("start should not fail: %v", err)
	}
	if snap.Status != ride.StatusTracking {
		t.Fatalf("expected tracking")
	}
	clock.LastTicker().Fire(time.Second)
	ridetest.WaitFor(t, func() bool { return tr.Snapshot().ElapsedTicks == 1 })
	if _, err := tr.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestTrackerObserversSeeStatusChanges(t *testing.T) {
	tr, _, _ := newTracker(t)

	var mu sync.Mutex
	var statuses []ride.Status
	tr.Observe(func(c ride.Change) {
		if c.Kind == ride.ChangeStatus {
			mu.Lock()
			statuses = append(statuses, c.Session.Status)
			mu.Unlock()
		}
	})

	_, _ = tr.Start(context.Background())
	_, _ = tr.Pause()
	_, _ = tr.Stop()

	mu.Lock()
	defer mu.Unlock()
	want := []ride.Status{ride.StatusTracking, ride.StatusPaused, ride.StatusStopped}
	if len(statuses) != len(want) {
		t.Fatalf("unexpected statuses: %v", statuses)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Fatalf("unexpected statuses: %v", statuses)
		}
	}
}

func TestTrackerSnapshotIsCopy(t *testing.T) {
	tr, src, _ := newTracker(t)
	_, _ = tr.Start(context.Background())
	src.Last().Push(1, 1)
	ridetest.WaitFor(t, func() bool { return len(tr.Snapshot().Path) == 1 })

	snap := tr.Snapshot()
	snap.Path[0].Longitude = 99
	if tr.Snapshot().Path[0].Longitude != 1 {
		t.Fatalf("snapshot aliases tracker state")
	}
}

func TestTrackerObserversSeeChangesInOrder(t *testing.T) {
	tr, src, clock := newTracker(t)

	var (
		mu      sync.Mutex
		changes []ride.Change
	)
	tr.Observe(func(c ride.Change) {
		mu.Lock()
		changes = append(changes, c)
		mu.Unlock()
	})

	for i := 0; i < 200; i++ {
		mu.Lock()
		changes = nil
		mu.Unlock()

		_, _ = tr.Start(context.Background())
		ticker := clock.LastTicker()
		sub := src.Last()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			ticker.Fire(5 * time.Millisecond)
		}()
		go func() {
			defer wg.Done()
			sub.Push(0, 0.001)
		}()
		if _, err := tr.Stop(); err != nil {
			t.Fatalf("stop: %v", err)
		}
		wg.Wait()

		mu.Lock()
		stopped := false
		for _, c := range changes {
			if c.Session.Status == ride.StatusStopped {
				stopped = true
				continue
			}
			if stopped {
				mu.Unlock()
				t.Fatalf("iteration %d: %s change with status %s delivered after stop", i, c.Kind, c.Session.Status)
			}
		}
		mu.Unlock()
	}
}
