package ride

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const tickInterval = time.Second

var newRideID = uuid.NewString

type ChangeKind string

const (
	ChangeStatus        ChangeKind = "status"
	ChangeSample        ChangeKind = "sample"
	ChangeTick          ChangeKind = "tick"
	ChangeLocationError ChangeKind = "location_error"
)

// Change is delivered to observers after every state change and on location failures.
type Change struct {
	Kind    ChangeKind
	Session RideSession
	Err     error
}

// Tracker owns the live ride. It is the only writer of the session, and the only holder of the
// location subscription and the ticker, which it releases exactly once per ride.
type Tracker struct {
	source LocationSource
	clock  Clock
	log    logrus.FieldLogger

	mu        sync.Mutex
	notifyMu  sync.Mutex
	session   RideSession
	gen       uint64
	ticker    Ticker
	tickDone  chan struct{}
	sub       Subscription
	subDone   chan struct{}
	observers []func(Change)
}

func NewTracker(source LocationSource, clock Clock, log logrus.FieldLogger) *Tracker {
	if clock == nil {
		clock = systemClock{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Tracker{
		source:  source,
		clock:   clock,
		log:     log,
		session: NewSession(),
	}
}

// Observe registers fn for change notifications. fn runs outside the tracker lock, in state
// order, and must not call back into the Tracker.
func (t *Tracker) Observe(fn func(Change)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, fn)
}

func (t *Tracker) Snapshot() RideSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session.Clone()
}

// Start discards any previous ride and begins a new one. A failed subscription leaves the ride
// tracking without samples.
func (t *Tracker) Start(ctx context.Context) (RideSession, error) {
	t.mu.Lock()
	t.stopTickerLocked()
	t.unsubscribeLocked()

	t.gen++
	gen := t.gen
	t.session, _ = Reduce(t.session, Started{ID: newRideID(), At: t.clock.Now()})

	t.ticker = t.clock.NewTicker(tickInterval)
	t.tickDone = make(chan struct{})
	go t.pumpTicks(gen, t.ticker, t.tickDone)

	snap := t.session.Clone()
	t.notifyLocked(Change{Kind: ChangeStatus, Session: snap})

	t.log.WithField("ride_id", snap.ID).Info("ride started")

	if t.source == nil {
		t.reportLocationError(gen, errors.New("no location source configured"))
		return snap, nil
	}
	sub, err := t.source.Subscribe(ctx, AccuracyHigh)
	if err != nil {
		t.reportLocationError(gen, err)
		return snap, nil
	}

	t.mu.Lock()
	if gen != t.gen || !t.session.Active() {
		// superseded or stopped while subscribing
		t.mu.Unlock()
		sub.Unsubscribe()
		return snap, nil
	}
	t.sub = sub
	t.subDone = make(chan struct{})
	go t.pumpUpdates(gen, sub, t.subDone)
	t.mu.Unlock()

	return snap, nil
}

// Pause halts the elapsed-time ticker. The subscription stays open but samples are discarded.
func (t *Tracker) Pause() (RideSession, error) {
	t.mu.Lock()
	next, err := Reduce(t.session, Paused{})
	if err != nil {
		snap := t.session.Clone()
		t.mu.Unlock()
		return snap, err
	}
	t.session = next
	t.stopTickerLocked()
	snap := t.session.Clone()
	t.notifyLocked(Change{Kind: ChangeStatus, Session: snap})

	t.log.WithField("ride_id", snap.ID).Info("ride paused")
	return snap, nil
}

// Stop finalizes the ride and releases the ticker and the location subscription.
func (t *Tracker) Stop() (RideSession, error) {
	t.mu.Lock()
	next, err := Reduce(t.session, Stopped{At: t.clock.Now()})
	if err != nil {
		snap := t.session.Clone()
		t.mu.Unlock()
		return snap, err
	}
	t.session = next
	t.stopTickerLocked()
	t.unsubscribeLocked()
	snap := t.session.Clone()
	t.notifyLocked(Change{Kind: ChangeStatus, Session: snap})

	t.log.WithFields(logrus.Fields{
		"ride_id": snap.ID,
		"samples": len(snap.Path),
		"ticks":   snap.ElapsedTicks,
	}).Info("ride stopped")
	return snap, nil
}

// Close stops an active ride. Used on shutdown.
func (t *Tracker) Close() {
	if _, err := t.Stop(); err != nil && !errors.Is(err, ErrNotActive) {
		t.log.WithError(err).Warn("stop on close failed")
	}
}

func (t *Tracker) pumpTicks(gen uint64, ticker Ticker, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ticker.C():
			t.dispatch(gen, Ticked{}, ChangeTick)
		}
	}
}

func (t *Tracker) pumpUpdates(gen uint64, sub Subscription, done <-chan struct{}) {
	updates := sub.Updates()
	for {
		select {
		case <-done:
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if u.Err != nil {
				t.reportLocationError(gen, u.Err)
				continue
			}
			at := u.At
			if at.IsZero() {
				at = t.clock.Now()
			}
			t.dispatch(gen, SampleReceived{Coordinate: u.Coordinate, At: at}, ChangeSample)
		}
	}
}

func (t *Tracker) dispatch(gen uint64, ev Event, kind ChangeKind) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	next, err := Reduce(t.session, ev)
	if err != nil {
		t.mu.Unlock()
		return
	}
	t.session = next
	t.notifyLocked(Change{Kind: kind, Session: t.session.Clone()})
}

func (t *Tracker) reportLocationError(gen uint64, cause error) {
	t.mu.Lock()
	// updates still buffered after Stop belong to a finished ride
	if gen != t.gen || !t.session.Active() {
		t.mu.Unlock()
		return
	}
	snap := t.session.Clone()
	err := fmt.Errorf("%w: %v", ErrLocationUnavailable, cause)
	t.log.WithError(err).WithField("ride_id", snap.ID).Warn("location source failure")
	t.notifyLocked(Change{Kind: ChangeLocationError, Session: snap, Err: err})
}

// notifyLocked is called with t.mu held and releases it. notifyMu is taken before t.mu is
// released so observers see changes in the order they were applied.
func (t *Tracker) notifyLocked(c Change) {
	t.notifyMu.Lock()
	observers := make([]func(Change), len(t.observers))
	copy(observers, t.observers)
	t.mu.Unlock()
	defer t.notifyMu.Unlock()

	for _, fn := range observers {
		fn(c)
	}
}

func (t *Tracker) stopTickerLocked() {
	if t.ticker == nil {
		return
	}
	t.ticker.Stop()
	close(t.tickDone)
	t.ticker = nil
	t.tickDone = nil
}

func (t *Tracker) unsubscribeLocked() {
	if t.sub == nil {
		return
	}
	t.sub.Unsubscribe()
	close(t.subDone)
	t.sub = nil
	t.subDone = nil
}
