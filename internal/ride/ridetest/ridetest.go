// Package ridetest provides a manual clock and an in-memory location source for tracker tests.
package ridetest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yash181999/Cycle-Tracking-App/internal/ride"
)

type Clock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*Ticker
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *Clock) NewTicker(time.Duration) ride.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &Ticker{ch: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	return t
}

// LastTicker returns the most recently created ticker, or nil.
func (c *Clock) LastTicker() *Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tickers) == 0 {
		return nil
	}
	return c.tickers[len(c.tickers)-1]
}

type Ticker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (t *Ticker) C() <-chan time.Time { return t.ch }
func (t *Ticker) Stop()               { t.stopped.Store(true) }
func (t *Ticker) Stopped() bool       { return t.stopped.Load() }

// Fire hands one tick to the tracker's pump. It reports false when nothing received it in time.
func (t *Ticker) Fire(timeout time.Duration) bool {
	select {
	case t.ch <- time.Now():
		return true
	case <-time.After(timeout):
		return false
	}
}

type Source struct {
	mu   sync.Mutex
	subs []*Subscription
	Err  error
}

func (s *Source) Subscribe(_ context.Context, accuracy ride.Accuracy) (ride.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	sub := &Subscription{ch: make(chan ride.Update, 64), Accuracy: accuracy}
	s.subs = append(s.subs, sub)
	return sub, nil
}

func (s *Source) Subscriptions() []*Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Subscription(nil), s.subs...)
}

func (s *Source) Last() *Subscription {
	subs := s.Subscriptions()
	if len(subs) == 0 {
		return nil
	}
	return subs[len(subs)-1]
}

type Subscription struct {
	ch           chan ride.Update
	Accuracy     ride.Accuracy
	unsubscribes atomic.Int32
}

func (s *Subscription) Updates() <-chan ride.Update { return s.ch }
func (s *Subscription) Unsubscribe()                { s.unsubscribes.Add(1) }
func (s *Subscription) Unsubscribes() int           { return int(s.unsubscribes.Load()) }

func (s *Subscription) Push(lng, lat float64) {
	s.ch <- ride.Update{Coordinate: ride.Coordinate{Longitude: lng, Latitude: lat}}
}

func (s *Subscription) Fail(err error) {
	s.ch <- ride.Update{Err: err}
}

// WaitFor polls cond until it holds or a second elapses.
func WaitFor(tb testing.TB, cond func() bool) {
	tb.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	tb.Fatalf("condition not met before deadline")
}
