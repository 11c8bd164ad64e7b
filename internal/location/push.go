package location

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yash181999/Cycle-Tracking-App/internal/ride"
)

var ErrNoSubscriber = errors.New("no active location subscription")

const pushBuffer = 128

// PushSource is fed by the device over HTTP, the way a browser's watchPosition callback feeds
// the page. The ctx given to Subscribe bounds only the call, not the stream.
type PushSource struct {
	mu   sync.Mutex
	subs map[*pushSubscription]struct{}
}

func NewPushSource() *PushSource {
	return &PushSource{subs: map[*pushSubscription]struct{}{}}
}

func (p *PushSource) Subscribe(_ context.Context, accuracy ride.Accuracy) (ride.Subscription, error) {
	sub := &pushSubscription{
		source:   p,
		accuracy: accuracy,
		updates:  make(chan ride.Update, pushBuffer),
		done:     make(chan struct{}),
	}
	p.mu.Lock()
	p.subs[sub] = struct{}{}
	p.mu.Unlock()
	return sub, nil
}

// Publish delivers a fix to every open subscription. It blocks while a buffer is full.
func (p *PushSource) Publish(ctx context.Context, c ride.Coordinate, at time.Time) error {
	return p.deliver(ctx, ride.Update{Coordinate: c, At: at})
}

// Fail reports a device-side failure (permission denied, timeout, position unavailable).
func (p *PushSource) Fail(ctx context.Context, cause error) error {
	return p.deliver(ctx, ride.Update{Err: cause})
}

func (p *PushSource) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

func (p *PushSource) deliver(ctx context.Context, u ride.Update) error {
	p.mu.Lock()
	subs := make([]*pushSubscription, 0, len(p.subs))
	for s := range p.subs {
		subs = append(subs, s)
	}
	p.mu.Unlock()

	if len(subs) == 0 {
		return ErrNoSubscriber
	}
	for _, s := range subs {
		select {
		case s.updates <- u:
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (p *PushSource) remove(s *pushSubscription) {
	p.mu.Lock()
	delete(p.subs, s)
	p.mu.Unlock()
}

type pushSubscription struct {
	source   *PushSource
	accuracy ride.Accuracy
	updates  chan ride.Update
	done     chan struct{}
	once     sync.Once
}

func (s *pushSubscription) Updates() <-chan ride.Update { return s.updates }

func (s *pushSubscription) Unsubscribe() {
	s.once.Do(func() {
		close(s.done)
		s.source.remove(s)
	})
}
