package stream

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func quietLog() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func expectMessage(t *testing.T, client *Client, want string) {
	t.Helper()
	select {
	case msg := <-client.Send:
		if string(msg) != want {
			t.Fatalf("unexpected message %q", msg)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for %q", want)
	}
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil, quietLog())
	client := hub.Register("ride-1")
	defer hub.Unregister(client)

	other := hub.Register("ride-2")
	defer hub.Unregister(other)

	hub.Broadcast("ride-1", []byte("hello"))
	expectMessage(t, client, "hello")

	select {
	case msg := <-other.Send:
		t.Fatalf("message leaked to another ride: %q", msg)
	default:
	}
}

func TestHubHelpers(t *testing.T) {
	ch := redisChannel("abc")
	if ch != "ride:abc:broadcast" {
		t.Fatalf("unexpected channel %q", ch)
	}
	if rideIDFromChannel(ch) != "abc" {
		t.Fatalf("unexpected ride id")
	}
	if rideIDFromChannel("bad") != "" {
		t.Fatalf("expected empty ride id")
	}
}

func TestUnregisterCloses(t *testing.T) {
	hub := NewHub(nil, quietLog())
	client := hub.Register("ride-2")
	hub.Unregister(client)
	hub.Unregister(client)
	_, ok := <-client.Send
	if ok {
		t.Fatalf("expected channel closed")
	}
}

func TestHubSlowClientDrops(t *testing.T) {
	hub := NewHub(nil, quietLog())
	client := hub.Register("ride-3")
	defer hub.Unregister(client)

	for i := 0; i < clientBuffer+10; i++ {
		hub.Broadcast("ride-3", []byte("x"))
	}
	if len(client.Send) != clientBuffer {
		t.Fatalf("expected full buffer, got %d", len(client.Send))
	}
}

func TestHubRedisBroadcastAndSubscribe(t *testing.T) {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdb.Close()

	hub := NewHub(rdb, quietLog())
	defer hub.Close()
	ws := hub.Register("ride-redis")
	defer hub.Unregister(ws)

	hub.Broadcast("ride-redis", []byte("ping"))
	expectMessage(t, ws, "ping")

	// a publish from another replica reaches local clients
	if err := rdb.Publish(context.Background(), redisChannel("ride-redis"), "pong").Err(); err != nil {
		t.Fatalf("publish error: %v", err)
	}
	expectMessage(t, ws, "pong")
}

func TestHubRedisUnavailableFallsBack(t *testing.T) {
	server := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: server.Addr()})
	server.Close()
	defer rdb.Close()

	hub := NewHub(rdb, quietLog())
	client := hub.Register("ride-bad")
	defer hub.Unregister(client)

	hub.Broadcast("ride-bad", []byte("ping"))
	expectMessage(t, client, "ping")
}
