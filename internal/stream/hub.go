package stream

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	channelPrefix  = "ride:"
	channelSuffix  = ":broadcast"
	channelPattern = channelPrefix + "*" + channelSuffix
	clientBuffer   = 64
)

// Hub fans ride updates out to websocket clients. With redis configured, updates travel through
// redis pub/sub so every replica's clients receive them.
type Hub struct {
	redis   *redis.Client
	log     logrus.FieldLogger
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
	pubsub  *redis.PubSub
}

type Client struct {
	RideID string
	Send   chan []byte
}

func NewHub(redisClient *redis.Client, log logrus.FieldLogger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	h := &Hub{
		log:     log,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		pubsub, err := subscribe(context.Background(), redisClient)
		if err != nil {
			log.WithError(err).Warn("redis subscribe failed, broadcasting locally")
		} else {
			h.redis = redisClient
			h.pubsub = pubsub
			go h.forward(pubsub)
		}
	}
	return h
}

func subscribe(ctx context.Context, rdb *redis.Client) (*redis.PubSub, error) {
	pubsub := rdb.PSubscribe(ctx, channelPattern)
	confirmCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, err := pubsub.Receive(confirmCtx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}
	return pubsub, nil
}

func (h *Hub) Register(rideID string) *Client {
	client := &Client{
		RideID: rideID,
		Send:   make(chan []byte, clientBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[rideID] == nil {
		h.clients[rideID] = map[*Client]struct{}{}
	}
	h.clients[rideID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if rideClients, ok := h.clients[client.RideID]; ok {
		if _, registered := rideClients[client]; !registered {
			return
		}
		delete(rideClients, client)
		if len(rideClients) == 0 {
			delete(h.clients, client.RideID)
		}
		close(client.Send)
	}
}

// Broadcast sends payload to the ride's clients. Slow clients drop messages instead of blocking
// the tracker.
func (h *Hub) Broadcast(rideID string, payload []byte) {
	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(rideID), payload).Err()
		if err == nil {
			return
		}
		h.log.WithError(err).WithField("ride_id", rideID).Warn("redis publish failed")
	}
	h.deliver(rideID, payload)
}

func (h *Hub) Close() {
	if h.pubsub != nil {
		_ = h.pubsub.Close()
	}
}

func (h *Hub) deliver(rideID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[rideID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) forward(pubsub *redis.PubSub) {
	for msg := range pubsub.Channel() {
		h.deliver(rideIDFromChannel(msg.Channel), []byte(msg.Payload))
	}
}

func redisChannel(rideID string) string {
	return channelPrefix + rideID + channelSuffix
}

func rideIDFromChannel(ch string) string {
	if len(ch) <= len(channelPrefix)+len(channelSuffix) {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
