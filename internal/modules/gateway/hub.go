package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	redisc "github.com/kurz-app/kurz-go/internal/pkg/redis"
	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"
)

func NewHub(rc *redisc.Client, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	sio := socketio.NewServer(nil, nil)
	h := &Hub{
		sidChannels:  make(map[string]map[string]struct{}),
		channelCount: make(map[string]int),
		broadcast:    make(chan Message, 256),
		subscribe:    make(chan clientMeta, 256),
		unsub:        make(chan clientMeta, 256),
		disconnect:   make(chan string, 256),
		instanceID:   uuid.NewString(),
		rc:           rc,
		logger:       logger,
		sio:          sio,
	}
	h.registerNamespaces()
	return h
}

// Run starts the hub loop and the Redis subscriber. Blocks until ctx ends.
func (h *Hub) Run(ctx context.Context) {
	go h.subscribeRedis(ctx)

	for {
		select {
		case <-ctx.Done():
			h.sio.Close(nil)
			return

		case c := <-h.subscribe:
			h.addSubscription(c)

		case c := <-h.unsub:
			h.removeSubscription(c)

		case sid := <-h.disconnect:
			h.dropClient(sid)

		case msg := <-h.broadcast:
			h.deliver(msg)
			msg.Origin = h.instanceID
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if err := h.rc.Publish(ctx, redisChanEvents, string(data)); err != nil {
				h.logger.Warn("gateway publish failed", zap.Error(err))
			}
		}
	}
}

// Publish sends an event to every subscriber of the given channel. Safe to
// call from any goroutine.
func (h *Hub) Publish(channel, event string, payload interface{}) {
	h.broadcast <- Message{Event: event, Payload: payload, Channel: channel}
}

func (h *Hub) addSubscription(c clientMeta) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channels, ok := h.sidChannels[c.sid]
	if !ok {
		channels = make(map[string]struct{})
		h.sidChannels[c.sid] = channels
	}
	if _, joined := channels[c.channel]; joined {
		return
	}
	channels[c.channel] = struct{}{}
	h.channelCount[c.channel]++
}

func (h *Hub) removeSubscription(c clientMeta) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channels, ok := h.sidChannels[c.sid]
	if !ok {
		return
	}
	if _, joined := channels[c.channel]; !joined {
		return
	}
	delete(channels, c.channel)
	h.decChannel(c.channel)
}

func (h *Hub) dropClient(sid string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for channel := range h.sidChannels[sid] {
		h.decChannel(channel)
	}
	delete(h.sidChannels, sid)
}

// decChannel must be called with mu held.
func (h *Hub) decChannel(channel string) {
	if h.channelCount[channel] <= 1 {
		delete(h.channelCount, channel)
		return
	}
	h.channelCount[channel]--
}

func (h *Hub) deliver(msg Message) {
	ns := h.sio.Of(namespaceWeb, nil)
	payload := gatewayPayload{Type: msg.Event, Data: msg.Payload}
	if msg.Channel == "" {
		ns.Emit("message", payload)
		return
	}
	ns.To(socketio.Room(msg.Channel)).Emit("message", payload)
}

// subscribeRedis relays broadcasts published by other server instances.
func (h *Hub) subscribeRedis(ctx context.Context) {
	pubsub := h.rc.Subscribe(ctx, redisChanEvents)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return

		case redisMsg, ok := <-ch:
			if !ok {
				return
			}
			msg, relay := h.decodeRelayedMessage(redisMsg.Payload)
			if !relay {
				continue
			}
			h.deliver(msg)
		}
	}
}

// decodeRelayedMessage parses a fan-out payload and reports whether it
// should be delivered here. Redis pub/sub echoes a publish back to every
// subscriber including the publisher's own process, so messages carrying
// this instance's origin are dropped: they were already delivered locally.
func (h *Hub) decodeRelayedMessage(payload string) (Message, bool) {
	var msg Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return Message{}, false
	}
	if msg.Origin == h.instanceID {
		return Message{}, false
	}
	return msg, true
}

// ClientCount returns connected clients, or the subscriber count of one
// channel when channel is non-empty.
func (h *Hub) ClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if channel == "" {
		return len(h.sidChannels)
	}
	return h.channelCount[channel]
}

// Handler returns the socket.io HTTP handler mounted at /socket.io.
func (h *Hub) Handler() http.Handler {
	return h.sio.ServeHandler(nil)
}
