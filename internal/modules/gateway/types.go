package gateway

import (
	"sync"

	redisc "github.com/kurz-app/kurz-go/internal/pkg/redis"
	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"
)

const (
	namespaceWeb = "/web"

	redisChanEvents = "kurz:gateway:events"

	messageJoin  = "join"
	messageLeave = "leave"
)

// Message is the envelope used by hub broadcasts and Redis fan-out. Channel
// names the progress channel the client subscribed to; an empty Channel
// reaches the whole namespace. Origin carries the publishing instance's ID
// so a hub never re-delivers its own fan-out.
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
	Channel string      `json:"channel,omitempty"`
	Origin  string      `json:"origin,omitempty"`
}

type gatewayPayload struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type clientMeta struct {
	sid     string
	channel string
}

// Hub manages the socket.io namespace, per-channel subscriptions and
// cross-instance fan-out over Redis.
type Hub struct {
	mu sync.RWMutex

	// sid -> set of subscribed channels
	sidChannels  map[string]map[string]struct{}
	channelCount map[string]int

	broadcast  chan Message
	subscribe  chan clientMeta
	unsub      chan clientMeta
	disconnect chan string

	instanceID string

	rc     *redisc.Client
	logger *zap.Logger
	sio    *socketio.Server
}
