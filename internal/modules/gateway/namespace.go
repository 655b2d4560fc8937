package gateway

import (
	"encoding/json"
	"strings"

	socketio "github.com/zishang520/socket.io/v2/socket"
)

type inboundWebMessage struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

func (h *Hub) registerNamespaces() {
	webNS := h.sio.Of(namespaceWeb, nil)
	_ = webNS.On("connection", func(args ...any) {
		client, ok := args[0].(*socketio.Socket)
		if !ok {
			return
		}
		sid := string(client.Id())
		_ = client.Emit("message", gatewayPayload{Type: "GATEWAY_CONNECT", Data: "WebSocket connected"})

		_ = client.On("message", func(eventArgs ...any) {
			msg, ok := parseInboundWebMessage(eventArgs...)
			if !ok {
				return
			}

			switch msg.Type {
			case messageJoin:
				channel := firstNonEmptyString(
					strFromAny(msg.Payload["roomName"]),
					strFromAny(msg.Payload["room_name"]),
					strFromAny(msg.Payload["channel"]),
				)
				if channel == "" {
					return
				}
				client.Join(socketio.Room(channel))
				h.subscribe <- clientMeta{sid: sid, channel: channel}
			case messageLeave:
				channel := firstNonEmptyString(
					strFromAny(msg.Payload["roomName"]),
					strFromAny(msg.Payload["room_name"]),
					strFromAny(msg.Payload["channel"]),
				)
				if channel == "" {
					return
				}
				client.Leave(socketio.Room(channel))
				h.unsub <- clientMeta{sid: sid, channel: channel}
			}
		})

		_ = client.On("disconnect", func(_ ...any) {
			h.disconnect <- sid
		})
	})
}

func parseInboundWebMessage(args ...any) (inboundWebMessage, bool) {
	if len(args) == 0 || args[0] == nil {
		return inboundWebMessage{}, false
	}

	var msg inboundWebMessage
	switch raw := args[0].(type) {
	case map[string]interface{}:
		msg.Type = strFromAny(raw["type"])
		msg.Payload = mapFromAny(raw["payload"])
	case string:
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			return inboundWebMessage{}, false
		}
	case []byte:
		if err := json.Unmarshal(raw, &msg); err != nil {
			return inboundWebMessage{}, false
		}
	default:
		data, err := json.Marshal(raw)
		if err != nil {
			return inboundWebMessage{}, false
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			return inboundWebMessage{}, false
		}
	}

	msg.Type = strings.TrimSpace(msg.Type)
	if msg.Type == "" {
		return inboundWebMessage{}, false
	}
	if msg.Payload == nil {
		msg.Payload = map[string]interface{}{}
	}
	return msg, true
}

func mapFromAny(v interface{}) map[string]interface{} {
	switch typed := v.(type) {
	case nil:
		return map[string]interface{}{}
	case map[string]interface{}:
		return typed
	default:
		data, err := json.Marshal(typed)
		if err != nil {
			return map[string]interface{}{}
		}
		out := map[string]interface{}{}
		if err := json.Unmarshal(data, &out); err != nil {
			return map[string]interface{}{}
		}
		return out
	}
}

func strFromAny(v interface{}) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func firstNonEmptyString(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}
