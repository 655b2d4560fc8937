package webpush

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// ConfigFunc is called on each push to get the latest webhook settings.
type ConfigFunc func() (url string, enabled bool)

// Service delivers best-effort webhook notifications for terminal job events.
type Service struct {
	configFn   ConfigFunc
	httpClient *http.Client

	mu         sync.Mutex
	lastPushAt map[string]time.Time
	throttleD  time.Duration
}

// New creates a webhook push service. configFn is consulted on every push.
func New(configFn ConfigFunc) *Service {
	return &Service{
		configFn:   configFn,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		lastPushAt: make(map[string]time.Time),
		throttleD:  time.Minute,
	}
}

type pushPayload struct {
	Event   string `json:"event"`
	TaskID  string `json:"task_id,omitempty"`
	Channel string `json:"channel,omitempty"`
	Message string `json:"message,omitempty"`
}

// Push posts a single event to the configured webhook.
func (s *Service) Push(event, taskID, channel, message string) error {
	url, enabled := s.configFn()
	if !enabled || url == "" {
		return fmt.Errorf("webpush not configured")
	}

	b, err := json.Marshal(pushPayload{
		Event:   event,
		TaskID:  taskID,
		Channel: channel,
		Message: message,
	})
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// ThrottlePush sends at most one push per channel per throttle window.
func (s *Service) ThrottlePush(event, taskID, channel, message string) {
	_, enabled := s.configFn()
	if !enabled {
		return
	}

	s.mu.Lock()
	last, ok := s.lastPushAt[channel]
	if ok && time.Since(last) < s.throttleD {
		s.mu.Unlock()
		return
	}
	s.lastPushAt[channel] = time.Now()
	s.mu.Unlock()

	_ = s.Push(event, taskID, channel, message)
}
