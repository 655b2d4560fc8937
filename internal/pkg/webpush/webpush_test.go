package webpush

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestPush(t *testing.T) {
	var got pushPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
	}))
	defer srv.Close()

	s := New(func() (string, bool) { return srv.URL, true })
	if err := s.Push("completed", "task-1", "ch-1", "summary ready"); err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	if got.Event != "completed" || got.TaskID != "task-1" || got.Channel != "ch-1" {
		t.Errorf("payload = %+v", got)
	}
}

func TestPushDisabled(t *testing.T) {
	s := New(func() (string, bool) { return "", false })
	if err := s.Push("completed", "task-1", "ch-1", ""); err == nil {
		t.Error("Push() should fail when not configured")
	}
}

func TestThrottlePush(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	s := New(func() (string, bool) { return srv.URL, true })

	s.ThrottlePush("error", "task-1", "ch-1", "boom")
	s.ThrottlePush("error", "task-2", "ch-1", "boom again") // throttled
	s.ThrottlePush("error", "task-3", "ch-2", "different channel")

	if got := hits.Load(); got != 2 {
		t.Errorf("deliveries = %d, want 2", got)
	}
}
