package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kurz-app/kurz-go/internal/modules/transcript"
	"github.com/kurz-app/kurz-go/internal/pkg/taskqueue"
)

func newHandlerRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	runner := NewJobRunner(svc, nil, nil, nil, nil, nil)
	NewHandler(svc, runner, nil).RegisterRoutes(r.Group("/api/v2"))
	return r
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSummarizeURLEndpoint(t *testing.T) {
	gen := &fakeGenerator{out: "# Intro\nessay"}
	router := newHandlerRouter(newTestService(gen, &fakeCaptions{text: "captions"}, &fakeSpeech{}))

	w := postJSON(router, "/api/v2/summaries/url", `{"videoUrl":"https://youtu.be/dQw4w9WgXcQ"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool   `json:"success"`
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.Summary != "# Intro\nessay" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestSummarizeURLNoTranscript(t *testing.T) {
	gen := &fakeGenerator{out: "unused"}
	router := newHandlerRouter(newTestService(gen, &fakeCaptions{err: transcript.ErrNoTranscript}, &fakeSpeech{}))

	w := postJSON(router, "/api/v2/summaries/url", `{"videoUrl":"https://youtu.be/dQw4w9WgXcQ"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if gen.calls != 0 {
		t.Errorf("generator calls = %d, want 0", gen.calls)
	}
}

func TestSummarizeURLMissingBody(t *testing.T) {
	router := newHandlerRouter(newTestService(&fakeGenerator{}, &fakeCaptions{}, &fakeSpeech{}))
	w := postJSON(router, "/api/v2/summaries/url", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSummarizeURLHTMLFormat(t *testing.T) {
	gen := &fakeGenerator{out: "# Intro\n\nessay body"}
	router := newHandlerRouter(newTestService(gen, &fakeCaptions{text: "captions"}, &fakeSpeech{}))

	w := postJSON(router, "/api/v2/summaries/url?format=html", `{"videoUrl":"dQw4w9WgXcQ"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Summary string `json:"summary"`
		HTML    string `json:"html"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.HTML, "<h1") || !strings.Contains(resp.HTML, "Intro") {
		t.Errorf("html = %q", resp.HTML)
	}
	if resp.Summary != "# Intro\n\nessay body" {
		t.Errorf("summary = %q, markdown must stay available alongside html", resp.Summary)
	}
}

func TestSummarizeVideoEndpoint(t *testing.T) {
	gen := &fakeGenerator{out: "# Overview\nspoken"}
	router := newHandlerRouter(newTestService(gen, &fakeCaptions{}, &fakeSpeech{text: "spoken words"}))

	req := httptest.NewRequest(http.MethodGet, "/api/v2/summaries/video?url=https%3A%2F%2Fcdn.example.com%2Fkurz%2Fa.mp4", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Available bool   `json:"available"`
		Success   bool   `json:"success"`
		Summary   string `json:"summary"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Available || !resp.Success || resp.Summary != "# Overview\nspoken" {
		t.Errorf("resp = %+v", resp)
	}

	t.Run("missing url", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v2/summaries/video", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestSummarizePDFEndpoint(t *testing.T) {
	gen := &fakeGenerator{out: "the summary"}
	router := newHandlerRouter(newTestService(gen, &fakeCaptions{}, &fakeSpeech{}))

	t.Run("ok", func(t *testing.T) {
		w := postJSON(router, "/api/v2/summaries/pdf", `{"text":"document text","pageCount":3,"title":"paper"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
	})

	t.Run("too many pages", func(t *testing.T) {
		calls := gen.calls
		w := postJSON(router, "/api/v2/summaries/pdf", `{"text":"document text","pageCount":11}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
		if gen.calls != calls {
			t.Error("provider was called despite the page limit")
		}
	})

	t.Run("missing text", func(t *testing.T) {
		w := postJSON(router, "/api/v2/summaries/pdf", `{"pageCount":1}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestCreateJobValidation(t *testing.T) {
	router := newHandlerRouter(newTestService(&fakeGenerator{}, &fakeCaptions{}, &fakeSpeech{}))

	tests := []struct {
		name string
		body string
	}{
		{name: "missing channel", body: `{"videoUrl":"dQw4w9WgXcQ"}`},
		{name: "no source", body: `{"channel":"ch-1"}`},
		{name: "both sources", body: `{"videoUrl":"dQw4w9WgXcQ","assetId":"kurz/a.mp4","channel":"ch-1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(router, "/api/v2/summaries/jobs", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestJobRunnerStartValidation(t *testing.T) {
	runner := NewJobRunner(newTestService(&fakeGenerator{}, &fakeCaptions{}, &fakeSpeech{}), nil, nil, nil, nil, nil)

	if _, err := runner.Start(context.Background(), JobRequest{VideoURL: "x"}); !errors.Is(err, ErrInvalidJob) {
		t.Errorf("Start() without channel = %v, want ErrInvalidJob", err)
	}
	if _, err := runner.Start(context.Background(), JobRequest{Channel: "ch"}); !errors.Is(err, ErrInvalidJob) {
		t.Errorf("Start() without source = %v, want ErrInvalidJob", err)
	}
	if _, err := runner.Start(context.Background(), JobRequest{VideoURL: "x", AssetID: "y", Channel: "ch"}); !errors.Is(err, ErrInvalidJob) {
		t.Errorf("Start() with two sources = %v, want ErrInvalidJob", err)
	}
}

type failingTaskStore struct{ err error }

func (f *failingTaskStore) Enqueue(context.Context, string, interface{}, string, string) (*taskqueue.Task, error) {
	return nil, f.err
}

func (f *failingTaskStore) GetByID(context.Context, string) (*taskqueue.Task, error) {
	return nil, f.err
}

func (f *failingTaskStore) UpdateStatus(context.Context, string, taskqueue.TaskStatus, interface{}, string) error {
	return f.err
}

func TestCreateJobEnqueueFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestService(&fakeGenerator{}, &fakeCaptions{}, &fakeSpeech{})
	tasks := &failingTaskStore{err: errors.New("connection refused")}
	runner := NewJobRunner(svc, tasks, nil, nil, nil, nil)
	r := gin.New()
	NewHandler(svc, runner, nil).RegisterRoutes(r.Group("/api/v2"))

	// a well-formed request failing at the queue is a server error, not a 400
	w := postJSON(r, "/api/v2/summaries/jobs", `{"videoUrl":"dQw4w9WgXcQ","channel":"ch-1"}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
