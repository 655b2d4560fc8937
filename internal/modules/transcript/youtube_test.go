package transcript

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "watch url", url: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "watch url with extra params", url: "https://www.youtube.com/watch?t=10&v=dQw4w9WgXcQ&list=x", want: "dQw4w9WgXcQ"},
		{name: "short url", url: "https://youtu.be/dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "shorts url", url: "https://www.youtube.com/shorts/dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "embed url", url: "https://www.youtube.com/embed/dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "bare id", url: "dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "empty", url: "", wantErr: true},
		{name: "unrelated url", url: "https://example.com/video", wantErr: true},
		{name: "id too short", url: "https://www.youtube.com/watch?v=short", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractVideoID(tt.url)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidURL) {
					t.Errorf("ExtractVideoID(%q) error = %v, want ErrInvalidURL", tt.url, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractVideoID(%q) error = %v", tt.url, err)
			}
			if got != tt.want {
				t.Errorf("ExtractVideoID(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func newTestFetcher(base string) *YouTubeFetcher {
	return &YouTubeFetcher{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		watchBase:  base,
	}
}

func TestFetchCaptions(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/watch":
			fmt.Fprintf(w, `<html>... "captionTracks":[{"baseUrl":"%s/timedtext?lang=en&kind=asr","languageCode":"en","kind":"asr"},{"baseUrl":"%s/timedtext?lang=en","languageCode":"en"}] ...</html>`,
				srv.URL, srv.URL)
		case "/timedtext":
			if r.URL.Query().Get("kind") == "asr" {
				t.Error("auto-generated track fetched despite manual track being available")
			}
			fmt.Fprint(w, `<?xml version="1.0"?><transcript><text start="0" dur="2">Hello &amp; welcome</text><text start="2" dur="2"> to the show </text><text start="4" dur="1"></text></transcript>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	got, err := newTestFetcher(srv.URL).Fetch(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	want := "Hello & welcome to the show"
	if got != want {
		t.Errorf("Fetch() = %q, want %q", got, want)
	}
}

func TestFetchNoCaptionTracks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>player config without captions</html>`)
	}))
	defer srv.Close()

	_, err := newTestFetcher(srv.URL).Fetch(context.Background(), "dQw4w9WgXcQ")
	if !errors.Is(err, ErrNoTranscript) {
		t.Errorf("Fetch() error = %v, want ErrNoTranscript", err)
	}
}

func TestFetchInvalidURL(t *testing.T) {
	_, err := newTestFetcher("http://unused.invalid").Fetch(context.Background(), "https://example.com/nope")
	if !errors.Is(err, ErrInvalidURL) {
		t.Errorf("Fetch() error = %v, want ErrInvalidURL", err)
	}
}

func TestPickCaptionTrackFallsBackToASR(t *testing.T) {
	page := []byte(`"captionTracks":[{"baseUrl":"http://example.com/asr","languageCode":"en","kind":"asr"}]`)
	track, err := pickCaptionTrack(page)
	if err != nil {
		t.Fatalf("pickCaptionTrack() error = %v", err)
	}
	if track.Kind != "asr" {
		t.Errorf("track = %+v, want the asr track", track)
	}
}
