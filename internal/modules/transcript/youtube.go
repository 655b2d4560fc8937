package transcript

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const defaultWatchBase = "https://www.youtube.com"

// browser UA; the watch page serves no player config to unknown agents
const watchUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`/shorts/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`/embed/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`^([A-Za-z0-9_-]{11})$`),
}

var captionTracksPattern = regexp.MustCompile(`"captionTracks":(\[.*?\])`)

// YouTubeFetcher retrieves pre-existing captions for a public video.
type YouTubeFetcher struct {
	httpClient *http.Client
	watchBase  string
}

// NewYouTubeFetcher builds a fetcher against the production watch endpoint.
func NewYouTubeFetcher() *YouTubeFetcher {
	return &YouTubeFetcher{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		watchBase:  defaultWatchBase,
	}
}

// ExtractVideoID pulls the 11-character video identifier out of the usual URL
// shapes (watch, youtu.be, shorts, embed) or a bare id.
func ExtractVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidURL
	}
	for _, p := range videoIDPatterns {
		if m := p.FindStringSubmatch(raw); len(m) == 2 {
			return m[1], nil
		}
	}
	return "", ErrInvalidURL
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type timedTextBody struct {
	Texts []timedText `xml:"text"`
}

type timedText struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Value string `xml:",chardata"`
}

// Fetch returns the video's caption segments concatenated in order, separated
// by single spaces. Missing or disabled captions surface as ErrNoTranscript.
func (f *YouTubeFetcher) Fetch(ctx context.Context, videoURL string) (string, error) {
	videoID, err := ExtractVideoID(videoURL)
	if err != nil {
		return "", err
	}

	page, err := f.get(ctx, f.watchBase+"/watch?v="+videoID)
	if err != nil {
		return "", fmt.Errorf("fetch watch page: %w", err)
	}

	track, err := pickCaptionTrack(page)
	if err != nil {
		return "", err
	}

	body, err := f.get(ctx, track.BaseURL)
	if err != nil {
		return "", fmt.Errorf("fetch caption track: %w", err)
	}

	text, err := flattenTimedText(body)
	if err != nil || text == "" {
		return "", ErrNoTranscript
	}
	return text, nil
}

func (f *YouTubeFetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", watchUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 8<<20))
}

// pickCaptionTrack extracts the caption track list embedded in the watch page
// player config and prefers a manually authored track over an auto-generated
// ("asr") one.
func pickCaptionTrack(page []byte) (*captionTrack, error) {
	m := captionTracksPattern.FindSubmatch(page)
	if len(m) != 2 {
		return nil, ErrNoTranscript
	}

	var tracks []captionTrack
	if err := json.Unmarshal(m[1], &tracks); err != nil {
		return nil, ErrNoTranscript
	}

	var picked *captionTrack
	for i := range tracks {
		if tracks[i].BaseURL == "" {
			continue
		}
		if tracks[i].Kind != "asr" {
			picked = &tracks[i]
			break
		}
		if picked == nil {
			picked = &tracks[i]
		}
	}
	if picked == nil {
		return nil, ErrNoTranscript
	}
	return picked, nil
}

func flattenTimedText(body []byte) (string, error) {
	var doc timedTextBody
	if err := xml.Unmarshal(body, &doc); err != nil {
		return "", err
	}

	parts := make([]string, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		segment := strings.TrimSpace(html.UnescapeString(t.Value))
		if segment == "" {
			continue
		}
		parts = append(parts, segment)
	}
	return strings.Join(parts, " "), nil
}
