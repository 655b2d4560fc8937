package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultAssemblyEndpoint = "https://api.assemblyai.com"

// AssemblyClient calls the AssemblyAI speech-to-text API for uploaded media.
type AssemblyClient struct {
	apiKey       string
	endpoint     string
	httpClient   *http.Client
	pollInterval time.Duration
}

// NewAssemblyClient builds a client. An empty endpoint targets the production
// API; the key is checked at call time, not here.
func NewAssemblyClient(apiKey, endpoint string) *AssemblyClient {
	ep := strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if ep == "" {
		ep = defaultAssemblyEndpoint
	}
	return &AssemblyClient{
		apiKey:       strings.TrimSpace(apiKey),
		endpoint:     ep,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		pollInterval: 3 * time.Second,
	}
}

type assemblyTranscript struct {
	ID     string `json:"id"`
	Status string `json:"status"` // queued | processing | completed | error
	Text   string `json:"text"`
	Error  string `json:"error,omitempty"`
}

// Transcribe submits the media URL and polls until the job reaches a terminal
// state. An empty result text is a transcription failure.
func (c *AssemblyClient) Transcribe(ctx context.Context, audioURL string) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("assemblyai api key is not configured")
	}
	audioURL = strings.TrimSpace(audioURL)
	if audioURL == "" {
		return "", errors.New("audio url is required")
	}

	created, err := c.createJob(ctx, audioURL)
	if err != nil {
		return "", err
	}

	job := created
	for job.Status != "completed" && job.Status != "error" {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}

		job, err = c.getJob(ctx, created.ID)
		if err != nil {
			return "", err
		}
	}

	if job.Status == "error" {
		if job.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrTranscriptionFailed, job.Error)
		}
		return "", ErrTranscriptionFailed
	}
	if strings.TrimSpace(job.Text) == "" {
		return "", ErrTranscriptionFailed
	}
	return job.Text, nil
}

func (c *AssemblyClient) createJob(ctx context.Context, audioURL string) (*assemblyTranscript, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"audio_url":      audioURL,
		"speaker_labels": true,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v2/transcript", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *AssemblyClient) getJob(ctx context.Context, id string) (*assemblyTranscript, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/v2/transcript/"+id, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.apiKey)

	return c.do(req)
}

func (c *AssemblyClient) do(req *http.Request) (*assemblyTranscript, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("assemblyai error: %s", strings.TrimSpace(string(respBody)))
	}

	var out assemblyTranscript
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
