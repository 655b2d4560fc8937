package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	appcfg "github.com/kurz-app/kurz-go/internal/config"
	"github.com/kurz-app/kurz-go/internal/modules/transcript"
	"go.uber.org/zap"
)

// ErrTooManyPages reports a PDF whose page count exceeds the configured limit.
// The check runs before any provider call is made.
var ErrTooManyPages = errors.New("document exceeds the page limit")

// ErrEmptyText reports a summarize request without usable source text.
var ErrEmptyText = errors.New("no text to summarize")

// CaptionFetcher retrieves caption text for a video URL.
type CaptionFetcher interface {
	Fetch(ctx context.Context, videoURL string) (string, error)
}

// Transcriber produces a transcript from a publicly reachable media URL.
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL string) (string, error)
}

// Service orchestrates transcript acquisition, prompt assembly and the single
// summarization call per request.
type Service struct {
	gen      Generator
	cache    *Cache
	captions CaptionFetcher
	speech   Transcriber
	limits   appcfg.Limits
	logger   *zap.Logger
}

func NewService(gen Generator, cache *Cache, captions CaptionFetcher, speech Transcriber, limits appcfg.Limits, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		gen:      gen,
		cache:    cache,
		captions: captions,
		speech:   speech,
		limits:   limits,
		logger:   logger,
	}
}

// SummarizeVideoURL fetches captions for a YouTube URL and summarizes them in
// the essay format. transcript.ErrNoTranscript comes back unwrapped so the
// handler can answer 404 without ever touching the AI provider.
func (s *Service) SummarizeVideoURL(ctx context.Context, videoURL string) (string, error) {
	text, err := s.captions.Fetch(ctx, videoURL)
	if err != nil {
		return "", err
	}
	return s.summarize(ctx, text, buildVideoPrompt)
}

// SummarizeUploaded runs paid speech-to-text on an uploaded video's URL and
// summarizes the transcript.
func (s *Service) SummarizeUploaded(ctx context.Context, mediaURL string) (string, error) {
	text, err := s.speech.Transcribe(ctx, mediaURL)
	if err != nil {
		return "", err
	}
	return s.summarize(ctx, text, buildSpeechPrompt)
}

// SummarizePDF summarizes already-extracted document text. The page-count
// check rejects oversized documents before a provider call is made.
func (s *Service) SummarizePDF(ctx context.Context, text string, pageCount int) (string, error) {
	if s.limits.PDFMaxPages > 0 && pageCount > s.limits.PDFMaxPages {
		return "", fmt.Errorf("%w: %d pages, limit is %d", ErrTooManyPages, pageCount, s.limits.PDFMaxPages)
	}
	return s.summarize(ctx, text, buildPDFPrompt)
}

func (s *Service) summarize(ctx context.Context, text string, prompt func(string) string) (string, error) {
	text = transcript.Truncate(strings.TrimSpace(text), s.limits.TranscriptMaxChars)
	if text == "" {
		return "", ErrEmptyText
	}

	if cached := s.cache.GetByText(ctx, text); cached != "" {
		s.logger.Debug("summary cache hit")
		return cached, nil
	}

	summary, err := s.gen.Generate(ctx, prompt(text))
	if err != nil {
		return "", fmt.Errorf("summarization failed: %w", err)
	}

	s.cache.Put(ctx, text, summary)
	return summary, nil
}
