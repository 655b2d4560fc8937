package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kurz-app/kurz-go/internal/modules/transcript"
	"github.com/kurz-app/kurz-go/internal/pkg/taskqueue"
	"github.com/kurz-app/kurz-go/internal/pkg/webpush"
	"go.uber.org/zap"
)

const (
	taskTypeSummarize = "summarize"
	jobTimeout        = 10 * time.Minute
)

// Progress event names pushed to the subscriber's channel.
const (
	EventTranscribing = "transcribing"
	EventAnalyzing    = "analyzing"
	EventCompleted    = "completed"
	EventError        = "error"
)

// ErrInvalidJob marks a job request that failed validation.
var ErrInvalidJob = errors.New("invalid job request")

// ProgressPublisher fans an event out to every subscriber of a channel.
type ProgressPublisher interface {
	Publish(channel, event string, payload interface{})
}

// TaskStore records job state. Satisfied by taskqueue.Service.
type TaskStore interface {
	Enqueue(ctx context.Context, taskType string, payload interface{}, dedupKey, groupKey string) (*taskqueue.Task, error)
	GetByID(ctx context.Context, id string) (*taskqueue.Task, error)
	UpdateStatus(ctx context.Context, id string, status taskqueue.TaskStatus, result interface{}, errMsg string) error
}

// AssetResolver maps a stored video's public ID to its delivery URL.
type AssetResolver interface {
	PublicURL(key string) string
}

// JobRequest describes one background summarization job. Exactly one of
// VideoURL and AssetID must be set.
type JobRequest struct {
	VideoURL string `json:"videoUrl"`
	AssetID  string `json:"assetId"`
	Channel  string `json:"channel"`
}

// JobRunner executes summarization jobs in the background and reports
// progress over the gateway.
type JobRunner struct {
	svc    *Service
	tasks  TaskStore
	events ProgressPublisher
	push   *webpush.Service
	assets AssetResolver
	logger *zap.Logger
}

func NewJobRunner(svc *Service, tasks TaskStore, events ProgressPublisher, push *webpush.Service, assets AssetResolver, logger *zap.Logger) *JobRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobRunner{
		svc:    svc,
		tasks:  tasks,
		events: events,
		push:   push,
		assets: assets,
		logger: logger,
	}
}

// Start validates the request, records the task and launches the worker.
// A job already in flight for the same source and channel is returned as-is
// instead of being duplicated.
func (r *JobRunner) Start(ctx context.Context, req JobRequest) (*taskqueue.Task, error) {
	req.VideoURL = strings.TrimSpace(req.VideoURL)
	req.AssetID = strings.TrimSpace(req.AssetID)
	req.Channel = strings.TrimSpace(req.Channel)

	if req.Channel == "" {
		return nil, fmt.Errorf("%w: channel is required", ErrInvalidJob)
	}
	if (req.VideoURL == "") == (req.AssetID == "") {
		return nil, fmt.Errorf("%w: exactly one of videoUrl and assetId is required", ErrInvalidJob)
	}

	source := req.VideoURL
	if source == "" {
		source = req.AssetID
	}
	dedupKey := source + "|" + req.Channel

	task, err := r.tasks.Enqueue(ctx, taskTypeSummarize, req, dedupKey, req.Channel)
	if err != nil {
		return nil, err
	}
	if task.Status != taskqueue.TaskPending {
		return task, nil
	}

	go r.run(task.ID, req)
	return task, nil
}

func (r *JobRunner) run(taskID string, req JobRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := r.tasks.UpdateStatus(ctx, taskID, taskqueue.TaskRunning, nil, ""); err != nil {
		r.logger.Error("task status update failed", zap.String("taskId", taskID), zap.Error(err))
	}
	r.emit(req.Channel, EventTranscribing, map[string]interface{}{"taskId": taskID})

	var (
		text string
		err  error
	)
	if req.VideoURL != "" {
		text, err = r.svc.captions.Fetch(ctx, req.VideoURL)
	} else {
		text, err = r.svc.speech.Transcribe(ctx, r.assets.PublicURL(req.AssetID))
	}
	if err != nil {
		r.fail(ctx, taskID, req.Channel, err)
		return
	}

	r.emit(req.Channel, EventAnalyzing, map[string]interface{}{"taskId": taskID})

	prompt := buildSpeechPrompt
	if req.VideoURL != "" {
		prompt = buildVideoPrompt
	}
	summary, err := r.svc.summarize(ctx, text, prompt)
	if err != nil {
		r.fail(ctx, taskID, req.Channel, err)
		return
	}

	if req.AssetID != "" {
		r.svc.cache.AttachAsset(ctx, req.AssetID, summary)
	}

	if err := r.tasks.UpdateStatus(ctx, taskID, taskqueue.TaskCompleted, map[string]string{"summary": summary}, ""); err != nil {
		r.logger.Error("task status update failed", zap.String("taskId", taskID), zap.Error(err))
	}
	r.emit(req.Channel, EventCompleted, map[string]interface{}{
		"taskId":  taskID,
		"summary": summary,
	})
	if r.push != nil {
		r.push.ThrottlePush(EventCompleted, taskID, req.Channel, "summary ready")
	}
}

func (r *JobRunner) fail(ctx context.Context, taskID, channel string, cause error) {
	message := publicErrorMessage(cause)
	r.logger.Warn("summarization job failed",
		zap.String("taskId", taskID),
		zap.String("channel", channel),
		zap.Error(cause),
	)

	if err := r.tasks.UpdateStatus(ctx, taskID, taskqueue.TaskFailed, nil, message); err != nil {
		r.logger.Error("task status update failed", zap.String("taskId", taskID), zap.Error(err))
	}
	r.emit(channel, EventError, map[string]interface{}{
		"taskId":  taskID,
		"message": message,
	})
	if r.push != nil {
		r.push.ThrottlePush(EventError, taskID, channel, message)
	}
}

func (r *JobRunner) emit(channel, event string, payload interface{}) {
	if r.events == nil {
		return
	}
	r.events.Publish(channel, event, payload)
}

// publicErrorMessage collapses internal failures into the shallow messages
// exposed to clients.
func publicErrorMessage(err error) string {
	switch {
	case errors.Is(err, transcript.ErrNoTranscript):
		return "no transcript available for this video"
	case errors.Is(err, transcript.ErrInvalidURL):
		return "invalid video url"
	case errors.Is(err, transcript.ErrTranscriptionFailed):
		return "transcription failed"
	case errors.Is(err, ErrEmptySummary):
		return "empty response from AI"
	case errors.Is(err, ErrEmptyText):
		return "no text to summarize"
	default:
		return fmt.Sprintf("summarization failed: %v", err)
	}
}
