package summarize

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kurz-app/kurz-go/internal/modules/transcript"
	"github.com/kurz-app/kurz-go/internal/pkg/response"
	"github.com/kurz-app/kurz-go/internal/pkg/taskqueue"
	"go.uber.org/zap"
)

// Handler exposes the summarization endpoints.
type Handler struct {
	svc    *Service
	runner *JobRunner
	logger *zap.Logger
}

func NewHandler(svc *Service, runner *JobRunner, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, runner: runner, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/summaries")
	g.POST("/url", h.summarizeURL)
	g.GET("/video", h.summarizeVideo)
	g.POST("/pdf", h.summarizePDF)
	g.POST("/jobs", h.createJob)

	rg.GET("/tasks/:id", h.getTask)
}

type urlRequest struct {
	VideoURL string `json:"videoUrl" binding:"required"`
}

// summarizeURL handles the caption path: fetch YouTube captions, summarize
// them as an essay. A video without captions answers 404 and never reaches
// the AI provider.
func (h *Handler) summarizeURL(c *gin.Context) {
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "videoUrl is required")
		return
	}

	summary, err := h.svc.SummarizeVideoURL(c.Request.Context(), req.VideoURL)
	if err != nil {
		h.writeSummaryError(c, err)
		return
	}
	h.writeSummary(c, summary, nil)
}

// summarizeVideo handles uploaded videos: the stored file's URL goes through
// paid speech-to-text, then summarization.
func (h *Handler) summarizeVideo(c *gin.Context) {
	mediaURL := strings.TrimSpace(c.Query("url"))
	if mediaURL == "" {
		response.BadRequest(c, "url is required")
		return
	}

	summary, err := h.svc.SummarizeUploaded(c.Request.Context(), mediaURL)
	if err != nil {
		h.writeSummaryError(c, err)
		return
	}
	h.writeSummary(c, summary, gin.H{"available": true})
}

type pdfRequest struct {
	Text      string `json:"text" binding:"required"`
	PageCount int    `json:"pageCount"`
	Title     string `json:"title"`
}

// summarizePDF summarizes client-extracted document text. Oversized
// documents are refused up front.
func (h *Handler) summarizePDF(c *gin.Context) {
	var req pdfRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "text is required")
		return
	}

	summary, err := h.svc.SummarizePDF(c.Request.Context(), req.Text, req.PageCount)
	if err != nil {
		h.writeSummaryError(c, err)
		return
	}
	h.writeSummary(c, summary, nil)
}

// createJob starts a background summarization job; progress is delivered to
// the request's channel over the gateway.
func (h *Handler) createJob(c *gin.Context) {
	var req JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid job request")
		return
	}

	task, err := h.runner.Start(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidJob) {
			response.BadRequest(c, err.Error())
			return
		}
		h.logger.Error("job enqueue failed", zap.Error(err))
		response.InternalError(c, err)
		return
	}

	response.Accepted(c, gin.H{
		"taskId":  task.ID,
		"status":  task.Status,
		"channel": req.Channel,
	})
}

func (h *Handler) getTask(c *gin.Context) {
	task, err := h.runner.tasks.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if task == nil {
		response.NotFoundMsg(c, "task not found")
		return
	}

	body := gin.H{
		"taskId":    task.ID,
		"status":    task.Status,
		"createdAt": task.CreatedAt,
		"updatedAt": task.UpdatedAt,
	}
	if task.Status == taskqueue.TaskFailed && task.Error != "" {
		body["error"] = task.Error
	}
	if len(task.Result) > 0 {
		body["result"] = task.Result
	}
	response.OK(c, body)
}

func (h *Handler) writeSummary(c *gin.Context, summary string, extra gin.H) {
	body := gin.H{"success": true, "summary": summary}
	for k, v := range extra {
		body[k] = v
	}

	if c.Query("format") == "html" {
		rendered, err := renderHTML(summary)
		if err != nil {
			response.InternalError(c, err)
			return
		}
		body["html"] = rendered
	}
	response.OK(c, body)
}

func (h *Handler) writeSummaryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, transcript.ErrNoTranscript):
		response.NotFoundMsg(c, "no transcript available for this video")
	case errors.Is(err, transcript.ErrInvalidURL):
		response.BadRequest(c, "invalid video url")
	case errors.Is(err, ErrTooManyPages):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrEmptyText):
		response.BadRequest(c, "no text to summarize")
	default:
		h.logger.Error("summarization request failed", zap.Error(err))
		response.InternalError(c, err)
	}
}
