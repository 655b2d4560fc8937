package asset

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	appcfg "github.com/kurz-app/kurz-go/internal/config"
	"github.com/kurz-app/kurz-go/internal/pkg/response"
)

// SummaryLookup resolves cached summaries attached to stored assets.
type SummaryLookup interface {
	AssetSummary(ctx context.Context, publicID string) string
	ForgetAsset(ctx context.Context, publicID string)
}

// Handler serves upload with dedup, history listing, and deletion.
type Handler struct {
	store     Store
	summaries SummaryLookup
	limits    appcfg.Limits
}

func NewHandler(store Store, summaries SummaryLookup, limits appcfg.Limits) *Handler {
	return &Handler{store: store, summaries: summaries, limits: limits}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/videos")
	g.GET("", h.list)
	g.POST("/upload", h.upload)
	g.DELETE("", h.delete)
}

// POST /videos/upload — multipart field "video".
// Identical bytes resolve to the already stored object without re-uploading.
func (h *Handler) upload(c *gin.Context) {
	fileHeader, err := c.FormFile("video")
	if err != nil {
		response.BadRequest(c, "no video file provided")
		return
	}

	maxBytes := int64(h.limits.MaxUploadMB) * 1024 * 1024
	if fileHeader.Size > maxBytes {
		response.BadRequest(c, "video exceeds the upload size limit")
		return
	}
	ext, ok := videoExt(fileHeader.Filename)
	if !ok {
		response.BadRequest(c, "unsupported video format")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if int64(len(payload)) > maxBytes {
		response.BadRequest(c, "video exceeds the upload size limit")
		return
	}

	hash := hashPayload(payload)

	// Not transactional: two simultaneous uploads of the same bytes can both
	// miss here and upload twice. The key is the hash either way.
	if existing, err := h.store.FindByHash(c.Request.Context(), hash); err == nil {
		response.OK(c, uploadResponse{
			Success:    true,
			VideoURL:   existing.URL,
			PublicID:   existing.PublicID,
			IsExisting: true,
		})
		return
	} else if !errors.Is(err, ErrNotFound) {
		response.InternalError(c, err)
		return
	}

	contentType := detectContentType(fileHeader.Filename, payload, fileHeader.Header.Get("Content-Type"))
	obj, err := h.store.Upload(c.Request.Context(), hash, ext, contentType, fileHeader.Filename, payload)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	response.OK(c, uploadResponse{
		Success:    true,
		VideoURL:   obj.URL,
		PublicID:   obj.PublicID,
		IsExisting: false,
	})
}

// GET /videos — newest first, capped at the configured history size.
func (h *Handler) list(c *gin.Context) {
	objects, err := h.store.List(c.Request.Context(), h.limits.HistoryMax)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	items := make([]HistoryItem, 0, len(objects))
	for _, obj := range objects {
		item := HistoryItem{
			ID:           obj.PublicID,
			Title:        BaseName(obj.PublicID),
			VideoURL:     obj.URL,
			ThumbnailURL: thumbnailURL(h.store, obj.PublicID),
			Date:         obj.CreatedAt.Format(time.RFC3339),
		}
		if h.summaries != nil {
			item.Summary = h.summaries.AssetSummary(c.Request.Context(), obj.PublicID)
		}
		items = append(items, item)
	}

	c.JSON(200, gin.H{"success": true, "videos": items})
}

// DELETE /videos?id=<publicId> — a missing object is a failure, not a no-op.
func (h *Handler) delete(c *gin.Context) {
	publicID := strings.TrimSpace(c.Query("id"))
	if publicID == "" {
		response.BadRequest(c, "missing public id")
		return
	}
	if decoded, err := url.QueryUnescape(publicID); err == nil {
		publicID = decoded
	}

	if err := h.store.Delete(c.Request.Context(), publicID); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFoundMsg(c, "no stored video under this id")
			return
		}
		response.InternalError(c, err)
		return
	}

	if h.summaries != nil {
		h.summaries.ForgetAsset(c.Request.Context(), publicID)
	}
	response.OK(c, gin.H{"success": true, "publicId": publicID})
}
