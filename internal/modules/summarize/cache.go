package summarize

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	redisc "github.com/kurz-app/kurz-go/internal/pkg/redis"
	"go.uber.org/zap"
)

const (
	summaryKeyPrefix      = "kurz:summary:"
	assetSummaryKeyPrefix = "kurz:asset_summary:"
	summaryTTL            = 7 * 24 * time.Hour
)

// Cache stores generated summaries in Redis, keyed by the hash of the source
// text so identical inputs never hit the AI provider twice, and keeps a
// per-asset pointer so history listings can show summaries inline.
type Cache struct {
	rc     *redisc.Client
	logger *zap.Logger
}

func NewCache(rc *redisc.Client, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{rc: rc, logger: logger}
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// GetByText returns the cached summary for the given source text, or "" on a
// miss. Cache failures are logged and treated as misses.
func (c *Cache) GetByText(ctx context.Context, text string) string {
	if c == nil || c.rc == nil {
		return ""
	}
	val, err := c.rc.Get(ctx, summaryKeyPrefix+contentHash(text))
	if err != nil {
		c.logger.Warn("summary cache read failed", zap.Error(err))
		return ""
	}
	return val
}

// Put stores a summary under the source text's hash.
func (c *Cache) Put(ctx context.Context, text, summary string) {
	if c == nil || c.rc == nil || strings.TrimSpace(summary) == "" {
		return
	}
	if err := c.rc.Set(ctx, summaryKeyPrefix+contentHash(text), summary, summaryTTL); err != nil {
		c.logger.Warn("summary cache write failed", zap.Error(err))
	}
}

// AttachAsset records the summary for a stored video so it shows up in the
// history listing.
func (c *Cache) AttachAsset(ctx context.Context, publicID, summary string) {
	if c == nil || c.rc == nil || publicID == "" || strings.TrimSpace(summary) == "" {
		return
	}
	if err := c.rc.Set(ctx, assetSummaryKeyPrefix+publicID, summary, summaryTTL); err != nil {
		c.logger.Warn("asset summary write failed", zap.String("publicId", publicID), zap.Error(err))
	}
}

// AssetSummary returns the summary attached to a stored video, or "".
func (c *Cache) AssetSummary(ctx context.Context, publicID string) string {
	if c == nil || c.rc == nil || publicID == "" {
		return ""
	}
	val, err := c.rc.Get(ctx, assetSummaryKeyPrefix+publicID)
	if err != nil {
		c.logger.Warn("asset summary read failed", zap.String("publicId", publicID), zap.Error(err))
		return ""
	}
	return val
}

// ForgetAsset drops the attached summary when a stored video is deleted.
func (c *Cache) ForgetAsset(ctx context.Context, publicID string) {
	if c == nil || c.rc == nil || publicID == "" {
		return
	}
	if err := c.rc.Del(ctx, assetSummaryKeyPrefix+publicID); err != nil {
		c.logger.Warn("asset summary delete failed", zap.String("publicId", publicID), zap.Error(err))
	}
}
