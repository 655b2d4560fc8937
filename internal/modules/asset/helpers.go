package asset

import (
	"crypto/sha256"
	"encoding/hex"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

var allowedVideoExts = map[string]struct{}{
	".mp4":  {},
	".mov":  {},
	".webm": {},
	".mkv":  {},
	".avi":  {},
	".m4v":  {},
}

// hashPayload returns the hex SHA-256 of the uploaded bytes. The hash is the
// storage identifier, so byte-identical uploads resolve to one object.
func hashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// videoExt validates and normalizes the upload's file extension.
func videoExt(filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	if ext == "" {
		return ".mp4", true
	}
	_, ok := allowedVideoExts[ext]
	return ext, ok
}

// detectContentType sniffs the MIME type from the header value, extension, or
// raw payload bytes, in that priority order.
func detectContentType(filename string, payload []byte, fallback string) string {
	contentType := strings.TrimSpace(fallback)
	if contentType != "" {
		return contentType
	}
	if ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename))); ext != "" {
		if guessed := mime.TypeByExtension(ext); guessed != "" {
			return guessed
		}
	}
	if len(payload) > 0 {
		return http.DetectContentType(payload)
	}
	return "application/octet-stream"
}

// thumbnailURL derives the conventional poster-frame location for a video key.
// The thumbnail object lives next to the video under thumbnails/<name>.jpg and
// is generated out of band by the asset host's media pipeline.
func thumbnailURL(store Store, videoKey string) string {
	return store.PublicURL("thumbnails/" + BaseName(videoKey) + ".jpg")
}
