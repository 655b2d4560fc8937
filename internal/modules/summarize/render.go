package summarize

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// renderHTML converts a markdown summary to HTML for clients that request
// ?format=html.
func renderHTML(summary string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(summary), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
