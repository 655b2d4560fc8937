// Package transcript turns a video into text, either by fetching existing
// captions for a public video URL or by sending uploaded media through a paid
// speech-to-text service. The two paths are deliberately independent.
package transcript

import "errors"

var (
	// ErrNoTranscript reports that a video has no fetchable captions, e.g. a
	// private video or one with subtitles disabled.
	ErrNoTranscript = errors.New("transcript not available for this video")

	// ErrInvalidURL reports that no video identifier could be extracted.
	ErrInvalidURL = errors.New("not a recognizable video url")

	// ErrTranscriptionFailed reports that the speech-to-text service returned
	// no usable text.
	ErrTranscriptionFailed = errors.New("transcription failed")
)

// Truncate caps text at max runes before it is embedded in a prompt.
func Truncate(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
