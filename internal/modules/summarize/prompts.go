package summarize

import "fmt"

// buildVideoPrompt wraps caption text in the essay instructions used for
// YouTube summaries. The response is expected to follow the fixed markdown
// headings so clients can render sections directly.
func buildVideoPrompt(transcript string) string {
	return fmt.Sprintf(`You are an expert writer. Based on the following video transcript, write a well-structured essay that explains the video to someone who has not watched it.

Use exactly these markdown headings, in this order:

# Intro
A short paragraph setting up what the video is about and why it matters.

# ELI5
Explain the core idea like the reader is five years old.

# Terminologies
List and define the important terms used in the video.

# Summary
A thorough summary of the video's content and arguments.

# Takeaways
The key points the viewer should remember, as a bulleted list.

Transcript:

%s`, transcript)
}

// buildSpeechPrompt is used for transcripts produced from uploaded media,
// where speaker labels make an overview format more useful than an essay.
func buildSpeechPrompt(transcript string) string {
	return fmt.Sprintf(`Summarize the following transcript of a video. Structure the response with these markdown headings:

# Overview
What the recording is about in two or three sentences.

# Key Points
The main points made, as a bulleted list.

# Actionable Insights
Concrete things the listener can act on, if any.

Transcript:

%s`, transcript)
}

// buildPDFPrompt keeps the original short-form instruction for document text.
func buildPDFPrompt(text string) string {
	return "Summarize the following text:\n\n" + text
}
