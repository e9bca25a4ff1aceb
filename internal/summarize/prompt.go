package summarize

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are an expert summarizer. Your job is to extract " +
	"the most important information from texts while maintaining accuracy and context."

// percentToKeep maps the requested length to the share of the original
// text the summary should retain.
func percentToKeep(length string) float64 {
	switch length {
	case "very-short":
		return 0.1
	case "short":
		return 0.25
	case "medium":
		return 0.5
	case "long":
		return 0.75
	default:
		return 0.25
	}
}

// targetWordCount floors at 10 words so tiny inputs still yield a sentence.
func targetWordCount(originalWords int, length string) int {
	target := int(float64(originalWords) * percentToKeep(length))
	if target < 10 {
		target = 10
	}
	return target
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

// buildPrompt assembles the user-message instructions for the model.
func buildPrompt(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Summarize the following text in about %d words.",
		targetWordCount(wordCount(req.Text), req.Length))

	switch req.Style {
	case "concise":
		b.WriteString(" Make it clear and to the point.")
	case "detailed":
		b.WriteString(" Include important details and nuances.")
	case "bullet-points":
		b.WriteString(" Format the summary as bullet points.")
	case "academic":
		b.WriteString(" Use an academic tone and formal language.")
	case "simplified":
		b.WriteString(" Use simple language that's easy to understand.")
	}

	if req.Complexity <= 2 {
		b.WriteString(" Use simple vocabulary and straightforward sentence structure.")
	} else if req.Complexity >= 4 {
		b.WriteString(" You may use sophisticated vocabulary and complex sentence structures where appropriate.")
	}

	b.WriteString("\n\nHere's the text to summarize:\n\n")
	b.WriteString(req.Text)

	return b.String()
}
