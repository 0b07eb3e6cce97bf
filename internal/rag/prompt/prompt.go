// Package prompt renders the fixed instruction texts and the context, history and question
// blocks sent to the generation provider.
package prompt

import (
	"fmt"
	"strings"

	"github.com/akolanti/ChatDocs/internal/domain/commonModels"
)

const AnswerSystemPrompt = `You are a document question-answering assistant.

RULES (must follow):
1) Answer using ONLY the provided context.
2) If the context contains the answer OR clearly describes it, you MUST answer.
3) Do NOT use outside knowledge.
4) Do NOT guess names, numbers, dates, or facts.
5) Keep the answer short and direct (2–5 sentences).
6) If possible, quote a short phrase from the context to support the answer.
7) If the document contains something related to the question just asked you must answer accordingly.`

const SummarySystemPrompt = "You are a helpful assistant that summarizes documents clearly and concisely for a student."

// BuildContext prefixes each chunk with its page and joins them with blank lines, keeping search order.
func BuildContext(chunks []commonModels.Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = fmt.Sprintf("(Page %d): %s", c.PageNumber, c.ChunkText)
	}
	return strings.Join(parts, "\n\n")
}

// WindowHistory keeps the most recent window turns in chronological order.
func WindowHistory(history []commonModels.ConversationTurn, window int) []commonModels.ConversationTurn {
	if window <= 0 {
		return nil
	}
	if len(history) > window {
		return history[len(history)-window:]
	}
	return history
}

// RenderHistory windows first, then drops turns with empty content, so fewer than window lines may remain.
func RenderHistory(history []commonModels.ConversationTurn, window int) string {
	lines := make([]string, 0, window)
	for _, turn := range WindowHistory(history, window) {
		if turn.Content == "" {
			continue
		}
		lines = append(lines, strings.ToUpper(string(turn.Role))+": "+turn.Content)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func BuildAnswerPrompt(context, history, question string) string {
	p := "Context:\n" + context +
		"\n\nChat History:\n" + history +
		"\n\nQuestion:\n" + question +
		"\n\nAnswer:"
	return strings.TrimSpace(p)
}

// BuildSummaryPrompt uses the first count chunks, cut to maxChars runes when maxChars > 0.
func BuildSummaryPrompt(chunks []commonModels.Chunk, count, maxChars int) string {
	if count > 0 && len(chunks) > count {
		chunks = chunks[:count]
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.ChunkText
	}
	content := strings.Join(texts, "\n\n")
	if maxChars > 0 {
		if r := []rune(content); len(r) > maxChars {
			content = string(r[:maxChars])
		}
	}
	return "Document content:\n" + content + "\n\nGive a concise summary (5–7 sentences):"
}
