package model

import "fmt"

// SummarizeSystemPrompt instructs the provider to answer with the normalized
// summary schema (see Normalize).
const SummarizeSystemPrompt = `You summarize conversations. Respond with a JSON object of the form {"summary": "...", "key_points": ["..."]}. Keep the summary under 120 words.`

// TitleSystemPrompt instructs the provider to answer with a short title.
const TitleSystemPrompt = `You name conversations. Respond with a JSON object of the form {"title": "..."}. Keep the title under 8 words, no quotes around it.`

// SummarizePrompt wraps a transcript excerpt for a summarize request.
func SummarizePrompt(content string) string {
	return fmt.Sprintf("Summarize the following conversation:\n\n%s", content)
}

// TitlePrompt wraps the opening messages for a title request.
func TitlePrompt(content string) string {
	return fmt.Sprintf("Suggest a title for a conversation that starts like this:\n\n%s", content)
}
