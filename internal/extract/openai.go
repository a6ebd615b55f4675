// Package extract pulls caller identity out of call transcripts using an
// LLM, as the fallback tier behind the provider's native structured-data
// extraction.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"call-relay/internal/contact"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// minTranscript skips transcripts too short to plausibly contain
	// spelled-out contact details.
	minTranscript = 50

	// maxTranscript bounds prompt size.
	maxTranscript = 4000

	// hardTimeout keeps a single extraction inside the webhook response
	// deadline regardless of the caller's context.
	hardTimeout = 5 * time.Second
)

const systemPrompt = `You are extracting caller information from a phone call transcript.
Extract the caller's name and email address if they provided them during the call.
Return a JSON object with exactly this format:
{"name": "string or null", "email": "string or null"}

Rules:
- Only extract information the caller explicitly stated about themselves
- Do not extract agent/business names
- Email must be a valid email format
- Name should be the caller's full name if available
- Return null for any field not clearly stated by the caller`

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// OpenAIExtractor implements contact.Extractor via the chat completions API.
type OpenAIExtractor struct {
	client *openai.Client
	model  string
}

func NewOpenAIExtractor(apiKey, model string) *OpenAIExtractor {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIExtractor{client: openai.NewClient(apiKey), model: model}
}

// Extract returns whatever identity fields the transcript yields. An empty
// Identity with a nil error means "nothing found"; errors are reserved for
// upstream failures so callers can log them.
func (e *OpenAIExtractor) Extract(ctx context.Context, transcript string) (contact.Identity, error) {
	if len(transcript) < minTranscript {
		return contact.Identity{}, nil
	}
	if len(transcript) > maxTranscript {
		transcript = transcript[:maxTranscript]
	}

	ctx, cancel := context.WithTimeout(ctx, hardTimeout)
	defer cancel()

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:          e.model,
		MaxTokens:      100,
		Temperature:    0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Extract caller name and email from this transcript:\n\n" + transcript},
		},
	})
	if err != nil {
		return contact.Identity{}, fmt.Errorf("extract: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return contact.Identity{}, nil
	}

	var parsed struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		return contact.Identity{}, fmt.Errorf("extract: decode response: %w", err)
	}

	var out contact.Identity
	if parsed.Name != nil {
		out.Name = *parsed.Name
	}
	if parsed.Email != nil && emailPattern.MatchString(*parsed.Email) {
		out.Email = *parsed.Email
	}
	return out, nil
}
