package services

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/issue-tracker-ui/internal/constants"
)

// maxPromptRunes bounds how much of a document is sent to the model.
const maxPromptRunes = 6000

type AIService struct {
	client *openai.Client
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
	}
}

// SuggestSubject asks the model for a one-line subject summarizing the
// document's visible text.
func (s *AIService) SuggestSubject(ctx context.Context, document string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("OpenAI client not initialized")
	}

	text, err := PlainText(document)
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	if utf8.RuneCountInString(text) > maxPromptRunes {
		text = string([]rune(text)[:maxPromptRunes])
	}

	prompt := fmt.Sprintf(`You write subjects for an issue tracker.
Summarize the following e-mail thread as a single issue subject of at most %d characters.
Return only the subject, without quotes or explanations.

Thread:
%s`, constants.SubjectMaxLength, text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)

	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	subject := ClipSubject(resp.Choices[0].Message.Content)
	if subject == "" {
		return "", ErrNoSubjectFound
	}
	return subject, nil
}
