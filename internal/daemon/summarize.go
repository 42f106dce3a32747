package daemon

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/lkaiser/livecap/internal/subtitle"
)

// Summarizer turns a finished subtitle document into a markdown summary.
type Summarizer interface {
	Summarize(ctx context.Context, doc string) (string, error)
}

// OpenAISummarizer generates the summary with a chat completion over the
// transcript text.
type OpenAISummarizer struct {
	Client *openai.Client
	Model  string
}

func NewOpenAISummarizer(apiKey, model string) *OpenAISummarizer {
	return &OpenAISummarizer{Client: openai.NewClient(apiKey), Model: model}
}

const summaryPrompt = `Summarize the following transcript as structured markdown.
Use a single top-level heading for the overall topic, second-level headings
for the main sections, and bullet lists for the key points under each.
Return only the markdown document.

Transcript:
%s`

func (o *OpenAISummarizer) Summarize(ctx context.Context, doc string) (string, error) {
	text := transcriptText(doc)
	if text == "" {
		return "", fmt.Errorf("empty transcript")
	}

	req := openai.ChatCompletionRequest{
		Model: o.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(summaryPrompt, text),
			},
		},
		MaxTokens:   1500,
		Temperature: 0.3,
	}

	resp, err := o.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("summary completion: %v", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("summary completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// transcriptText strips the cue timing so the model sees prose, not
// timestamps.
func transcriptText(doc string) string {
	cues, err := subtitle.ParseWebVTT(doc)
	if err != nil {
		// Fall back to the raw document; a partial prompt beats none.
		return strings.TrimSpace(doc)
	}
	lines := make([]string, 0, len(cues))
	for _, cue := range cues {
		lines = append(lines, cue.Text)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
