// Package llm pre-annotates narration text with a chat-completion model:
// the model splits the text into segments and assigns each one a voice and
// prosody from the allowed catalog.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	openai "github.com/sashabaranov/go-openai"

	"github.com/mengzhisuoliu/easyVoice/internal/domain/tts"
	"github.com/mengzhisuoliu/easyVoice/internal/platform/config"
	platformerrors "github.com/mengzhisuoliu/easyVoice/internal/platform/errors"
	"github.com/mengzhisuoliu/easyVoice/internal/platform/logging"
)

const systemInstruction = `You split narration text into voice-annotated segments. ` +
	`Reply with exactly one JSON object of the form ` +
	`{"segments":[{"text":"...","voice":"...","rate":"...","pitch":"...","volume":"..."}]}. ` +
	`Use only voices from the provided list. Keep every character of the input, in order. ` +
	`No prose, no markdown.`

// Segment is one LLM-assigned narration unit.
type Segment struct {
	Text   string `json:"text"`
	Voice  string `json:"voice"`
	Rate   string `json:"rate"`
	Pitch  string `json:"pitch"`
	Volume string `json:"volume"`
}

// chatClient is the slice of the openai client the segmenter uses; tests
// substitute a scripted implementation.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Segmenter performs the single pre-annotation request per batch.
type Segmenter struct {
	client      chatClient
	model       string
	temperature float32
	maxTokens   int
	logger      *logging.Logger
}

// NewSegmenter builds a Segmenter from the llm config section.
func NewSegmenter(cfg config.LLMConfig, logger *logging.Logger) *Segmenter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if logger == nil {
		logger = logging.NewDiscard()
	}
	return &Segmenter{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}
}

// Annotate sends one chat completion request and parses the reply. A reply
// whose segments field is missing or not an array is a validation error:
// fatal, no retry, no partial result.
func (s *Segmenter) Annotate(ctx context.Context, text, language string) ([]Segment, error) {
	const op = "llm annotate"

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(text, language)},
		},
	})
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, op, "chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return nil, platformerrors.New(platformerrors.KindValidation, op, "empty completion reply")
	}

	return parseReply(resp.Choices[0].Message.Content)
}

// buildPrompt combines the detected language with the allowed-voice metadata.
func buildPrompt(text, language string) string {
	var voices []string
	for _, v := range tts.Voices {
		voices = append(voices, fmt.Sprintf("%s (%s, %s)", v.Name, v.Locale, v.Gender))
	}
	return fmt.Sprintf("Detected language: %s\nAllowed voices:\n%s\n\nText:\n%s",
		language, strings.Join(voices, "\n"), text)
}

func parseReply(content string) ([]Segment, error) {
	const op = "llm parse reply"

	content = stripCodeFence(content)

	var reply struct {
		Segments json.RawMessage `json:"segments"`
	}
	if err := sonic.Unmarshal([]byte(content), &reply); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindValidation, op,
			"reply is not a JSON object", err)
	}
	if len(reply.Segments) == 0 {
		return nil, platformerrors.New(platformerrors.KindValidation, op,
			"reply has no segments field")
	}

	var segments []Segment
	if err := sonic.Unmarshal(reply.Segments, &segments); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindValidation, op,
			"segments field is not an array", err)
	}
	if len(segments) == 0 {
		return nil, platformerrors.New(platformerrors.KindValidation, op,
			"segments array is empty")
	}
	return segments, nil
}

// stripCodeFence unwraps replies that arrive inside markdown fences despite
// the instruction.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
