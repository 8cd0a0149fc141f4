package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	platformerrors "github.com/mengzhisuoliu/easyVoice/internal/platform/errors"
	"github.com/mengzhisuoliu/easyVoice/internal/platform/logging"
)

type scriptedChat struct {
	content string
	err     error
	request *openai.ChatCompletionRequest
}

func (s *scriptedChat) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.request = &req
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: s.content}},
		},
	}, nil
}

func newTestSegmenter(chat *scriptedChat) *Segmenter {
	return &Segmenter{
		client: chat,
		model:  "test-model",
		logger: logging.NewDiscard(),
	}
}

func TestAnnotateParsesSegments(t *testing.T) {
	chat := &scriptedChat{content: `{"segments":[` +
		`{"text":"旁白部分。","voice":"zh-CN-XiaoxiaoNeural","rate":"default","pitch":"default","volume":"default"},` +
		`{"text":"对话部分。","voice":"zh-CN-YunxiNeural","rate":"+5%","pitch":"default","volume":"default"}]}`}

	segments, err := newTestSegmenter(chat).Annotate(context.Background(), "旁白部分。对话部分。", "zh")
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[1].Voice != "zh-CN-YunxiNeural" || segments[1].Rate != "+5%" {
		t.Fatalf("segment 1 = %+v", segments[1])
	}

	// The prompt must carry the detected language and the voice catalog.
	prompt := chat.request.Messages[1].Content
	if !strings.Contains(prompt, "Detected language: zh") {
		t.Errorf("prompt missing language: %s", prompt)
	}
	if !strings.Contains(prompt, "zh-CN-XiaoxiaoNeural") {
		t.Errorf("prompt missing voice catalog: %s", prompt)
	}
}

func TestAnnotateUnwrapsCodeFences(t *testing.T) {
	chat := &scriptedChat{content: "```json\n" +
		`{"segments":[{"text":"hi","voice":"en-US-AriaNeural"}]}` + "\n```"}

	segments, err := newTestSegmenter(chat).Annotate(context.Background(), "hi", "en")
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if len(segments) != 1 || segments[0].Text != "hi" {
		t.Fatalf("segments = %+v", segments)
	}
}

func TestAnnotateNonArraySegmentsIsValidationError(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"segments is an object", `{"segments":{"text":"hi"}}`},
		{"segments is a string", `{"segments":"hi"}`},
		{"segments missing", `{"result":"done"}`},
		{"not json at all", `sure, here are your segments`},
		{"empty array", `{"segments":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestSegmenter(&scriptedChat{content: tt.content}).
				Annotate(context.Background(), "hi", "en")
			if !platformerrors.IsKind(err, platformerrors.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestAnnotateTransportFailure(t *testing.T) {
	chat := &scriptedChat{err: errors.New("connection refused")}
	_, err := newTestSegmenter(chat).Annotate(context.Background(), "hi", "en")
	if !platformerrors.IsKind(err, platformerrors.KindTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}
