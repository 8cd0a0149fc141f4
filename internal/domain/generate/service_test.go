package generate

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mengzhisuoliu/easyVoice/internal/domain/audio"
	"github.com/mengzhisuoliu/easyVoice/internal/domain/cache"
	"github.com/mengzhisuoliu/easyVoice/internal/domain/llm"
	"github.com/mengzhisuoliu/easyVoice/internal/domain/tts/edge"
	"github.com/mengzhisuoliu/easyVoice/internal/platform/config"
	platformerrors "github.com/mengzhisuoliu/easyVoice/internal/platform/errors"
)

// fakeDialer stands in for the protocol client: audio is the segment text
// itself and a single boundary covers it, so merged artifacts are directly
// comparable against expected text order.
type fakeDialer struct {
	dials    atomic.Int64
	mu       sync.Mutex
	voices   []string
	failWhen func(text string) error
}

func (f *fakeDialer) dial(ctx context.Context, opts edge.Options) (SynthesisSession, error) {
	f.dials.Add(1)
	f.mu.Lock()
	f.voices = append(f.voices, opts.Voice)
	f.mu.Unlock()
	return &fakeSession{dialer: f}, nil
}

type fakeSession struct {
	dialer *fakeDialer
}

func (s *fakeSession) Synthesize(ctx context.Context, text string, prosody edge.Prosody, requestID string) (*edge.Result, error) {
	if s.dialer.failWhen != nil {
		if err := s.dialer.failWhen(text); err != nil {
			return nil, err
		}
	}
	return &edge.Result{
		Audio: []byte(text),
		Boundaries: []edge.WordBoundary{
			{Text: text, Offset: 0, Duration: int64(len(text)) * 1_000_000},
		},
	}, nil
}

func (s *fakeSession) Close() error { return nil }

func newTestService(t *testing.T, dialer *fakeDialer, store cache.Store, segmenter Segmenter) *Service {
	t.Helper()
	cfg := config.TTSConfig{
		OutputDir:        t.TempDir(),
		Concurrency:      3,
		MaxSegmentLength: 5,
	}
	return NewService(cfg, Deps{
		Store:     store,
		Concat:    audio.CopyConcat{},
		Segmenter: segmenter,
		Dial:      dialer.dial,
	})
}

// fiveSegments splits into exactly five "NNNN." jobs at MaxSegmentLength 5.
const fiveSegments = "1111.2222.3333.4444.5555."

func englishRequest(text string) Request {
	return Request{Text: text, Voice: "en-US-AriaNeural"}
}

func readAudio(t *testing.T, svc *Service, result *Result) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(svc.cfg.OutputDir, filepath.Base(result.AudioURL)))
	if err != nil {
		t.Fatalf("read merged audio: %v", err)
	}
	return string(data)
}

func TestGenerateMergesSegmentsInOrder(t *testing.T) {
	dialer := &fakeDialer{}
	store := cache.NewMemory()
	svc := newTestService(t, dialer, store, nil)

	result, err := svc.Generate(context.Background(), englishRequest(fiveSegments), nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.Partial {
		t.Fatal("fully successful batch reported partial")
	}
	if got := readAudio(t, svc, result); got != fiveSegments {
		t.Fatalf("merged audio = %q", got)
	}
	if dialer.dials.Load() != 5 {
		t.Fatalf("expected 5 sessions, got %d", dialer.dials.Load())
	}
}

func TestGenerateIdempotentViaCache(t *testing.T) {
	dialer := &fakeDialer{}
	store := cache.NewMemory()
	svc := newTestService(t, dialer, store, nil)

	first, err := svc.Generate(context.Background(), englishRequest(fiveSegments), nil)
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	dialsAfterFirst := dialer.dials.Load()

	second, err := svc.Generate(context.Background(), englishRequest(fiveSegments), nil)
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if dialer.dials.Load() != dialsAfterFirst {
		t.Fatalf("second call opened %d new sessions", dialer.dials.Load()-dialsAfterFirst)
	}
	if second.AudioURL != first.AudioURL || second.SubtitleURL != first.SubtitleURL {
		t.Fatalf("cache hit returned different artifact: %+v vs %+v", second, first)
	}
}

func TestGeneratePartialToleranceSkipsCacheWrite(t *testing.T) {
	dialer := &fakeDialer{
		failWhen: func(text string) error {
			if strings.Contains(text, "3333") {
				return platformerrors.New(platformerrors.KindTransport, "edge synthesize", "forced failure")
			}
			return nil
		},
	}
	store := cache.NewMemory()
	svc := newTestService(t, dialer, store, nil)

	result, err := svc.Generate(context.Background(), englishRequest(fiveSegments), nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !result.Partial {
		t.Fatal("batch with a failed segment must report partial")
	}
	// Survivors keep their relative order; the failed segment is excluded.
	if got := readAudio(t, svc, result); got != "1111.2222.4444.5555." {
		t.Fatalf("merged audio = %q", got)
	}
	if store.Len() != 0 {
		t.Fatal("partial result must never be cached")
	}

	// A later identical request retries rather than serving the partial file.
	dialer.failWhen = nil
	retry, err := svc.Generate(context.Background(), englishRequest(fiveSegments), nil)
	if err != nil {
		t.Fatalf("retry Generate: %v", err)
	}
	if retry.Partial {
		t.Fatal("retry should have completed fully")
	}
	if store.Len() != 1 {
		t.Fatal("complete retry should be cached")
	}
}

func TestGenerateAllSegmentsFailedIsBatchFailure(t *testing.T) {
	dialer := &fakeDialer{
		failWhen: func(string) error {
			return platformerrors.New(platformerrors.KindTransport, "edge synthesize", "down")
		},
	}
	svc := newTestService(t, dialer, cache.NewMemory(), nil)

	_, err := svc.Generate(context.Background(), englishRequest(fiveSegments), nil)
	if !platformerrors.IsKind(err, platformerrors.KindTransport) {
		t.Fatalf("expected transport failure, got %v", err)
	}
}

func TestGenerateValidationFastFail(t *testing.T) {
	dialer := &fakeDialer{}
	svc := newTestService(t, dialer, cache.NewMemory(), nil)

	_, err := svc.Generate(context.Background(), Request{
		Text:  "这是一段中文文本。",
		Voice: "en-US-AriaNeural",
	}, nil)
	if !platformerrors.IsKind(err, platformerrors.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if dialer.dials.Load() != 0 {
		t.Fatalf("validation failure opened %d sessions", dialer.dials.Load())
	}

	_, err = svc.Generate(context.Background(), Request{Text: "hi", Voice: "no-such-voice"}, nil)
	if !platformerrors.IsKind(err, platformerrors.KindValidation) {
		t.Fatalf("expected validation error for unknown voice, got %v", err)
	}
	_, err = svc.Generate(context.Background(), Request{Text: "   ", Voice: "en-US-AriaNeural"}, nil)
	if !platformerrors.IsKind(err, platformerrors.KindValidation) {
		t.Fatalf("expected validation error for empty text, got %v", err)
	}
}

func TestGenerateSingleSegmentFailureIsBatchFailure(t *testing.T) {
	dialer := &fakeDialer{
		failWhen: func(string) error {
			return platformerrors.New(platformerrors.KindSynthesisTimeout, "edge synthesize", "stalled")
		},
	}
	svc := newTestService(t, dialer, cache.NewMemory(), nil)

	_, err := svc.Generate(context.Background(), englishRequest("short"), nil)
	if !platformerrors.IsKind(err, platformerrors.KindSynthesisTimeout) {
		t.Fatalf("expected the segment's own failure, got %v", err)
	}
}

// erroringStore fails every operation, standing in for a broken backend.
type erroringStore struct{}

func (erroringStore) Get(ctx context.Context, key string) (cache.Entry, bool, error) {
	return cache.Entry{}, false, platformerrors.New(platformerrors.KindCache, "get", "backend down")
}
func (erroringStore) Set(ctx context.Context, key string, entry cache.Entry) error {
	return platformerrors.New(platformerrors.KindCache, "set", "backend down")
}
func (erroringStore) Close() error { return nil }

func TestGenerateCacheErrorsAreNeverFatal(t *testing.T) {
	dialer := &fakeDialer{}
	svc := newTestService(t, dialer, erroringStore{}, nil)

	result, err := svc.Generate(context.Background(), englishRequest(fiveSegments), nil)
	if err != nil {
		t.Fatalf("cache failure must downgrade to a miss, got %v", err)
	}
	if result.Partial {
		t.Fatal("unexpected partial result")
	}
}

func TestGenerateProgressMonotonicReaching100(t *testing.T) {
	dialer := &fakeDialer{}
	svc := newTestService(t, dialer, cache.NewMemory(), nil)

	var (
		mu       sync.Mutex
		percents []int
	)
	_, err := svc.Generate(context.Background(), englishRequest(fiveSegments),
		func(taskID string, percent int) {
			mu.Lock()
			percents = append(percents, percent)
			mu.Unlock()
		})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(percents) == 0 {
		t.Fatal("no progress reported")
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Fatalf("progress regressed: %v", percents)
		}
	}
	if percents[len(percents)-1] != 100 {
		t.Fatalf("final progress = %d", percents[len(percents)-1])
	}
}

// scriptedSegmenter returns fixed annotations or a fixed error.
type scriptedSegmenter struct {
	segments []llm.Segment
	err      error
}

func (s *scriptedSegmenter) Annotate(ctx context.Context, text, language string) ([]llm.Segment, error) {
	return s.segments, s.err
}

func TestGenerateLLMSegmentationAssignsVoices(t *testing.T) {
	dialer := &fakeDialer{}
	segmenter := &scriptedSegmenter{segments: []llm.Segment{
		{Text: "narr.", Voice: "en-US-GuyNeural"},
		{Text: "line.", Voice: "en-US-AriaNeural"},
		{Text: "bad.", Voice: "not-in-catalog"},
	}}
	svc := newTestService(t, dialer, cache.NewMemory(), segmenter)

	req := englishRequest("narr.line.bad.")
	req.UseLLM = true

	result, err := svc.Generate(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := readAudio(t, svc, result); got != "narr.line.bad." {
		t.Fatalf("merged audio = %q", got)
	}

	dialer.mu.Lock()
	defer dialer.mu.Unlock()
	want := []string{"en-US-GuyNeural", "en-US-AriaNeural", "en-US-AriaNeural"}
	if len(dialer.voices) != len(want) {
		t.Fatalf("voices = %v", dialer.voices)
	}
	seen := map[string]int{}
	for _, v := range dialer.voices {
		seen[v]++
	}
	if seen["en-US-GuyNeural"] != 1 || seen["en-US-AriaNeural"] != 2 {
		t.Fatalf("voice usage = %v", seen)
	}
}

func TestGenerateLLMFailureIsFatal(t *testing.T) {
	dialer := &fakeDialer{}
	segmenter := &scriptedSegmenter{
		err: platformerrors.New(platformerrors.KindValidation, "llm parse reply", "segments field is not an array"),
	}
	svc := newTestService(t, dialer, cache.NewMemory(), segmenter)

	req := englishRequest("some text")
	req.UseLLM = true

	_, err := svc.Generate(context.Background(), req, nil)
	if !platformerrors.IsKind(err, platformerrors.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if dialer.dials.Load() != 0 {
		t.Fatal("malformed annotation must not reach synthesis")
	}
}

func TestGenerateSubtitleArtifactWritten(t *testing.T) {
	dialer := &fakeDialer{}
	svc := newTestService(t, dialer, cache.NewMemory(), nil)

	result, err := svc.Generate(context.Background(), englishRequest(fiveSegments), nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(svc.cfg.OutputDir, filepath.Base(result.SubtitleURL)))
	if err != nil {
		t.Fatalf("read subtitle artifact: %v", err)
	}
	if !strings.Contains(string(data), `"part":"1111."`) {
		t.Fatalf("subtitle artifact missing first cue: %s", data)
	}

	var cues []struct {
		Part  string `json:"part"`
		Start int64  `json:"start"`
		End   int64  `json:"end"`
	}
	if err := json.Unmarshal(data, &cues); err != nil {
		t.Fatalf("decode subtitle artifact: %v", err)
	}
	if len(cues) != 5 {
		t.Fatalf("expected one cue per segment, got %d", len(cues))
	}
	for i := 1; i < len(cues); i++ {
		if cues[i].End < cues[i-1].End {
			t.Fatalf("merged cue end times regress: %+v", cues)
		}
	}
}
