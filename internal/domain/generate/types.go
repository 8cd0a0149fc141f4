// Package generate composes the narration pipeline: cache lookup, validation,
// optional LLM segmentation, text splitting, bounded concurrent synthesis,
// merge and cache write.
package generate

import (
	"context"

	"github.com/mengzhisuoliu/easyVoice/internal/domain/subtitle"
	"github.com/mengzhisuoliu/easyVoice/internal/domain/tts/edge"
)

// Request is the collaborator boundary to the web layer.
type Request struct {
	Text   string `json:"text"`
	Voice  string `json:"voice"`
	Rate   string `json:"rate"`
	Pitch  string `json:"pitch"`
	Volume string `json:"volume"`
	UseLLM bool   `json:"useLLM"`

	// TaskID identifies the batch for progress reporting; assigned when empty.
	TaskID string `json:"-"`
}

// Result is the user-visible outcome of a batch: a complete artifact, or a
// partial one when at least one segment of a multi-segment batch failed.
type Result struct {
	TaskID      string `json:"id"`
	AudioURL    string `json:"audio"`
	SubtitleURL string `json:"srt"`
	Partial     bool   `json:"partial,omitempty"`
}

// ProgressFunc receives monotone batch progress in percent for a task.
type ProgressFunc func(taskID string, percent int)

// segmentJob is one unit of synthesis. Index defines merge order.
type segmentJob struct {
	index   int
	text    string
	voice   string
	prosody edge.Prosody
}

// segmentOutput is a successfully synthesized segment, stored in the batch's
// scratch directory until the merge consumes it.
type segmentOutput struct {
	audioPath string
	cues      []subtitle.Cue
}

// SynthesisSession is the slice of an open protocol session the orchestrator
// uses. One session serves one segment job.
type SynthesisSession interface {
	Synthesize(ctx context.Context, text string, prosody edge.Prosody, requestID string) (*edge.Result, error)
	Close() error
}

// DialFunc opens a session; substituted in tests to avoid remote calls.
type DialFunc func(ctx context.Context, opts edge.Options) (SynthesisSession, error)
