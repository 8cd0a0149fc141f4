// Package subtitle rebuilds character-exact subtitle cues from the lossy word
// boundary metadata reported by the synthesis service.
package subtitle

// ticksPerMillisecond converts the service's 100ns tick unit to milliseconds.
const ticksPerMillisecond = 10_000

// Boundary is one raw word-boundary event from the service: a normalized text
// fragment plus its offset and duration in 100ns ticks.
type Boundary struct {
	Text          string
	OffsetTicks   int64
	DurationTicks int64
}

// Cue is a timestamped span of source text. Start/End are milliseconds from
// the beginning of the segment's audio.
type Cue struct {
	Text  string `json:"part"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
}

// TicksToMs converts 100ns ticks to whole milliseconds, flooring.
func TicksToMs(ticks int64) int64 {
	return ticks / ticksPerMillisecond
}
