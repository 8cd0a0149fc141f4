package generate

import (
	"context"

	"github.com/mengzhisuoliu/easyVoice/internal/domain/audio"
	"github.com/mengzhisuoliu/easyVoice/internal/domain/subtitle"
	platformerrors "github.com/mengzhisuoliu/easyVoice/internal/platform/errors"
)

// MergeEngine combines ordered per-segment outputs into one time-coherent
// artifact. Byte-level concatenation is delegated to the audio collaborator;
// the engine owns ordering, survivor filtering and cumulative offsets.
type MergeEngine struct {
	concat audio.Concatenator
}

func NewMergeEngine(concat audio.Concatenator) *MergeEngine {
	return &MergeEngine{concat: concat}
}

// MergeAudio concatenates the ordered survivor paths into output.
func (m *MergeEngine) MergeAudio(ctx context.Context, orderedPaths []string, output string) error {
	if len(orderedPaths) == 0 {
		return platformerrors.New(platformerrors.KindMerge, "merge audio", "no surviving segments")
	}
	return m.concat.Concat(ctx, orderedPaths, output)
}

// MergeCues performs the offset-carrying merge: each segment's cues are
// shifted by the accumulated base offset, which then advances by that
// segment's own final cue end time. Merged end times are non-decreasing across
// segment boundaries as long as each list is internally non-decreasing.
func MergeCues(lists [][]subtitle.Cue) []subtitle.Cue {
	var (
		merged []subtitle.Cue
		base   int64
	)
	for _, cues := range lists {
		if len(cues) == 0 {
			continue
		}
		for _, c := range cues {
			merged = append(merged, subtitle.Cue{
				Text:  c.Text,
				Start: c.Start + base,
				End:   c.End + base,
			})
		}
		base += cues[len(cues)-1].End
	}
	return merged
}
