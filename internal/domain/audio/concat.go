// Package audio wraps the external transcoding tool boundary: given ordered
// audio paths, produce one concatenated file.
package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	platformerrors "github.com/mengzhisuoliu/easyVoice/internal/platform/errors"
	"github.com/mengzhisuoliu/easyVoice/internal/platform/logging"
)

// Concatenator joins ordered audio files into a single artifact.
type Concatenator interface {
	Concat(ctx context.Context, inputs []string, output string) error
}

// FFmpeg concatenates via the ffmpeg concat demuxer with stream copy, so
// segment audio is never re-encoded.
type FFmpeg struct {
	Bin    string
	logger *logging.Logger
}

// NewFFmpeg builds a Concatenator around the ffmpeg binary. bin defaults to
// "ffmpeg" resolved from PATH.
func NewFFmpeg(bin string, logger *logging.Logger) *FFmpeg {
	if bin == "" {
		bin = "ffmpeg"
	}
	if logger == nil {
		logger = logging.NewDiscard()
	}
	return &FFmpeg{Bin: bin, logger: logger}
}

// Concat joins inputs in order into output.
func (f *FFmpeg) Concat(ctx context.Context, inputs []string, output string) error {
	const op = "ffmpeg concat"

	if len(inputs) == 0 {
		return platformerrors.New(platformerrors.KindMerge, op, "no input files")
	}

	listFile := output + ".list"
	var sb strings.Builder
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return platformerrors.Wrap(platformerrors.KindMerge, op, "resolve input path", err)
		}
		fmt.Fprintf(&sb, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	if err := os.WriteFile(listFile, []byte(sb.String()), 0o644); err != nil {
		return platformerrors.Wrap(platformerrors.KindMerge, op, "write concat list", err)
	}
	defer os.Remove(listFile)

	cmd := exec.CommandContext(ctx, f.Bin,
		"-y", "-f", "concat", "-safe", "0", "-i", listFile, "-c", "copy", output)
	if out, err := cmd.CombinedOutput(); err != nil {
		f.logger.ErrorTag("FFmpeg", "concat failed: %s", string(out))
		return platformerrors.Wrap(platformerrors.KindMerge, op, "ffmpeg execution failed", err)
	}

	return nil
}

// CopyConcat is a pure-Go fallback that byte-concatenates the inputs. Valid
// for the service's fixed-bitrate mp3 frames and used in tests.
type CopyConcat struct{}

func (CopyConcat) Concat(ctx context.Context, inputs []string, output string) error {
	const op = "copy concat"

	if len(inputs) == 0 {
		return platformerrors.New(platformerrors.KindMerge, op, "no input files")
	}

	out, err := os.Create(output)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindMerge, op, "create output", err)
	}
	defer out.Close()

	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return platformerrors.Wrap(platformerrors.KindMerge, op, "cancelled", err)
		}
		data, err := os.ReadFile(in)
		if err != nil {
			return platformerrors.Wrap(platformerrors.KindMerge, op, "read input", err)
		}
		if _, err := out.Write(data); err != nil {
			return platformerrors.Wrap(platformerrors.KindMerge, op, "write output", err)
		}
	}
	return nil
}
