package audio

import (
	"os"
	"time"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// Duration decodes an mp3 file's headers and reports its play time. The
// decoder emits 16-bit stereo PCM, four bytes per sample frame.
func Duration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return 0, err
	}

	samples := decoder.Length() / 4
	if decoder.SampleRate() <= 0 {
		return 0, nil
	}
	return time.Duration(samples) * time.Second / time.Duration(decoder.SampleRate()), nil
}
