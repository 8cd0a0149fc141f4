package subtitle

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
)

// FileFor derives the subtitle artifact path for an audio file: the same base
// name with a .json suffix.
func FileFor(audioPath string) string {
	ext := filepath.Ext(audioPath)
	return strings.TrimSuffix(audioPath, ext) + ".json"
}

// WriteFile persists cues as a JSON array of {part,start,end} objects.
func WriteFile(path string, cues []Cue) error {
	if cues == nil {
		cues = []Cue{}
	}
	data, err := sonic.Marshal(cues)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFile loads a persisted cue artifact.
func ReadFile(path string) ([]Cue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cues []Cue
	if err := sonic.Unmarshal(data, &cues); err != nil {
		return nil, err
	}
	return cues, nil
}
