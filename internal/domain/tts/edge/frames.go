package edge

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// DefaultOutputFormat is the only format the narration pipeline requests.
const DefaultOutputFormat = "audio-24khz-48kbitrate-mono-mp3"

const (
	pathSpeechConfig  = "Path:speech.config"
	pathSSML          = "Path:ssml"
	pathTurnEnd       = "Path:turn.end"
	pathAudioMetadata = "Path:audio.metadata"
)

// audioHeaderNeedle terminates the textual sub-header of a binary frame; the
// mp3 payload starts immediately after it.
var audioHeaderNeedle = []byte("Path:audio\r\n")

// speechConfigFrame builds the first control frame of a session: it selects
// the output format and enables word boundary metadata. The framing must match
// the service byte for byte.
func speechConfigFrame(outputFormat string) []byte {
	payload := fmt.Sprintf(
		`{"context":{"synthesis":{"audio":{"metadataoptions":`+
			`{"sentenceBoundaryEnabled":"false","wordBoundaryEnabled":"true"},`+
			`"outputFormat":"%s"}}}}`,
		outputFormat,
	)
	return []byte("Content-Type:application/json; charset=utf-8\r\n" +
		pathSpeechConfig + "\r\n\r\n" + payload)
}

// Prosody holds the three SSML prosody attributes as the service expects them:
// either "default" or relative/absolute unit strings like "+10%" or "-2Hz".
type Prosody struct {
	Rate   string
	Pitch  string
	Volume string
}

func (p Prosody) withDefaults() Prosody {
	if p.Rate == "" {
		p.Rate = "default"
	}
	if p.Pitch == "" {
		p.Pitch = "default"
	}
	if p.Volume == "" {
		p.Volume = "default"
	}
	return p
}

// xmlEscaper covers the characters that would break the SSML document when
// they appear in narration text. The attribute values are catalog-controlled
// and never need escaping.
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"'", "&apos;",
	`"`, "&quot;",
)

// ssmlFrame builds the per-turn control frame carrying the SSML document.
func ssmlFrame(requestID, lang, voice string, prosody Prosody, text string) []byte {
	p := prosody.withDefaults()
	ssml := fmt.Sprintf(
		`<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='%s'>`+
			`<voice name='%s'><prosody rate='%s' pitch='%s' volume='%s'>%s</prosody></voice></speak>`,
		lang, voice, p.Rate, p.Pitch, p.Volume, xmlEscaper.Replace(text),
	)
	return []byte("X-RequestId:" + requestID + "\r\n" +
		"Content-Type:application/ssml+xml\r\n" +
		pathSSML + "\r\n\r\n" + ssml)
}

// WordBoundary is one boundary event parsed from an audio.metadata frame.
// Offset and Duration are in 100ns ticks.
type WordBoundary struct {
	Text     string
	Offset   int64
	Duration int64
}

type metadataEvent struct {
	Type string `json:"Type"`
	Data struct {
		Offset   int64 `json:"Offset"`
		Duration int64 `json:"Duration"`
		Text     struct {
			Text string `json:"Text"`
		} `json:"text"`
	} `json:"Data"`
}

type metadataPayload struct {
	Metadata []metadataEvent `json:"Metadata"`
}

// parseMetadata extracts the word boundaries from an audio.metadata text
// frame. Sentence boundaries are disabled at session bootstrap; any other
// event type is skipped.
func parseMetadata(frame []byte) ([]WordBoundary, error) {
	idx := bytes.Index(frame, []byte("\r\n\r\n"))
	if idx < 0 {
		return nil, fmt.Errorf("metadata frame missing header terminator")
	}

	var payload metadataPayload
	if err := sonic.Unmarshal(frame[idx+4:], &payload); err != nil {
		return nil, fmt.Errorf("decode metadata payload: %w", err)
	}

	boundaries := make([]WordBoundary, 0, len(payload.Metadata))
	for _, ev := range payload.Metadata {
		if ev.Type != "WordBoundary" {
			continue
		}
		boundaries = append(boundaries, WordBoundary{
			Text:     ev.Data.Text.Text,
			Offset:   ev.Data.Offset,
			Duration: ev.Data.Duration,
		})
	}
	return boundaries, nil
}

// audioPayload slices the mp3 bytes out of a binary frame, reporting false
// when the frame carries no audio sub-header.
func audioPayload(frame []byte) ([]byte, bool) {
	idx := bytes.Index(frame, audioHeaderNeedle)
	if idx < 0 {
		return nil, false
	}
	return frame[idx+len(audioHeaderNeedle):], true
}
