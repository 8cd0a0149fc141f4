// Package tts holds the synthesis-facing domain model shared by the protocol
// client, the orchestrator and the web layer.
package tts

import "strings"

// Voice describes one narration voice of the remote service.
type Voice struct {
	Name     string `json:"name"`
	Locale   string `json:"locale"`
	Gender   string `json:"gender"`
	Friendly string `json:"friendly_name"`
}

// Voices is the catalog offered to callers and to the LLM prompt. The remote
// service supports far more; these are the ones the product exposes.
var Voices = []Voice{
	{Name: "zh-CN-XiaoxiaoNeural", Locale: "zh-CN", Gender: "Female", Friendly: "晓晓"},
	{Name: "zh-CN-XiaoyiNeural", Locale: "zh-CN", Gender: "Female", Friendly: "晓伊"},
	{Name: "zh-CN-YunjianNeural", Locale: "zh-CN", Gender: "Male", Friendly: "云健"},
	{Name: "zh-CN-YunxiNeural", Locale: "zh-CN", Gender: "Male", Friendly: "云希"},
	{Name: "zh-CN-YunyangNeural", Locale: "zh-CN", Gender: "Male", Friendly: "云扬"},
	{Name: "en-US-AriaNeural", Locale: "en-US", Gender: "Female", Friendly: "Aria"},
	{Name: "en-US-GuyNeural", Locale: "en-US", Gender: "Male", Friendly: "Guy"},
	{Name: "en-US-JennyNeural", Locale: "en-US", Gender: "Female", Friendly: "Jenny"},
	{Name: "en-GB-SoniaNeural", Locale: "en-GB", Gender: "Female", Friendly: "Sonia"},
	{Name: "ja-JP-NanamiNeural", Locale: "ja-JP", Gender: "Female", Friendly: "七海"},
}

// Find returns the catalog entry for name.
func Find(name string) (Voice, bool) {
	for _, v := range Voices {
		if v.Name == name {
			return v, true
		}
	}
	return Voice{}, false
}

// LocaleOf extracts the locale prefix of a voice name, e.g. "zh-CN" from
// "zh-CN-XiaoxiaoNeural".
func LocaleOf(name string) string {
	parts := strings.SplitN(name, "-", 3)
	if len(parts) < 2 {
		return ""
	}
	return parts[0] + "-" + parts[1]
}

// SupportsLanguage reports whether a voice can render text in the detected
// primary language. An English-restricted voice cannot speak Chinese text; the
// reverse direction is allowed since Chinese voices handle embedded English.
func SupportsLanguage(voiceName, language string) bool {
	locale := LocaleOf(voiceName)
	switch language {
	case "zh":
		return strings.HasPrefix(locale, "zh")
	default:
		return true
	}
}
