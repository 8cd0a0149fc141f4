package text

import "unicode"

// Language tags reported by DetectLanguage.
const (
	LanguageChinese = "zh"
	LanguageEnglish = "en"
	LanguageUnknown = "unknown"
)

// DetectLanguage classifies text by its dominant script. Mixed content with
// any Han runes is reported as Chinese, since an English-restricted voice
// cannot render it.
func DetectLanguage(text string) string {
	var han, latin int
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			han++
		case unicode.IsLetter(r) && r < 0x024F:
			latin++
		}
	}

	switch {
	case han > 0:
		return LanguageChinese
	case latin > 0:
		return LanguageEnglish
	default:
		return LanguageUnknown
	}
}
