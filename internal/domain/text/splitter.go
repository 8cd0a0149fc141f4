// Package text contains the plain-text preparation steps that run before any
// remote synthesis call: segment splitting and language detection.
package text

// sentence-ending runes recognised as preferred cut points.
var sentenceEnders = map[rune]bool{
	'。': true, '！': true, '？': true, '；': true, '…': true,
	'.': true, '!': true, '?': true, ';': true, '\n': true,
}

// Split cuts text into ordered sub-texts of at most maxLen runes each,
// preferring sentence boundaries. A single sentence longer than maxLen is
// hard-cut. Concatenating the returned segments reproduces the input.
func Split(text string, maxLen int) []string {
	if text == "" {
		return nil
	}
	if maxLen <= 0 {
		maxLen = 500
	}

	runes := []rune(text)
	if len(runes) <= maxLen {
		return []string{text}
	}

	var segments []string
	var current []rune
	lastEnder := -1 // index into current of the last sentence ender

	flush := func(upto int) {
		segments = append(segments, string(current[:upto]))
		rest := make([]rune, len(current)-upto)
		copy(rest, current[upto:])
		current = rest
		lastEnder = -1
		for i, r := range current {
			if sentenceEnders[r] {
				lastEnder = i
			}
		}
	}

	for _, r := range runes {
		current = append(current, r)
		if sentenceEnders[r] {
			lastEnder = len(current) - 1
		}
		if len(current) >= maxLen {
			if lastEnder >= 0 {
				flush(lastEnder + 1)
			} else {
				flush(len(current))
			}
		}
	}
	if len(current) > 0 {
		segments = append(segments, string(current))
	}

	return segments
}
