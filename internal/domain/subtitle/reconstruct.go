package subtitle

import "strings"

// Reconstruct maps the service's normalized fragments back onto the original
// text. The server drops punctuation and whitespace, so fragments do not
// losslessly cover the source; a single forward scan with one-symbol lookahead
// reassigns every source character to exactly one cue.
//
// For each boundary in order the scan greedily consumes source characters that
// match the fragment. A mismatching character still belongs to the current cue
// unless it equals the first character of the next fragment, at which point
// the cursor stops and the remainder flows into the following cue. The final
// cue absorbs everything left, so concatenating the cue texts always
// reproduces the source exactly.
func Reconstruct(source string, boundaries []Boundary) []Cue {
	if len(boundaries) == 0 {
		if source == "" {
			return nil
		}
		return []Cue{{Text: source}}
	}

	src := []rune(source)
	pos := 0
	cues := make([]Cue, 0, len(boundaries))

	for i, b := range boundaries {
		frag := []rune(b.Text)
		last := i == len(boundaries)-1

		var nextFirst rune
		hasNext := false
		if !last {
			if next := []rune(boundaries[i+1].Text); len(next) > 0 {
				nextFirst = next[0]
				hasNext = true
			}
		}

		var sb strings.Builder
		fi := 0
		for pos < len(src) {
			c := src[pos]
			if fi < len(frag) && c == frag[fi] {
				sb.WriteRune(c)
				fi++
				pos++
				continue
			}
			if last {
				// Tail absorption: nothing follows, keep everything.
				sb.WriteRune(c)
				pos++
				continue
			}
			if hasNext && c == nextFirst {
				break
			}
			sb.WriteRune(c)
			pos++
		}

		cues = append(cues, Cue{
			Text:  sb.String(),
			Start: TicksToMs(b.OffsetTicks),
			End:   TicksToMs(b.OffsetTicks + b.DurationTicks),
		})
	}

	return cues
}
