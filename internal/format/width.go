package format

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// VisWidth estimates the display width of s in a fixed-width terminal:
// East-Asian Wide/Fullwidth runes count 2, combining marks 0, everything
// else 1. Used only for echo table cells; all other column arithmetic
// counts code points.
func VisWidth(s string) int {
	w := 0
	for _, r := range s {
		if unicode.In(r, unicode.Mn, unicode.Me) {
			continue
		}
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			w += 2
		default:
			w++
		}
	}
	return w
}

// runeLen counts code points. Alignment columns are measured in code points
// to stay stable across byte encodings of the same text.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
