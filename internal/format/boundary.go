package format

import (
	"strings"
	"unicode"
)

// decoSet holds the characters human-authored divider lines are built from.
const decoSet = "#-_=+|"

// isSeparatorCommentLine reports whether line is a decorative comment banner
// (a section divider such as "//+========="). The thresholds are empirical
// and intentionally literal: a "+" right after the marker, then either an
// asterisk anywhere or a body of at least 10 characters that is at least
// 60% divider characters.
func isSeparatorCommentLine(line string) bool {
	s := strings.TrimLeftFunc(line, unicode.IsSpace)
	if !strings.HasPrefix(s, "//") {
		return false
	}
	body := strings.TrimLeftFunc(s[2:], unicode.IsSpace)
	if !strings.HasPrefix(body, "+") {
		return false
	}
	if strings.Contains(body, "*") {
		return true
	}
	deco, total := 0, 0
	for _, r := range body {
		total++
		if strings.ContainsRune(decoSet, r) {
			deco++
		}
	}
	if total < 10 {
		return false
	}
	return float64(deco)/float64(total) >= 0.60
}

// isBlockBoundary reports whether the normalized line separates alignment
// blocks: blank, a bare "echo;", or a decorative banner.
func isBlockBoundary(line string) bool {
	s := strings.ToLower(strings.TrimSpace(line))
	if s == "" || s == "echo;" {
		return true
	}
	return isSeparatorCommentLine(line)
}
