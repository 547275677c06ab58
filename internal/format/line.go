package format

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type lineKind uint8

const (
	// kindBoundary marks chunk separators: blank lines always, plus
	// "echo;" and decorative banners in block mode. Never aligned.
	kindBoundary lineKind = iota
	// kindPass marks opaque lines (comment-only, or untokenizable) that
	// pass through with normalization only.
	kindPass
	// kindCommand marks lines decomposed into indent/key/rest/comment.
	kindCommand
)

// lineRecord is one classified input line. For kindCommand,
// indent+key+rest+comment reconstructs the pre-padding content exactly.
type lineRecord struct {
	kind   lineKind
	orig   string // raw input line, untouched
	norm   string // detabbed + right-stripped, basis for all decisions
	lineno int    // 1-based

	indent   string
	key      string
	keyLower string
	rest     string
	comment  string
}

// detab expands every TAB to a fixed run of spaces. Column-elastic
// expansion would shift signatures of already-aligned files, so the
// replacement is literal.
func detab(s string, tabWidth int) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

// rstripWS trims trailing blanks but not newlines (lines never carry them).
func rstripWS(s string) string {
	return strings.TrimRight(s, " \t\r\f\v")
}

// signature is the line with every horizontal-whitespace character removed.
// Two lines with equal signatures are semantically identical to the game.
func signature(s string) string {
	if strings.IndexAny(s, " \t\r\f\v") < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r', '\f', '\v':
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// findCommentOutsideQuotes returns the byte offset of the first "//" that
// sits outside any double-quoted region, or -1. Quotes have no escapes in
// cfg scripts; a bare toggle is the whole grammar.
func findCommentOutsideQuotes(s string) int {
	inQuote := false
	for i := 0; i+1 < len(s); i++ {
		switch {
		case s[i] == '"':
			inQuote = !inQuote
		case !inQuote && s[i] == '/' && s[i+1] == '/':
			return i
		}
	}
	return -1
}

// splitIndentKeyRest decomposes the code part of a line. For the literal key
// "echo" the rest keeps its leading whitespace verbatim: it may encode
// intentional character-art spacing.
func splitIndentKeyRest(s string) (indent, key, rest string, ok bool) {
	n := len(s)
	i := 0
	for i < n {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !unicode.IsSpace(r) {
			break
		}
		i += size
	}
	if i >= n {
		return "", "", "", false
	}
	indent = s[:i]

	j := i
	for j < n {
		r, size := utf8.DecodeRuneInString(s[j:])
		if unicode.IsSpace(r) {
			break
		}
		j += size
	}
	key = s[i:j]

	rest = s[j:]
	if strings.ToLower(key) != "echo" {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
	}
	return indent, key, rest, true
}

// splitTwoQuoted extracts the first two double-quoted strings from rest,
// e.g. `"w" "+forward" tail`. Quotes are included in q1/q2; tail is the
// remainder after the second closing quote, verbatim.
func splitTwoQuoted(rest string) (q1, q2, tail string, ok bool) {
	s := rest
	n := len(s)

	i := 0
	for i < n {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !unicode.IsSpace(r) {
			break
		}
		i += size
	}
	if i >= n || s[i] != '"' {
		return "", "", "", false
	}

	j := i + 1
	for j < n && s[j] != '"' {
		j++
	}
	if j >= n {
		return "", "", "", false
	}
	q1 = s[i : j+1]

	k := j + 1
	for k < n {
		r, size := utf8.DecodeRuneInString(s[k:])
		if !unicode.IsSpace(r) {
			break
		}
		k += size
	}
	if k >= n || s[k] != '"' {
		return "", "", "", false
	}

	m := k + 1
	for m < n && s[m] != '"' {
		m++
	}
	if m >= n {
		return "", "", "", false
	}
	q2 = s[k : m+1]
	tail = s[m+1:]
	return q1, q2, tail, true
}

// classifyLine builds the record for one raw input line. It never fails:
// anything that cannot be decomposed becomes kindPass.
func classifyLine(orig string, lineno int, opts Options) *lineRecord {
	line := rstripWS(detab(orig, opts.TabWidth))
	rec := &lineRecord{orig: orig, norm: line, lineno: lineno}

	if opts.AlignMode == AlignBlock && isBlockBoundary(line) {
		rec.kind = kindBoundary
		return rec
	}
	if strings.HasPrefix(strings.TrimLeftFunc(line, unicode.IsSpace), "//") {
		rec.kind = kindPass
		return rec
	}
	if strings.TrimSpace(line) == "" {
		rec.kind = kindBoundary
		return rec
	}

	codePart, commentPart := line, ""
	if pos := findCommentOutsideQuotes(line); pos >= 0 {
		codePart, commentPart = rstripWS(line[:pos]), line[pos:]
	}

	indent, key, rest, ok := splitIndentKeyRest(codePart)
	if !ok {
		rec.kind = kindPass
		return rec
	}

	rec.kind = kindCommand
	rec.indent = indent
	rec.key = key
	rec.keyLower = strings.ToLower(key)
	rec.rest = rest
	rec.comment = commentPart
	return rec
}
