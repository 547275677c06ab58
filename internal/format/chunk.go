package format

import (
	"strings"
	"unicode"
)

// Stats counts what the formatter did. It is advisory only; correctness is
// carried by the signature guard. Counters are merged up the call chain
// rather than mutated through shared state.
type Stats struct {
	TotalLines             int
	CmdNoRest              int
	CmdValueAligned        int
	SpecialTwoQuoteAligned int
	EchoTableAligned       int
	CommentAligned         int
}

func (s *Stats) merge(o Stats) {
	s.TotalLines += o.TotalLines
	s.CmdNoRest += o.CmdNoRest
	s.CmdValueAligned += o.CmdValueAligned
	s.SpecialTwoQuoteAligned += o.SpecialTwoQuoteAligned
	s.EchoTableAligned += o.EchoTableAligned
	s.CommentAligned += o.CommentAligned
}

// echoRow caches the tokenized form of an echo table candidate.
type echoRow struct {
	fields []string
	lead   bool // body starts with '|': framed, manual layout
	trail  bool // body ends with '|'
}

// isEchoTableCandidate decides whether an echo line takes part in table
// alignment. The conditions are tuned against real configs and are part of
// the behavioral contract: rows of pure pipe art stay untouched.
func isEchoTableCandidate(r *lineRecord, echoTables bool) bool {
	if !echoTables {
		return false
	}
	if r.kind != kindCommand || r.comment != "" || r.keyLower != "echo" {
		return false
	}

	body := strings.TrimSpace(r.rest)
	if !strings.Contains(body, "|") {
		return false
	}
	if strings.HasPrefix(body, "~~~") {
		return false
	}
	if strings.Contains(body, "【") && strings.Contains(body, "】") &&
		(strings.Contains(body, "*") || strings.Contains(body, "~")) {
		return false
	}

	pipeCnt := strings.Count(body, "|")
	cjk := containsCJK(body)
	alnum := containsASCIIAlnum(body)
	art := containsArtChunk(body)
	if !cjk && !alnum && pipeCnt <= 3 {
		return false
	}
	if !cjk && art && pipeCnt <= 2 {
		return false
	}
	return true
}

func containsCJK(s string) bool {
	for _, r := range s {
		if r >= 0x4E00 && r <= 0x9FFF {
			return true
		}
	}
	return false
}

func containsASCIIAlnum(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			return true
		}
	}
	return false
}

// containsArtChunk detects runs of two or more _ / \ characters, typical of
// ASCII drawings rather than table cells.
func containsArtChunk(s string) bool {
	run := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '_', '/', '\\':
			run++
			if run >= 2 {
				return true
			}
		default:
			run = 0
		}
	}
	return false
}

func splitEchoRow(rest string) echoRow {
	body := strings.TrimSpace(rest)
	lead := strings.HasPrefix(body, "|")
	trail := strings.HasSuffix(body, "|")
	core := body
	if lead || trail {
		core = strings.Trim(body, "|")
	}
	parts := strings.Split(core, "|")
	fields := make([]string, len(parts))
	for i, f := range parts {
		fields[i] = strings.TrimSpace(f)
	}
	return echoRow{fields: fields, lead: lead, trail: trail}
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}

// formatChunk aligns one chunk of command/pass records (no boundaries).
// Every emitted line goes through the signature guard; a mismatch falls
// back to the normalized original and records the line number.
func formatChunk(recs []*lineRecord, opts Options) (out []string, fails []int, stats Stats) {
	// Key column: indent+key width over command records that carry a value.
	maxKey := 0
	haveKey := false
	for _, r := range recs {
		if r.kind != kindCommand || r.rest == "" {
			continue
		}
		if w := runeLen(r.indent) + runeLen(r.key); !haveKey || w > maxKey {
			maxKey = w
			haveKey = true
		}
	}
	if !haveKey {
		maxKey = 0
	} else if maxKey > opts.KeyCap {
		maxKey = opts.KeyCap
	}
	valueCol := maxKey + 1

	// Dual-quote column for bind/alias style keys.
	maxQ1 := 0
	for _, r := range recs {
		if r.kind != kindCommand || r.rest == "" {
			continue
		}
		if _, special := opts.SpecialAlignKeys[r.keyLower]; !special {
			continue
		}
		if q1, _, _, ok := splitTwoQuoted(r.rest); ok {
			if l := runeLen(q1); l > maxQ1 {
				maxQ1 = l
			}
		}
	}
	secondCol := valueCol + maxQ1 + 1

	// Echo table columns: visual width per field, unframed rows only.
	echoRows := make(map[int]echoRow)
	var echoColWidths []int
	for i, r := range recs {
		if !isEchoTableCandidate(r, opts.EchoAlignTables) {
			continue
		}
		row := splitEchoRow(r.rest)
		echoRows[i] = row
		if row.lead || row.trail {
			continue
		}
		for c, f := range row.fields {
			if c >= len(echoColWidths) {
				echoColWidths = append(echoColWidths, make([]int, c-len(echoColWidths)+1)...)
			}
			if w := VisWidth(f); w > echoColWidths[c] {
				echoColWidths[c] = w
			}
		}
	}

	// First pass: render the code part of every command line; collect the
	// rendered lengths of lines that carry a trailing comment.
	codeFmts := make([]string, len(recs))
	isCmd := make([]bool, len(recs))
	var commentLens []int
	for i, r := range recs {
		if r.kind != kindCommand {
			continue
		}
		isCmd[i] = true

		if r.keyLower == "echo" {
			row, candidate := echoRows[i]
			if candidate && len(echoColWidths) > 0 {
				var bodyFmt string
				if row.lead || row.trail {
					// Framed rows keep manual layout: join without padding.
					bodyFmt = strings.TrimSpace(strings.Join(row.fields, " | "))
					if row.lead {
						bodyFmt = "| " + bodyFmt
					}
					if row.trail {
						bodyFmt += " |"
					}
				} else {
					padded := make([]string, len(row.fields))
					for c, f := range row.fields {
						w := VisWidth(f)
						if c < len(echoColWidths) {
							w = echoColWidths[c]
						}
						padded[c] = f + spaces(w-VisWidth(f))
					}
					bodyFmt = strings.TrimRightFunc(strings.Join(padded, " | "), unicode.IsSpace)
				}
				codeFmts[i] = r.indent + r.key + " " + bodyFmt
				stats.EchoTableAligned++
			} else if r.rest == "" {
				codeFmts[i] = r.indent + r.key
			} else {
				codeFmts[i] = r.indent + r.key + r.rest
			}
			if r.comment != "" {
				commentLens = append(commentLens, runeLen(codeFmts[i]))
			}
			continue
		}

		if r.rest == "" {
			codeFmts[i] = r.indent + r.key
			stats.CmdNoRest++
		} else {
			leftLen := runeLen(r.indent) + runeLen(r.key)
			pad1 := max(1, valueCol-leftLen)

			var q1, q2, tail string
			twoq := false
			if _, special := opts.SpecialAlignKeys[r.keyLower]; special {
				q1, q2, tail, twoq = splitTwoQuoted(r.rest)
			}
			if twoq {
				afterQ1 := leftLen + pad1 + runeLen(q1)
				pad2 := max(1, secondCol-afterQ1)
				codeFmts[i] = r.indent + r.key + spaces(pad1) + q1 + spaces(pad2) + q2 + tail
				stats.SpecialTwoQuoteAligned++
			} else {
				codeFmts[i] = r.indent + r.key + spaces(pad1) + r.rest
				stats.CmdValueAligned++
			}
		}
		if r.comment != "" {
			commentLens = append(commentLens, runeLen(codeFmts[i]))
		}
	}

	// Comment column: deepest rendered code among commented lines, capped.
	commentTarget := -1
	for _, l := range commentLens {
		if l > commentTarget {
			commentTarget = l
		}
	}
	if commentTarget >= 0 && commentTarget > opts.CommentCap {
		commentTarget = opts.CommentCap
	}

	// Second pass: attach comments, normalize, verify signatures.
	out = make([]string, 0, len(recs))
	for i, r := range recs {
		if !isCmd[i] {
			// Pass-through lines still run the guard; the fallback is the
			// normalized original either way.
			if signature(r.orig) != signature(r.norm) {
				fails = append(fails, r.lineno)
			}
			out = append(out, r.norm)
			continue
		}

		newLine := codeFmts[i]
		if r.comment != "" {
			if l := runeLen(newLine); commentTarget >= 0 && l <= commentTarget {
				newLine += spaces(max(1, commentTarget+1-l)) + r.comment
				stats.CommentAligned++
			} else {
				newLine += " " + r.comment
			}
		}

		newLine = rstripWS(detab(newLine, opts.TabWidth))
		if signature(r.orig) != signature(newLine) {
			fails = append(fails, r.lineno)
			newLine = r.norm
		}
		out = append(out, newLine)
	}

	return out, fails, stats
}
