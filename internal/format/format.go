package format

import "strings"

// Result captures one formatting run.
type Result struct {
	// Text is the formatted document, same line count and newline style
	// as the input.
	Text string
	// Changed reports whether Text differs from the input at all.
	Changed bool
	// SigFailLines lists 1-based line numbers where the signature guard
	// rejected the rendered line and the normalized original was emitted
	// instead. Non-empty means the file should be reported as failed.
	SigFailLines []int
	// Stats carries advisory counters.
	Stats Stats
}

// Format reformats whitespace in a cfg document. It is a pure function of
// (text, opts): no IO, no retained state, safe to call concurrently for
// distinct documents. The only returned error is an invalid AlignMode;
// everything else degrades per line via the signature guard.
func Format(text string, opts Options) (Result, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	newline := "\n"
	if strings.Contains(text, "\r\n") {
		newline = "\r\n"
	}
	keepFinalNewline := strings.HasSuffix(text, "\n")

	lines := splitLines(text)
	stats := Stats{TotalLines: len(lines)}

	recs := make([]*lineRecord, len(lines))
	for i, orig := range lines {
		recs[i] = classifyLine(orig, i+1, opts)
	}

	var outLines []string
	var fails []int

	emitBoundary := func(r *lineRecord) {
		if signature(r.orig) != signature(r.norm) {
			fails = append(fails, r.lineno)
		}
		outLines = append(outLines, r.norm)
	}

	flush := func(chunk []*lineRecord) {
		if len(chunk) == 0 {
			return
		}
		formatted, chunkFails, chunkStats := formatChunk(chunk, opts)
		outLines = append(outLines, formatted...)
		fails = append(fails, chunkFails...)
		stats.merge(chunkStats)
	}

	switch opts.AlignMode {
	case AlignGlobal:
		chunk := make([]*lineRecord, 0, len(recs))
		for _, r := range recs {
			if r.kind != kindBoundary {
				chunk = append(chunk, r)
			}
		}
		formatted, chunkFails, chunkStats := formatChunk(chunk, opts)
		fails = append(fails, chunkFails...)
		stats.merge(chunkStats)

		next := 0
		for _, r := range recs {
			if r.kind == kindBoundary {
				emitBoundary(r)
			} else {
				outLines = append(outLines, formatted[next])
				next++
			}
		}

	case AlignBlock:
		var pending []*lineRecord
		for _, r := range recs {
			if r.kind == kindBoundary {
				flush(pending)
				pending = pending[:0]
				emitBoundary(r)
				continue
			}
			pending = append(pending, r)
		}
		flush(pending)
	}

	outText := strings.Join(outLines, newline)
	if keepFinalNewline {
		outText += newline
	}

	return Result{
		Text:         outText,
		Changed:      outText != text,
		SigFailLines: fails,
		Stats:        stats,
	}, nil
}

// splitLines splits a document into lines the way the rest of the formatter
// expects: no terminators in the line values, and a trailing newline does
// not produce a phantom empty line. CRLF terminators leave a trailing \r on
// the raw line; normalization strips it.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
