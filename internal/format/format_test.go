package format

import (
	"strings"
	"testing"
)

func mustFormat(t *testing.T, text string, opts Options) Result {
	t.Helper()
	res, err := Format(text, opts)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	return res
}

func TestFormatSingleBindUnchanged(t *testing.T) {
	raw := "bind \"w\" \"+forward\"\n"
	res := mustFormat(t, raw, DefaultOptions())

	if res.Text != raw {
		t.Fatalf("expected identical output, got %q", res.Text)
	}
	if res.Changed {
		t.Fatalf("Changed = true for already formatted input")
	}
	if len(res.SigFailLines) != 0 {
		t.Fatalf("unexpected signature failures: %v", res.SigFailLines)
	}
}

func TestFormatAlignsSecondQuoteColumn(t *testing.T) {
	raw := "bind \"w\" \"+forward\"\n" +
		"bind \"mouse1\" \"+attack\"\n"
	res := mustFormat(t, raw, DefaultOptions())

	want := "bind \"w\"      \"+forward\"\n" +
		"bind \"mouse1\" \"+attack\"\n"
	if res.Text != want {
		t.Fatalf("aligned output mismatch:\nwant %q\ngot  %q", want, res.Text)
	}
	if !res.Changed {
		t.Fatalf("Changed = false despite realignment")
	}

	lines := strings.Split(strings.TrimSuffix(res.Text, "\n"), "\n")
	first := strings.Index(lines[0], "\"+")
	second := strings.Index(lines[1], "\"+")
	if first != second {
		t.Fatalf("second-quote columns differ: %d vs %d", first, second)
	}
	if res.Stats.SpecialTwoQuoteAligned != 2 {
		t.Fatalf("SpecialTwoQuoteAligned = %d, want 2", res.Stats.SpecialTwoQuoteAligned)
	}
}

func TestFormatValueColumnAcrossKeys(t *testing.T) {
	raw := "sensitivity 2.5\ncl_hud 1\n"
	res := mustFormat(t, raw, DefaultOptions())

	want := "sensitivity 2.5\ncl_hud      1\n"
	if res.Text != want {
		t.Fatalf("value alignment mismatch:\nwant %q\ngot  %q", want, res.Text)
	}
}

func TestFormatEchoTableSingleRow(t *testing.T) {
	raw := "echo a|bb|ccc\n"
	res := mustFormat(t, raw, DefaultOptions())

	want := "echo a | bb | ccc\n"
	if res.Text != want {
		t.Fatalf("echo table mismatch:\nwant %q\ngot  %q", want, res.Text)
	}
	if res.Stats.EchoTableAligned != 1 {
		t.Fatalf("EchoTableAligned = %d, want 1", res.Stats.EchoTableAligned)
	}
}

func TestFormatEchoTableDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.EchoAlignTables = false

	raw := "echo a|bb|ccc\n"
	res := mustFormat(t, raw, opts)
	if res.Text != raw {
		t.Fatalf("echo line modified with tables disabled: %q", res.Text)
	}
}

func TestFormatEchoArtPreserved(t *testing.T) {
	// Pure pipe art and tilde banners must never be re-laid-out.
	inputs := []string{
		"echo      /\\_/\\\n",
		"echo |_|_|_|\n",
		"echo ~~~|~~~|~~~\n",
	}
	for _, raw := range inputs {
		res := mustFormat(t, raw, DefaultOptions())
		if res.Text != raw {
			t.Errorf("art line rewritten:\nin  %q\nout %q", raw, res.Text)
		}
	}
}

func TestFormatBlockModeIndependentColumns(t *testing.T) {
	raw := "sensitivity 2.5\ncl_hud 1\n\nvolume 0.4\n"

	global := mustFormat(t, raw, DefaultOptions())
	blockOpts := DefaultOptions()
	blockOpts.AlignMode = AlignBlock
	block := mustFormat(t, raw, blockOpts)

	if global.Text == block.Text {
		t.Fatalf("expected block and global alignment to differ for %q", raw)
	}
	// volume sits alone in its block: no padding beyond a single space.
	if !strings.Contains(block.Text, "\nvolume 0.4\n") {
		t.Fatalf("block mode padded an isolated line: %q", block.Text)
	}
	// Globally the volume value aligns to the sensitivity column.
	if !strings.Contains(global.Text, "\nvolume      0.4\n") {
		t.Fatalf("global mode did not align across the blank line: %q", global.Text)
	}
}

func TestFormatBannerSplitsBlocks(t *testing.T) {
	raw := "cl_hud 1\n//+================\nsensitivity 2.5\n"
	opts := DefaultOptions()
	opts.AlignMode = AlignBlock

	res := mustFormat(t, raw, opts)
	// Each side of the banner aligns on its own, so no padding appears.
	if res.Text != raw {
		t.Fatalf("banner-separated blocks modified:\nwant %q\ngot  %q", raw, res.Text)
	}
}

func TestFormatEchoSemicolonBoundary(t *testing.T) {
	raw := "cl_hud 1\necho;\nsensitivity 2.5\n"

	opts := DefaultOptions()
	opts.AlignMode = AlignBlock
	block := mustFormat(t, raw, opts)
	if block.Text != raw {
		t.Fatalf("echo; did not act as a boundary in block mode: %q", block.Text)
	}

	global := mustFormat(t, raw, DefaultOptions())
	if !strings.Contains(global.Text, "cl_hud      1\n") {
		t.Fatalf("global mode should align across echo;: %q", global.Text)
	}
	// echo; itself is a command with empty rest: emitted as indent+key.
	if !strings.Contains(global.Text, "\necho;\n") {
		t.Fatalf("echo; line corrupted: %q", global.Text)
	}
}

func TestFormatCommentColumn(t *testing.T) {
	raw := "cl_hud 1 // hud\nsensitivity 2.5 // sens\n"
	res := mustFormat(t, raw, DefaultOptions())

	want := "cl_hud      1   // hud\nsensitivity 2.5 // sens\n"
	if res.Text != want {
		t.Fatalf("comment alignment mismatch:\nwant %q\ngot  %q", want, res.Text)
	}
	if res.Stats.CommentAligned != 2 {
		t.Fatalf("CommentAligned = %d, want 2", res.Stats.CommentAligned)
	}
}

func TestFormatCommentCapDegradesToSingleSpace(t *testing.T) {
	opts := DefaultOptions()
	opts.CommentCap = 10

	raw := "cl_hud 1 // hud\nsensitivity 2.5 // sens\n"
	res := mustFormat(t, raw, opts)

	// Code exceeding the cap keeps one space before the comment, never
	// truncation.
	want := "cl_hud      1 // hud\nsensitivity 2.5 // sens\n"
	if res.Text != want {
		t.Fatalf("capped comment mismatch:\nwant %q\ngot  %q", want, res.Text)
	}
}

func TestFormatKeyCapRespected(t *testing.T) {
	opts := DefaultOptions()
	opts.KeyCap = 8

	raw := "verylongcommandname 1\nab 2\n"
	res := mustFormat(t, raw, opts)

	want := "verylongcommandname 1\nab       2\n"
	if res.Text != want {
		t.Fatalf("key cap mismatch:\nwant %q\ngot  %q", want, res.Text)
	}
}

func TestFormatNormalizesTabsAndTrailingWhitespace(t *testing.T) {
	raw := "cl_hud\t1  \n"
	res := mustFormat(t, raw, DefaultOptions())

	want := "cl_hud 1\n"
	if res.Text != want {
		t.Fatalf("normalization mismatch:\nwant %q\ngot  %q", want, res.Text)
	}
	if !res.Changed {
		t.Fatalf("Changed = false for whitespace-only diff")
	}
}

func TestFormatPreservesCRLF(t *testing.T) {
	raw := "bind \"w\" \"+forward\"\r\nbind \"mouse1\" \"+attack\"\r\n"
	res := mustFormat(t, raw, DefaultOptions())

	if !strings.HasSuffix(res.Text, "\r\n") {
		t.Fatalf("final CRLF lost: %q", res.Text)
	}
	if strings.Contains(strings.ReplaceAll(res.Text, "\r\n", ""), "\n") {
		t.Fatalf("mixed newline styles in output: %q", res.Text)
	}
}

func TestFormatPreservesMissingFinalNewline(t *testing.T) {
	raw := "cl_hud 1"
	res := mustFormat(t, raw, DefaultOptions())
	if strings.HasSuffix(res.Text, "\n") {
		t.Fatalf("trailing newline invented: %q", res.Text)
	}
}

func TestFormatEmptyDocument(t *testing.T) {
	res := mustFormat(t, "", DefaultOptions())
	if res.Text != "" || res.Changed {
		t.Fatalf("empty input mishandled: %+v", res)
	}
}

func TestFormatUnknownAlignModeIsFatal(t *testing.T) {
	opts := DefaultOptions()
	opts.AlignMode = "diagonal"
	if _, err := Format("cl_hud 1\n", opts); err == nil {
		t.Fatalf("expected error for unknown align mode")
	}
}

func TestFormatIdempotent(t *testing.T) {
	raw := "// autoexec\n" +
		"bind \"w\" \"+forward\"\n" +
		"bind \"mouse1\" \"+attack\" // fire\n" +
		"sensitivity\t2.5\n" +
		"\n" +
		"echo 菜单|选项|说明\n" +
		"echo a|bb|ccc\n" +
		"alias \"+dj\" \"+jump;+duck\"\n"

	for _, mode := range []AlignMode{AlignGlobal, AlignBlock} {
		opts := DefaultOptions()
		opts.AlignMode = mode

		first := mustFormat(t, raw, opts)
		if len(first.SigFailLines) != 0 {
			t.Fatalf("mode %s: unexpected failures: %v", mode, first.SigFailLines)
		}
		second := mustFormat(t, first.Text, opts)
		if second.Changed {
			t.Fatalf("mode %s: not idempotent:\nfirst  %q\nsecond %q", mode, first.Text, second.Text)
		}
		if len(second.SigFailLines) != 0 {
			t.Fatalf("mode %s: second pass failures: %v", mode, second.SigFailLines)
		}
	}
}

func TestFormatSignatureInvariance(t *testing.T) {
	samples := []string{
		"bind \"w\" \"+forward\"\nbind \"mouse1\" \"+attack\"\n",
		"// banner\n//+==========\ncl_hud\t1\n\necho a|bb|ccc\n",
		"echo      /\\_/\\\nalias \"+dj\" \"+jump;+duck\" // tap\n",
		"say \"keep // this\" // real comment\n",
		"exec autoexec\r\nhost_writeconfig\r\n",
	}
	modes := []AlignMode{AlignGlobal, AlignBlock}

	for _, raw := range samples {
		for _, mode := range modes {
			opts := DefaultOptions()
			opts.AlignMode = mode
			res := mustFormat(t, raw, opts)

			inLines := splitLines(raw)
			outLines := splitLines(res.Text)
			if len(inLines) != len(outLines) {
				t.Fatalf("mode %s: line count changed for %q", mode, raw)
			}
			failed := make(map[int]bool, len(res.SigFailLines))
			for _, n := range res.SigFailLines {
				failed[n] = true
			}
			for i := range inLines {
				if failed[i+1] {
					continue
				}
				if signature(inLines[i]) != signature(outLines[i]) {
					t.Fatalf("mode %s: signature broken at line %d:\nin  %q\nout %q",
						mode, i+1, inLines[i], outLines[i])
				}
			}
		}
	}
}

func TestFormatCommentInsideQuotesNotSplit(t *testing.T) {
	raw := "say \"visit // not a comment\"\n"
	res := mustFormat(t, raw, DefaultOptions())
	if res.Text != raw {
		t.Fatalf("quoted // treated as comment:\nwant %q\ngot  %q", raw, res.Text)
	}
}

func TestChunkSignatureGuardFallsBack(t *testing.T) {
	// A tampered record simulates a rendering that corrupts content: the
	// guard must emit the normalized original and report the line.
	rec := &lineRecord{
		kind:     kindCommand,
		orig:     "say hello",
		norm:     "say hello",
		lineno:   7,
		key:      "say",
		keyLower: "say",
		rest:     "hullo",
	}
	out, fails, _ := formatChunk([]*lineRecord{rec}, DefaultOptions().withDefaults())

	if len(fails) != 1 || fails[0] != 7 {
		t.Fatalf("fails = %v, want [7]", fails)
	}
	if len(out) != 1 || out[0] != "say hello" {
		t.Fatalf("fallback line = %q, want normalized original", out)
	}
}
