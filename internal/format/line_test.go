package format

import "testing"

func TestFindCommentOutsideQuotes(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{`cl_hud 1 // hud`, 9},
		{`say "no // here"`, -1},
		{`say "a // b" // real`, 13},
		{`// leading`, 0},
		{`cl_hud 1`, -1},
		{`say "unterminated // x`, -1},
	}
	for _, tc := range cases {
		if got := findCommentOutsideQuotes(tc.in); got != tc.want {
			t.Errorf("findCommentOutsideQuotes(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestSplitIndentKeyRest(t *testing.T) {
	cases := []struct {
		in                string
		indent, key, rest string
		ok                bool
	}{
		{`bind "w" "+forward"`, "", "bind", `"w" "+forward"`, true},
		{`  sensitivity   2.5`, "  ", "sensitivity", "2.5", true},
		{`echo    banner text`, "", "echo", `    banner text`, true},
		{`ECHO   art`, "", "ECHO", `   art`, true},
		{`cl_hud`, "", "cl_hud", "", true},
		{`   `, "", "", "", false},
		{``, "", "", "", false},
	}
	for _, tc := range cases {
		indent, key, rest, ok := splitIndentKeyRest(tc.in)
		if ok != tc.ok || indent != tc.indent || key != tc.key || rest != tc.rest {
			t.Errorf("splitIndentKeyRest(%q) = (%q,%q,%q,%v), want (%q,%q,%q,%v)",
				tc.in, indent, key, rest, ok, tc.indent, tc.key, tc.rest, tc.ok)
		}
	}
}

func TestSplitIndentKeyRestReconstructs(t *testing.T) {
	// indent+key+rest must reconstruct the code part for echo lines, whose
	// inner spacing is load-bearing.
	in := `  echo      /\_/\`
	indent, key, rest, ok := splitIndentKeyRest(in)
	if !ok {
		t.Fatalf("split failed")
	}
	if indent+key+rest != in {
		t.Fatalf("reconstruction lost data: %q", indent+key+rest)
	}
}

func TestSplitTwoQuoted(t *testing.T) {
	q1, q2, tail, ok := splitTwoQuoted(`"w" "+forward"`)
	if !ok || q1 != `"w"` || q2 != `"+forward"` || tail != "" {
		t.Fatalf("got (%q,%q,%q,%v)", q1, q2, tail, ok)
	}

	q1, q2, tail, ok = splitTwoQuoted(`  "a"   "b" trailing`)
	if !ok || q1 != `"a"` || q2 != `"b"` || tail != " trailing" {
		t.Fatalf("got (%q,%q,%q,%v)", q1, q2, tail, ok)
	}

	for _, bad := range []string{``, `"only"`, `"a" b`, `x "a" "b"`, `"unclosed`, `"a" "unclosed`} {
		if _, _, _, ok := splitTwoQuoted(bad); ok {
			t.Errorf("splitTwoQuoted(%q) unexpectedly succeeded", bad)
		}
	}
}

func TestSignature(t *testing.T) {
	if signature("bind \"w\"\t \"+forward\"  ") != `bind"w""+forward"` {
		t.Fatalf("signature mismatch: %q", signature("bind \"w\"\t \"+forward\"  "))
	}
	if signature("abc") != "abc" {
		t.Fatalf("signature of clean string changed")
	}
}

func TestDetabAndRstrip(t *testing.T) {
	if got := detab("a\tb", 4); got != "a    b" {
		t.Fatalf("detab = %q", got)
	}
	if got := detab("a\tb", 0); got != "ab" {
		t.Fatalf("detab width 0 = %q", got)
	}
	if got := rstripWS("ab \t\r\f\v"); got != "ab" {
		t.Fatalf("rstripWS = %q", got)
	}
}

func TestClassifyLine(t *testing.T) {
	opts := DefaultOptions().withDefaults()

	rec := classifyLine(`bind "w" "+forward" // move`, 1, opts)
	if rec.kind != kindCommand {
		t.Fatalf("kind = %v, want command", rec.kind)
	}
	if rec.key != "bind" || rec.keyLower != "bind" {
		t.Fatalf("key = %q", rec.key)
	}
	if rec.rest != `"w" "+forward"` || rec.comment != "// move" {
		t.Fatalf("rest/comment = %q / %q", rec.rest, rec.comment)
	}

	if rec := classifyLine("// just a note", 2, opts); rec.kind != kindPass {
		t.Fatalf("comment line kind = %v, want pass", rec.kind)
	}
	if rec := classifyLine("   ", 3, opts); rec.kind != kindBoundary {
		t.Fatalf("blank line kind = %v, want boundary", rec.kind)
	}

	// Banners are boundaries only in block mode.
	banner := "//+=============="
	if rec := classifyLine(banner, 4, opts); rec.kind != kindPass {
		t.Fatalf("banner in global mode = %v, want pass", rec.kind)
	}
	blockOpts := opts
	blockOpts.AlignMode = AlignBlock
	if rec := classifyLine(banner, 5, blockOpts); rec.kind != kindBoundary {
		t.Fatalf("banner in block mode = %v, want boundary", rec.kind)
	}
}
