package format

import (
	"fmt"
	"sort"
)

// AlignMode selects the scope of one alignment computation.
type AlignMode string

const (
	// AlignGlobal aligns every command line of the document against one
	// shared set of columns.
	AlignGlobal AlignMode = "global"
	// AlignBlock recomputes columns per block, where blocks are separated
	// by blank lines, bare "echo;" lines and decorative comment banners.
	AlignBlock AlignMode = "block"
)

// Defaults mirrored by the CLI flag defaults.
const (
	DefaultAlignMode  = AlignGlobal
	DefaultTabWidth   = 4
	DefaultKeyCap     = 40
	DefaultCommentCap = 90
)

// defaultSpecialAlignKeys lists the (lowercase) command keys whose value is a
// pair of quoted strings that should share a second-quote column.
var defaultSpecialAlignKeys = []string{"bind", "alias"}

// Options configures one formatting run. The zero value is not useful;
// start from DefaultOptions.
type Options struct {
	AlignMode  AlignMode
	TabWidth   int
	KeyCap     int
	CommentCap int
	// SpecialAlignKeys holds lowercase key names with dual-quote alignment.
	// Nil means the default set {bind, alias}.
	SpecialAlignKeys map[string]struct{}
	EchoAlignTables  bool
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	return Options{
		AlignMode:        DefaultAlignMode,
		TabWidth:         DefaultTabWidth,
		KeyCap:           DefaultKeyCap,
		CommentCap:       DefaultCommentCap,
		SpecialAlignKeys: SpecialAlignKeySet(),
		EchoAlignTables:  true,
	}
}

// SpecialAlignKeySet returns a fresh copy of the default special key set, so
// callers can extend it without touching package state.
func SpecialAlignKeySet() map[string]struct{} {
	set := make(map[string]struct{}, len(defaultSpecialAlignKeys))
	for _, k := range defaultSpecialAlignKeys {
		set[k] = struct{}{}
	}
	return set
}

func (o Options) withDefaults() Options {
	if o.SpecialAlignKeys == nil {
		o.SpecialAlignKeys = SpecialAlignKeySet()
	}
	if o.TabWidth < 0 {
		o.TabWidth = 0
	}
	return o
}

// Validate rejects configurations the engine cannot honor. An invalid
// align mode is fatal for the whole invocation, not a per-line condition.
func (o Options) Validate() error {
	switch o.AlignMode {
	case AlignGlobal, AlignBlock:
		return nil
	default:
		return fmt.Errorf("format: unknown align mode %q (expected %q or %q)", o.AlignMode, AlignGlobal, AlignBlock)
	}
}

// Fingerprint returns a stable textual digest of every option that affects
// output, suitable as a cache key component.
func (o Options) Fingerprint() string {
	o = o.withDefaults()
	keys := make([]string, 0, len(o.SpecialAlignKeys))
	for k := range o.SpecialAlignKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("mode=%s;tab=%d;key=%d;comment=%d;special=%v;echo=%t",
		o.AlignMode, o.TabWidth, o.KeyCap, o.CommentCap, keys, o.EchoAlignTables)
}
