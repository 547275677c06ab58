// Package driver orchestrates batch formatting: discovery, parallel
// per-file processing, the verdict cache, and write-back with backups.
// Files are independent, so the fan-out shares no mutable state beyond
// one result slot per file index.
package driver

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"cfgfmt/internal/fileio"
	"cfgfmt/internal/format"
	"cfgfmt/internal/fsscan"
)

// cacheApp names the XDG cache subdirectory.
const cacheApp = "cfgfmt"

// Options configures one batch run.
type Options struct {
	Check     bool
	FailFast  bool
	Recursive bool
	// Excludes is the full pattern list (defaults already merged in).
	Excludes []string
	Backup   bool
	Encoding string
	// Jobs limits formatting parallelism; <=0 means GOMAXPROCS.
	Jobs    int
	NoCache bool
	// CacheDir overrides the XDG cache location (tests).
	CacheDir string
	Format   format.Options
	Progress ProgressSink
}

// FileResult captures the verdict for a single file.
type FileResult struct {
	Path         string
	Status       Status
	Message      string
	SigFailLines []int
	Err          error
}

// Summary aggregates per-file verdicts.
type Summary struct {
	OK      int
	Changed int
	Would   int
	Failed  int
}

// AnyFailed reports whether any file failed.
func (s Summary) AnyFailed() bool { return s.Failed > 0 }

// AnyChangeNeeded reports whether any file was (or would be) rewritten.
func (s Summary) AnyChangeNeeded() bool { return s.Changed > 0 || s.Would > 0 }

// FormatTree formats every cfg file under root according to opts. The
// returned error is reserved for invocation-level problems (bad root,
// invalid configuration, fail-fast abort); per-file problems land in the
// results as StatusFailed.
func FormatTree(ctx context.Context, root string, opts Options) ([]FileResult, Summary, error) {
	if err := opts.Format.Validate(); err != nil {
		return nil, Summary{}, err
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("%s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, Summary{}, fmt.Errorf("%s: not a directory", root)
	}

	files, err := fsscan.Collect(root, fsscan.Options{
		Recursive: opts.Recursive,
		Excludes:  opts.Excludes,
	})
	if err != nil {
		return nil, Summary{}, err
	}
	if len(files) == 0 {
		return nil, Summary{}, nil
	}

	cache := openCache(opts)

	emit := func(evt Event) {
		if opts.Progress != nil {
			opts.Progress.OnEvent(evt)
		}
	}
	for _, path := range files {
		emit(Event{Path: path, Status: StatusQueued})
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Результаты (индексы уникальны для каждой горутины, мьютекс не нужен)
	results := make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			emit(Event{Path: path, Status: StatusFormatting})
			res := processFile(path, opts, cache)
			results[i] = res
			emit(Event{Path: path, Status: res.Status, Err: res.Err})

			if opts.FailFast && res.Status == StatusFailed {
				if res.Err != nil {
					return fmt.Errorf("%s: %w", path, res.Err)
				}
				return fmt.Errorf("%s: %s", path, res.Message)
			}
			return nil
		})
	}

	waitErr := g.Wait()

	// Drop slots that were cancelled before processing.
	out := results[:0]
	for _, r := range results {
		if r.Status != "" {
			out = append(out, r)
		}
	}

	var sum Summary
	for _, r := range out {
		switch r.Status {
		case StatusOK:
			sum.OK++
		case StatusChanged:
			sum.Changed++
		case StatusWould:
			sum.Would++
		case StatusFailed:
			sum.Failed++
		}
	}
	return out, sum, waitErr
}

func openCache(opts Options) *VerdictCache {
	if opts.NoCache {
		return nil
	}
	var cache *VerdictCache
	var err error
	if opts.CacheDir != "" {
		cache, err = OpenVerdictCacheAt(opts.CacheDir)
	} else {
		cache, err = OpenVerdictCache(cacheApp)
	}
	if err != nil {
		// Cache is an optimization; a broken cache dir never blocks a run.
		return nil
	}
	return cache
}

func processFile(path string, opts Options, cache *VerdictCache) FileResult {
	res := FileResult{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		res.Message = err.Error()
		return res
	}

	fingerprint := opts.Format.Fingerprint()
	key := VerdictKey(fingerprint, data)
	var cached VerdictPayload
	if ok, _ := cache.Get(key, &cached); ok && cached.Clean {
		res.Status = StatusOK
		return res
	}

	text, err := fileio.Decode(data, opts.Encoding)
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		res.Message = err.Error()
		return res
	}

	fr, err := format.Format(text, opts.Format)
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		res.Message = err.Error()
		return res
	}

	if len(fr.SigFailLines) > 0 {
		res.Status = StatusFailed
		res.SigFailLines = fr.SigFailLines
		res.Message = sigFailMessage(fr.SigFailLines)
		return res
	}

	if !fr.Changed {
		res.Status = StatusOK
		_ = cache.Put(key, cleanPayload(fr.Stats.TotalLines))
		return res
	}

	if opts.Check {
		res.Status = StatusWould
		return res
	}

	if opts.Backup {
		if _, err := fileio.Backup(path); err != nil {
			res.Status = StatusFailed
			res.Err = err
			res.Message = err.Error()
			return res
		}
	}

	out, err := fileio.Encode(fr.Text, opts.Encoding)
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		res.Message = err.Error()
		return res
	}
	if err := fileio.AtomicWrite(path, out); err != nil {
		res.Status = StatusFailed
		res.Err = err
		res.Message = err.Error()
		return res
	}

	res.Status = StatusChanged
	// The rewritten content is clean under the same options.
	_ = cache.Put(VerdictKey(fingerprint, out), cleanPayload(fr.Stats.TotalLines))
	return res
}

// sigFailMessage lists the first few failing line numbers.
func sigFailMessage(lines []int) string {
	const show = 10
	shown := lines
	if len(shown) > show {
		shown = shown[:show]
	}
	parts := make([]string, len(shown))
	for i, n := range shown {
		parts[i] = strconv.Itoa(n)
	}
	msg := "strict signature check failed, lines: " + strings.Join(parts, ",")
	if len(lines) > show {
		msg += fmt.Sprintf(" (+%d)", len(lines)-show)
	}
	return msg
}
