package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cfgfmt/internal/driver"
	"cfgfmt/internal/format"
	"cfgfmt/internal/fsscan"
)

var formatCmd = &cobra.Command{
	Use:   "format [flags] [dir]",
	Short: "Align cfg files under a directory",
	Long: `format rewrites every .cfg file under the directory (default ".") with
aligned keys, quoted pairs, echo tables and trailing comments. Only
whitespace changes; a strict per-line check aborts any edit that would
alter the non-whitespace content.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFormat,
}

func init() {
	formatCmd.Flags().Bool("check", false, "report files that need formatting without writing")
	formatCmd.Flags().Bool("dry-run", false, "alias for --check")
	formatCmd.Flags().Bool("no-recursive", false, "only look at cfg files directly under the directory")
	formatCmd.Flags().Bool("fail-fast", false, "stop at the first file that fails")
	formatCmd.Flags().StringArray("exclude", nil, "extra glob patterns to skip (repeatable, comma-separated)")
	formatCmd.Flags().Bool("no-backup", false, "do not write .bak copies before rewriting")
	formatCmd.Flags().String("encoding", "utf-8", "file encoding (IANA name, e.g. utf-8, gbk)")
	formatCmd.Flags().String("align", string(format.DefaultAlignMode), "alignment scope (global|block)")
	formatCmd.Flags().Int("tab-width", format.DefaultTabWidth, "spaces per literal tab")
	formatCmd.Flags().Int("key-cap", format.DefaultKeyCap, "widest key the value column follows")
	formatCmd.Flags().Int("comment-cap", format.DefaultCommentCap, "widest code the comment column follows")
	formatCmd.Flags().Bool("no-echo-tables", false, "leave echo pipe tables untouched")
	formatCmd.Flags().Int("jobs", 0, "max files formatted in parallel (0 = all CPUs)")
	formatCmd.Flags().Bool("no-cache", false, "skip the clean-verdict cache")
	formatCmd.Flags().String("ui", "auto", "live progress screen (auto|on|off)")
	formatCmd.Flags().String("format", "text", "output format (text|json)")
	formatCmd.Flags().BoolP("verbose", "v", false, "also list files that were already clean")
}

func runFormat(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	flags := cmd.Flags()

	outputFormat, err := flags.GetString("format")
	if err != nil {
		return err
	}
	switch outputFormat {
	case "text", "json":
	default:
		return fatalf("format: unsupported output format %q", outputFormat)
	}

	uiFlag, err := flags.GetString("ui")
	if err != nil {
		return err
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return fatalf("format: %v", err)
	}

	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	verbose, _ := flags.GetBool("verbose")

	loaded, err := loadConfig(root)
	if err != nil {
		return fatalf("format: %v", err)
	}

	fmtOpts := format.DefaultOptions()
	applyConfig(&fmtOpts, loaded)

	// Явные флаги важнее cfgfmt.toml
	if flags.Changed("align") {
		v, _ := flags.GetString("align")
		fmtOpts.AlignMode = format.AlignMode(v)
	}
	if flags.Changed("tab-width") {
		fmtOpts.TabWidth, _ = flags.GetInt("tab-width")
	}
	if flags.Changed("key-cap") {
		fmtOpts.KeyCap, _ = flags.GetInt("key-cap")
	}
	if flags.Changed("comment-cap") {
		fmtOpts.CommentCap, _ = flags.GetInt("comment-cap")
	}
	if noEcho, _ := flags.GetBool("no-echo-tables"); noEcho {
		fmtOpts.EchoAlignTables = false
	}
	if err := fmtOpts.Validate(); err != nil {
		return fatalf("format: %v", err)
	}

	check, _ := flags.GetBool("check")
	dryRun, _ := flags.GetBool("dry-run")
	check = check || dryRun

	noRecursive, _ := flags.GetBool("no-recursive")
	failFast, _ := flags.GetBool("fail-fast")
	noBackup, _ := flags.GetBool("no-backup")
	noCache, _ := flags.GetBool("no-cache")
	jobs, _ := flags.GetInt("jobs")

	backup := true
	if loaded.IsSet("backup") {
		backup = loaded.Config.Format.Backup
	}
	if noBackup {
		backup = false
	}

	encoding, _ := flags.GetString("encoding")
	if !flags.Changed("encoding") && loaded.IsSet("encoding") {
		encoding = loaded.Config.Format.Encoding
	}

	excludeFlags, _ := flags.GetStringArray("exclude")
	excludes := make([]string, 0, len(fsscan.DefaultExcludes))
	excludes = append(excludes, fsscan.DefaultExcludes...)
	if loaded.IsSet("exclude") {
		excludes = append(excludes, loaded.Config.Format.Exclude...)
	}
	for _, raw := range excludeFlags {
		for _, pat := range strings.Split(raw, ",") {
			if pat = strings.TrimSpace(pat); pat != "" {
				excludes = append(excludes, pat)
			}
		}
	}

	driverOpts := driver.Options{
		Check:     check,
		FailFast:  failFast,
		Recursive: !noRecursive,
		Excludes:  excludes,
		Backup:    backup,
		Encoding:  encoding,
		Jobs:      jobs,
		NoCache:   noCache,
		Format:    fmtOpts,
	}

	var results []driver.FileResult
	var sum driver.Summary
	if outputFormat == "text" && !quiet && mode.enabled() {
		results, sum, err = runFormatWithUI(cmd.Context(), root, driverOpts)
	} else {
		results, sum, err = driver.FormatTree(cmd.Context(), root, driverOpts)
	}
	if err != nil {
		return fatalf("format: %v", err)
	}

	switch outputFormat {
	case "json":
		if err := renderFormatJSON(results, sum, check); err != nil {
			return err
		}
	default:
		renderFormatText(results, sum, check, quiet, verbose)
	}

	if sum.AnyFailed() {
		return exitCodeError{code: 2, msg: "format: some files failed"}
	}
	if check && sum.AnyChangeNeeded() {
		return exitCodeError{code: 1, msg: "format: formatting changes required"}
	}
	return nil
}

// fatalf wraps an invocation-level problem so main exits with code 2.
func fatalf(msg string, args ...any) error {
	text := fmt.Sprintf(msg, args...)
	fmt.Fprintln(os.Stderr, text)
	return exitCodeError{code: 2, msg: text}
}

var (
	statusOKColor      = color.New(color.FgGreen)
	statusChangedColor = color.New(color.FgYellow)
	statusFailedColor  = color.New(color.FgRed, color.Bold)
)

func renderFormatText(results []driver.FileResult, sum driver.Summary, check, quiet, verbose bool) {
	for _, res := range results {
		switch res.Status {
		case driver.StatusFailed:
			msg := res.Message
			if msg == "" && res.Err != nil {
				msg = res.Err.Error()
			}
			fmt.Fprintf(os.Stderr, "%s %s: %s\n", statusFailedColor.Sprint("failed"), res.Path, msg)
		case driver.StatusChanged:
			if !quiet {
				fmt.Fprintf(os.Stdout, "%s %s\n", statusChangedColor.Sprint("reformatted"), res.Path)
			}
		case driver.StatusWould:
			if !quiet {
				fmt.Fprintf(os.Stdout, "%s %s\n", statusChangedColor.Sprint("would reformat"), res.Path)
			}
		case driver.StatusOK:
			if verbose && !quiet {
				fmt.Fprintf(os.Stdout, "%s %s\n", statusOKColor.Sprint("ok"), res.Path)
			}
		}
	}
	if quiet {
		return
	}
	pendingLabel := "changed"
	pending := sum.Changed
	if check {
		pendingLabel = "pending"
		pending = sum.Would
	}
	fmt.Fprintf(os.Stdout, "summary: %s=%d ok=%d failed=%d\n", pendingLabel, pending, sum.OK, sum.Failed)
}

func renderFormatJSON(results []driver.FileResult, sum driver.Summary, check bool) error {
	type jsonResult struct {
		Path         string `json:"path"`
		Status       string `json:"status"`
		Message      string `json:"message,omitempty"`
		SigFailLines []int  `json:"sig_fail_lines,omitempty"`
	}
	type jsonSummary struct {
		OK      int `json:"ok"`
		Changed int `json:"changed"`
		Pending int `json:"pending"`
		Failed  int `json:"failed"`
	}
	type jsonPayload struct {
		CheckRun bool         `json:"check"`
		Files    []jsonResult `json:"files"`
		Summary  jsonSummary  `json:"summary"`
	}

	payload := jsonPayload{CheckRun: check, Summary: jsonSummary{
		OK:      sum.OK,
		Changed: sum.Changed,
		Pending: sum.Would,
		Failed:  sum.Failed,
	}}
	payload.Files = make([]jsonResult, 0, len(results))
	for _, res := range results {
		jr := jsonResult{
			Path:         res.Path,
			Status:       string(res.Status),
			Message:      res.Message,
			SigFailLines: res.SigFailLines,
		}
		if jr.Message == "" && res.Err != nil {
			jr.Message = res.Err.Error()
		}
		payload.Files = append(payload.Files, jr)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}
