package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"smartcast/internal/checks"
	"smartcast/internal/diagfmt"
	"smartcast/internal/driver"
	"smartcast/internal/fix"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [unit|directory]",
	Short: "Run the nullability and marker checks on unit descriptions",
	Long: `Load every unit description, run the registered checkers and resolve all
smart casts. Without an argument the units directory of the enclosing
smartcast.toml project is checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|short|json)")
	checkCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	checkCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	checkCmd.Flags().StringSlice("only", nil, "run only the named checkers ("+strings.Join(checks.Names(), ", ")+")")
	checkCmd.Flags().StringSlice("marker", nil, "marker annotations (overrides [markers].annotations)")
	checkCmd.Flags().StringSlice("required", nil, "supertypes a marked class must have")
	checkCmd.Flags().StringSlice("deprecated", nil, "supertypes reported as deprecated")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	checkCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	checkCmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
	checkCmd.Flags().Bool("fix", false, "apply suggested fixes to the source files")
	checkCmd.Flags().Bool("dry-run", false, "with --fix, report the fixes without writing files")
}

type checkJSON struct {
	Units   []diagfmt.DiagnosticsOutput `json:"units"`
	Summary driver.Summary              `json:"summary"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	defer dumpTraceOnPanic(ctx)

	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := diagfmt.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	only, err := cmd.Flags().GetStringSlice("only")
	if err != nil {
		return fmt.Errorf("failed to get only flag: %w", err)
	}
	for _, name := range only {
		if !slices.Contains(checks.Names(), name) {
			return fmt.Errorf("unknown checker %q (known: %s)", name, strings.Join(checks.Names(), ", "))
		}
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	suggest, err := cmd.Flags().GetBool("suggest")
	if err != nil {
		return fmt.Errorf("failed to get suggest flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	warningsAsErrors, err := cmd.Flags().GetBool("warnings-as-errors")
	if err != nil {
		return fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	applyFixes, err := cmd.Flags().GetBool("fix")
	if err != nil {
		return fmt.Errorf("failed to get fix flag: %w", err)
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	target := ""
	if len(args) == 1 {
		target = args[0]
	}
	cfg, err := loadRunConfig(cmd, configStart(target, wd))
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("jobs") {
		if cfg.jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
			return fmt.Errorf("failed to get jobs flag: %w", err)
		}
	}

	units, err := resolveUnits(target, cfg)
	if err != nil {
		return err
	}

	opts := driver.Options{
		Jobs:           cfg.jobs,
		MaxDiagnostics: cfg.maxDiagnostics,
		Markers:        cfg.markers,
		Only:           only,
		Timings:        showTimings,
		BaseDir:        wd,
	}

	var results []driver.Result
	if format == diagfmt.FormatPretty && !quiet && shouldUseTUI(mode, len(units)) {
		results, err = runAnalyzeWithUI(ctx, "check", units, opts)
	} else {
		results, err = driver.AnalyzeUnits(ctx, units, opts)
	}
	if err != nil {
		if driver.IsAbort(err) {
			return fmt.Errorf("check aborted: %w", err)
		}
		return err
	}

	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	colored, err := useColor(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	summary := driver.Summarize(results)
	switch format {
	case diagfmt.FormatJSON:
		payload := checkJSON{Summary: summary}
		for i := range results {
			r := &results[i]
			o := diagfmt.BuildDiagnosticsOutput(r.Bag, r.Files, diagfmt.JSONOpts{
				IncludePositions: true,
				PathMode:         pathMode,
				IncludeNotes:     withNotes,
				IncludeFixes:     suggest,
			})
			o.Unit = r.Path
			payload.Units = append(payload.Units, o)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
	case diagfmt.FormatShort:
		for i := range results {
			if err := diagfmt.Short(out, results[i].Bag, results[i].Files, pathMode); err != nil {
				return err
			}
		}
	default:
		if err := renderPretty(out, results, diagfmt.PrettyOpts{
			Color:     colored,
			PathMode:  pathMode,
			ShowNotes: withNotes,
			ShowFixes: suggest,
		}); err != nil {
			return err
		}
	}

	if !quiet && format != diagfmt.FormatJSON {
		fmt.Fprintln(cmd.ErrOrStderr(), summary.String())
	}
	if applyFixes {
		if err := applyResultFixes(cmd.ErrOrStderr(), results, dryRun, quiet); err != nil {
			return err
		}
	}

	if summary.Errors > 0 || summary.Failed > 0 || (warningsAsErrors && summary.Warnings > 0) {
		return errFailed
	}
	return nil
}

// applyResultFixes runs the fix applier unit by unit. Several units may
// describe the same source file; once a file is rewritten the other units'
// spans into it are stale and their fixes are skipped.
func applyResultFixes(w io.Writer, results []driver.Result, dryRun, quiet bool) error {
	rewritten := make(map[string]bool)
	skip := func(path string) bool { return rewritten[path] }
	applied, skipped := 0, 0
	for i := range results {
		r := &results[i]
		if r.Files == nil || r.Bag == nil {
			continue
		}
		res, err := fix.Apply(r.Files, r.Bag.Items(), fix.Options{DryRun: dryRun, Skip: skip})
		if err != nil && !errors.Is(err, fix.ErrNoFixes) {
			return fmt.Errorf("%s: %w", r.Path, err)
		}
		if res == nil {
			continue
		}
		for _, ch := range res.FileChanges {
			rewritten[r.Files.Get(ch.File).Path] = true
		}
		applied += len(res.Applied)
		skipped += len(res.Skipped)
		if quiet {
			continue
		}
		for _, a := range res.Applied {
			fmt.Fprintf(w, "fixed %s: %s (%s)\n", a.PrimaryPath, a.Title, a.Code.ID())
		}
		for _, s := range res.Skipped {
			fmt.Fprintf(w, "skipped %s: %s\n", s.Title, s.Reason)
		}
	}
	if !quiet {
		verb := "applied"
		if dryRun {
			verb = "would apply"
		}
		fmt.Fprintf(w, "%s %d fix(es), skipped %d\n", verb, applied, skipped)
	}
	return nil
}

func renderPretty(w io.Writer, results []driver.Result, opts diagfmt.PrettyOpts) error {
	first := true
	for i := range results {
		r := &results[i]
		if r.Bag.Len() == 0 && r.Bag.Dropped() == 0 {
			continue
		}
		if !first {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		first = false
		if err := diagfmt.Pretty(w, r.Bag, r.Files, opts); err != nil {
			return err
		}
	}
	return nil
}
