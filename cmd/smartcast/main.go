package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"smartcast/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "smartcast",
	Short: "Smart-cast and nullability analysis for unit descriptions",
	Long: `smartcast answers flow-sensitive smart-cast queries over published
declaration graphs and narrowing facts, and runs the nullability and
marker-class checks on them`,
	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		stopProfiling, err := setupProfiling(cmd)
		if err != nil {
			return err
		}
		profileCleanup = stopProfiling
		cleanup, err := setupTracing(cmd)
		if err != nil {
			return err
		}
		traceCleanup = cleanup
		return nil
	},
}

// errFailed is returned by commands that already reported their problems
// (for example as diagnostics) and only need a non-zero exit status.
var errFailed = errors.New("analysis reported errors")

var (
	traceCleanup   = func() {}
	profileCleanup = func() {}
)

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(markersCmd)
	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics per unit (0 = unlimited)")
	registerTraceFlags(rootCmd)
	registerProfileFlags(rootCmd)

	err := rootCmd.Execute()
	traceCleanup()
	profileCleanup()
	if err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves the global --color flag against stdout.
func useColor(cmd *cobra.Command) (bool, error) {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch colorFlag {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto":
		return isTerminal(os.Stdout), nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}
}
