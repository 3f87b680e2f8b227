package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"smartcast/internal/prof"
)

func registerProfileFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to the file")
	cmd.PersistentFlags().String("mem-profile", "", "write a heap profile to the file on exit")
	cmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to the file")
}

// setupProfiling starts the profilers named by the persistent flags. The
// returned cleanup may be called more than once.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	root := cmd.Root()
	var opts prof.Options
	var err error
	if opts.CPU, err = root.PersistentFlags().GetString("cpu-profile"); err != nil {
		return nil, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	if opts.Mem, err = root.PersistentFlags().GetString("mem-profile"); err != nil {
		return nil, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	if opts.Trace, err = root.PersistentFlags().GetString("runtime-trace"); err != nil {
		return nil, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	if !opts.Enabled() {
		return func() {}, nil
	}

	session, err := prof.Start(opts)
	if err != nil {
		return nil, err
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			if err := session.Stop(); err != nil {
				fmt.Fprintf(os.Stderr, "failed to finish profiling: %v\n", err)
			}
		})
	}, nil
}
