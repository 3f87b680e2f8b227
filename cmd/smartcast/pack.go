package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"smartcast/internal/source"
	"smartcast/internal/unit"
)

var packCmd = &cobra.Command{
	Use:   "pack [flags] <unit.toml|unit.yaml>",
	Short: "Convert a unit description to the binary msgpack form",
	Long: `Decode a TOML or YAML unit description, make sure it resolves, and write
it as msgpack. Spans keep pointing into the original source file.`,
	Args: cobra.ExactArgs(1),
	RunE: runPack,
}

func init() {
	packCmd.Flags().StringP("output", "o", "", "output file (default: <unit>.msgpack)")
}

func runPack(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	in := args[0]
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	if output == "" {
		output = strings.TrimSuffix(in, filepath.Ext(in)) + ".msgpack"
	}
	if unit.DetectFormat(in) == unit.FormatMsgpack {
		return fmt.Errorf("%s is already msgpack", in)
	}

	// полная загрузка: не пакуем описания, которые не резолвятся
	u, err := unit.Load(ctx, in, source.NewFileSet())
	if err != nil {
		return fmt.Errorf("failed to load unit: %w", err)
	}

	// Source is relative to the unit file. Without one the spans point into
	// the text description itself, which then becomes the source.
	desc := *u.Desc
	src := in
	if desc.Unit.Source != "" {
		src = filepath.Join(filepath.Dir(in), filepath.FromSlash(desc.Unit.Source))
	}
	rel, err := filepath.Rel(filepath.Dir(output), src)
	if err != nil {
		return fmt.Errorf("failed to rebase source path: %w", err)
	}
	desc.Unit.Source = filepath.ToSlash(rel)

	data, err := unit.EncodeMsgpack(&desc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if !quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "packed %s (%d decls, %d facts) into %s\n", u.Name, len(desc.Decls), len(desc.Facts), output)
	}
	return nil
}
