package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"smartcast/internal/decls"
	"smartcast/internal/hierarchy"
	"smartcast/internal/project"
	"smartcast/internal/source"
	"smartcast/internal/unit"
)

var markersCmd = &cobra.Command{
	Use:   "markers [flags] <unit>",
	Short: "Show whether a declaration carries a marker through its supertypes",
	Args:  cobra.ExactArgs(1),
	RunE:  runMarkers,
}

func init() {
	markersCmd.Flags().String("decl", "", "declaration to inspect (required)")
	markersCmd.Flags().StringSlice("marker", nil, "marker annotations (default: [markers].annotations)")
	if err := markersCmd.MarkFlagRequired("decl"); err != nil {
		panic(err)
	}
}

func runMarkers(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	defer dumpTraceOnPanic(ctx)

	declName, err := cmd.Flags().GetString("decl")
	if err != nil {
		return fmt.Errorf("failed to get decl flag: %w", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := loadRunConfig(cmd, configStart(args[0], wd))
	if err != nil {
		return err
	}
	markerNames := cfg.markers.Annotations
	if len(markerNames) == 0 {
		return fmt.Errorf("no markers given: use --marker or [markers].annotations in %s", project.ManifestName)
	}

	u, err := unit.Load(ctx, args[0], source.NewFileSet())
	if err != nil {
		return fmt.Errorf("failed to load unit: %w", err)
	}
	id, ok := u.Lookup(declName)
	if !ok {
		return fmt.Errorf("unit %s has no declaration %q", u.Name, declName)
	}

	var markers []decls.AnnotationID
	for _, name := range markerNames {
		mid, ok := u.Lookup(name)
		if !ok {
			return fmt.Errorf("unit %s has no marker annotation %q", u.Name, name)
		}
		markers = append(markers, mid)
	}

	marked, err := hierarchy.HasMarker(ctx, u.Graph, id, markers)
	if err != nil {
		return err
	}
	supers, err := hierarchy.Supertypes(ctx, u.Graph, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	state := "not marked"
	if marked {
		state = "marked"
	}
	fmt.Fprintf(out, "%s: %s (%s)\n", u.Graph.DeclName(id), state, strings.Join(markerNames, ", "))
	names := make([]string, 0, len(supers))
	for _, s := range supers {
		names = append(names, u.Graph.DeclName(s))
	}
	if len(names) == 0 {
		fmt.Fprintln(out, "supertypes: none")
	} else {
		fmt.Fprintf(out, "supertypes: %s\n", strings.Join(names, ", "))
	}
	return nil
}
