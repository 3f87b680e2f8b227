package main

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"smartcast/internal/facts"
	"smartcast/internal/smartcast"
	"smartcast/internal/source"
	"smartcast/internal/unit"
)

var queryCmd = &cobra.Command{
	Use:   "query [flags] <unit>",
	Short: "Print the smart casts of expressions in a unit",
	Long: `Resolve the stable smart cast of one expression (--expr) or of every
expression that carries facts (--all, the default). --receivers adds the
narrowed implicit receivers.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().Uint32("expr", 0, "expression id to query")
	queryCmd.Flags().Bool("receivers", false, "also resolve implicit receivers")
	queryCmd.Flags().Bool("all", false, "query every expression with facts")
	queryCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

type receiverJSON struct {
	Kind  string `json:"kind"`
	Depth uint16 `json:"depth"`
	Type  string `json:"type"`
}

type queryEntry struct {
	Expr      facts.ExprID   `json:"expr"`
	Type      string         `json:"type,omitempty"`
	Receivers []receiverJSON `json:"receivers,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type queryOutput struct {
	Unit     string       `json:"unit"`
	Snapshot string       `json:"snapshot"`
	Epoch    uint64       `json:"epoch"`
	Entries  []queryEntry `json:"entries"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	defer dumpTraceOnPanic(ctx)

	expr, err := cmd.Flags().GetUint32("expr")
	if err != nil {
		return fmt.Errorf("failed to get expr flag: %w", err)
	}
	withReceivers, err := cmd.Flags().GetBool("receivers")
	if err != nil {
		return fmt.Errorf("failed to get receivers flag: %w", err)
	}
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return fmt.Errorf("failed to get all flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
	if all && cmd.Flags().Changed("expr") {
		return fmt.Errorf("--all and --expr cannot be used together")
	}
	all = all || !cmd.Flags().Changed("expr")

	u, err := unit.Load(ctx, args[0], source.NewFileSet())
	if err != nil {
		return fmt.Errorf("failed to load unit: %w", err)
	}

	out := queryOutput{Unit: u.Name, Snapshot: u.Snapshot.ID.String(), Epoch: uint64(u.Epoch())}
	if all {
		out.Entries, err = queryAll(ctx, u, withReceivers)
	} else {
		var entry queryEntry
		entry, err = queryOne(ctx, u, facts.ExprID(expr), withReceivers)
		out.Entries = []queryEntry{entry}
	}
	if err != nil {
		return err
	}

	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return renderQueryPretty(cmd.OutOrStdout(), out)
}

func queryAll(ctx context.Context, u *unit.Unit, withReceivers bool) ([]queryEntry, error) {
	eng := smartcast.New(u.Session)
	casts, err := eng.QueryAll(ctx, u.Epoch())
	if err != nil && casts == nil {
		return nil, err
	}
	failed := make(map[facts.ExprID]string)
	if err != nil {
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				var inv *smartcast.InvariantError
				if errors.As(e, &inv) {
					failed[inv.Expr] = inv.Error()
				}
			}
		}
	}

	exprs := u.Snapshot.Store().Exprs()
	entries := make([]queryEntry, 0, len(exprs))
	for _, expr := range exprs {
		entry := queryEntry{Expr: expr, Error: failed[expr]}
		if info, ok := casts[expr]; ok {
			entry.Type = u.Graph.Label(info.Type)
		}
		if withReceivers {
			if err := fillReceivers(ctx, eng, u, &entry); err != nil {
				return nil, err
			}
		}
		if entry.Type == "" && entry.Error == "" && len(entry.Receivers) == 0 {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func queryOne(ctx context.Context, u *unit.Unit, expr facts.ExprID, withReceivers bool) (queryEntry, error) {
	eng := smartcast.New(u.Session)
	entry := queryEntry{Expr: expr}
	info, ok, err := eng.QueryExpression(ctx, expr, u.Epoch())
	var inv *smartcast.InvariantError
	switch {
	case errors.As(err, &inv):
		entry.Error = inv.Error()
	case err != nil:
		return entry, err
	case ok:
		entry.Type = u.Graph.Label(info.Type)
	}
	if withReceivers {
		if err := fillReceivers(ctx, eng, u, &entry); err != nil {
			return entry, err
		}
	}
	return entry, nil
}

func fillReceivers(ctx context.Context, eng *smartcast.Engine, u *unit.Unit, entry *queryEntry) error {
	casts, err := eng.QueryImplicitReceivers(ctx, entry.Expr, u.Epoch())
	var inv *smartcast.InvariantError
	switch {
	case errors.As(err, &inv):
		if entry.Error == "" {
			entry.Error = inv.Error()
		}
		return nil
	case err != nil:
		return err
	}
	for _, c := range casts {
		entry.Receivers = append(entry.Receivers, receiverJSON{
			Kind:  c.Kind.String(),
			Depth: c.Depth,
			Type:  u.Graph.Label(c.Type),
		})
	}
	return nil
}

func renderQueryPretty(w io.Writer, out queryOutput) error {
	if _, err := fmt.Fprintf(w, "unit %s (epoch %d)\n", out.Unit, out.Epoch); err != nil {
		return err
	}
	entries := slices.Clone(out.Entries)
	slices.SortFunc(entries, func(a, b queryEntry) int { return cmp.Compare(a.Expr, b.Expr) })
	for _, e := range entries {
		typ := e.Type
		if typ == "" {
			typ = "-"
		}
		if _, err := fmt.Fprintf(w, "expr %d: %s\n", e.Expr, typ); err != nil {
			return err
		}
		for _, r := range e.Receivers {
			if _, err := fmt.Fprintf(w, "  %s receiver #%d: %s\n", r.Kind, r.Depth, r.Type); err != nil {
				return err
			}
		}
		if e.Error != "" {
			if _, err := fmt.Fprintf(w, "  error: %s\n", e.Error); err != nil {
				return err
			}
		}
	}
	return nil
}
