package unit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"

	"smartcast/internal/binding"
	"smartcast/internal/checks"
	"smartcast/internal/decls"
	"smartcast/internal/diag"
	"smartcast/internal/facts"
	"smartcast/internal/source"
	"smartcast/internal/trace"
	"smartcast/internal/typeops"
	"smartcast/internal/types"
)

// Error is a load failure. Code classifies it for diagnostics.
type Error struct {
	Path string
	Code diag.Code
	Item string // e.g. `decl "Foo"`, empty for file-level errors
	Err  error
}

func (e *Error) Error() string {
	if e.Item == "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Item, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Unit is a loaded, published unit.
type Unit struct {
	Name     string
	Path     string
	Files    *source.FileSet
	File     source.FileID // file the spans point into
	Graph    *decls.Graph
	Store    *facts.Store
	TypeRefs []checks.TypeRef
	Session  *binding.Session
	Snapshot *binding.Snapshot
	Desc     *Desc
}

// Epoch returns the epoch the unit was published at.
func (u *Unit) Epoch() binding.Epoch { return u.Snapshot.Epoch }

// CheckInput returns what the checkers need.
func (u *Unit) CheckInput() checks.Input {
	return checks.Input{Graph: u.Graph, TypeRefs: u.TypeRefs}
}

// MarkerNames lists marker configuration by declaration name.
type MarkerNames struct {
	Annotations          []string
	RequiredSupertypes   []string
	DeprecatedSupertypes []string
}

// MarkerOptions resolves names against the unit. Names the unit does not
// declare are skipped.
func (u *Unit) MarkerOptions(names MarkerNames) checks.MarkerOptions {
	return checks.MarkerOptions{
		Markers:              u.lookupAll(names.Annotations),
		RequiredSupertypes:   u.lookupAll(names.RequiredSupertypes),
		DeprecatedSupertypes: u.lookupAll(names.DeprecatedSupertypes),
	}
}

func (u *Unit) lookupAll(names []string) []decls.DeclID {
	var out []decls.DeclID
	for _, name := range names {
		if id, ok := u.Lookup(name); ok {
			out = append(out, id)
		}
	}
	return out
}

// Lookup finds a declaration by name, normalised like the loader does.
func (u *Unit) Lookup(name string) (decls.DeclID, bool) {
	return u.Graph.Lookup(norm.NFC.String(name))
}

// Load reads, resolves and publishes the description at path. Files are
// added to fs, which must not be shared with concurrent loads.
func Load(ctx context.Context, path string, fs *source.FileSet) (*Unit, error) {
	if err := typeops.CheckCancel(ctx); err != nil {
		return nil, err
	}
	format := DetectFormat(path)
	if format == FormatUnknown {
		return nil, &Error{Path: path, Code: diag.ProjUnitInvalid, Err: fmt.Errorf("unrecognised extension %q", filepath.Ext(path))}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Code: diag.IOLoadFileError, Err: err}
	}
	desc, err := Decode(data, format)
	if err != nil {
		return nil, &Error{Path: path, Code: diag.ProjUnitInvalid, Err: err}
	}

	var fileID source.FileID
	if desc.Unit.Source != "" {
		srcPath := filepath.Join(filepath.Dir(path), filepath.FromSlash(desc.Unit.Source))
		fileID, err = fs.Load(srcPath)
		if err != nil {
			return nil, &Error{Path: path, Code: diag.IOLoadFileError, Item: "source", Err: err}
		}
	} else if format == FormatMsgpack {
		fileID = fs.AddVirtual(path, nil)
	} else {
		fileID = fs.Add(path, data, 0)
	}
	return Build(ctx, desc, path, fs, fileID)
}

// Build resolves desc and publishes it into a fresh session. Spans in desc
// point into file.
func Build(ctx context.Context, desc *Desc, path string, fs *source.FileSet, file source.FileID) (*Unit, error) {
	span := trace.BeginCtx(ctx, trace.ScopeUnit, "unit:"+desc.Unit.Name)
	defer span.End("")

	capacity, err := safecast.Conv[uint32](len(desc.Decls))
	if err != nil {
		panic(fmt.Errorf("declaration count overflow: %w", err))
	}
	r := &resolver{path: path, file: file, b: decls.NewBuilder(nil, capacity)}
	if err := r.declare(desc.Decls); err != nil {
		return nil, err
	}
	if err := r.link(desc.Decls); err != nil {
		return nil, err
	}
	if err := typeops.CheckCancel(ctx); err != nil {
		return nil, err
	}
	g := r.b.Freeze()
	r.g = g

	store, err := r.facts(desc.Facts)
	if err != nil {
		return nil, err
	}
	refs, err := r.typeRefs(desc.TypeRefs)
	if err != nil {
		return nil, err
	}

	session := binding.NewSession()
	snap := session.Publish(g, store)
	span.WithExtra("decls", strconv.Itoa(g.Len())).
		WithExtra("facts", strconv.Itoa(store.Len())).
		WithExtra("snapshot", snap.ID.String())
	return &Unit{
		Name:     desc.Unit.Name,
		Path:     path,
		Files:    fs,
		File:     file,
		Graph:    g,
		Store:    store,
		TypeRefs: refs,
		Session:  session,
		Snapshot: snap,
		Desc:     desc,
	}, nil
}

type resolver struct {
	path string
	file source.FileID
	b    *decls.Builder
	g    *decls.Graph // set once the builder is frozen
}

func (r *resolver) fail(code diag.Code, item string, err error) error {
	return &Error{Path: r.path, Code: code, Item: item, Err: err}
}

func (r *resolver) declare(ds []DeclDesc) error {
	for _, d := range ds {
		item := fmt.Sprintf("decl %q", d.Name)
		kind, ok := decls.ParseKind(d.Kind)
		if !ok {
			return r.fail(diag.ProjUnitInvalid, item, fmt.Errorf("unknown kind %q", d.Kind))
		}
		var mods decls.Modifiers
		for _, m := range d.Modifiers {
			flag, ok := decls.ParseModifier(m)
			if !ok {
				return r.fail(diag.ProjUnitInvalid, item, fmt.Errorf("unknown modifier %q", m))
			}
			mods |= flag
		}
		// classes are final unless declared otherwise
		if kind == decls.KindClass && mods&(decls.ModOpen|decls.ModAbstract|decls.ModSealed) == 0 {
			mods |= decls.ModFinal
		}
		id, err := r.b.Declare(norm.NFC.String(strings.TrimSpace(d.Name)), kind, mods)
		if err != nil {
			return r.fail(diag.ProjUnitInvalid, item, err)
		}
		whole, err := r.span(d.Span)
		if err != nil {
			return r.fail(diag.ProjUnitInvalid, item, err)
		}
		name, err := r.span(d.NameSpan)
		if err != nil {
			return r.fail(diag.ProjUnitInvalid, item, err)
		}
		keyword, err := r.span(d.KeywordSpan)
		if err != nil {
			return r.fail(diag.ProjUnitInvalid, item, err)
		}
		r.b.SetSpans(id, whole, name, keyword)
	}
	return nil
}

func (r *resolver) link(ds []DeclDesc) error {
	for _, d := range ds {
		item := fmt.Sprintf("decl %q", d.Name)
		id, _ := r.b.Lookup(norm.NFC.String(strings.TrimSpace(d.Name)))
		for _, text := range d.Supertypes {
			t, err := r.resolveText(text)
			if err != nil {
				return r.fail(codeOf(err), item, err)
			}
			if err := r.b.AddSupertype(id, t); err != nil {
				return r.fail(diag.ProjUnitInvalid, item, err)
			}
		}
		for _, name := range d.Annotations {
			ann, ok := r.b.Lookup(norm.NFC.String(name))
			if !ok {
				return r.fail(diag.ProjUnknownDecl, item, fmt.Errorf("unknown annotation %q", name))
			}
			if r.b.Kind(ann) != decls.KindAnnotation {
				return r.fail(diag.ProjUnitInvalid, item, fmt.Errorf("%q is not an annotation class", name))
			}
			if err := r.b.AddAnnotation(id, ann); err != nil {
				return r.fail(diag.ProjUnitInvalid, item, err)
			}
		}
		if r.b.Kind(id) == decls.KindAlias {
			if d.Expands == "" {
				return r.fail(diag.ProjUnitInvalid, item, errors.New("alias without expansion"))
			}
			t, err := r.resolveText(d.Expands)
			if err != nil {
				return r.fail(codeOf(err), item, err)
			}
			if err := r.b.SetExpansion(id, t); err != nil {
				return r.fail(diag.ProjUnitInvalid, item, err)
			}
		}
	}
	return nil
}

func (r *resolver) facts(fs []FactDesc) (*facts.Store, error) {
	sb := facts.NewStoreBuilder()
	for i, f := range fs {
		item := fmt.Sprintf("fact #%d (expr %d)", i+1, f.Expr)
		t, err := r.resolveText(f.Type)
		if err != nil {
			return nil, r.fail(codeOf(err), item, err)
		}
		kind, err := facts.ParseReceiverKind(f.Receiver)
		if err != nil {
			return nil, r.fail(diag.ProjUnitInvalid, item, err)
		}
		stability := facts.Stable
		if f.Stable != nil && !*f.Stable {
			stability = facts.Unstable
		}
		fact := facts.Fact{
			Subject:   facts.Subject{Expr: facts.ExprID(f.Expr), Receiver: kind, Depth: f.Depth},
			Type:      t,
			Stability: stability,
		}
		if err := sb.Add(fact); err != nil {
			return nil, r.fail(diag.ProjUnitInvalid, item, err)
		}
	}
	return sb.Build(), nil
}

func (r *resolver) typeRefs(ds []TypeRefDesc) ([]checks.TypeRef, error) {
	out := make([]checks.TypeRef, 0, len(ds))
	for i, d := range ds {
		item := fmt.Sprintf("typeref #%d", i+1)
		e, err := parseType(d.Text)
		if err != nil {
			return nil, r.fail(diag.ProjBadTypeSyntax, item, err)
		}
		sp, err := r.span(d.Span)
		if err != nil {
			return nil, r.fail(diag.ProjUnitInvalid, item, err)
		}
		// offsets inside the text map onto the span only when one was given
		at := func(off int) source.Span {
			rel, err := safecast.Conv[uint32](off)
			if sp.Empty() || err != nil {
				return source.Span{File: r.file}
			}
			return source.Span{File: r.file, Start: sp.Start + rel, End: sp.Start + rel + 1}
		}

		ref := checks.TypeRef{Span: sp}
		if n := len(e.Quest); n > 0 {
			ref.QuestionSpan = at(e.Quest[n-1])
		}
		if d.Resolved {
			t, err := r.resolve(e)
			if err != nil {
				return nil, r.fail(codeOf(err), item, err)
			}
			ref.Resolved = t
		} else {
			ref.User = userRef(e, sp, at)
		}
		out = append(out, ref)
	}
	return out, nil
}

// userRef builds the syntactic form, one wrapper per '?'.
func userRef(e *typeExpr, whole source.Span, at func(int) source.Span) *checks.UserTypeRef {
	args := make([]*checks.UserTypeRef, 0, len(e.Args))
	for _, a := range e.Args {
		args = append(args, userRef(a, source.Span{File: whole.File}, at))
	}
	ref := &checks.UserTypeRef{Name: e.Name, Args: args, Span: whole}
	for i, q := range e.Quest {
		if i == 0 {
			ref.Nullable = true
			ref.QuestionSpan = at(q)
			continue
		}
		ref = &checks.UserTypeRef{
			Name:         e.Name,
			Args:         args,
			Nullable:     true,
			Inner:        ref,
			Span:         whole,
			QuestionSpan: at(q),
		}
	}
	return ref
}

func (r *resolver) resolveText(text string) (types.Type, error) {
	e, err := parseType(text)
	if err != nil {
		return types.Type{}, err
	}
	return r.resolve(e)
}

// unknownNameError distinguishes missing declarations from other failures.
type unknownNameError struct{ name string }

func (e *unknownNameError) Error() string { return fmt.Sprintf("unknown type %q", e.name) }

func codeOf(err error) diag.Code {
	var unknown *unknownNameError
	var syntax *SyntaxError
	switch {
	case errors.As(err, &unknown):
		return diag.ProjUnknownDecl
	case errors.As(err, &syntax):
		return diag.ProjBadTypeSyntax
	default:
		return diag.ProjUnitInvalid
	}
}

func (r *resolver) resolve(e *typeExpr) (types.Type, error) {
	if len(e.Quest) > 1 {
		return types.Type{}, &SyntaxError{Text: e.String(), Offset: e.Quest[1] - e.Start, Msg: "repeated '?' is only allowed in unresolved references"}
	}
	id, kind, ok := r.lookup(e.Name)
	if !ok {
		return types.Type{}, &unknownNameError{name: e.Name}
	}
	nullable := len(e.Quest) == 1
	switch kind {
	case decls.KindAlias:
		if len(e.Args) > 0 {
			return types.Type{}, fmt.Errorf("alias %q takes no type arguments", e.Name)
		}
		return types.MakeAlias(id, nullable), nil
	case decls.KindAnnotation:
		return types.Type{}, fmt.Errorf("annotation class %q used as a type", e.Name)
	}
	args := make([]types.Type, 0, len(e.Args))
	for _, a := range e.Args {
		t, err := r.resolve(a)
		if err != nil {
			return types.Type{}, err
		}
		args = append(args, t)
	}
	return types.MakeNominal(id, nullable, args...), nil
}

func (r *resolver) lookup(name string) (decls.DeclID, decls.Kind, bool) {
	if r.g != nil {
		id, ok := r.g.Lookup(name)
		if !ok {
			return decls.NoDeclID, decls.KindInvalid, false
		}
		n, _ := r.g.Node(id)
		return id, n.Kind, true
	}
	id, ok := r.b.Lookup(name)
	if !ok {
		return decls.NoDeclID, decls.KindInvalid, false
	}
	return id, r.b.Kind(id), true
}

func (r *resolver) span(pair []uint32) (source.Span, error) {
	switch len(pair) {
	case 0:
		return source.Span{File: r.file}, nil
	case 2:
		if pair[1] < pair[0] {
			return source.Span{}, fmt.Errorf("inverted span [%d, %d]", pair[0], pair[1])
		}
		return source.Span{File: r.file, Start: pair[0], End: pair[1]}, nil
	default:
		return source.Span{}, fmt.Errorf("span must be [start, end], got %d values", len(pair))
	}
}
