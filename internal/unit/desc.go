// Package unit loads unit descriptions: the declarations, narrowing facts
// and type references of one analysed program unit, as produced by an
// upstream resolver. Descriptions are read from TOML, YAML or msgpack,
// resolved against their own declarations and published into a
// binding.Session.
package unit

// Desc is the decoded form of a unit description. The same struct backs
// every supported encoding.
type Desc struct {
	Unit     Header        `toml:"unit" yaml:"unit" msgpack:"unit"`
	Decls    []DeclDesc    `toml:"decl" yaml:"decl" msgpack:"decl"`
	Facts    []FactDesc    `toml:"fact" yaml:"fact" msgpack:"fact"`
	TypeRefs []TypeRefDesc `toml:"typeref" yaml:"typeref" msgpack:"typeref"`
}

type Header struct {
	Name string `toml:"name" yaml:"name" msgpack:"name"`
	// Source is the program text the spans point into, relative to the
	// description file. Spans point into the description itself when empty.
	Source string `toml:"source" yaml:"source" msgpack:"source"`
}

type DeclDesc struct {
	Name        string   `toml:"name" yaml:"name" msgpack:"name"`
	Kind        string   `toml:"kind" yaml:"kind" msgpack:"kind"`
	Modifiers   []string `toml:"modifiers" yaml:"modifiers" msgpack:"modifiers"`
	Supertypes  []string `toml:"supertypes" yaml:"supertypes" msgpack:"supertypes"`
	Annotations []string `toml:"annotations" yaml:"annotations" msgpack:"annotations"`
	Expands     string   `toml:"expands" yaml:"expands" msgpack:"expands"`
	Span        []uint32 `toml:"span" yaml:"span" msgpack:"span"`
	NameSpan    []uint32 `toml:"name_span" yaml:"name_span" msgpack:"name_span"`
	KeywordSpan []uint32 `toml:"keyword_span" yaml:"keyword_span" msgpack:"keyword_span"`
}

type FactDesc struct {
	Expr     uint32 `toml:"expr" yaml:"expr" msgpack:"expr"`
	Type     string `toml:"type" yaml:"type" msgpack:"type"`
	Stable   *bool  `toml:"stable" yaml:"stable" msgpack:"stable"` // default true
	Receiver string `toml:"receiver" yaml:"receiver" msgpack:"receiver"`
	Depth    uint16 `toml:"depth" yaml:"depth" msgpack:"depth"`
}

type TypeRefDesc struct {
	Text     string   `toml:"text" yaml:"text" msgpack:"text"`
	Resolved bool     `toml:"resolved" yaml:"resolved" msgpack:"resolved"`
	Span     []uint32 `toml:"span" yaml:"span" msgpack:"span"`
}
