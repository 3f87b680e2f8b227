package checks

import (
	"smartcast/internal/source"
	"smartcast/internal/types"
)

// UserTypeRef is a syntactic type reference that resolution has not
// replaced. "A??" is a nullable reference wrapping a nullable reference.
type UserTypeRef struct {
	Name         string
	Args         []*UserTypeRef
	Nullable     bool
	Inner        *UserTypeRef // set when the reference wraps another one, as in "A??"
	Span         source.Span
	QuestionSpan source.Span
}

// TypeRef is one type-reference node of a unit. Exactly one of Resolved and
// User is meaningful: User is non-nil for syntactic references.
type TypeRef struct {
	Resolved     types.Type
	User         *UserTypeRef
	Span         source.Span
	QuestionSpan source.Span // the outermost '?', empty when not nullable
}

// IsResolved reports whether the reference carries a resolved type.
func (r *TypeRef) IsResolved() bool {
	return r.User == nil && r.Resolved.IsValid()
}

// IsMarkedNullable reports whether the reference itself ends with '?'.
func (r *TypeRef) IsMarkedNullable() bool {
	if r.User != nil {
		return r.User.Nullable
	}
	return r.Resolved.Nullable
}
