package types

import (
	"strconv"
	"strings"
)

// Namer resolves declaration ids to display names.
type Namer interface {
	DeclName(id DeclID) string
}

// Label renders t for diagnostics and CLI output.
func Label(n Namer, t Type) string {
	var sb strings.Builder
	writeLabel(&sb, n, t, 0)
	return sb.String()
}

func writeLabel(sb *strings.Builder, n Namer, t Type, depth int) {
	if depth > 8 {
		sb.WriteString("...")
		return
	}
	switch t.Kind {
	case KindNominal, KindAlias:
		sb.WriteString(declName(n, t.Decl))
		if len(t.Args) > 0 {
			sb.WriteByte('<')
			for i, arg := range t.Args {
				if i > 0 {
					sb.WriteString(", ")
				}
				writeLabel(sb, n, arg, depth+1)
			}
			sb.WriteByte('>')
		}
		if t.Nullable {
			sb.WriteByte('?')
		}
	case KindIntersection:
		if t.Nullable {
			sb.WriteByte('(')
		}
		for i, p := range t.Parts {
			if i > 0 {
				sb.WriteString(" & ")
			}
			writeLabel(sb, n, p.WithNullable(false), depth+1)
		}
		if t.Nullable {
			sb.WriteString(")?")
		}
	case KindError:
		sb.WriteString("<error>")
	default:
		sb.WriteString("?")
	}
}

func declName(n Namer, id DeclID) string {
	if n != nil {
		if name := n.DeclName(id); name != "" {
			return name
		}
	}
	return "#" + strconv.FormatUint(uint64(id), 10)
}
