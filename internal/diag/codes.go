package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// Семантические проверки
	SemaInfo                       Code = 3000
	SemaRedundantNullable          Code = 3001
	SemaMarkerShouldBeClass        Code = 3010
	SemaMarkerShouldBeInstantiable Code = 3011
	SemaMarkerCantBeInner          Code = 3012
	SemaMarkerCantBeLocal          Code = 3013
	SemaMarkerMissingSupertype     Code = 3014
	SemaDeprecatedSupertype        Code = 3015
	SemaInconsistentFacts          Code = 3020

	// IO
	IOLoadFileError Code = 4001

	// Манифест и описания юнитов
	ProjManifestInvalid Code = 5001
	ProjUnitInvalid     Code = 5002
	ProjUnknownDecl     Code = 5003
	ProjBadTypeSyntax   Code = 5004

	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:                    "Unknown error",
	SemaInfo:                       "Semantic information",
	SemaRedundantNullable:          "Redundant nullable type marker",
	SemaMarkerShouldBeClass:        "Marker annotation is only applicable to classes",
	SemaMarkerShouldBeInstantiable: "Marked class must not be abstract",
	SemaMarkerCantBeInner:          "Marked class must not be inner",
	SemaMarkerCantBeLocal:          "Marked class must not be local",
	SemaMarkerMissingSupertype:     "Marked class does not implement a required supertype",
	SemaDeprecatedSupertype:        "Deprecated supertype",
	SemaInconsistentFacts:          "Inconsistent narrowing facts",
	IOLoadFileError:                "I/O error while loading file",
	ProjManifestInvalid:            "Invalid project manifest",
	ProjUnitInvalid:                "Invalid unit description",
	ProjUnknownDecl:                "Reference to an undeclared name",
	ProjBadTypeSyntax:              "Malformed type reference",
	ObsTimings:                     "Pipeline timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
