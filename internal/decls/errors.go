package decls

import "fmt"

// DanglingError reports a reference to a declaration id that the graph does
// not contain. It signals a broken snapshot rather than a user error.
type DanglingError struct {
	ID DeclID
}

func (e *DanglingError) Error() string {
	return fmt.Sprintf("dangling declaration id %d", e.ID)
}
