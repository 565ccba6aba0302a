package chc

import "fmt"

type DuplicateRelation string

func (e DuplicateRelation) Error() string {
	return fmt.Sprintf("relation %q declared twice", string(e))
}

type UnknownRelation string

func (e UnknownRelation) Error() string {
	return fmt.Sprintf("unknown relation %q", string(e))
}

type ArityMismatch struct {
	Relation      string
	Expected, Got int
}

func (e *ArityMismatch) Error() string {
	return fmt.Sprintf("relation %s expects %d arguments, got %d", e.Relation, e.Expected, e.Got)
}

// ReservedName is returned for names that contain characters the solver
// uses to build internal variables.
type ReservedName struct {
	Name string
}

func (e *ReservedName) Error() string {
	return fmt.Sprintf("name %q uses a reserved character", e.Name)
}
