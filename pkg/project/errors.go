package project

import (
	"fmt"
	"strings"
)

// UnsupportedTypeError is returned by the encoder when it reaches a value it
// has no representation for. The encoder fails rather than guessing, so bulk
// data frames and other non-persistable values can never leak into a project
// document.
type UnsupportedTypeError struct {
	GoType string
}

func (e UnsupportedTypeError) Error() string {
	return fmt.Sprintf("cannot encode unsupported type %s", e.GoType)
}

// UnknownEntityTypeError is returned by the decoder when a tagged object
// names a type absent from both registry tables. It usually means the
// document was written by a newer schema or is corrupt.
type UnknownEntityTypeError struct {
	Name string
}

func (e UnknownEntityTypeError) Error() string {
	return fmt.Sprintf("unknown entity type %q", e.Name)
}

// SchemaMismatchError is returned when a document's shape does not line up
// with the declared attribute set of the type being reconstructed: missing
// or mistyped attributes, keys no factory consumed, or a root of the wrong
// concrete project type.
type SchemaMismatchError struct {
	TypeName string
	Keys     []string
	Reason   string
}

func (e SchemaMismatchError) Error() string {
	if len(e.Keys) > 0 {
		return fmt.Sprintf("schema mismatch in %s: %s: %s", e.TypeName, e.Reason, strings.Join(e.Keys, ", "))
	}
	return fmt.Sprintf("schema mismatch in %s: %s", e.TypeName, e.Reason)
}

// DanglingReferenceError is returned by the decoder's relink pass when a
// queued reference names a uid that never appeared in the document. It
// indicates a hand-edited or truncated file.
type DanglingReferenceError struct {
	Attr      string
	OwnerUID  string
	TargetUID string
}

func (e DanglingReferenceError) Error() string {
	return fmt.Sprintf("dangling reference %s: owner %s, target %s", e.Attr, e.OwnerUID, e.TargetUID)
}
