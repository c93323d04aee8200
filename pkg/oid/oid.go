// Package oid provides the object identifier attached to every persistable
// entity in a gravity project. An OID pairs a stable 128-bit identity with a
// non-owning pointer back to the entity it was minted for, so identifiers can
// be traded across the project graph without copying the entities themselves.
package oid

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// typeNamer is implemented by entities that expose their persistent type name.
// The OID group tag is derived from it when available.
type typeNamer interface {
	TypeName() string
}

// ErrInvalidIdentifier reports identifier text that is not a well-formed
// 32-hex-digit value.
type ErrInvalidIdentifier struct {
	Text string
}

func (e ErrInvalidIdentifier) Error() string {
	return fmt.Sprintf("invalid object identifier %q", e.Text)
}

// OID is the identity of a single entity. The underlying uuid is immutable
// once constructed; the back-pointer and tag are bookkeeping only and are
// excluded from equality.
type OID struct {
	base string // 32 lowercase hex characters
	tag  string
	ptr  any
}

// New mints a fresh random identifier for entity. The tag is a free-form
// debug label with no semantic weight.
func New(entity any, tag string) *OID {
	u := uuid.New()
	return &OID{base: hex.EncodeToString(u[:]), tag: tag, ptr: entity}
}

// FromString restores an identifier from its canonical 32-hex-digit form, as
// found in persisted documents. The identity is preserved exactly; restoring
// never re-mints.
func FromString(text, tag string) (*OID, error) {
	normalized := strings.ToLower(text)
	if len(normalized) != 32 {
		return nil, ErrInvalidIdentifier{Text: text}
	}
	if _, err := hex.DecodeString(normalized); err != nil {
		return nil, ErrInvalidIdentifier{Text: text}
	}
	return &OID{base: normalized, tag: tag}, nil
}

// SetPointer rebinds the non-owning back-pointer. Entities typically construct
// their OID before they can hand themselves to it.
func (o *OID) SetPointer(entity any) {
	o.ptr = entity
}

// Base returns the canonical 32-hex-digit identity string.
func (o *OID) Base() string { return o.base }

// Tag returns the debug label supplied at construction.
func (o *OID) Tag() string { return o.tag }

// Reference returns the entity this identifier was minted for, or nil.
func (o *OID) Reference() any { return o.ptr }

// Group returns the lower-cased type name of the referenced entity, or "oid"
// when no entity is bound.
func (o *OID) Group() string {
	if n, ok := o.ptr.(typeNamer); ok && n != nil {
		return strings.ToLower(n.TypeName())
	}
	return "oid"
}

// String renders the identifier as "<group>_<base>".
func (o *OID) String() string {
	return o.Group() + "_" + o.base
}

// Equal reports whether two identifiers share the same underlying uuid. Tags
// and back-pointers never participate.
func (o *OID) Equal(other *OID) bool {
	if o == nil || other == nil {
		return o == other
	}
	return o.base == other.base
}

// Matches reports whether text denotes this identifier, accepting either the
// raw 32-hex base or the prefixed String form. Decoder registries look
// identifiers up by both representations.
func (o *OID) Matches(text string) bool {
	return text == o.base || text == o.String()
}
