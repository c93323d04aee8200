package project

import (
	"fmt"

	"gravcore/pkg/oid"
)

// Entity is the contract every persistable node of a project graph
// satisfies. The declared field set is ordered and fixed per type; the
// encoder emits fields in exactly this order, which is what makes
// re-encoding a decoded graph byte-identical to the original document.
type Entity interface {
	// UID returns the entity's identifier. It is minted once at
	// construction and preserved verbatim across save/load cycles.
	UID() *oid.OID
	// TypeName returns the wire name of the entity's concrete type.
	TypeName() string
	// Fields returns the persistable attributes in declaration order.
	// Link-typed attributes are wrapped in a transient Reference.
	Fields() []Field
}

// Field is one named attribute of an entity's declared field set.
type Field struct {
	Name  string
	Value any
}

// relinker is implemented by entities with link-typed attributes. The
// decoder's second pass assigns resolved targets through it; the Reference
// wrapper never survives into the runtime graph.
type relinker interface {
	relink(attr string, target Entity) error
}

// entityList widens a concrete entity slice for a Fields declaration.
func entityList[E Entity](items []E) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

// entityOrNil collapses a typed nil pointer into an untyped nil so optional
// owned children and link targets encode as JSON null.
func entityOrNil[E interface {
	comparable
	Entity
}](e E) any {
	var zero E
	if e == zero {
		return nil
	}
	return e
}

// listOf narrows a decoded array to a concrete entity slice, reporting a
// schema mismatch when an element is of the wrong type.
func listOf[E Entity](typeName, key string, items []any) ([]E, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]E, 0, len(items))
	for _, item := range items {
		e, ok := item.(E)
		if !ok {
			return nil, SchemaMismatchError{
				TypeName: typeName,
				Keys:     []string{key},
				Reason:   fmt.Sprintf("array element: got %T", item),
			}
		}
		out = append(out, e)
	}
	return out, nil
}
