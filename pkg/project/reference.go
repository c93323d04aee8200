package project

// Reference is a non-owning link between two entities that already live
// elsewhere in the ownership tree. It exists only at the wire boundary:
// the encoder fabricates one per link-typed attribute so the target is
// written by identity instead of by value (breaking cycles), and the
// decoder dissolves it again during the relink pass. Runtime graphs hold
// direct pointers, never References.
type Reference struct {
	owner  Entity
	attr   string
	target Entity
}

// NewReference links owner's named attribute to target. A nil target
// produces a null reference, which encodes as JSON null.
func NewReference(owner Entity, attr string, target Entity) *Reference {
	return &Reference{owner: owner, attr: attr, target: target}
}

// IsNull reports whether any leg of the reference is unset.
func (r *Reference) IsNull() bool {
	return r == nil || r.owner == nil || r.attr == "" || r.target == nil
}

// Dereference returns the current target, or nil for a null reference.
func (r *Reference) Dereference() Entity {
	if r.IsNull() {
		return nil
	}
	return r.target
}

// Owner returns the entity holding the reference.
func (r *Reference) Owner() Entity {
	if r == nil {
		return nil
	}
	return r.owner
}

// Attr returns the name of the owner's field the reference populates.
func (r *Reference) Attr() string {
	if r == nil {
		return ""
	}
	return r.attr
}
