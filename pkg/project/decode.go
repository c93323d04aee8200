package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Decoder reconstructs a project graph from a JSON document in two passes.
// The construction pass walks the parsed tree bottom-up, rebuilding values
// and entities through the registry and deferring every Reference it
// meets, because a reference target higher up or sideways in the tree may
// not exist yet. The relink pass then resolves the deferred links against
// the identifier registry accumulated during construction and assigns the
// targets directly; References never survive into the runtime graph.
type Decoder struct {
	registry *TypeRegistry
}

// NewDecoder builds a decoder over registry; nil selects DefaultRegistry.
func NewDecoder(registry *TypeRegistry) *Decoder {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Decoder{registry: registry}
}

// Decode parses a document and returns its root, which must be of the
// requested concrete project kind.
func (d *Decoder) Decode(data []byte, kind ProjectKind) (Project, error) {
	rootName := kind.typeName()
	if rootName == "" {
		return nil, fmt.Errorf("unknown project kind %q", kind)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse project document: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("parse project document: trailing data after document")
	}

	state := &decodeState{registry: d.registry, entities: map[string]Entity{}}
	decoded, err := state.value(raw)
	if err != nil {
		return nil, err
	}
	root, ok := decoded.(Project)
	if !ok || root.TypeName() != rootName {
		return nil, SchemaMismatchError{
			TypeName: rootName,
			Reason:   fmt.Sprintf("document root is %s", describeDecoded(decoded)),
		}
	}
	if err := state.relink(); err != nil {
		return nil, err
	}
	return root, nil
}

// pendingLink is a deferred reference: owner's attr is set to the entity
// carrying the target uid once the whole document has been constructed.
type pendingLink struct {
	owner  string
	attr   string
	target string
}

type decodeState struct {
	registry *TypeRegistry
	entities map[string]Entity
	pending  []pendingLink
}

func (s *decodeState) value(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		return s.object(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			decoded, err := s.value(item)
			if err != nil {
				return nil, err
			}
			out[i] = decoded
		}
		return out, nil
	case json.Number:
		return normalizeNumber(t)
	default:
		return v, nil
	}
}

func (s *decodeState) object(obj map[string]any) (any, error) {
	rawName, tagged := obj["_type"]
	if !tagged {
		// Untagged objects pass through opaquely. Values are still decoded
		// so registered value types nested in attribute maps round-trip.
		out := make(map[string]any, len(obj))
		for k, v := range obj {
			decoded, err := s.value(v)
			if err != nil {
				return nil, err
			}
			out[k] = decoded
		}
		return out, nil
	}
	name, ok := rawName.(string)
	if !ok {
		return nil, UnknownEntityTypeError{Name: fmt.Sprintf("%v", rawName)}
	}
	if name == "Reference" {
		return s.reference(obj)
	}
	if codec, ok := s.registry.valueCodecNamed(name); ok {
		return s.scalar(codec, obj)
	}
	if factory, ok := s.registry.entityNamed(name); ok {
		return s.entity(name, factory, obj)
	}
	return nil, UnknownEntityTypeError{Name: name}
}

// reference queues a deferred link and yields nil as the interim attribute
// value; the relink pass fills the real target in later.
func (s *decodeState) reference(obj map[string]any) (any, error) {
	owner, okOwner := obj["parent"].(string)
	attr, okAttr := obj["attr"].(string)
	target, okTarget := obj["ref"].(string)
	if !okOwner || !okAttr || !okTarget {
		return nil, SchemaMismatchError{
			TypeName: "Reference",
			Reason:   "parent, attr, and ref must be uid strings",
		}
	}
	s.pending = append(s.pending, pendingLink{owner: owner, attr: attr, target: target})
	return nil, nil
}

func (s *decodeState) scalar(codec ValueCodec, obj map[string]any) (any, error) {
	raw, ok := obj[codec.Attr]
	if !ok {
		return nil, SchemaMismatchError{TypeName: codec.Name, Keys: []string{codec.Attr}, Reason: "missing attribute"}
	}
	normalized, err := s.value(raw)
	if err != nil {
		return nil, err
	}
	decoded, err := codec.Decode(normalized)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", codec.Name, err)
	}
	return decoded, nil
}

func (s *decodeState) entity(name string, factory EntityFactory, obj map[string]any) (any, error) {
	attrs := make(map[string]any, len(obj))
	for k, v := range obj {
		if k == "_type" || k == "_module" {
			continue
		}
		decoded, err := s.value(v)
		if err != nil {
			return nil, err
		}
		attrs[k] = decoded
	}
	ent, err := factory(NewAttrMap(name, attrs))
	if err != nil {
		return nil, err
	}
	uid := ent.UID()
	if uid == nil {
		return nil, SchemaMismatchError{TypeName: name, Keys: []string{"uid"}, Reason: "missing attribute"}
	}
	s.entities[uid.Base()] = ent
	return ent, nil
}

func (s *decodeState) relink() error {
	for _, link := range s.pending {
		owner, ok := s.entities[link.owner]
		if !ok {
			return DanglingReferenceError{Attr: link.attr, OwnerUID: link.owner, TargetUID: link.target}
		}
		target, ok := s.entities[link.target]
		if !ok {
			return DanglingReferenceError{Attr: link.attr, OwnerUID: link.owner, TargetUID: link.target}
		}
		rl, ok := owner.(relinker)
		if !ok {
			return SchemaMismatchError{
				TypeName: owner.TypeName(),
				Keys:     []string{link.attr},
				Reason:   "unknown link attribute",
			}
		}
		if err := rl.relink(link.attr, target); err != nil {
			return err
		}
	}
	return nil
}

// normalizeNumber maps integer literals to int64 and everything else to
// float64, mirroring what the encoder emits for each.
func normalizeNumber(n json.Number) (any, error) {
	text := n.String()
	if !strings.ContainsAny(text, ".eE") {
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("parse number %q: %w", text, err)
	}
	return f, nil
}

func describeDecoded(v any) string {
	if ent, ok := v.(Entity); ok {
		return ent.TypeName()
	}
	return fmt.Sprintf("%T", v)
}
