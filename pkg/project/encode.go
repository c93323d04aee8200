package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

type docField struct {
	key   string
	value any
}

// docObject is a JSON object whose keys marshal in insertion order.
// encoding/json sorts map keys alphabetically; a project document instead
// preserves each entity's declared field order, so the document tree is
// built from these.
type docObject []docField

var _ json.Marshaler = docObject(nil)

func (o docObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Encoder renders an entity graph as a deterministic JSON document: fields
// in declared order, opaque map keys sorted, timestamps on the microsecond
// grid. Encoding the same graph twice yields identical bytes, and encoding
// a decoded graph reproduces the document it came from.
type Encoder struct {
	registry *TypeRegistry
}

// NewEncoder builds an encoder over registry; nil selects DefaultRegistry.
func NewEncoder(registry *TypeRegistry) *Encoder {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Encoder{registry: registry}
}

// Encode renders root as a compact document.
func (e *Encoder) Encode(root Entity) ([]byte, error) {
	tree, err := e.value(root)
	if err != nil {
		return nil, err
	}
	return json.Marshal(tree)
}

// EncodeIndent renders root with the given indentation. The document tree
// is built completely before marshaling, so an unencodable value anywhere
// in the graph fails the call without producing partial output.
func (e *Encoder) EncodeIndent(root Entity, indent string) ([]byte, error) {
	tree, err := e.value(root)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(tree, "", indent)
}

func (e *Encoder) value(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if ref, ok := v.(*Reference); ok {
		return e.reference(ref)
	}
	if ent, ok := v.(Entity); ok {
		if rv := reflect.ValueOf(ent); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil, nil
		}
		return e.entity(ent)
	}
	if codec, ok := e.registry.valueCodecFor(v); ok {
		scalar, err := codec.Encode(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", codec.Name, err)
		}
		return docObject{
			{key: "_type", value: codec.Name},
			{key: "_module", value: codec.Module},
			{key: codec.Attr, value: scalar},
		}, nil
	}
	switch m := v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return v, nil
	case map[string]any:
		return e.opaque(m)
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Slice {
		out := make([]any, rv.Len())
		for i := range out {
			item, err := e.value(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = item
		}
		return out, nil
	}
	return nil, UnsupportedTypeError{GoType: fmt.Sprintf("%T", v)}
}

func (e *Encoder) entity(ent Entity) (any, error) {
	obj := docObject{
		{key: "_type", value: ent.TypeName()},
		{key: "_module", value: e.registry.entityModule(ent.TypeName())},
	}
	for _, field := range ent.Fields() {
		value, err := e.value(field.Value)
		if err != nil {
			return nil, fmt.Errorf("encode %s.%s: %w", ent.TypeName(), field.Name, err)
		}
		obj = append(obj, docField{key: field.Name, value: value})
	}
	return obj, nil
}

// reference writes a link by identity only; this is what keeps the upward
// and sideways edges of the graph from re-embedding their targets.
func (e *Encoder) reference(ref *Reference) (any, error) {
	if ref.IsNull() {
		return nil, nil
	}
	owner, target := ref.Owner(), ref.Dereference()
	if owner.UID() == nil || target.UID() == nil {
		return nil, fmt.Errorf("encode reference %s: entity without identifier", ref.Attr())
	}
	return docObject{
		{key: "_type", value: "Reference"},
		{key: "parent", value: owner.UID().Base()},
		{key: "attr", value: ref.Attr()},
		{key: "ref", value: target.UID().Base()},
	}, nil
}

// opaque renders a free-form map with sorted keys. Values still go through
// the full dispatch, so registered value types nested inside attribute
// maps round-trip.
func (e *Encoder) opaque(m map[string]any) (any, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	obj := make(docObject, 0, len(keys))
	for _, k := range keys {
		value, err := e.value(m[k])
		if err != nil {
			return nil, err
		}
		obj = append(obj, docField{key: k, value: value})
	}
	return obj, nil
}
