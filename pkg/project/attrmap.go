package project

import (
	"fmt"
	"sort"
	"time"

	"gravcore/pkg/oid"
)

// AttrMap hands a decoded attribute set to an entity factory. Accessors
// consume keys as they go and latch the first failure; Finish reports that
// failure, or a SchemaMismatchError naming any keys the factory never
// consumed. Missing and mistyped attributes surface the same way, which is
// how loading a document written by a different schema revision is caught.
type AttrMap struct {
	typeName string
	attrs    map[string]any
	err      error
}

// NewAttrMap wraps a raw attribute map for the named entity type.
func NewAttrMap(typeName string, attrs map[string]any) *AttrMap {
	m := make(map[string]any, len(attrs))
	for k, v := range attrs {
		m[k] = v
	}
	return &AttrMap{typeName: typeName, attrs: m}
}

func (m *AttrMap) take(key string) (any, bool) {
	if m.err != nil {
		return nil, false
	}
	v, ok := m.attrs[key]
	if !ok {
		m.err = SchemaMismatchError{TypeName: m.typeName, Keys: []string{key}, Reason: "missing attribute"}
		return nil, false
	}
	delete(m.attrs, key)
	return v, true
}

func (m *AttrMap) fail(key, want string, got any) {
	if m.err == nil {
		m.err = SchemaMismatchError{
			TypeName: m.typeName,
			Keys:     []string{key},
			Reason:   fmt.Sprintf("attribute %s: want %s, got %T", key, want, got),
		}
	}
}

// OID consumes an identifier attribute.
func (m *AttrMap) OID(key string) *oid.OID {
	v, ok := m.take(key)
	if !ok {
		return nil
	}
	id, ok := v.(*oid.OID)
	if !ok {
		m.fail(key, "OID", v)
		return nil
	}
	return id
}

// String consumes a text attribute. JSON null reads as the empty string.
func (m *AttrMap) String(key string) string {
	v, ok := m.take(key)
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		m.fail(key, "string", v)
		return ""
	}
	return s
}

// Int consumes an integer attribute.
func (m *AttrMap) Int(key string) int {
	v, ok := m.take(key)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return int(n)
	case float64:
		if n == float64(int64(n)) {
			return int(n)
		}
	}
	m.fail(key, "integer", v)
	return 0
}

// Time consumes a timestamp attribute.
func (m *AttrMap) Time(key string) time.Time {
	v, ok := m.take(key)
	if !ok {
		return time.Time{}
	}
	t, ok := v.(time.Time)
	if !ok {
		m.fail(key, "timestamp", v)
		return time.Time{}
	}
	return t
}

// Date consumes a calendar-date attribute.
func (m *AttrMap) Date(key string) Date {
	v, ok := m.take(key)
	if !ok {
		return Date{}
	}
	d, ok := v.(Date)
	if !ok {
		m.fail(key, "date", v)
		return Date{}
	}
	return d
}

// Path consumes a filesystem-path attribute.
func (m *AttrMap) Path(key string) Path {
	v, ok := m.take(key)
	if !ok {
		return ""
	}
	p, ok := v.(Path)
	if !ok {
		m.fail(key, "path", v)
		return ""
	}
	return p
}

// Kind consumes a data-kind attribute.
func (m *AttrMap) Kind(key string) DataKind {
	v, ok := m.take(key)
	if !ok {
		return ""
	}
	k, ok := v.(DataKind)
	if !ok {
		m.fail(key, "data kind", v)
		return ""
	}
	return k
}

// Meter consumes a meter-type attribute.
func (m *AttrMap) Meter(key string) MeterType {
	v, ok := m.take(key)
	if !ok {
		return ""
	}
	t, ok := v.(MeterType)
	if !ok {
		m.fail(key, "meter type", v)
		return ""
	}
	return t
}

// OptionalMeter consumes a meter-type attribute that may be null or absent.
func (m *AttrMap) OptionalMeter(key string) MeterType {
	if m.err != nil {
		return ""
	}
	v, ok := m.attrs[key]
	if !ok {
		return ""
	}
	delete(m.attrs, key)
	if v == nil {
		return ""
	}
	t, ok := v.(MeterType)
	if !ok {
		m.fail(key, "meter type", v)
		return ""
	}
	return t
}

// List consumes an array attribute. JSON null reads as an empty list.
func (m *AttrMap) List(key string) []any {
	v, ok := m.take(key)
	if !ok || v == nil {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		m.fail(key, "array", v)
		return nil
	}
	return list
}

// Map consumes an opaque-object attribute. JSON null reads as an empty map.
func (m *AttrMap) Map(key string) map[string]any {
	v, ok := m.take(key)
	if !ok || v == nil {
		return map[string]any{}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		m.fail(key, "object", v)
		return map[string]any{}
	}
	return obj
}

// File consumes an owned data-file attribute that may be null.
func (m *AttrMap) File(key string) *DataFile {
	v, ok := m.take(key)
	if !ok || v == nil {
		return nil
	}
	f, ok := v.(*DataFile)
	if !ok {
		m.fail(key, "data file", v)
		return nil
	}
	return f
}

// Link consumes a link-typed attribute. References are deferred to the
// relink pass and read as nil here; a document that inlines the target
// entity instead yields it directly.
func (m *AttrMap) Link(key string) Entity {
	v, ok := m.take(key)
	if !ok || v == nil {
		return nil
	}
	ent, ok := v.(Entity)
	if !ok {
		m.fail(key, "reference", v)
		return nil
	}
	return ent
}

// Finish returns the first accessor failure, or flags unconsumed keys.
func (m *AttrMap) Finish() error {
	if m.err != nil {
		return m.err
	}
	if len(m.attrs) > 0 {
		keys := make([]string, 0, len(m.attrs))
		for k := range m.attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return SchemaMismatchError{TypeName: m.typeName, Keys: keys, Reason: "unconsumed attributes"}
	}
	return nil
}
