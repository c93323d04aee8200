package project

import (
	"fmt"
	"reflect"
	"time"

	"gravcore/pkg/oid"
)

// modulePath is the namespace recorded beside each tagged object in a
// document. Decoders treat it as a hint only.
const modulePath = "gravcore/pkg/project"

// ValueCodec serializes one non-entity value type (identifier, timestamp,
// date, path, enumeration) as a tagged object carrying a single scalar
// attribute.
type ValueCodec struct {
	// Name is the wire value of _type.
	Name string
	// Module is the wire value of _module.
	Module string
	// Attr names the single data attribute.
	Attr string
	// Encode renders the runtime value as a JSON scalar.
	Encode func(v any) (any, error)
	// Decode reconstructs the runtime value from the JSON scalar.
	Decode func(raw any) (any, error)
}

// EntityFactory reconstructs one entity from its decoded attribute map.
type EntityFactory func(attrs *AttrMap) (Entity, error)

type entityEntry struct {
	module  string
	factory EntityFactory
}

// TypeRegistry holds the two declarative tables driving the encoder and
// decoder: value types serialized as tagged scalars, and entity types
// reconstructed through factories. A registry is a plain value wired into
// Encoder and Decoder explicitly; there is no package-global table, so
// callers with schema extensions register them without interfering with
// each other.
type TypeRegistry struct {
	values       map[reflect.Type]ValueCodec
	valuesByName map[string]ValueCodec
	entities     map[string]entityEntry
}

// NewTypeRegistry returns an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		values:       map[reflect.Type]ValueCodec{},
		valuesByName: map[string]ValueCodec{},
		entities:     map[string]entityEntry{},
	}
}

// RegisterValue adds or replaces the codec for one runtime type.
func (r *TypeRegistry) RegisterValue(rt reflect.Type, codec ValueCodec) {
	r.values[rt] = codec
	r.valuesByName[codec.Name] = codec
}

// RegisterEntity adds or replaces the factory for one entity type name.
// Module is recorded beside encoded instances as a decoder hint.
func (r *TypeRegistry) RegisterEntity(name, module string, factory EntityFactory) {
	r.entities[name] = entityEntry{module: module, factory: factory}
}

func (r *TypeRegistry) valueCodecFor(v any) (ValueCodec, bool) {
	codec, ok := r.values[reflect.TypeOf(v)]
	return codec, ok
}

func (r *TypeRegistry) valueCodecNamed(name string) (ValueCodec, bool) {
	codec, ok := r.valuesByName[name]
	return codec, ok
}

func (r *TypeRegistry) entityNamed(name string) (EntityFactory, bool) {
	entry, ok := r.entities[name]
	if !ok {
		return nil, false
	}
	return entry.factory, true
}

func (r *TypeRegistry) entityModule(name string) string {
	if entry, ok := r.entities[name]; ok && entry.module != "" {
		return entry.module
	}
	return modulePath
}

func scalarFloat(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func scalarInt(raw any) (int, bool) {
	switch n := raw.(type) {
	case int64:
		return int(n), true
	case float64:
		if n == float64(int64(n)) {
			return int(n), true
		}
	}
	return 0, false
}

// DefaultRegistry returns a registry covering every built-in value and
// entity type.
func DefaultRegistry() *TypeRegistry {
	r := NewTypeRegistry()

	r.RegisterValue(reflect.TypeOf((*oid.OID)(nil)), ValueCodec{
		Name:   "OID",
		Module: "gravcore/pkg/oid",
		Attr:   "base_uuid",
		Encode: func(v any) (any, error) { return v.(*oid.OID).Base(), nil },
		Decode: func(raw any) (any, error) {
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("base_uuid: want string, got %T", raw)
			}
			return oid.FromString(s, "")
		},
	})

	r.RegisterValue(reflect.TypeOf(time.Time{}), ValueCodec{
		Name:   "datetime",
		Module: "time",
		Attr:   "timestamp",
		Encode: func(v any) (any, error) {
			return timeToEpoch(truncateMicros(v.(time.Time))), nil
		},
		Decode: func(raw any) (any, error) {
			seconds, ok := scalarFloat(raw)
			if !ok {
				return nil, fmt.Errorf("timestamp: want number, got %T", raw)
			}
			return epochToTime(seconds), nil
		},
	})

	r.RegisterValue(reflect.TypeOf(Date{}), ValueCodec{
		Name:   "date",
		Module: modulePath,
		Attr:   "ordinal",
		Encode: func(v any) (any, error) { return v.(Date).Ordinal(), nil },
		Decode: func(raw any) (any, error) {
			ordinal, ok := scalarInt(raw)
			if !ok {
				return nil, fmt.Errorf("ordinal: want integer, got %T", raw)
			}
			return DateFromOrdinal(ordinal)
		},
	})

	r.RegisterValue(reflect.TypeOf(Path("")), ValueCodec{
		Name:   "Path",
		Module: modulePath,
		Attr:   "path",
		Encode: func(v any) (any, error) {
			resolved, err := v.(Path).Abs()
			if err != nil {
				return nil, err
			}
			return string(resolved), nil
		},
		Decode: func(raw any) (any, error) {
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("path: want string, got %T", raw)
			}
			return Path(s), nil
		},
	})

	r.RegisterValue(reflect.TypeOf(DataKind("")), ValueCodec{
		Name:   "DataKind",
		Module: modulePath,
		Attr:   "value",
		Encode: func(v any) (any, error) { return string(v.(DataKind)), nil },
		Decode: func(raw any) (any, error) {
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("value: want string, got %T", raw)
			}
			return ParseDataKind(s)
		},
	})

	r.RegisterValue(reflect.TypeOf(MeterType("")), ValueCodec{
		Name:   "MeterType",
		Module: modulePath,
		Attr:   "value",
		Encode: func(v any) (any, error) { return string(v.(MeterType)), nil },
		Decode: func(raw any) (any, error) {
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("value: want string, got %T", raw)
			}
			return ParseMeterType(s)
		},
	})

	r.RegisterEntity("AirborneProject", modulePath, newAirborneProjectFromAttrs)
	r.RegisterEntity("MarineProject", modulePath, newMarineProjectFromAttrs)
	r.RegisterEntity("Flight", modulePath, newFlightFromAttrs)
	r.RegisterEntity("DataSet", modulePath, newDataSetFromAttrs)
	r.RegisterEntity("DataSegment", modulePath, newDataSegmentFromAttrs)
	r.RegisterEntity("DataFile", modulePath, newDataFileFromAttrs)
	r.RegisterEntity("Gravimeter", modulePath, newGravimeterFromAttrs)

	return r
}
