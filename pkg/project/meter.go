package project

import (
	"sort"

	"gravcore/pkg/oid"
)

var _ Entity = (*Gravimeter)(nil)

// Gravimeter is a sensor owned by the project and shared by reference
// across the datasets it recorded. Configuration is the flat key/value map
// read from the manufacturer's meter file.
type Gravimeter struct {
	uid    *oid.OID
	name   string
	mtype  MeterType
	config map[string]any
}

// NewGravimeter registers an instrument with the project pool.
func NewGravimeter(mtype MeterType, name string) *Gravimeter {
	g := &Gravimeter{name: name, mtype: mtype, config: map[string]any{}}
	g.uid = oid.New(g, name)
	return g
}

// UID implements Entity.
func (g *Gravimeter) UID() *oid.OID { return g.uid }

// TypeName implements Entity.
func (g *Gravimeter) TypeName() string { return "Gravimeter" }

// Name returns the instrument's serial or display name.
func (g *Gravimeter) Name() string { return g.name }

// SetName renames the instrument.
func (g *Gravimeter) SetName(name string) { g.name = name }

// Type returns the hardware family.
func (g *Gravimeter) Type() MeterType { return g.mtype }

// Config returns the live configuration map.
func (g *Gravimeter) Config() map[string]any { return g.config }

// SetConfig stores one configuration value. Values are restricted to JSON
// scalars by the encoder.
func (g *Gravimeter) SetConfig(key string, value any) {
	if g.config == nil {
		g.config = map[string]any{}
	}
	g.config[key] = value
}

// ConfigKeys returns the configuration keys in sorted order.
func (g *Gravimeter) ConfigKeys() []string {
	keys := make([]string, 0, len(g.config))
	for k := range g.config {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Fields implements Entity.
func (g *Gravimeter) Fields() []Field {
	return []Field{
		{Name: "uid", Value: g.uid},
		{Name: "name", Value: g.name},
		{Name: "type", Value: g.mtype},
		{Name: "config", Value: g.config},
	}
}

func newGravimeterFromAttrs(attrs *AttrMap) (Entity, error) {
	g := &Gravimeter{}
	g.uid = attrs.OID("uid")
	g.name = attrs.String("name")
	g.mtype = attrs.Meter("type")
	g.config = attrs.Map("config")
	if err := attrs.Finish(); err != nil {
		return nil, err
	}
	g.uid.SetPointer(g)
	return g, nil
}
