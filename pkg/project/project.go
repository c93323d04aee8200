// Package project implements the persistence model for gravity survey
// projects: an ownership tree of flights, datasets, data files, and
// gravimeters rooted at a concrete project type, serialized to a
// deterministic JSON document and restored with identity and
// cross-reference fidelity. Bulk numeric series never enter the document;
// data files carry a derived node path an external store resolves.
package project

import (
	"fmt"
	"time"

	"gravcore/pkg/oid"
)

// ProjectKind selects the concrete root type a document is decoded into.
type ProjectKind string

// Supported concrete project kinds.
const (
	ProjectKindAirborne ProjectKind = "airborne"
	ProjectKindMarine   ProjectKind = "marine"
)

func (k ProjectKind) typeName() string {
	switch k {
	case ProjectKindAirborne:
		return "AirborneProject"
	case ProjectKindMarine:
		return "MarineProject"
	}
	return ""
}

// Project is the root of a persistable entity graph.
type Project interface {
	Entity
	Name() string
	SetName(name string)
	Path() Path
	SetPath(path Path)
	Description() string
	SetDescription(description string)
	CreateDate() time.Time
	ModifyDate() time.Time
	Gravimeters() []*Gravimeter
	// Attributes is the project's free-form metadata map, stored opaquely.
	Attributes() map[string]any
	SetAttribute(key string, value any)
	Attribute(key string) (any, bool)
	// AddChild attaches an owned entity of a kind the concrete project
	// accepts. Flights learn their parent project here.
	AddChild(child Entity) error
	// GetChild finds a directly owned child by raw uid or prefixed form.
	GetChild(id string) (Entity, bool)
	RemoveChild(id string) bool
}

var (
	_ Project = (*AirborneProject)(nil)
	_ Project = (*MarineProject)(nil)
	_ Entity  = (*AirborneProject)(nil)
	_ Entity  = (*MarineProject)(nil)
)

// GravityProject carries the state every concrete project type shares. It
// is not itself an entity; AirborneProject and MarineProject embed it.
type GravityProject struct {
	uid         *oid.OID
	name        string
	path        Path
	description string
	createDate  time.Time
	modifyDate  time.Time
	gravimeters []*Gravimeter
	attributes  map[string]any
}

func newGravityProject(name string, path Path, description string) GravityProject {
	now := utcNow()
	return GravityProject{
		name:        name,
		path:        path,
		description: description,
		createDate:  now,
		modifyDate:  now,
		attributes:  map[string]any{},
	}
}

// UID returns the project identifier.
func (p *GravityProject) UID() *oid.OID { return p.uid }

// Name returns the project display name.
func (p *GravityProject) Name() string { return p.name }

// SetName renames the project and touches the modification time.
func (p *GravityProject) SetName(name string) {
	p.name = name
	p.touch()
}

// Path returns the project directory.
func (p *GravityProject) Path() Path { return p.path }

// SetPath moves the project directory and touches the modification time.
func (p *GravityProject) SetPath(path Path) {
	p.path = path
	p.touch()
}

// Description returns the free-form project description.
func (p *GravityProject) Description() string { return p.description }

// SetDescription replaces the description and touches the modification time.
func (p *GravityProject) SetDescription(description string) {
	p.description = description
	p.touch()
}

// CreateDate returns when the project was first constructed.
func (p *GravityProject) CreateDate() time.Time { return p.createDate }

// ModifyDate returns when the project was last mutated.
func (p *GravityProject) ModifyDate() time.Time { return p.modifyDate }

// Gravimeters returns the directly owned instruments.
func (p *GravityProject) Gravimeters() []*Gravimeter { return p.gravimeters }

// Attributes returns the live free-form metadata map.
func (p *GravityProject) Attributes() map[string]any { return p.attributes }

// SetAttribute stores a free-form metadata value.
func (p *GravityProject) SetAttribute(key string, value any) {
	if p.attributes == nil {
		p.attributes = map[string]any{}
	}
	p.attributes[key] = value
	p.touch()
}

// Attribute looks up a free-form metadata value.
func (p *GravityProject) Attribute(key string) (any, bool) {
	v, ok := p.attributes[key]
	return v, ok
}

func (p *GravityProject) touch() { p.modifyDate = utcNow() }

func (p *GravityProject) addGravimeter(meter *Gravimeter) {
	p.gravimeters = append(p.gravimeters, meter)
	p.touch()
}

func (p *GravityProject) findGravimeter(id string) (*Gravimeter, bool) {
	for _, meter := range p.gravimeters {
		if meter.UID().Matches(id) {
			return meter, true
		}
	}
	return nil, false
}

func (p *GravityProject) removeGravimeter(id string) bool {
	for i, meter := range p.gravimeters {
		if meter.UID().Matches(id) {
			p.gravimeters = append(p.gravimeters[:i], p.gravimeters[i+1:]...)
			p.touch()
			return true
		}
	}
	return false
}

// baseFields is the shared prefix of every concrete project's declared
// field set. Field order is fixed; it drives document byte stability.
func (p *GravityProject) baseFields() []Field {
	return []Field{
		{Name: "uid", Value: p.uid},
		{Name: "name", Value: p.name},
		{Name: "path", Value: p.path},
		{Name: "description", Value: p.description},
		{Name: "create_date", Value: p.createDate},
		{Name: "modify_date", Value: p.modifyDate},
		{Name: "gravimeters", Value: entityList(p.gravimeters)},
		{Name: "attributes", Value: p.attributes},
	}
}

// restoreBase consumes the shared attribute prefix during decoding.
func (p *GravityProject) restoreBase(attrs *AttrMap, typeName string) error {
	p.uid = attrs.OID("uid")
	p.name = attrs.String("name")
	p.path = attrs.Path("path")
	p.description = attrs.String("description")
	p.createDate = attrs.Time("create_date")
	p.modifyDate = attrs.Time("modify_date")
	meters, err := listOf[*Gravimeter](typeName, "gravimeters", attrs.List("gravimeters"))
	if err != nil {
		return err
	}
	p.gravimeters = meters
	p.attributes = attrs.Map("attributes")
	return nil
}

// AirborneProject is a project flown on an aircraft; it owns flights in
// addition to the shared instrument pool.
type AirborneProject struct {
	GravityProject
	flights []*Flight
}

// NewAirborneProject creates an empty airborne project.
func NewAirborneProject(name string, path Path, description string) *AirborneProject {
	p := &AirborneProject{GravityProject: newGravityProject(name, path, description)}
	p.uid = oid.New(p, name)
	return p
}

// TypeName implements Entity.
func (p *AirborneProject) TypeName() string { return "AirborneProject" }

// Flights returns the owned flights.
func (p *AirborneProject) Flights() []*Flight { return p.flights }

// AddChild accepts flights and gravimeters.
func (p *AirborneProject) AddChild(child Entity) error {
	switch c := child.(type) {
	case *Flight:
		c.setParent(p)
		p.flights = append(p.flights, c)
		p.touch()
	case *Gravimeter:
		p.addGravimeter(c)
	default:
		return fmt.Errorf("add child to %s: unsupported entity type %T", p.TypeName(), child)
	}
	return nil
}

// GetChild implements Project over flights and gravimeters.
func (p *AirborneProject) GetChild(id string) (Entity, bool) {
	for _, flight := range p.flights {
		if flight.UID().Matches(id) {
			return flight, true
		}
	}
	if meter, ok := p.findGravimeter(id); ok {
		return meter, true
	}
	return nil, false
}

// RemoveChild detaches a directly owned flight or gravimeter.
func (p *AirborneProject) RemoveChild(id string) bool {
	for i, flight := range p.flights {
		if flight.UID().Matches(id) {
			flight.setParent(nil)
			p.flights = append(p.flights[:i], p.flights[i+1:]...)
			p.touch()
			return true
		}
	}
	return p.removeGravimeter(id)
}

// Fields implements Entity.
func (p *AirborneProject) Fields() []Field {
	return append(p.baseFields(), Field{Name: "flights", Value: entityList(p.flights)})
}

func newAirborneProjectFromAttrs(attrs *AttrMap) (Entity, error) {
	p := &AirborneProject{}
	if err := p.restoreBase(attrs, p.TypeName()); err != nil {
		return nil, err
	}
	flights, err := listOf[*Flight](p.TypeName(), "flights", attrs.List("flights"))
	if err != nil {
		return nil, err
	}
	p.flights = flights
	if err := attrs.Finish(); err != nil {
		return nil, err
	}
	p.uid.SetPointer(p)
	return p, nil
}

// MarineProject is a project towed or mounted on a vessel. It carries the
// shared project state only; marine campaign modeling stops at datasets
// attached through future revisions.
type MarineProject struct {
	GravityProject
}

// NewMarineProject creates an empty marine project.
func NewMarineProject(name string, path Path, description string) *MarineProject {
	p := &MarineProject{GravityProject: newGravityProject(name, path, description)}
	p.uid = oid.New(p, name)
	return p
}

// TypeName implements Entity.
func (p *MarineProject) TypeName() string { return "MarineProject" }

// AddChild accepts gravimeters.
func (p *MarineProject) AddChild(child Entity) error {
	meter, ok := child.(*Gravimeter)
	if !ok {
		return fmt.Errorf("add child to %s: unsupported entity type %T", p.TypeName(), child)
	}
	p.addGravimeter(meter)
	return nil
}

// GetChild implements Project over gravimeters.
func (p *MarineProject) GetChild(id string) (Entity, bool) {
	meter, ok := p.findGravimeter(id)
	if !ok {
		return nil, false
	}
	return meter, true
}

// RemoveChild detaches a directly owned gravimeter.
func (p *MarineProject) RemoveChild(id string) bool {
	return p.removeGravimeter(id)
}

// Fields implements Entity.
func (p *MarineProject) Fields() []Field {
	return p.baseFields()
}

func newMarineProjectFromAttrs(attrs *AttrMap) (Entity, error) {
	p := &MarineProject{}
	if err := p.restoreBase(attrs, p.TypeName()); err != nil {
		return nil, err
	}
	if err := attrs.Finish(); err != nil {
		return nil, err
	}
	p.uid.SetPointer(p)
	return p, nil
}
