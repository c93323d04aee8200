package project

import "gravcore/pkg/oid"

var (
	_ Entity   = (*Flight)(nil)
	_ relinker = (*Flight)(nil)
)

// Flight groups the datasets captured during one survey flight. It holds a
// back-reference to its owning project, the one upward edge in the graph,
// which is written by identity to keep the document acyclic.
type Flight struct {
	uid      *oid.OID
	name     string
	date     Date
	notes    string
	datasets []*DataSet
	parent   Project
}

// NewFlight creates a flight not yet attached to a project.
func NewFlight(name string, date Date, notes string) *Flight {
	f := &Flight{name: name, date: date, notes: notes}
	f.uid = oid.New(f, name)
	return f
}

// UID implements Entity.
func (f *Flight) UID() *oid.OID { return f.uid }

// TypeName implements Entity.
func (f *Flight) TypeName() string { return "Flight" }

// Name returns the flight designator.
func (f *Flight) Name() string { return f.name }

// SetName renames the flight.
func (f *Flight) SetName(name string) { f.name = name }

// Date returns the calendar day the flight was flown.
func (f *Flight) Date() Date { return f.date }

// SetDate moves the flight to another calendar day.
func (f *Flight) SetDate(date Date) { f.date = date }

// Notes returns the free-form flight notes.
func (f *Flight) Notes() string { return f.notes }

// SetNotes replaces the free-form flight notes.
func (f *Flight) SetNotes(notes string) { f.notes = notes }

// DataSets returns the owned datasets.
func (f *Flight) DataSets() []*DataSet { return f.datasets }

// AddDataSet attaches a dataset to the flight.
func (f *Flight) AddDataSet(ds *DataSet) {
	f.datasets = append(f.datasets, ds)
}

// RemoveDataSet detaches a dataset by raw uid or prefixed form.
func (f *Flight) RemoveDataSet(id string) bool {
	for i, ds := range f.datasets {
		if ds.UID().Matches(id) {
			f.datasets = append(f.datasets[:i], f.datasets[i+1:]...)
			return true
		}
	}
	return false
}

// Parent returns the owning project, nil while detached.
func (f *Flight) Parent() Project { return f.parent }

func (f *Flight) setParent(p Project) { f.parent = p }

// Fields implements Entity. The parent edge is wrapped in a Reference so
// the encoder writes the project by identity only.
func (f *Flight) Fields() []Field {
	var parent Entity
	if f.parent != nil {
		parent = f.parent
	}
	return []Field{
		{Name: "uid", Value: f.uid},
		{Name: "name", Value: f.name},
		{Name: "date", Value: f.date},
		{Name: "notes", Value: f.notes},
		{Name: "datasets", Value: entityList(f.datasets)},
		{Name: "parent", Value: NewReference(f, "parent", parent)},
	}
}

func (f *Flight) relink(attr string, target Entity) error {
	switch attr {
	case "parent":
		p, ok := target.(Project)
		if !ok {
			return SchemaMismatchError{
				TypeName: f.TypeName(),
				Keys:     []string{attr},
				Reason:   "reference target is not a project",
			}
		}
		f.parent = p
		return nil
	}
	return SchemaMismatchError{TypeName: f.TypeName(), Keys: []string{attr}, Reason: "unknown link attribute"}
}

func newFlightFromAttrs(attrs *AttrMap) (Entity, error) {
	f := &Flight{}
	f.uid = attrs.OID("uid")
	f.name = attrs.String("name")
	f.date = attrs.Date("date")
	f.notes = attrs.String("notes")
	datasets, err := listOf[*DataSet](f.TypeName(), "datasets", attrs.List("datasets"))
	if err != nil {
		return nil, err
	}
	f.datasets = datasets
	if ent := attrs.Link("parent"); ent != nil {
		if err := f.relink("parent", ent); err != nil {
			return nil, err
		}
	}
	if err := attrs.Finish(); err != nil {
		return nil, err
	}
	f.uid.SetPointer(f)
	return f, nil
}
