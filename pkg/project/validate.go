package project

import "fmt"

// Severity grades a validation finding.
type Severity string

// Validation severities.
const (
	// SeverityBlock marks findings that make the document fail or corrupt
	// a later load.
	SeverityBlock Severity = "block"
	// SeverityWarn marks findings a project can live with.
	SeverityWarn Severity = "warn"
)

// Violation is one failed graph invariant.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	UID      string
}

// HasBlocking reports whether any violation is blocking.
func HasBlocking(violations []Violation) bool {
	for _, v := range violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Validate checks the whole-graph invariants a well-formed project
// satisfies: identifier uniqueness, single ownership, reference targets
// that live inside the tree, valid group tags, and segment ordering. The
// graph is never mutated; every finding is reported, not just the first.
func Validate(p Project) []Violation {
	val := &validator{root: p, counts: map[string]int{}, meters: map[*Gravimeter]bool{}}
	val.visit(p)
	for _, meter := range p.Gravimeters() {
		val.meters[meter] = true
		val.visit(meter)
	}
	if airborne, ok := p.(*AirborneProject); ok {
		for _, flight := range airborne.Flights() {
			val.flight(flight)
		}
	}
	val.reportDuplicates()
	return val.violations
}

type validator struct {
	root       Project
	violations []Violation
	counts     map[string]int
	order      []Entity
	meters     map[*Gravimeter]bool
}

func (v *validator) visit(ent Entity) {
	if ent.UID() == nil {
		v.add("unique_oid", SeverityBlock, fmt.Sprintf("%s has no identifier", ent.TypeName()), "")
		return
	}
	base := ent.UID().Base()
	v.counts[base]++
	if v.counts[base] == 1 {
		v.order = append(v.order, ent)
	}
}

func (v *validator) flight(f *Flight) {
	v.visit(f)
	switch parent := f.Parent(); {
	case parent == nil:
		v.add("flight_parent", SeverityWarn, "flight is not attached to a project", uidOf(f))
	case parent != v.root:
		v.add("flight_parent", SeverityBlock, "flight parent references an entity outside this document", uidOf(f))
	}
	for _, ds := range f.DataSets() {
		v.dataset(ds)
	}
}

func (v *validator) dataset(d *DataSet) {
	v.visit(d)
	if d.Gravity() != nil {
		v.datafile(d.Gravity())
	}
	if d.Trajectory() != nil {
		v.datafile(d.Trajectory())
	}
	prev := 0
	for i, seg := range d.Segments() {
		v.visit(seg)
		if i > 0 && seg.Sequence() <= prev {
			v.add("segment_order", SeverityWarn, fmt.Sprintf("segment sequence %d out of order", seg.Sequence()), uidOf(seg))
		}
		prev = seg.Sequence()
	}
	if d.Sensor() != nil && !v.meters[d.Sensor()] {
		v.add("dataset_sensor", SeverityBlock, "dataset sensor is not owned by this project", uidOf(d))
	}
}

func (v *validator) datafile(f *DataFile) {
	v.visit(f)
	if _, err := ParseDataKind(string(f.Group())); err != nil {
		v.add("datafile_group", SeverityBlock, fmt.Sprintf("invalid data kind %q", string(f.Group())), uidOf(f))
	}
}

// reportDuplicates runs after the walk so an identifier shared by three
// entities produces one finding, not three.
func (v *validator) reportDuplicates() {
	for _, ent := range v.order {
		base := ent.UID().Base()
		if n := v.counts[base]; n > 1 {
			v.add("unique_oid", SeverityBlock, fmt.Sprintf("identifier %s is shared by %d entities", base, n), base)
			delete(v.counts, base)
		}
	}
}

func (v *validator) add(rule string, severity Severity, message, uid string) {
	v.violations = append(v.violations, Violation{Rule: rule, Severity: severity, Message: message, UID: uid})
}

func uidOf(ent Entity) string {
	if ent.UID() == nil {
		return ""
	}
	return ent.UID().Base()
}
