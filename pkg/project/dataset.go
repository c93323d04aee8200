package project

import (
	"sort"
	"time"

	"gravcore/pkg/oid"
)

var (
	_ Entity   = (*DataSet)(nil)
	_ relinker = (*DataSet)(nil)
	_ Entity   = (*DataSegment)(nil)
)

// DataSet pairs at most one gravity data file with at most one trajectory
// data file and the segments that window them. The sensor edge points at a
// gravimeter owned by the project; the same instrument may back any number
// of datasets, so it is written by identity.
type DataSet struct {
	uid        *oid.OID
	gravity    *DataFile
	trajectory *DataFile
	segments   []*DataSegment
	sensor     *Gravimeter
}

// NewDataSet creates an empty dataset.
func NewDataSet() *DataSet {
	d := &DataSet{}
	d.uid = oid.New(d, "")
	return d
}

// UID implements Entity.
func (d *DataSet) UID() *oid.OID { return d.uid }

// TypeName implements Entity.
func (d *DataSet) TypeName() string { return "DataSet" }

// Gravity returns the gravity data file, nil when not yet imported.
func (d *DataSet) Gravity() *DataFile { return d.gravity }

// SetGravity attaches the gravity data file.
func (d *DataSet) SetGravity(f *DataFile) { d.gravity = f }

// Trajectory returns the trajectory data file, nil when not yet imported.
func (d *DataSet) Trajectory() *DataFile { return d.trajectory }

// SetTrajectory attaches the trajectory data file.
func (d *DataSet) SetTrajectory(f *DataFile) { d.trajectory = f }

// Segments returns the owned segments in declaration order.
func (d *DataSet) Segments() []*DataSegment { return d.segments }

// AddSegment appends a segment.
func (d *DataSet) AddSegment(seg *DataSegment) {
	d.segments = append(d.segments, seg)
}

// SortSegments orders segments by sequence index.
func (d *DataSet) SortSegments() {
	sort.SliceStable(d.segments, func(i, j int) bool {
		return d.segments[i].Sequence() < d.segments[j].Sequence()
	})
}

// Sensor returns the gravimeter this dataset was recorded with.
func (d *DataSet) Sensor() *Gravimeter { return d.sensor }

// SetSensor links the dataset to a shared, project-owned gravimeter.
func (d *DataSet) SetSensor(meter *Gravimeter) { d.sensor = meter }

// Fields implements Entity. The sensor edge is wrapped in a Reference so
// the shared instrument is written by identity only.
func (d *DataSet) Fields() []Field {
	var sensor Entity
	if d.sensor != nil {
		sensor = d.sensor
	}
	return []Field{
		{Name: "uid", Value: d.uid},
		{Name: "gravity", Value: entityOrNil(d.gravity)},
		{Name: "trajectory", Value: entityOrNil(d.trajectory)},
		{Name: "segments", Value: entityList(d.segments)},
		{Name: "sensor", Value: NewReference(d, "sensor", sensor)},
	}
}

func (d *DataSet) relink(attr string, target Entity) error {
	switch attr {
	case "sensor":
		meter, ok := target.(*Gravimeter)
		if !ok {
			return SchemaMismatchError{
				TypeName: d.TypeName(),
				Keys:     []string{attr},
				Reason:   "reference target is not a gravimeter",
			}
		}
		d.sensor = meter
		return nil
	}
	return SchemaMismatchError{TypeName: d.TypeName(), Keys: []string{attr}, Reason: "unknown link attribute"}
}

func newDataSetFromAttrs(attrs *AttrMap) (Entity, error) {
	d := &DataSet{}
	d.uid = attrs.OID("uid")
	d.gravity = attrs.File("gravity")
	d.trajectory = attrs.File("trajectory")
	segments, err := listOf[*DataSegment](d.TypeName(), "segments", attrs.List("segments"))
	if err != nil {
		return nil, err
	}
	d.segments = segments
	if ent := attrs.Link("sensor"); ent != nil {
		if err := d.relink("sensor", ent); err != nil {
			return nil, err
		}
	}
	if err := attrs.Finish(); err != nil {
		return nil, err
	}
	d.uid.SetPointer(d)
	return d, nil
}

// DataSegment windows a slice of a dataset's series between two instants,
// usually one survey line.
type DataSegment struct {
	uid      *oid.OID
	start    time.Time
	stop     time.Time
	sequence int
	label    string
}

// NewDataSegment creates a segment covering [start, stop]. Timestamps are
// clamped to the microsecond grid the wire format carries.
func NewDataSegment(start, stop time.Time, sequence int, label string) *DataSegment {
	s := &DataSegment{
		start:    truncateMicros(start),
		stop:     truncateMicros(stop),
		sequence: sequence,
		label:    label,
	}
	s.uid = oid.New(s, label)
	return s
}

// UID implements Entity.
func (s *DataSegment) UID() *oid.OID { return s.uid }

// TypeName implements Entity.
func (s *DataSegment) TypeName() string { return "DataSegment" }

// Start returns the inclusive segment start.
func (s *DataSegment) Start() time.Time { return s.start }

// Stop returns the inclusive segment end.
func (s *DataSegment) Stop() time.Time { return s.stop }

// SetWindow moves the segment bounds.
func (s *DataSegment) SetWindow(start, stop time.Time) {
	s.start = truncateMicros(start)
	s.stop = truncateMicros(stop)
}

// Sequence returns the segment's position within its dataset.
func (s *DataSegment) Sequence() int { return s.sequence }

// SetSequence reorders the segment within its dataset.
func (s *DataSegment) SetSequence(sequence int) { s.sequence = sequence }

// Label returns the optional display label.
func (s *DataSegment) Label() string { return s.label }

// SetLabel replaces the display label.
func (s *DataSegment) SetLabel(label string) { s.label = label }

// Fields implements Entity.
func (s *DataSegment) Fields() []Field {
	return []Field{
		{Name: "uid", Value: s.uid},
		{Name: "start", Value: s.start},
		{Name: "stop", Value: s.stop},
		{Name: "sequence", Value: s.sequence},
		{Name: "label", Value: s.label},
	}
}

func newDataSegmentFromAttrs(attrs *AttrMap) (Entity, error) {
	s := &DataSegment{}
	s.uid = attrs.OID("uid")
	s.start = attrs.Time("start")
	s.stop = attrs.Time("stop")
	s.sequence = attrs.Int("sequence")
	s.label = attrs.String("label")
	if err := attrs.Finish(); err != nil {
		return nil, err
	}
	s.uid.SetPointer(s)
	return s, nil
}
