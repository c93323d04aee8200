package project

import (
	"fmt"
	"path/filepath"

	"gravcore/pkg/oid"
)

var _ Entity = (*DataFile)(nil)

// DataFile records where a bulk series came from and where its imported
// form lives. The series itself never enters the project document; an
// external store resolves the derived node path.
type DataFile struct {
	uid          *oid.OID
	group        DataKind
	date         Date
	sourcePath   Path
	name         string
	columnFormat MeterType
}

// NewDataFile describes an imported series. An empty name defaults to the
// base name of the source path; columnFormat applies to raw gravity files
// and may be left empty.
func NewDataFile(group DataKind, date Date, sourcePath Path, name string, columnFormat MeterType) *DataFile {
	if name == "" {
		name = filepath.Base(string(sourcePath))
	}
	f := &DataFile{
		group:        group,
		date:         date,
		sourcePath:   sourcePath,
		name:         name,
		columnFormat: columnFormat,
	}
	f.uid = oid.New(f, name)
	return f
}

// UID implements Entity.
func (f *DataFile) UID() *oid.OID { return f.uid }

// TypeName implements Entity.
func (f *DataFile) TypeName() string { return "DataFile" }

// Group returns the series kind, which doubles as the storage group.
func (f *DataFile) Group() DataKind { return f.group }

// Date returns the acquisition date.
func (f *DataFile) Date() Date { return f.date }

// SourcePath returns the path the series was originally imported from.
func (f *DataFile) SourcePath() Path { return f.sourcePath }

// Name returns the display name.
func (f *DataFile) Name() string { return f.name }

// ColumnFormat returns the raw-file column layout, empty when unknown.
func (f *DataFile) ColumnFormat() MeterType { return f.columnFormat }

// NodePath derives the stable bulk-store address of this file's series.
// It depends only on the group tag and the uid, so it survives renames and
// save/load cycles.
func (f *DataFile) NodePath() string {
	return fmt.Sprintf("/%s/_%s", f.group, f.uid.Base())
}

// Fields implements Entity. An unset column format is written as null so
// the attribute round-trips without inventing an enum value.
func (f *DataFile) Fields() []Field {
	var columnFormat any
	if f.columnFormat != "" {
		columnFormat = f.columnFormat
	}
	return []Field{
		{Name: "uid", Value: f.uid},
		{Name: "group", Value: f.group},
		{Name: "date", Value: f.date},
		{Name: "source_path", Value: f.sourcePath},
		{Name: "name", Value: f.name},
		{Name: "column_format", Value: columnFormat},
	}
}

func newDataFileFromAttrs(attrs *AttrMap) (Entity, error) {
	f := &DataFile{}
	f.uid = attrs.OID("uid")
	f.group = attrs.Kind("group")
	f.date = attrs.Date("date")
	f.sourcePath = attrs.Path("source_path")
	f.name = attrs.String("name")
	f.columnFormat = attrs.OptionalMeter("column_format")
	if err := attrs.Finish(); err != nil {
		return nil, err
	}
	f.uid.SetPointer(f)
	return f, nil
}
