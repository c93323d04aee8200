package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// Frame is the columnar series stored for one data-file node: a shared
// index of microsecond epoch timestamps plus named float64 columns in a
// fixed order. Its JSON form is the storage payload shared by every
// driver, so frames written through one backend read back through any
// other.
type Frame struct {
	Index   []int64  `json:"index"`
	Columns []Column `json:"columns"`
}

// Column is one named series of a frame.
type Column struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// NewFrame constructs a frame over a shared microsecond-epoch index.
func NewFrame(index []int64, columns ...Column) *Frame {
	return &Frame{Index: index, Columns: columns}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Index)
}

// TimeAt returns the timestamp of row i in UTC.
func (f *Frame) TimeAt(i int) time.Time {
	return time.UnixMicro(f.Index[i]).UTC()
}

// ColumnNames returns the column names in declaration order.
func (f *Frame) ColumnNames() []string {
	if f == nil {
		return nil
	}
	names := make([]string, len(f.Columns))
	for i, col := range f.Columns {
		names[i] = col.Name
	}
	return names
}

// Column returns the values of the named column.
func (f *Frame) Column(name string) ([]float64, bool) {
	if f == nil {
		return nil, false
	}
	for _, col := range f.Columns {
		if col.Name == name {
			return col.Values, true
		}
	}
	return nil, false
}

// Validate checks that every column matches the index length, that
// column names are unique and non-empty, and that all values are
// finite. NaN and infinities are rejected because the storage payload
// is JSON, which cannot represent them.
func (f *Frame) Validate() error {
	if f == nil {
		return errors.New("nil frame")
	}
	names := make(map[string]struct{}, len(f.Columns))
	for i, col := range f.Columns {
		if col.Name == "" {
			return fmt.Errorf("column %d has no name", i)
		}
		if _, dup := names[col.Name]; dup {
			return fmt.Errorf("duplicate column %q", col.Name)
		}
		names[col.Name] = struct{}{}
		if len(col.Values) != len(f.Index) {
			return fmt.Errorf("column %q has %d values, index has %d", col.Name, len(col.Values), len(f.Index))
		}
		for row, v := range col.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("column %q has a non-finite value at row %d", col.Name, row)
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	out := &Frame{
		Index:   append([]int64(nil), f.Index...),
		Columns: make([]Column, len(f.Columns)),
	}
	for i, col := range f.Columns {
		out.Columns[i] = Column{Name: col.Name, Values: append([]float64(nil), col.Values...)}
	}
	return out
}

// Equal reports whether two frames hold the same index and columns.
func (f *Frame) Equal(other *Frame) bool {
	if f == nil || other == nil {
		return f == other
	}
	if len(f.Index) != len(other.Index) || len(f.Columns) != len(other.Columns) {
		return false
	}
	for i, v := range f.Index {
		if other.Index[i] != v {
			return false
		}
	}
	for i, col := range f.Columns {
		o := other.Columns[i]
		if col.Name != o.Name || len(col.Values) != len(o.Values) {
			return false
		}
		for j, v := range col.Values {
			if o.Values[j] != v {
				return false
			}
		}
	}
	return true
}

// MarshalFrame validates a frame and encodes it to the storage payload.
func MarshalFrame(f *Frame) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return data, nil
}

// UnmarshalFrame decodes a stored frame payload and validates it.
func UnmarshalFrame(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}
