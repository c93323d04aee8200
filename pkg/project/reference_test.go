package project

import (
	"testing"
	"time"
)

func TestReferenceNullForms(t *testing.T) {
	p := NewAirborneProject("TestProject", "/tmp/gravity/test", "")
	flight := NewFlight("Flt1", NewDate(2018, time.July, 15), "")

	cases := []struct {
		name string
		ref  *Reference
		null bool
	}{
		{"nil reference", nil, true},
		{"no owner", NewReference(nil, "parent", p), true},
		{"no attr", NewReference(flight, "", p), true},
		{"no target", NewReference(flight, "parent", nil), true},
		{"complete", NewReference(flight, "parent", p), false},
	}
	for _, tc := range cases {
		if tc.ref.IsNull() != tc.null {
			t.Fatalf("%s: IsNull = %v, want %v", tc.name, tc.ref.IsNull(), tc.null)
		}
	}
}

func TestReferenceDereference(t *testing.T) {
	p := NewAirborneProject("TestProject", "/tmp/gravity/test", "")
	flight := NewFlight("Flt1", NewDate(2018, time.July, 15), "")
	ref := NewReference(flight, "parent", p)
	if ref.Dereference() != Entity(p) {
		t.Fatalf("dereference did not return the target")
	}
	if ref.Owner() != Entity(flight) || ref.Attr() != "parent" {
		t.Fatalf("owner or attr lost")
	}
	var null *Reference
	if null.Dereference() != nil {
		t.Fatalf("nil reference should dereference to nil")
	}
}
