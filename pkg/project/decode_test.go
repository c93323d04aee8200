package project

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func encodeProject(t *testing.T, p Project) []byte {
	t.Helper()
	data, err := NewEncoder(nil).Encode(p)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return data
}

func TestDecodeUnknownEntityTypeIsFatal(t *testing.T) {
	doc := []byte(`{"_type":"Spaceship","_module":"gravcore/pkg/project","uid":null}`)
	_, err := NewDecoder(nil).Decode(doc, ProjectKindAirborne)
	var unknown UnknownEntityTypeError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownEntityTypeError, got %v", err)
	}
	if unknown.Name != "Spaceship" {
		t.Fatalf("error names %q", unknown.Name)
	}
}

func TestDecodeUnconsumedAttributeIsSchemaMismatch(t *testing.T) {
	p := NewMarineProject("MarineTest", "/tmp/gravity/marine", "")
	data := encodeProject(t, p)
	doc := bytes.Replace(data, []byte(`"attributes":{}`), []byte(`"attributes":{},"color":"red"`), 1)
	_, err := NewDecoder(nil).Decode(doc, ProjectKindMarine)
	var mismatch SchemaMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected SchemaMismatchError, got %v", err)
	}
	if mismatch.TypeName != "MarineProject" || len(mismatch.Keys) != 1 || mismatch.Keys[0] != "color" {
		t.Fatalf("unexpected mismatch detail: %+v", mismatch)
	}
}

func TestDecodeMissingAttributeIsSchemaMismatch(t *testing.T) {
	p := NewMarineProject("MarineTest", "/tmp/gravity/marine", "old format")
	data := encodeProject(t, p)
	doc := bytes.Replace(data, []byte(`"description":"old format",`), nil, 1)
	if bytes.Equal(doc, data) {
		t.Fatalf("fixture surgery failed: %s", data)
	}
	_, err := NewDecoder(nil).Decode(doc, ProjectKindMarine)
	var mismatch SchemaMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected SchemaMismatchError, got %v", err)
	}
	if len(mismatch.Keys) != 1 || mismatch.Keys[0] != "description" {
		t.Fatalf("unexpected mismatch detail: %+v", mismatch)
	}
}

func TestDecodeMistypedAttributeIsSchemaMismatch(t *testing.T) {
	p := NewMarineProject("MarineTest", "/tmp/gravity/marine", "")
	data := encodeProject(t, p)
	doc := bytes.Replace(data, []byte(`"name":"MarineTest"`), []byte(`"name":7`), 1)
	_, err := NewDecoder(nil).Decode(doc, ProjectKindMarine)
	var mismatch SchemaMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected SchemaMismatchError, got %v", err)
	}
}

func TestDecodeDanglingReferenceIsFatal(t *testing.T) {
	p := buildSurveyProject(t)
	meter := p.Gravimeters()[0]
	data := encodeProject(t, p)
	ghost := strings.Repeat("0", 32)
	doc := bytes.ReplaceAll(data, []byte(`"ref":"`+meter.UID().Base()+`"`), []byte(`"ref":"`+ghost+`"`))
	if bytes.Equal(doc, data) {
		t.Fatalf("fixture surgery failed")
	}
	_, err := NewDecoder(nil).Decode(doc, ProjectKindAirborne)
	var dangling DanglingReferenceError
	if !errors.As(err, &dangling) {
		t.Fatalf("expected DanglingReferenceError, got %v", err)
	}
	if dangling.TargetUID != ghost || dangling.Attr != "sensor" {
		t.Fatalf("unexpected detail: %+v", dangling)
	}
}

func TestDecodeRootKindMismatch(t *testing.T) {
	p := buildSurveyProject(t)
	data := encodeProject(t, p)
	_, err := NewDecoder(nil).Decode(data, ProjectKindMarine)
	var mismatch SchemaMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected SchemaMismatchError, got %v", err)
	}
	if mismatch.TypeName != "MarineProject" || !strings.Contains(mismatch.Reason, "AirborneProject") {
		t.Fatalf("unexpected detail: %+v", mismatch)
	}
}

func TestDecodeNonEntityRootIsSchemaMismatch(t *testing.T) {
	_, err := NewDecoder(nil).Decode([]byte(`{"just":"a map"}`), ProjectKindMarine)
	var mismatch SchemaMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected SchemaMismatchError, got %v", err)
	}
}

func TestDecodeRejectsMalformedDocuments(t *testing.T) {
	dec := NewDecoder(nil)
	if _, err := dec.Decode([]byte(`not json`), ProjectKindAirborne); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := dec.Decode([]byte(`{} {}`), ProjectKindAirborne); err == nil {
		t.Fatalf("expected trailing data error")
	}
	if _, err := dec.Decode([]byte(``), ProjectKindAirborne); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestDecodeRejectsUnknownProjectKind(t *testing.T) {
	p := NewMarineProject("MarineTest", "/tmp/gravity/marine", "")
	data := encodeProject(t, p)
	if _, err := NewDecoder(nil).Decode(data, ProjectKind("submarine")); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestDecodeInvalidEnumValue(t *testing.T) {
	p := buildSurveyProject(t)
	data := encodeProject(t, p)
	doc := bytes.ReplaceAll(data, []byte(`"value":"at1a"`), []byte(`"value":"warp9"`))
	_, err := NewDecoder(nil).Decode(doc, ProjectKindAirborne)
	if err == nil || !strings.Contains(err.Error(), "unknown meter type") {
		t.Fatalf("expected meter type error, got %v", err)
	}
}

func TestDecodeCorruptIdentifier(t *testing.T) {
	p := NewMarineProject("MarineTest", "/tmp/gravity/marine", "")
	data := encodeProject(t, p)
	doc := bytes.Replace(data, []byte(p.UID().Base()), []byte("zz"), 1)
	_, err := NewDecoder(nil).Decode(doc, ProjectKindMarine)
	if err == nil || !strings.Contains(err.Error(), "invalid object identifier") {
		t.Fatalf("expected identifier error, got %v", err)
	}
}

func TestDecodeMalformedReferenceObject(t *testing.T) {
	p := buildSurveyProject(t)
	data := encodeProject(t, p)
	doc := bytes.Replace(data, []byte(`"attr":"sensor"`), []byte(`"attr":17`), 1)
	_, err := NewDecoder(nil).Decode(doc, ProjectKindAirborne)
	var mismatch SchemaMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected SchemaMismatchError, got %v", err)
	}
	if mismatch.TypeName != "Reference" {
		t.Fatalf("unexpected detail: %+v", mismatch)
	}
}

func TestDecodeReferenceToWrongTargetKind(t *testing.T) {
	p := buildSurveyProject(t)
	meter := p.Gravimeters()[0]
	data := encodeProject(t, p)
	// Point the sensor reference at the project itself.
	doc := bytes.ReplaceAll(data, []byte(`"ref":"`+meter.UID().Base()+`"`), []byte(`"ref":"`+p.UID().Base()+`"`))
	_, err := NewDecoder(nil).Decode(doc, ProjectKindAirborne)
	var mismatch SchemaMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected SchemaMismatchError, got %v", err)
	}
	if mismatch.TypeName != "DataSet" {
		t.Fatalf("unexpected detail: %+v", mismatch)
	}
}

func TestDecodePreservesUntaggedObjects(t *testing.T) {
	p := NewMarineProject("MarineTest", "/tmp/gravity/marine", "")
	p.SetAttribute("qc", map[string]any{"passed": true, "grade": "A"})
	data := encodeProject(t, p)
	restored, err := NewDecoder(nil).Decode(data, ProjectKindMarine)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	v, ok := restored.Attribute("qc")
	if !ok {
		t.Fatalf("attribute lost")
	}
	m, ok := v.(map[string]any)
	if !ok || m["passed"] != true || m["grade"] != "A" {
		t.Fatalf("untagged object mangled: %v", v)
	}
}

func TestDecodeTaggedValueInsideAttributeMap(t *testing.T) {
	p := NewMarineProject("MarineTest", "/tmp/gravity/marine", "")
	p.SetAttribute("surveyed_on", NewDate(2018, time.July, 20))
	data := encodeProject(t, p)
	restored, err := NewDecoder(nil).Decode(data, ProjectKindMarine)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	v, _ := restored.Attribute("surveyed_on")
	d, ok := v.(Date)
	if !ok || d != NewDate(2018, time.July, 20) {
		t.Fatalf("nested date lost: %v (%T)", v, v)
	}
}
