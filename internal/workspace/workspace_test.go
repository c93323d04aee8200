package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gravcore/internal/datastore"
	"gravcore/pkg/project"
)

type captureAuditRecorder struct {
	entries []AuditEntry
}

func (c *captureAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	c.entries = append(c.entries, entry)
}

func (c *captureAuditRecorder) has(op string, status AuditStatus, predicate func(AuditEntry) bool) bool {
	for _, entry := range c.entries {
		if entry.Operation == op && entry.Status == status {
			if predicate == nil || predicate(entry) {
				return true
			}
		}
	}
	return false
}

type metricsCall struct {
	op       string
	success  bool
	duration time.Duration
}

type captureMetricsRecorder struct {
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, duration time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success, duration: duration})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

type captureTracer struct {
	started []string
	ended   []spanRecord
}

type spanRecord struct {
	op  string
	err error
}

func (c *captureTracer) Start(ctx context.Context, op string) (context.Context, TraceSpan) {
	c.started = append(c.started, op)
	return ctx, &captureSpan{tracer: c, op: op}
}

func (c *captureTracer) has(op string, success bool) bool {
	for _, record := range c.ended {
		if record.op == op {
			if success && record.err == nil {
				return true
			}
			if !success && record.err != nil {
				return true
			}
		}
	}
	return false
}

type captureSpan struct {
	tracer *captureTracer
	op     string
}

func (s *captureSpan) End(err error) {
	s.tracer.ended = append(s.tracer.ended, spanRecord{op: s.op, err: err})
}

func testProject(t *testing.T) (*project.AirborneProject, *project.DataFile) {
	t.Helper()
	p := project.NewAirborneProject("Scotia Bay", project.Path("/surveys/scotia"), "airborne gravity campaign")
	meter := project.NewGravimeter(project.MeterTypeAT1A, "AT1A-10")
	if err := p.AddChild(meter); err != nil {
		t.Fatalf("add gravimeter: %v", err)
	}
	flight := project.NewFlight("F-101", project.NewDate(2018, time.July, 15), "calibration line")
	if err := p.AddChild(flight); err != nil {
		t.Fatalf("add flight: %v", err)
	}
	file := project.NewDataFile(project.DataKindGravity, project.NewDate(2018, time.July, 15),
		project.Path("/raw/grav_0715.dat"), "grav_0715", project.MeterTypeAT1A)
	ds := project.NewDataSet()
	ds.SetGravity(file)
	ds.SetSensor(meter)
	flight.AddDataSet(ds)
	return p, file
}

func testFrame() *datastore.Frame {
	return datastore.NewFrame(
		[]int64{1531647012000000, 1531647012100000, 1531647012200000},
		datastore.Column{Name: "gravity", Values: []float64{9811.2, 9811.4, 9811.1}},
		datastore.Column{Name: "long_accel", Values: []float64{0.12, 0.10, 0.15}},
	)
}

func TestWorkspaceSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ws, err := New(dir, WithStore(datastore.NewMemory()))
	if err != nil {
		t.Fatalf("new workspace: %v", err)
	}
	defer func() { _ = ws.Close() }()

	p, _ := testProject(t)
	if err := ws.Save(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, DocumentName)); err != nil {
		t.Fatalf("expected project document on disk: %v", err)
	}

	loaded, err := ws.Load(ctx, project.ProjectKindAirborne)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Name() != p.Name() {
		t.Fatalf("loaded name %q, want %q", loaded.Name(), p.Name())
	}
	if !loaded.UID().Equal(p.UID()) {
		t.Fatalf("loaded uid %s, want %s", loaded.UID(), p.UID())
	}
	airborne, ok := loaded.(*project.AirborneProject)
	if !ok {
		t.Fatalf("loaded project has type %T", loaded)
	}
	if len(airborne.Flights()) != 1 || len(airborne.Gravimeters()) != 1 {
		t.Fatalf("loaded graph incomplete: %d flights, %d gravimeters",
			len(airborne.Flights()), len(airborne.Gravimeters()))
	}
}

func TestWorkspaceSaveKeepsPreviousDocumentOnEncodeFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ws, err := New(dir, WithStore(datastore.NewMemory()))
	if err != nil {
		t.Fatalf("new workspace: %v", err)
	}
	defer func() { _ = ws.Close() }()

	good, _ := testProject(t)
	if err := ws.Save(ctx, good); err != nil {
		t.Fatalf("save baseline: %v", err)
	}

	bad, _ := testProject(t)
	bad.SetName("Broken Save")
	bad.SetAttribute("callback", make(chan int))
	if err := ws.Save(ctx, bad); err == nil {
		t.Fatalf("expected encode failure for unserializable attribute")
	}

	loaded, err := ws.Load(ctx, project.ProjectKindAirborne)
	if err != nil {
		t.Fatalf("load after failed save: %v", err)
	}
	if loaded.Name() != good.Name() {
		t.Fatalf("document was clobbered: got %q, want %q", loaded.Name(), good.Name())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read workspace dir: %v", err)
	}
	for _, entry := range entries {
		if entry.Name() != DocumentName {
			t.Fatalf("unexpected leftover file %q", entry.Name())
		}
	}
}

func TestWorkspaceFrameLifecycle(t *testing.T) {
	ctx := context.Background()
	ws, err := New(t.TempDir(), WithStore(datastore.NewMemory()))
	if err != nil {
		t.Fatalf("new workspace: %v", err)
	}
	defer func() { _ = ws.Close() }()

	_, file := testProject(t)
	frame := testFrame()
	if err := ws.ImportFrame(ctx, file, frame); err != nil {
		t.Fatalf("import frame: %v", err)
	}

	got, err := ws.LoadFrame(ctx, file)
	if err != nil {
		t.Fatalf("load frame: %v", err)
	}
	if !got.Equal(frame) {
		t.Fatalf("loaded frame differs from imported frame")
	}

	if err := ws.SetFrameAttr(ctx, file, "display_units", "mGal"); err != nil {
		t.Fatalf("set frame attr: %v", err)
	}
	attrs, err := ws.FrameAttrs(ctx, file)
	if err != nil {
		t.Fatalf("frame attrs: %v", err)
	}
	if attrs["display_units"] != "mGal" {
		t.Fatalf("attrs = %v, want display_units=mGal", attrs)
	}

	// replacing the series clears its attributes
	if err := ws.ImportFrame(ctx, file, testFrame()); err != nil {
		t.Fatalf("reimport frame: %v", err)
	}
	attrs, err = ws.FrameAttrs(ctx, file)
	if err != nil {
		t.Fatalf("frame attrs after reimport: %v", err)
	}
	if len(attrs) != 0 {
		t.Fatalf("attrs survived reimport: %v", attrs)
	}

	found, err := ws.DeleteFrame(ctx, file)
	if err != nil {
		t.Fatalf("delete frame: %v", err)
	}
	if !found {
		t.Fatalf("delete reported no stored frame")
	}
	if _, err := ws.LoadFrame(ctx, file); !datastore.IsNotFound(err) {
		t.Fatalf("expected not-found after delete, got %v", err)
	}
}

func TestWorkspaceOpensStoreFromEnvironment(t *testing.T) {
	t.Setenv("GRAVCORE_DATA_DRIVER", "memory")
	ctx := context.Background()
	ws, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new workspace: %v", err)
	}
	defer func() { _ = ws.Close() }()

	_, file := testProject(t)
	if err := ws.ImportFrame(ctx, file, testFrame()); err != nil {
		t.Fatalf("import frame via env-configured store: %v", err)
	}
	if _, err := ws.LoadFrame(ctx, file); err != nil {
		t.Fatalf("load frame via env-configured store: %v", err)
	}
}

func TestWorkspaceObservabilityHooks(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2018, time.July, 15, 12, 0, 0, 0, time.UTC)
	audit := &captureAuditRecorder{}
	metrics := &captureMetricsRecorder{}
	tracer := &captureTracer{}

	ws, err := New(t.TempDir(),
		WithStore(datastore.NewMemory()),
		WithClock(ClockFunc(func() time.Time { return fixed })),
		WithAuditRecorder(audit),
		WithMetricsRecorder(metrics),
		WithTracer(tracer),
	)
	if err != nil {
		t.Fatalf("new workspace: %v", err)
	}
	defer func() { _ = ws.Close() }()

	p, file := testProject(t)
	if err := ws.Save(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}
	wantID := p.UID().String()
	if !audit.has("save_project", AuditStatusSuccess, func(entry AuditEntry) bool {
		return entry.EntityID == wantID && entry.At.Equal(fixed) && entry.Duration == 0
	}) {
		t.Fatalf("expected audit entry for save_project success, got %+v", audit.entries)
	}
	if !metrics.has("save_project", true) {
		t.Fatalf("expected metrics entry for save_project")
	}
	if !tracer.has("save_project", true) {
		t.Fatalf("expected finished span for save_project")
	}

	if err := ws.ImportFrame(ctx, file, testFrame()); err != nil {
		t.Fatalf("import frame: %v", err)
	}
	if !audit.has("import_frame", AuditStatusSuccess, func(entry AuditEntry) bool {
		return entry.EntityID == file.UID().String()
	}) {
		t.Fatalf("expected audit entry for import_frame, got %+v", audit.entries)
	}

	// a load with no document on disk fails and is still recorded
	empty, err := New(t.TempDir(),
		WithStore(datastore.NewMemory()),
		WithAuditRecorder(audit),
		WithMetricsRecorder(metrics),
		WithTracer(tracer),
	)
	if err != nil {
		t.Fatalf("new workspace: %v", err)
	}
	defer func() { _ = empty.Close() }()
	if _, err := empty.Load(ctx, project.ProjectKindAirborne); err == nil {
		t.Fatalf("expected load failure for missing document")
	}
	if !audit.has("load_project", AuditStatusError, nil) {
		t.Fatalf("expected audit error entry for load_project")
	}
	if !metrics.has("load_project", false) {
		t.Fatalf("expected metrics entry for failed load_project")
	}
	if !tracer.has("load_project", false) {
		t.Fatalf("expected errored span for load_project")
	}
}

func TestWorkspaceRejectsBadInput(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatalf("expected error for empty directory")
	}

	ctx := context.Background()
	ws, err := New(t.TempDir(), WithStore(datastore.NewMemory()))
	if err != nil {
		t.Fatalf("new workspace: %v", err)
	}
	defer func() { _ = ws.Close() }()

	if err := ws.Save(ctx, nil); err == nil {
		t.Fatalf("expected error for nil project")
	}
	if err := ws.ImportFrame(ctx, nil, testFrame()); err == nil {
		t.Fatalf("expected error for nil data file")
	}
	if _, err := ws.LoadFrame(ctx, nil); err == nil {
		t.Fatalf("expected error for nil data file")
	}
}
