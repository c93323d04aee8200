package integration

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gravcore/internal/datastore"
	"gravcore/internal/workspace"
	"gravcore/pkg/project"
)

// TestIntegrationSmoke exercises one full campaign cycle against each
// in-process storage driver: build a project, save its document, import a
// series, reopen the directory, and read everything back. It intentionally
// keeps scope tiny so it can act as a fast CI health check; driver edge
// cases live with the drivers.
func TestIntegrationSmoke(t *testing.T) {
	ctx := context.Background()

	variants := []struct {
		name string
		open func(t *testing.T) datastore.Store
	}{
		{
			name: "memory-store",
			open: func(_ *testing.T) datastore.Store { return datastore.NewMemory() },
		},
		{
			name: "filesystem-store",
			open: func(t *testing.T) datastore.Store {
				s, err := datastore.NewFilesystem(t.TempDir())
				if err != nil {
					t.Fatalf("new filesystem store: %v", err)
				}
				return s
			},
		},
		{
			name: "sqlite-store",
			open: func(t *testing.T) datastore.Store {
				s, err := datastore.NewSQLite(filepath.Join(t.TempDir(), "series.db"))
				if err != nil {
					t.Fatalf("new sqlite store: %v", err)
				}
				return s
			},
		},
	}

	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			dir := t.TempDir()
			store := v.open(t)

			metrics := workspace.NewExpvarMetricsRecorder("")
			var traceBuf bytes.Buffer
			tracer := workspace.NewJSONTracer(&traceBuf)

			ws, err := workspace.New(dir,
				workspace.WithStore(store),
				workspace.WithMetricsRecorder(metrics),
				workspace.WithTracer(tracer),
			)
			if err != nil {
				t.Fatalf("new workspace: %v", err)
			}

			p := project.NewAirborneProject("Smoke Survey", project.Path(dir), "driver health check")
			meter := project.NewGravimeter(project.MeterTypeAT1A, "AT1A-10")
			if err := p.AddChild(meter); err != nil {
				t.Fatalf("add meter: %v", err)
			}
			flight := project.NewFlight("F-001", project.NewDate(2018, time.July, 15), "")
			if err := p.AddChild(flight); err != nil {
				t.Fatalf("add flight: %v", err)
			}
			file := project.NewDataFile(project.DataKindGravity, project.NewDate(2018, time.July, 15), "/data/raw/f001.dat", "f001", project.MeterTypeAT1A)
			ds := project.NewDataSet()
			ds.SetGravity(file)
			ds.SetSensor(meter)
			flight.AddDataSet(ds)

			if err := ws.Save(ctx, p); err != nil {
				t.Fatalf("save project: %v", err)
			}
			base := time.Date(2018, time.July, 15, 9, 30, 0, 0, time.UTC).UnixMicro()
			frame := datastore.NewFrame(
				[]int64{base, base + 100_000, base + 200_000},
				datastore.Column{Name: "gravity", Values: []float64{9811.2, 9811.4, 9811.3}},
			)
			if err := ws.ImportFrame(ctx, file, frame); err != nil {
				t.Fatalf("import frame: %v", err)
			}

			// Reopen the directory over the same store and read everything back.
			reopened, err := workspace.New(dir, workspace.WithStore(store))
			if err != nil {
				t.Fatalf("reopen workspace: %v", err)
			}
			loaded, err := reopened.Load(ctx, project.ProjectKindAirborne)
			if err != nil {
				t.Fatalf("load project: %v", err)
			}
			if loaded.Name() != "Smoke Survey" || !loaded.UID().Equal(p.UID()) {
				t.Fatalf("loaded project = %q %s", loaded.Name(), loaded.UID())
			}
			airborne := loaded.(*project.AirborneProject)
			loadedFile := airborne.Flights()[0].DataSets()[0].Gravity()
			if loadedFile == nil {
				t.Fatalf("gravity file lost across reload")
			}
			got, err := reopened.LoadFrame(ctx, loadedFile)
			if err != nil {
				t.Fatalf("load frame: %v", err)
			}
			if !got.Equal(frame) {
				t.Fatalf("frame drifted across reload: %+v", got)
			}

			// The exporters wired into the first workspace must have seen the
			// write operations.
			snapshot := metrics.Snapshot()
			if snapshot.Results["save_project"]["success"] == 0 {
				t.Fatalf("save_project success metric not recorded: %+v", snapshot.Results)
			}
			if snapshot.Results["import_frame"]["success"] == 0 {
				t.Fatalf("import_frame success metric not recorded: %+v", snapshot.Results)
			}
			if traceBuf.Len() == 0 {
				t.Fatalf("expected trace exporter to emit spans")
			}
			foundSpan := false
			for _, entry := range tracer.Entries() {
				if entry.Operation == "save_project" && entry.Status == "success" {
					foundSpan = true
					break
				}
			}
			if !foundSpan {
				t.Fatalf("expected trace entry for save_project, entries=%+v", tracer.Entries())
			}

			if err := reopened.Close(); err != nil {
				t.Fatalf("close workspace: %v", err)
			}
		})
	}

	// Guard against test-induced environment leakage into later tests.
	if os.Getenv("GRAVCORE_DATA_DRIVER") != "" {
		t.Fatalf("expected no test-induced env leakage")
	}
}
