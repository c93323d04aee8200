// Package workspace binds a gravity-survey project directory to its
// document file and bulk-data store. It owns the save/load entry points
// for the serialized entity graph and the import/export path for columnar
// sensor data, wrapping every operation with audit, metrics, and tracing
// hooks.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gravcore/internal/datastore"
	"gravcore/internal/logging"
	"gravcore/pkg/project"
)

// DocumentName is the project document file inside a workspace directory.
const DocumentName = "dgp.json"

// documentIndent matches the pretty form the interactive tooling writes,
// so saved documents diff cleanly against existing ones.
const documentIndent = "  "

// Workspace is a project directory with a document file and an attached
// bulk-data session. The zero value is not usable; construct with New.
type Workspace struct {
	dir      string
	registry *project.TypeRegistry
	logger   logging.Logger
	clock    Clock
	metrics  MetricsRecorder
	tracer   Tracer
	audit    AuditRecorder

	mu      sync.Mutex
	session *datastore.Session
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger routes workspace diagnostics through logger.
func WithLogger(logger logging.Logger) Option {
	return func(w *Workspace) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithClock overrides the audit timestamp source.
func WithClock(clock Clock) Option {
	return func(w *Workspace) {
		if clock != nil {
			w.clock = clock
		}
	}
}

// WithMetricsRecorder attaches a metrics sink to every operation.
func WithMetricsRecorder(rec MetricsRecorder) Option {
	return func(w *Workspace) { w.metrics = rec }
}

// WithTracer attaches a tracer to every operation.
func WithTracer(tracer Tracer) Option {
	return func(w *Workspace) { w.tracer = tracer }
}

// WithAuditRecorder attaches an audit sink to every operation.
func WithAuditRecorder(rec AuditRecorder) Option {
	return func(w *Workspace) { w.audit = rec }
}

// WithRegistry replaces the default type registry used to encode and
// decode documents, for callers that register custom entity types.
func WithRegistry(registry *project.TypeRegistry) Option {
	return func(w *Workspace) {
		if registry != nil {
			w.registry = registry
		}
	}
}

// WithStore attaches an already-open bulk store, wrapped in a read-through
// session cache. Without this option the store is opened lazily from the
// environment on first frame operation.
func WithStore(store datastore.Store) Option {
	return func(w *Workspace) {
		if store != nil {
			w.session = datastore.NewSession(store)
		}
	}
}

// New binds a workspace to dir. The directory does not have to exist yet;
// Save creates it.
func New(dir string, opts ...Option) (*Workspace, error) {
	if dir == "" {
		return nil, fmt.Errorf("workspace: directory is required")
	}
	w := &Workspace{
		dir:      dir,
		registry: project.DefaultRegistry(),
		logger:   logging.Noop(),
		clock:    ClockFunc(func() time.Time { return time.Now().UTC() }),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string { return w.dir }

// DocumentPath returns the full path of the project document.
func (w *Workspace) DocumentPath() string { return filepath.Join(w.dir, DocumentName) }

// Save validates p, encodes it fully in memory, and atomically replaces
// the project document via a temp file and rename. Validation findings are
// logged but never block the save; an encode failure leaves the existing
// document untouched.
func (w *Workspace) Save(ctx context.Context, p project.Project) (err error) {
	var id string
	_, finish := w.observe(ctx, "save_project")
	defer func() { finish(id, err) }()

	if p == nil {
		return fmt.Errorf("workspace: nil project")
	}
	id = uidOf(p)

	for _, v := range project.Validate(p) {
		w.logger.Warn("project validation finding",
			"rule", v.Rule,
			"severity", string(v.Severity),
			"entity", v.UID,
			"detail", v.Message,
		)
	}

	data, err := project.NewEncoder(w.registry).EncodeIndent(p, documentIndent)
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create workspace directory: %w", err)
	}
	tmp, err := os.CreateTemp(w.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("stage project document: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write project document: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync project document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close project document: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.DocumentPath()); err != nil {
		return fmt.Errorf("replace project document: %w", err)
	}
	w.logger.Info("project saved", "path", w.DocumentPath(), "bytes", len(data))
	return nil
}

// Load reads the project document and decodes it as the given kind.
func (w *Workspace) Load(ctx context.Context, kind project.ProjectKind) (p project.Project, err error) {
	_, finish := w.observe(ctx, "load_project")
	defer func() { finish(uidOf(p), err) }()

	data, err := os.ReadFile(w.DocumentPath())
	if err != nil {
		return nil, fmt.Errorf("read project document: %w", err)
	}
	p, err = project.NewDecoder(w.registry).Decode(data, kind)
	if err != nil {
		return nil, err
	}
	w.logger.Debug("project loaded", "path", w.DocumentPath(), "name", p.Name())
	return p, nil
}

// ImportFrame stores a file's columnar series under its node path,
// replacing any previous series and its node attributes.
func (w *Workspace) ImportFrame(ctx context.Context, file *project.DataFile, frame *datastore.Frame) (err error) {
	ctx, finish := w.observe(ctx, "import_frame")
	defer func() { finish(fileUID(file), err) }()

	session, node, err := w.sessionFor(ctx, file)
	if err != nil {
		return err
	}
	if err := session.Put(ctx, node, frame); err != nil {
		return err
	}
	w.logger.Debug("frame imported", "node", node, "rows", frame.Len())
	return nil
}

// LoadFrame fetches a file's columnar series through the session cache.
// Frames returned from the cache are shared and must be treated as
// read-only.
func (w *Workspace) LoadFrame(ctx context.Context, file *project.DataFile) (frame *datastore.Frame, err error) {
	ctx, finish := w.observe(ctx, "load_frame")
	defer func() { finish(fileUID(file), err) }()

	session, node, err := w.sessionFor(ctx, file)
	if err != nil {
		return nil, err
	}
	return session.Get(ctx, node)
}

// DeleteFrame removes a file's series and reports whether one was stored.
func (w *Workspace) DeleteFrame(ctx context.Context, file *project.DataFile) (found bool, err error) {
	ctx, finish := w.observe(ctx, "delete_frame")
	defer func() { finish(fileUID(file), err) }()

	session, node, err := w.sessionFor(ctx, file)
	if err != nil {
		return false, err
	}
	return session.Delete(ctx, node)
}

// SetFrameAttr attaches a key/value attribute to a file's stored series.
// Attributes live beside the series and are cleared when it is replaced.
func (w *Workspace) SetFrameAttr(ctx context.Context, file *project.DataFile, key, value string) (err error) {
	ctx, finish := w.observe(ctx, "set_frame_attr")
	defer func() { finish(fileUID(file), err) }()

	session, node, err := w.sessionFor(ctx, file)
	if err != nil {
		return err
	}
	return session.SetNodeAttr(ctx, node, key, value)
}

// FrameAttrs returns the attributes attached to a file's stored series.
func (w *Workspace) FrameAttrs(ctx context.Context, file *project.DataFile) (attrs map[string]string, err error) {
	ctx, finish := w.observe(ctx, "read_frame_attrs")
	defer func() { finish(fileUID(file), err) }()

	session, node, err := w.sessionFor(ctx, file)
	if err != nil {
		return nil, err
	}
	return session.NodeAttrs(ctx, node)
}

// ClearFrameCache drops every cached frame. Subsequent loads read through
// to the store again.
func (w *Workspace) ClearFrameCache() {
	w.mu.Lock()
	session := w.session
	w.mu.Unlock()
	if session != nil {
		session.ClearCache()
	}
}

// Close releases the bulk store, including stores attached via WithStore.
func (w *Workspace) Close() error {
	w.mu.Lock()
	session := w.session
	w.session = nil
	w.mu.Unlock()
	if session == nil {
		return nil
	}
	return session.Close()
}

// sessionFor resolves the bulk-data session and the file's node path.
func (w *Workspace) sessionFor(ctx context.Context, file *project.DataFile) (*datastore.Session, string, error) {
	if file == nil {
		return nil, "", fmt.Errorf("workspace: nil data file")
	}
	node := file.NodePath()
	if node == "" {
		return nil, "", fmt.Errorf("workspace: data file has no node path")
	}
	session, err := w.ensureSession(ctx)
	if err != nil {
		return nil, "", err
	}
	return session, node, nil
}

// ensureSession opens the environment-configured store on first use.
func (w *Workspace) ensureSession(ctx context.Context) (*datastore.Session, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session != nil {
		return w.session, nil
	}
	store, err := datastore.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open bulk store: %w", err)
	}
	w.session = datastore.NewSession(store)
	return w.session, nil
}

// observe opens a span for the operation and returns the completion hook
// that closes it, records metrics, and emits the audit entry.
func (w *Workspace) observe(ctx context.Context, operation string) (context.Context, func(entityID string, err error)) {
	started := w.clock.Now()
	var span TraceSpan
	if w.tracer != nil {
		ctx, span = w.tracer.Start(ctx, operation)
	}
	return ctx, func(entityID string, err error) {
		finished := w.clock.Now()
		duration := finished.Sub(started)
		if span != nil {
			span.End(err)
		}
		if w.metrics != nil {
			w.metrics.Observe(ctx, operation, err == nil, duration)
		}
		if w.audit != nil {
			status := AuditStatusSuccess
			if err != nil {
				status = AuditStatusError
			}
			w.audit.Record(ctx, AuditEntry{
				Operation: operation,
				Status:    status,
				EntityID:  entityID,
				Duration:  duration,
				At:        finished,
			})
		}
	}
}

func uidOf(ent project.Entity) string {
	if ent == nil {
		return ""
	}
	uid := ent.UID()
	if uid == nil {
		return ""
	}
	return uid.String()
}

func fileUID(file *project.DataFile) string {
	if file == nil {
		return ""
	}
	return uidOf(file)
}
