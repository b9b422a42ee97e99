package dump

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mwolter/assetdump/pkg/errors"
	"github.com/mwolter/assetdump/pkg/filter"
	"github.com/mwolter/assetdump/pkg/object"
	"github.com/mwolter/assetdump/pkg/refs"
)

// DefaultMaxDepth bounds recursion on pathologically deep or cyclic graphs.
const DefaultMaxDepth = 100

// ResolveFunc resolves an external pointer to a node. It returns an error
// with code ASSET_NOT_FOUND when the file cannot be located (hard failure,
// aborts the write) and (nil, nil) when the file exists but the class does
// not (recovered, the field is skipped).
type ResolveFunc func(ctx context.Context, fileID, classID int64) (object.Node, error)

// Option configures a Writer.
type Option func(*Writer)

// WithResolver injects the external pointer resolver. Without one, any
// external pointer encountered during a write is an error.
func WithResolver(fn ResolveFunc) Option {
	return func(w *Writer) { w.resolve = fn }
}

// WithLogger sets the logger used for the aggregated unmatched-entry warning
// and debug output.
func WithLogger(l *log.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithMaxDepth overrides the recursion depth guard.
func WithMaxDepth(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.maxDepth = n
		}
	}
}

// WithReferenceTokens emits {"$ref": token} markers for revisited pointer
// targets instead of expanding them inline again. This deduplicates shared
// subtrees and makes cyclic internal graphs writable; it deviates from the
// historical always-inline format, so it is opt-in.
func WithReferenceTokens() Option {
	return func(w *Writer) { w.dedup = true }
}

// Writer serializes object graphs to filtered JSON documents. A Writer is
// reusable; per-write state (tracker, trace, buffer) is created fresh for
// every WriteObjects call.
type Writer struct {
	profile  *filter.Profile
	resolve  ResolveFunc
	logger   *log.Logger
	maxDepth int
	dedup    bool
}

// NewWriter creates a writer for the given field profile.
func NewWriter(profile *filter.Profile, opts ...Option) *Writer {
	w := &Writer{
		profile:  profile,
		logger:   log.Default(),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Result describes a completed write.
type Result struct {
	// Unmatched lists profile entries that matched no visited field. The
	// writer also logs these as a single aggregated warning; they usually
	// indicate a configuration typo or a field that no longer exists.
	Unmatched []string

	// Objects is the number of distinct node identities tracked.
	Objects int

	// Duration is the wall time of the write.
	Duration time.Duration

	// Trace is the reference structure discovered during the walk.
	Trace *Trace
}

// writeState is the per-call mutable state threaded through the traversal.
type writeState struct {
	ctx     context.Context
	emit    *emitter
	tracker *refs.Tracker
	trace   *Trace
}

// WriteObjects walks the graph rooted at the first root and writes the
// document to out. The whole document is rendered in memory first; nothing
// reaches out when the write fails, so the sink never holds a truncated
// document.
//
// Additional roots are accepted but ignored — the document format has always
// carried a single root object and the interface keeps the wider signature.
func (w *Writer) WriteObjects(ctx context.Context, out io.Writer, roots ...object.Node) (*Result, error) {
	start := time.Now()

	if len(roots) == 0 || roots[0] == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no root objects to write")
	}
	if len(roots) > 1 {
		w.logger.Debug("ignoring additional roots", "ignored", len(roots)-1)
	}

	st := &writeState{
		ctx:     ctx,
		emit:    newEmitter(),
		tracker: refs.NewTracker(),
		trace:   newTrace(),
	}

	root := roots[0]
	token, _ := st.tracker.Track(root)
	st.trace.addNode(token, root.TypeName())

	if err := w.writeNode(st, root, token, 0); err != nil {
		return nil, err
	}
	st.emit.newline()

	unmatched := w.profile.Unmatched()
	if len(unmatched) > 0 {
		w.logger.Warn("profile entries matched no fields",
			"entries", strings.Join(unmatched, ", "))
	}

	if _, err := out.Write(st.emit.bytes()); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}

	return &Result{
		Unmatched: unmatched,
		Objects:   st.tracker.Len(),
		Duration:  time.Since(start),
		Trace:     st.trace,
	}, nil
}

// WriteFile writes the document to a file at path. The file is only created
// after the document rendered successfully, so failed dumps leave no partial
// artifact behind.
func (w *Writer) WriteFile(ctx context.Context, path string, roots ...object.Node) (*Result, error) {
	var buf bytes.Buffer
	res, err := w.WriteObjects(ctx, &buf, roots...)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return res, nil
}

func (w *Writer) writeNode(st *writeState, n object.Node, token string, depth int) error {
	if depth > w.maxDepth {
		return errors.New(errors.ErrCodeMaxDepthExceeded,
			"recursion depth %d exceeded at %s (cycle among internal pointers?)",
			w.maxDepth, n.TypeName())
	}

	st.emit.beginObject()
	for _, f := range n.Fields() {
		if p, ok := f.Value.(object.Pointer); ok {
			if err := w.writePointerField(st, token, f, p, depth); err != nil {
				return err
			}
			continue
		}

		// Exclusion is structural: children of excluded fields are never
		// visited, not just hidden.
		if !w.profile.ShouldInclude(f.DeclaringType, f.Name) {
			continue
		}
		st.emit.key(f.Name)
		if err := w.writeValue(st, token, f.Name, f.Value, depth); err != nil {
			return err
		}
	}
	st.emit.endObject()
	return nil
}

// writePointerField handles a pointer-valued field. Pointer fields are gated
// by the target's dynamic type rather than the field profile: a field may
// point to any subtype, and only targets of interesting types are expanded.
func (w *Writer) writePointerField(st *writeState, parentToken string, f object.Field, p object.Pointer, depth int) error {
	// A profile entry naming this pointer field is configuration, not a typo;
	// mark it matched even though inclusion is decided by the target type.
	w.profile.Observe(f.DeclaringType, f.Name)

	switch p.Kind {
	case object.PointerNull:
		st.emit.key(f.Name)
		st.emit.null()
		return nil

	case object.PointerInternal:
		if p.Target == nil {
			st.emit.key(f.Name)
			st.emit.null()
			return nil
		}
		if !w.profile.IncludesType(p.Target.TypeName()) {
			return nil
		}
		st.emit.key(f.Name)
		return w.expand(st, parentToken, f.Name, p.Target, depth)

	case object.PointerExternal:
		target, err := w.resolveExternal(st.ctx, p)
		if err != nil {
			return fmt.Errorf("field %s.%s: %w", f.DeclaringType, f.Name, err)
		}
		if target == nil || !w.profile.IncludesType(target.TypeName()) {
			return nil
		}
		st.emit.key(f.Name)
		return w.expand(st, parentToken, f.Name, target, depth)

	default:
		return errors.New(errors.ErrCodeInvalidPointer,
			"field %s.%s has unknown pointer kind %s", f.DeclaringType, f.Name, p.Kind)
	}
}

func (w *Writer) resolveExternal(ctx context.Context, p object.Pointer) (object.Node, error) {
	if w.resolve == nil {
		return nil, errors.New(errors.ErrCodeInternal,
			"external pointer (file=%d, class=%d) but no resolver configured", p.FileID, p.ClassID)
	}
	return w.resolve(ctx, p.FileID, p.ClassID)
}

// expand tracks the target and writes it as a nested object. With reference
// tokens enabled, revisited targets emit a {"$ref": token} marker instead of
// being expanded again.
func (w *Writer) expand(st *writeState, parentToken, fieldName string, target object.Node, depth int) error {
	token, seen := st.tracker.Track(target)
	st.trace.addNode(token, target.TypeName())
	st.trace.addEdge(parentToken, token, fieldName)

	if w.dedup && seen {
		st.emit.beginObject()
		st.emit.key("$ref")
		st.emit.str(token)
		st.emit.endObject()
		return nil
	}
	return w.writeNode(st, target, token, depth+1)
}

func (w *Writer) writeValue(st *writeState, parentToken, fieldName string, v any, depth int) error {
	switch val := v.(type) {
	case nil:
		st.emit.null()
	case string:
		st.emit.str(val)
	case bool:
		st.emit.boolean(val)
	case int:
		st.emit.integer(int64(val))
	case int8:
		st.emit.integer(int64(val))
	case int16:
		st.emit.integer(int64(val))
	case int32:
		st.emit.integer(int64(val))
	case int64:
		st.emit.integer(val)
	case uint:
		st.emit.unsigned(uint64(val))
	case uint8:
		st.emit.unsigned(uint64(val))
	case uint16:
		st.emit.unsigned(uint64(val))
	case uint32:
		st.emit.unsigned(uint64(val))
	case uint64:
		st.emit.unsigned(val)
	case float32:
		st.emit.number(float64(val))
	case float64:
		st.emit.number(val)
	case object.Enum:
		// Symbolic name, never the numeric encoding.
		st.emit.str(val.Name)
	case object.Pointer:
		// Pointers inside arrays keep their slot: skipped targets become
		// null placeholders so element indices stay stable.
		return w.writeElementPointer(st, parentToken, fieldName, val, depth)
	case []any:
		st.emit.beginArray()
		for _, elem := range val {
			st.emit.element()
			if err := w.writeValue(st, parentToken, fieldName, elem, depth); err != nil {
				return err
			}
		}
		st.emit.endArray()
	default:
		st.emit.str(fmt.Sprintf("%v", val))
	}
	return nil
}

func (w *Writer) writeElementPointer(st *writeState, parentToken, fieldName string, p object.Pointer, depth int) error {
	switch p.Kind {
	case object.PointerNull:
		st.emit.null()
		return nil
	case object.PointerInternal:
		if p.Target == nil || !w.profile.IncludesType(p.Target.TypeName()) {
			st.emit.null()
			return nil
		}
		return w.expand(st, parentToken, fieldName, p.Target, depth)
	case object.PointerExternal:
		target, err := w.resolveExternal(st.ctx, p)
		if err != nil {
			return fmt.Errorf("field %s element: %w", fieldName, err)
		}
		if target == nil || !w.profile.IncludesType(target.TypeName()) {
			st.emit.null()
			return nil
		}
		return w.expand(st, parentToken, fieldName, target, depth)
	default:
		return errors.New(errors.ErrCodeInvalidPointer,
			"field %s element has unknown pointer kind %s", fieldName, p.Kind)
	}
}
