// Package mount realizes virtual node trees on a host document and
// keeps them patched as reactive dependencies change.
package mount

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/chrismichaelps/effuse-sub003/internal/errors"
	"github.com/chrismichaelps/effuse-sub003/pkg/dom"
	"github.com/chrismichaelps/effuse-sub003/pkg/effuse"
	"github.com/chrismichaelps/effuse-sub003/pkg/vnode"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics attaches a metrics collector. A nil collector (the
// default) records nothing.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithTracing enables OpenTelemetry spans around render passes, using
// the named tracer from the global provider.
func WithTracing(tracerName string) Option {
	return func(e *Engine) {
		e.tracer = otel.Tracer(tracerName)
	}
}

// Engine mounts virtual node trees on a document. One engine may serve
// several containers; all rendering for one engine happens on a single
// logical thread.
type Engine struct {
	doc     dom.Document
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer

	mu    sync.Mutex
	roots map[dom.Node]*mountedNode
}

// New creates an engine rendering into doc.
func New(doc dom.Document, opts ...Option) *Engine {
	e := &Engine{
		doc:    doc,
		logger: slog.Default(),
		roots:  make(map[dom.Node]*mountedNode),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// mountedNode links one virtual node to its live counterpart. Fragments
// and lists have no node of their own; their live extent is the
// concatenation of their children's nodes.
type mountedNode struct {
	vn     *vnode.VNode
	key    string
	node   dom.Node // element or text node; nil for fragment/list/blueprint
	parent dom.Node // the live parent nodes attach under
	scope  *effuse.Owner

	children []*mountedNode

	// cleanups detach event listeners and stop binding effects. Run on
	// unmount, before nodes detach.
	cleanups []func()

	// owner is the blueprint's own scope, disposed before detach.
	owner *effuse.Owner

	// showingFallback marks a boundary that swapped in its fallback.
	showingFallback bool
}

// liveNodes collects the subtree's top-level live nodes in order.
func (m *mountedNode) liveNodes() []dom.Node {
	if m.node != nil {
		return []dom.Node{m.node}
	}
	var nodes []dom.Node
	for _, child := range m.children {
		nodes = append(nodes, child.liveNodes()...)
	}
	return nodes
}

func (m *mountedNode) firstNode() dom.Node {
	if m.node != nil {
		return m.node
	}
	for _, child := range m.children {
		if n := child.firstNode(); n != nil {
			return n
		}
	}
	return nil
}

func (m *mountedNode) lastNode() dom.Node {
	if m.node != nil {
		return m.node
	}
	for i := len(m.children) - 1; i >= 0; i-- {
		if n := m.children[i].lastNode(); n != nil {
			return n
		}
	}
	return nil
}

// Render mounts node under container and returns a cleanup that
// unmounts it. A structured error aborts the pass; subtrees mounted
// earlier in the same pass are rolled back.
func (e *Engine) Render(node *vnode.VNode, container dom.Node) (effuse.Cleanup, error) {
	start := time.Now()

	var span trace.Span
	if e.tracer != nil {
		_, span = e.tracer.Start(context.Background(), "mount.render")
		defer span.End()
	}

	// Parent the render scope on the caller's owner so context values
	// installed there (a session store scope, for instance) are visible
	// inside blueprint views.
	owner := effuse.NewOwner(effuse.CurrentOwner())

	var root *mountedNode
	err := e.capture(func() {
		root = e.mount(node, container, nil, owner)
	})
	if err != nil {
		owner.Dispose()
		if span != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		e.logger.Error("render failed", "err", err)
		return nil, err
	}

	root.owner = owner
	e.mu.Lock()
	if old := e.roots[container]; old != nil {
		e.unmount(old, true)
	}
	e.roots[container] = root
	e.mu.Unlock()

	e.metrics.observeRender(time.Since(start))
	return func() { e.Unmount(container) }, nil
}

// Unmount tears down whatever Render placed under container: every
// effect created inside the subtree is stopped before its live nodes
// detach.
func (e *Engine) Unmount(container dom.Node) {
	e.mu.Lock()
	root := e.roots[container]
	delete(e.roots, container)
	e.mu.Unlock()

	if root != nil {
		e.unmount(root, true)
	}
}

// capture converts a render-pass panic into a structured error.
// Validation failures travel as *errors.EffuseError panics; anything
// else is wrapped under the render-failure code.
func (e *Engine) capture(fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if ee, ok := r.(*errors.EffuseError); ok {
			err = ee
			return
		}
		err = errors.New("E004").Wrap(toError(r))
	}()
	fn()
	return nil
}

func toError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}

// mount realizes vn under parent, inserting before ref (nil appends).
// Fatal conditions panic and are recovered by capture or by an
// enclosing boundary.
func (e *Engine) mount(vn *vnode.VNode, parent dom.Node, ref dom.Node, scope *effuse.Owner) *mountedNode {
	if vn == nil {
		return &mountedNode{parent: parent, scope: scope}
	}

	m := &mountedNode{vn: vn, key: vn.Key, parent: parent, scope: scope}

	switch vn.Kind {
	case vnode.KindText:
		e.mountText(m, parent, ref, scope)

	case vnode.KindElement:
		e.mountElement(m, parent, ref, scope)

	case vnode.KindFragment:
		e.mountChildren(m, vn.Children, parent, ref, scope)

	case vnode.KindList:
		if vn.Boundary != nil {
			e.mountBoundary(m, parent, ref, scope)
		} else {
			e.mountChildren(m, vn.Children, parent, ref, scope)
		}

	case vnode.KindBlueprint:
		e.mountBlueprint(m, parent, ref, scope)
	}

	return m
}

// mountChildren mounts a child list, recording each entry under the same
// key reconcileChildren will later look it up by. Unkeyed children get
// positional keys here so the first reconcile after a mount pairs them
// up instead of treating them all as new.
func (e *Engine) mountChildren(m *mountedNode, children []*vnode.VNode, parent dom.Node, ref dom.Node, scope *effuse.Owner) {
	for i, child := range children {
		entry := e.mount(child, parent, ref, scope)
		entry.key = entryKey(child, i)
		m.children = append(m.children, entry)
	}
}

func (e *Engine) mountText(m *mountedNode, parent dom.Node, ref dom.Node, scope *effuse.Owner) {
	vn := m.vn

	if vn.TextFn == nil {
		m.node = e.doc.CreateText(vn.Text)
		parent.InsertBefore(m.node, ref)
		return
	}

	// Reactive text: the node's content follows the getter, siblings
	// untouched. The binding's first run creates the node, so the
	// creation itself carries the getter's current value.
	e.bind(m, scope, "text", func() {
		text := toText(vn.TextFn())
		if m.node == nil {
			m.node = e.doc.CreateText(text)
			return
		}
		m.node.SetText(text)
	})
	if m.node == nil {
		// The first run yielded without producing a value.
		m.node = e.doc.CreateText("")
	}
	parent.InsertBefore(m.node, ref)
}

func (e *Engine) mountElement(m *mountedNode, parent dom.Node, ref dom.Node, scope *effuse.Owner) {
	vn := m.vn
	el := e.doc.CreateElement(vn.Tag)
	m.node = el

	e.applyProps(m, el, vn.Props, scope)
	e.mountChildren(m, vn.Children, el, nil, scope)

	parent.InsertBefore(el, ref)
}

// applyProps applies props to el. Event props become listeners, func or
// Source values become per-prop binding effects, everything else is a
// static attribute. Teardown is appended to m.cleanups.
func (e *Engine) applyProps(m *mountedNode, el dom.Node, props vnode.Props, scope *effuse.Owner) {
	for name, value := range props {
		if name == "key" {
			continue
		}

		if isEventProp(name) {
			event := name[2:]
			off := el.On(event, wrapHandler(value))
			m.cleanups = append(m.cleanups, off)
			continue
		}

		switch v := value.(type) {
		case effuse.Source:
			name := name
			e.bind(m, scope, "prop", func() {
				el.SetAttr(name, toText(v.GetAny()))
			})
		case func() any:
			name := name
			e.bind(m, scope, "prop", func() {
				el.SetAttr(name, toText(v()))
			})
		default:
			el.SetAttr(name, toText(value))
		}
	}
}

// bind installs a reactive binding effect tied to both the scope owner
// and the mounted node's own teardown.
func (e *Engine) bind(m *mountedNode, scope *effuse.Owner, kind string, run func()) {
	var eff *effuse.Effect
	effuse.WithOwner(scope, func() {
		eff = effuse.CreateEffect(func() effuse.Cleanup {
			run()
			e.metrics.recordBinding(kind)
			return nil
		}, effuse.EffectName(kind+"-binding"))
	})
	m.cleanups = append(m.cleanups, eff.Stop)
}

// unmount stops the subtree's effects and runs its cleanups, children
// first, then detaches its live nodes when detach is true.
func (e *Engine) unmount(m *mountedNode, detach bool) {
	if m == nil {
		return
	}

	// A blueprint's owner cascades through everything created in its
	// view, so dispose before touching nodes.
	if m.owner != nil {
		m.owner.Dispose()
	}

	for _, child := range m.children {
		e.unmount(child, false)
	}
	for i := len(m.cleanups) - 1; i >= 0; i-- {
		m.cleanups[i]()
	}
	m.cleanups = nil

	if detach {
		e.detach(m)
	}
}

// detach removes the subtree's live nodes from their parent.
func (e *Engine) detach(m *mountedNode) {
	for _, n := range m.liveNodes() {
		if p := n.Parent(); p != nil {
			p.RemoveChild(n)
		}
	}
}

func isEventProp(name string) bool {
	return len(name) > 2 && name[:2] == "on"
}

// wrapHandler adapts the handler shapes vnode accepts to a dom listener.
func wrapHandler(value any) func(dom.Event) {
	switch h := value.(type) {
	case func(dom.Event):
		return h
	case func(any):
		return func(ev dom.Event) { h(ev) }
	case func():
		return func(dom.Event) { h() }
	default:
		return func(dom.Event) {}
	}
}

// toText renders a child or prop value as node text.
func toText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
