package mount

import (
	"github.com/chrismichaelps/effuse-sub003/internal/errors"
	"github.com/chrismichaelps/effuse-sub003/pkg/dom"
	"github.com/chrismichaelps/effuse-sub003/pkg/effuse"
	"github.com/chrismichaelps/effuse-sub003/pkg/vnode"
)

// mountBlueprint instantiates a component definition: props are
// validated against the schema, a child owner scopes everything the
// view creates, and the view runs inside an effect so dependency
// changes re-render (patch) the subtree in place.
func (e *Engine) mountBlueprint(m *mountedNode, parent dom.Node, ref dom.Node, scope *effuse.Owner) {
	vn := m.vn
	def := vn.Def

	if def == nil || def.View == nil {
		panic(errors.New("E042").WithDetail("blueprint %q has no view function", defName(def)))
	}
	validateProps(def, vn.Props)

	owner := effuse.NewOwner(scope)
	m.owner = owner

	init := map[string]any{}
	if def.State != nil {
		if s := def.State(vn.Props); s != nil {
			init = s
		}
	}

	ctx := &vnode.RenderContext{
		Props:   vn.Props,
		State:   effuse.NewRx(init),
		Portals: vn.Portals,
		Owner:   owner,
	}

	var inner *mountedNode
	first := true

	effuse.WithOwner(owner, func() {
		effuse.CreateEffect(func() effuse.Cleanup {
			owner.StartRender()
			view := e.runView(def, ctx)

			// Mounting installs its own binding effects; their reads
			// must not leak into this view effect's dependency set.
			effuse.Untracked(func() {
				if first {
					first = false
					inner = e.mount(view, parent, ref, owner)
				} else {
					inner = e.patch(inner, view)
				}
				m.children = []*mountedNode{inner}
			})
			return nil
		}, effuse.EffectName("view:"+defName(def)))
	})

	if def.OnUnmount != nil {
		owner.OnCleanup(def.OnUnmount)
	}
	if def.OnMount != nil {
		def.OnMount()
	}
}

// runView executes the view with the blueprint's own failure handling:
// a suspend yield renders the Loading subtree, a panic renders OnError's
// fallback, and with neither hook the panic travels on to an enclosing
// boundary.
func (e *Engine) runView(def *vnode.ComponentDef, ctx *vnode.RenderContext) (out *vnode.VNode) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if effuse.IsSuspend(r) {
			if def.Loading != nil {
				out = def.Loading()
			}
			return
		}
		if def.OnError != nil {
			err := toError(r)
			e.logger.Warn("blueprint view failed", "blueprint", defName(def), "err", err)
			out = def.OnError(err)
			return
		}
		panic(r)
	}()
	return def.View(ctx)
}

// validateProps checks props against the definition's schema. Failures
// panic with a structured error before anything renders.
func validateProps(def *vnode.ComponentDef, props vnode.Props) {
	for _, spec := range def.Props {
		value, ok := props[spec.Name]
		if !ok || value == nil {
			if spec.Required {
				panic(errors.New("E040").
					WithDetail("blueprint %q requires prop %q", defName(def), spec.Name).
					WithSuggestion("Pass the prop in the Blue(...) call"))
			}
			continue
		}
		if spec.Validate != nil {
			if err := spec.Validate(value); err != nil {
				panic(errors.New("E041").
					WithDetail("blueprint %q prop %q: %v", defName(def), spec.Name, err).
					Wrap(err))
			}
		}
	}
}

func defName(def *vnode.ComponentDef) string {
	if def == nil || def.Name == "" {
		return "(anonymous)"
	}
	return def.Name
}

// mountBoundary mounts a boundary list's children, swapping in the
// fallback if any child panics while rendering.
func (e *Engine) mountBoundary(m *mountedNode, parent dom.Node, ref dom.Node, scope *effuse.Owner) {
	defer func() {
		if r := recover(); r != nil {
			e.failBoundary(m, parent, ref, toError(r))
		}
	}()

	e.mountChildren(m, m.vn.Children, parent, ref, scope)
}

// patchBoundary reconciles a boundary's children, falling back on
// panic. A boundary currently showing its fallback retries the real
// children.
func (e *Engine) patchBoundary(m *mountedNode, vn *vnode.VNode) {
	parent := m.parent
	ref := nodeAfter(m)

	defer func() {
		if r := recover(); r != nil {
			m.vn = vn
			e.failBoundary(m, parent, ref, toError(r))
		}
	}()

	if m.showingFallback {
		for _, child := range m.children {
			e.unmount(child, true)
		}
		m.children = nil
		m.showingFallback = false
		m.vn = vn
		for _, child := range vn.Children {
			m.children = append(m.children, e.mount(child, parent, ref, m.scope))
		}
		return
	}

	m.vn = vn
	e.reconcileChildren(m, parent, vn.Children)
}

// failBoundary replaces whatever the boundary has mounted with its
// fallback and reports the failure. Siblings outside the boundary are
// untouched.
func (e *Engine) failBoundary(m *mountedNode, parent dom.Node, ref dom.Node, err error) {
	for _, child := range m.children {
		e.unmount(child, true)
	}
	m.children = nil
	m.showingFallback = true

	cfg := m.vn.Boundary
	if cfg.Fallback != nil {
		m.children = []*mountedNode{e.mount(cfg.Fallback, parent, ref, m.scope)}
	}

	e.logger.Warn("boundary caught render failure", "err", err)
	e.metrics.recordBoundaryTrip()
	if cfg.OnError != nil {
		cfg.OnError(err)
	}
}
