package mount

import (
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/chrismichaelps/effuse-sub003/pkg/dom"
	"github.com/chrismichaelps/effuse-sub003/pkg/effuse"
	"github.com/chrismichaelps/effuse-sub003/pkg/vnode"
)

// ReconcileStats reports the live-node churn of one keyed child pass.
type ReconcileStats struct {
	Moved    int
	Inserted int
	Removed  int
}

// patch updates a mounted subtree to match vn, reusing live nodes where
// the kind (and tag, for elements) is unchanged. Returns the resulting
// record, which replaces m when the node had to be rebuilt.
func (e *Engine) patch(m *mountedNode, vn *vnode.VNode) *mountedNode {
	if m.vn == nil || vn == nil || m.vn.Kind != vn.Kind ||
		(vn.Kind == vnode.KindElement && m.vn.Tag != vn.Tag) ||
		(vn.Kind == vnode.KindBlueprint && m.vn.Def != vn.Def) {
		return e.replace(m, vn)
	}

	switch vn.Kind {
	case vnode.KindText:
		e.patchText(m, vn)

	case vnode.KindElement:
		e.patchElement(m, vn)

	case vnode.KindFragment:
		e.reconcileChildren(m, m.parent, vn.Children)
		m.vn = vn

	case vnode.KindList:
		if vn.Boundary != nil {
			e.patchBoundary(m, vn)
		} else {
			e.reconcileChildren(m, m.parent, vn.Children)
			m.vn = vn
		}

	case vnode.KindBlueprint:
		// Same definition: the blueprint re-renders itself through its
		// view effect. Identical props mean nothing to do; changed
		// props rebuild the instance.
		if !propsEqual(m.vn.Props, vn.Props) {
			return e.replace(m, vn)
		}
		m.vn = vn
	}

	return m
}

// replace unmounts m and mounts vn in its place.
func (e *Engine) replace(m *mountedNode, vn *vnode.VNode) *mountedNode {
	ref := nodeAfter(m)
	parent := m.parent
	scope := m.scope
	e.unmount(m, true)
	return e.mount(vn, parent, ref, scope)
}

// nodeAfter returns the live node immediately following m's extent.
func nodeAfter(m *mountedNode) dom.Node {
	if last := m.lastNode(); last != nil {
		return last.NextSibling()
	}
	return nil
}

func (e *Engine) patchText(m *mountedNode, vn *vnode.VNode) {
	old := m.vn

	if old.TextFn == nil && vn.TextFn == nil {
		if old.Text != vn.Text {
			m.node.SetText(vn.Text)
		}
		m.vn = vn
		return
	}

	// Binding identity changed: tear down the old binding effect and
	// install the new one against the same live node.
	for i := len(m.cleanups) - 1; i >= 0; i-- {
		m.cleanups[i]()
	}
	m.cleanups = nil
	m.vn = vn

	if vn.TextFn == nil {
		m.node.SetText(vn.Text)
		return
	}
	e.bind(m, m.scope, "text", func() {
		m.node.SetText(toText(vn.TextFn()))
	})
}

func (e *Engine) patchElement(m *mountedNode, vn *vnode.VNode) {
	old := m.vn
	el := m.node

	// Prop bindings and listeners are rebuilt wholesale; the document
	// dedups identical attribute writes, so unchanged statics are free.
	for i := len(m.cleanups) - 1; i >= 0; i-- {
		m.cleanups[i]()
	}
	m.cleanups = nil

	for name := range old.Props {
		if name == "key" || isEventProp(name) {
			continue
		}
		if _, keep := vn.Props[name]; !keep {
			el.RemoveAttr(name)
		}
	}

	e.applyProps(m, el, vn.Props, m.scope)
	m.vn = vn

	e.reconcileChildren(m, el, vn.Children)
}

// entryKey returns the reconciliation key for a child: its explicit Key
// when present, otherwise a positional key so unkeyed children pair up
// by index.
func entryKey(vn *vnode.VNode, idx int) string {
	if vn != nil && vn.Key != "" {
		return vn.Key
	}
	return "~" + strconv.Itoa(idx)
}

// reconcileChildren maps m's mounted children onto next under parent:
// a key map lookup, a removal pass for vanished keys, then one forward
// pass that reuses, moves, or inserts, keeping a lastPlaced anchor so
// nodes already in position incur zero document calls.
func (e *Engine) reconcileChildren(m *mountedNode, parent dom.Node, next []*vnode.VNode) ReconcileStats {
	var stats ReconcileStats
	old := m.children

	// The forward pass anchors on the node just before this child list's
	// extent. A fragment or list shares its live parent with sibling
	// nodes, so the parent's first child is not necessarily ours.
	// Captured before the removal pass, while the extent is intact.
	var lastPlaced dom.Node
	for _, entry := range old {
		if first := entry.firstNode(); first != nil {
			lastPlaced = nodeBefore(parent, first)
			break
		}
	}

	oldByKey := make(map[string]*mountedNode, len(old))
	for _, entry := range old {
		if _, exists := oldByKey[entry.key]; exists {
			// First occurrence wins the key slot; later duplicates are
			// removed below.
			continue
		}
		oldByKey[entry.key] = entry
	}

	newKeys := mapset.NewThreadUnsafeSet[string]()
	for i, vn := range next {
		if !newKeys.Add(entryKey(vn, i)) {
			if effuse.DebugMode {
				e.logger.Warn("duplicate key in child list", "key", entryKey(vn, i))
			}
		}
	}

	// Removal pass: entries whose key vanished, plus duplicate-key
	// losers, detach immediately.
	for _, entry := range old {
		if oldByKey[entry.key] != entry || !newKeys.Contains(entry.key) {
			e.unmount(entry, true)
			stats.Removed++
		}
	}

	// Forward pass.
	newEntries := make([]*mountedNode, 0, len(next))

	for i, vn := range next {
		key := entryKey(vn, i)

		entry, reuse := oldByKey[key]
		if reuse {
			delete(oldByKey, key) // a duplicate new key mounts fresh
			entry = e.patch(entry, vn)
			entry.key = key

			if first := entry.firstNode(); first != nil && first != expectedAfter(parent, lastPlaced) {
				e.moveEntry(parent, entry, expectedAfter(parent, lastPlaced))
				stats.Moved++
			}
		} else {
			entry = e.mount(vn, parent, expectedAfter(parent, lastPlaced), m.scope)
			entry.key = key
			stats.Inserted++
		}

		if last := entry.lastNode(); last != nil {
			lastPlaced = last
		}
		newEntries = append(newEntries, entry)
	}

	m.children = newEntries
	e.metrics.recordReconcile(stats)
	return stats
}

// expectedAfter returns the position a child placed after anchor should
// occupy: the parent's first child for a nil anchor, otherwise the
// anchor's next sibling.
func expectedAfter(parent dom.Node, anchor dom.Node) dom.Node {
	if anchor == nil {
		return parent.FirstChild()
	}
	return anchor.NextSibling()
}

// nodeBefore returns the live node immediately preceding n under parent,
// or nil when n is the parent's first child.
func nodeBefore(parent, n dom.Node) dom.Node {
	var prev dom.Node
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		if c == n {
			return prev
		}
		prev = c
	}
	return nil
}

// moveEntry relocates the entry's live nodes before ref, in order.
func (e *Engine) moveEntry(parent dom.Node, entry *mountedNode, ref dom.Node) {
	for _, n := range entry.liveNodes() {
		parent.InsertBefore(n, ref)
	}
}

// propsEqual compares prop maps by shallow identity per value.
func propsEqual(a, b vnode.Props) bool {
	if len(a) != len(b) {
		return false
	}
	for key, av := range a {
		bv, ok := b[key]
		if !ok || !effuse.Identical(av, bv) {
			return false
		}
	}
	return true
}
