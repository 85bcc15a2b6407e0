package etest

import (
	"strings"
	"testing"

	"github.com/chrismichaelps/effuse-sub003/pkg/dom"
	"github.com/chrismichaelps/effuse-sub003/pkg/effuse"
	"github.com/chrismichaelps/effuse-sub003/pkg/mount"
	"github.com/chrismichaelps/effuse-sub003/pkg/store"
	"github.com/chrismichaelps/effuse-sub003/pkg/vnode"
)

// Container wraps a mounted tree for inspection.
type Container struct {
	t      *testing.T
	Doc    *dom.MemDocument
	Engine *mount.Engine
	Owner  *effuse.Owner
	Scope  *store.Scope

	cleanup effuse.Cleanup
}

// Option configures Mount.
type Option func(*Container)

// WithScope installs a specific store scope instead of a fresh one.
func WithScope(scope *store.Scope) Option {
	return func(c *Container) { c.Scope = scope }
}

// Mount renders node into a fresh in-memory document. The tree is torn
// down automatically when the test finishes. Render failures fail the
// test immediately.
func Mount(t *testing.T, node *vnode.VNode, opts ...Option) *Container {
	t.Helper()

	c := &Container{
		t:     t,
		Doc:   dom.NewDocument(),
		Owner: effuse.NewOwner(nil),
		Scope: store.NewScope(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Engine = mount.New(c.Doc)

	var err error
	effuse.WithOwner(c.Owner, func() {
		effuse.SetContext(store.ScopeKey, c.Scope)
		c.cleanup, err = c.Engine.Render(node, c.Doc.Root())
	})
	if err != nil {
		t.Fatalf("mount failed: %v", err)
	}

	t.Cleanup(c.Unmount)
	return c
}

// Unmount tears the tree down. Idempotent; Mount registers it as a test
// cleanup already.
func (c *Container) Unmount() {
	if c.cleanup != nil {
		c.cleanup()
		c.cleanup = nil
	}
	c.Owner.Dispose()
}

// HTML returns the document rendered as an HTML string.
func (c *Container) HTML() string {
	return c.Doc.HTML()
}

// Stats returns the document's mutation counters.
func (c *Container) Stats() dom.Stats {
	return c.Doc.Stats()
}

// ResetStats zeroes the mutation counters, typically right before the
// operation under test.
func (c *Container) ResetStats() {
	c.Doc.ResetStats()
}

// Find returns the first node with the given tag in document order.
// Fails the test when absent.
func (c *Container) Find(tag string) dom.Node {
	c.t.Helper()
	n := findNode(c.Doc.Root(), func(n dom.Node) bool { return n.Tag() == tag })
	if n == nil {
		c.t.Fatalf("no <%s> in document:\n%s", tag, c.HTML())
	}
	return n
}

// FindText returns the first node whose text contains substr, or fails.
func (c *Container) FindText(substr string) dom.Node {
	c.t.Helper()
	n := findNode(c.Doc.Root(), func(n dom.Node) bool {
		return n.Tag() == "" && strings.Contains(n.Text(), substr)
	})
	if n == nil {
		c.t.Fatalf("no text node containing %q in document:\n%s", substr, c.HTML())
	}
	return n
}

// Query returns all nodes with the given tag in document order.
func (c *Container) Query(tag string) []dom.Node {
	var out []dom.Node
	walkNodes(c.Doc.Root(), func(n dom.Node) {
		if n.Tag() == tag {
			out = append(out, n)
		}
	})
	return out
}

// Click dispatches a click event on target and drains deferred effects.
func (c *Container) Click(target dom.Node) {
	c.Fire(target, "click", nil)
}

// Fire dispatches an arbitrary event on target, then drains any effects
// deferred to the post queue so the document reflects the result.
func (c *Container) Fire(target dom.Node, event string, value any) {
	effuse.WithOwner(c.Owner, func() {
		target.Dispatch(dom.Event{Type: event, Target: target, Value: value})
	})
	c.Flush()
}

// Flush drains deferred effects for the container's scope.
func (c *Container) Flush() {
	c.Owner.RunPendingEffects()
	effuse.Flush()
}

// ExpectContains asserts the rendered HTML contains expected.
func (c *Container) ExpectContains(expected string) {
	c.t.Helper()
	if html := c.HTML(); !strings.Contains(html, expected) {
		c.t.Errorf("expected document to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts the rendered HTML does not contain s.
func (c *Container) ExpectNotContains(s string) {
	c.t.Helper()
	if html := c.HTML(); strings.Contains(html, s) {
		c.t.Errorf("expected document not to contain %q, got:\n%s", s, truncate(html, 500))
	}
}

// RenderToString mounts node into a throwaway document and returns the
// resulting HTML. Render failures return the empty string.
func RenderToString(node *vnode.VNode) string {
	doc := dom.NewDocument()
	e := mount.New(doc)
	cleanup, err := e.Render(node, doc.Root())
	if err != nil {
		return ""
	}
	defer cleanup()
	return doc.HTML()
}

func findNode(root dom.Node, match func(dom.Node) bool) dom.Node {
	var found dom.Node
	walkNodes(root, func(n dom.Node) {
		if found == nil && match(n) {
			found = n
		}
	})
	return found
}

func walkNodes(n dom.Node, visit func(dom.Node)) {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		visit(child)
		walkNodes(child, visit)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
