package mount

import (
	"strings"
	"testing"

	"github.com/chrismichaelps/effuse-sub003/pkg/dom"
	"github.com/chrismichaelps/effuse-sub003/pkg/effuse"
	"github.com/chrismichaelps/effuse-sub003/pkg/vnode"
)

func newTestEngine(t *testing.T) (*Engine, *dom.MemDocument, dom.Node) {
	t.Helper()
	doc := dom.NewDocument()
	return New(doc), doc, doc.Root()
}

func TestRenderStaticTree(t *testing.T) {
	e, doc, root := newTestEngine(t)

	_, err := e.Render(vnode.El("div",
		vnode.Attr{Key: "class", Value: "card"},
		vnode.El("h1", "Title"),
		vnode.El("p", "Body"),
	), root)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	want := `<div class="card"><h1>Title</h1><p>Body</p></div>`
	if got := doc.HTML(); got != want {
		t.Errorf("HTML = %q, want %q", got, want)
	}
}

func TestRenderFragment(t *testing.T) {
	e, doc, root := newTestEngine(t)

	_, err := e.Render(vnode.Frag(vnode.El("a"), vnode.El("b")), root)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := doc.HTML(); got != "<a></a><b></b>" {
		t.Errorf("HTML = %q", got)
	}
}

func TestReactiveTextUpdatesInPlace(t *testing.T) {
	e, doc, root := newTestEngine(t)
	count := effuse.NewSignal(0)

	if _, err := e.Render(vnode.El("div", count), root); err != nil {
		t.Fatalf("Render: %v", err)
	}

	created := doc.Stats().Created
	count.Set(1)
	count.Set(2)
	count.Set(3)

	if got := doc.HTML(); got != "<div>3</div>" {
		t.Errorf("HTML = %q", got)
	}
	if doc.Stats().Created != created {
		t.Errorf("text updates created nodes: %d -> %d", created, doc.Stats().Created)
	}
}

func TestReactiveTextCreatedWithInitialValue(t *testing.T) {
	e, doc, root := newTestEngine(t)
	count := effuse.NewSignal(7)

	var creates []dom.Mutation
	doc.Observe(func(mu dom.Mutation) {
		if mu.Op == dom.OpCreateText {
			creates = append(creates, mu)
		}
	})

	if _, err := e.Render(vnode.El("span", count), root); err != nil {
		t.Fatalf("Render: %v", err)
	}

	// The creation mutation itself carries the getter's value, so a
	// patch stream consumer sees the text without a follow-up write.
	if len(creates) != 1 || creates[0].Value != "7" {
		t.Fatalf("create-text mutations = %+v, want one carrying \"7\"", creates)
	}
	if got := doc.HTML(); got != "<span>7</span>" {
		t.Errorf("HTML = %q", got)
	}
}

func TestReactivePropBinding(t *testing.T) {
	e, doc, root := newTestEngine(t)
	theme := effuse.NewSignal("dark")

	node := vnode.El("div", vnode.Props{"class": theme})
	if _, err := e.Render(node, root); err != nil {
		t.Fatalf("Render: %v", err)
	}

	if !strings.Contains(doc.HTML(), `class="dark"`) {
		t.Fatalf("HTML = %q", doc.HTML())
	}

	theme.Set("light")
	if !strings.Contains(doc.HTML(), `class="light"`) {
		t.Errorf("prop binding did not re-apply: %q", doc.HTML())
	}
}

func TestGetterPropBinding(t *testing.T) {
	e, doc, root := newTestEngine(t)
	n := effuse.NewSignal(1)

	node := vnode.El("div", vnode.Props{
		"data-count": func() any { return n.Get() * 2 },
	})
	if _, err := e.Render(node, root); err != nil {
		t.Fatalf("Render: %v", err)
	}

	n.Set(5)
	if !strings.Contains(doc.HTML(), `data-count="10"`) {
		t.Errorf("getter prop stale: %q", doc.HTML())
	}
}

func TestEventHandlerWiring(t *testing.T) {
	e, _, root := newTestEngine(t)
	clicks := 0

	node := vnode.El("button", vnode.On("click", func(any) { clicks++ }))
	if _, err := e.Render(node, root); err != nil {
		t.Fatalf("Render: %v", err)
	}

	button := root.FirstChild()
	button.Dispatch(dom.Event{Type: "click"})
	if clicks != 1 {
		t.Errorf("clicks = %d", clicks)
	}
}

func TestUnmountDetachesAndStopsEffects(t *testing.T) {
	e, doc, root := newTestEngine(t)
	count := effuse.NewSignal(0)

	cleanup, err := e.Render(vnode.El("div", count), root)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	cleanup()
	if got := doc.HTML(); got != "" {
		t.Errorf("nodes survived unmount: %q", got)
	}

	writes := doc.Stats().TextWrites
	count.Set(9)
	if doc.Stats().TextWrites != writes {
		t.Error("binding effect still running after unmount")
	}
}

func TestUnmountIsIdempotent(t *testing.T) {
	e, doc, root := newTestEngine(t)
	cleanup, err := e.Render(vnode.El("div"), root)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	cleanup()
	cleanup()
	e.Unmount(root)
	if got := doc.HTML(); got != "" {
		t.Errorf("HTML = %q", got)
	}
}

func TestRenderNilChildRendersNothing(t *testing.T) {
	e, doc, root := newTestEngine(t)
	if _, err := e.Render(vnode.El("div", nil, "x", nil), root); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := doc.HTML(); got != "<div>x</div>" {
		t.Errorf("HTML = %q", got)
	}
}

func TestRenderReplacesPreviousRoot(t *testing.T) {
	e, doc, root := newTestEngine(t)

	if _, err := e.Render(vnode.El("a"), root); err != nil {
		t.Fatalf("first render: %v", err)
	}
	if _, err := e.Render(vnode.El("b"), root); err != nil {
		t.Fatalf("second render: %v", err)
	}
	if got := doc.HTML(); got != "<b></b>" {
		t.Errorf("HTML = %q", got)
	}
}
