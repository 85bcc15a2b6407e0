package vnode

import (
	"testing"

	"github.com/chrismichaelps/effuse-sub003/pkg/effuse"
)

func TestElBasic(t *testing.T) {
	node := El("div",
		Attr{Key: "class", Value: "card"},
		El("span", "hello"),
	)

	if node.Kind != KindElement || node.Tag != "div" {
		t.Fatalf("got kind=%v tag=%q", node.Kind, node.Tag)
	}
	if node.Props["class"] != "card" {
		t.Errorf("class prop missing, props=%v", node.Props)
	}
	if len(node.Children) != 1 || node.Children[0].Tag != "span" {
		t.Fatalf("want one span child, got %v", node.Children)
	}

	text := node.Children[0].Children[0]
	if text.Kind != KindText || text.Text != "hello" {
		t.Errorf("string arg must normalize to a text child, got %+v", text)
	}
}

func TestElKeyAttrSetsKey(t *testing.T) {
	node := El("li", WithKey(42))
	if node.Key != "42" {
		t.Errorf("key attribute must set Key, got %q", node.Key)
	}
	if _, ok := node.Props["key"]; ok {
		t.Error("key must not leak into Props")
	}
}

func TestElNilArgsIgnored(t *testing.T) {
	node := El("div", nil, El("p"), nil)
	if len(node.Children) != 1 {
		t.Errorf("nil slots must render nothing, got %d children", len(node.Children))
	}
}

func TestElSliceChildrenFlatten(t *testing.T) {
	items := []any{El("li", "a"), nil, El("li", "b")}
	node := El("ul", items)
	if len(node.Children) != 2 {
		t.Errorf("slice child must flatten, got %d children", len(node.Children))
	}
}

func TestElEventHandler(t *testing.T) {
	node := El("button", On("click", func(any) {}))
	if node.Props["onclick"] == nil {
		t.Error("event handler must land in Props under on<event>")
	}
}

func TestTxtVariants(t *testing.T) {
	if n := Txt("plain"); n.Text != "plain" || n.TextFn != nil {
		t.Errorf("string text: %+v", n)
	}
	if n := Txt(7); n.Text != "7" {
		t.Errorf("numeric text must stringify, got %q", n.Text)
	}

	s := effuse.NewSignal(1)
	if n := Txt(s); n.TextFn == nil {
		t.Error("signal child must become reactive text")
	}
	if n := Txt(func() any { return "x" }); n.TextFn == nil {
		t.Error("getter child must become reactive text")
	}
}

func TestSignalChildInElement(t *testing.T) {
	s := effuse.NewSignal(0)
	node := El("div", s)

	if len(node.Children) != 1 {
		t.Fatalf("want one child, got %d", len(node.Children))
	}
	child := node.Children[0]
	if child.Kind != KindText || child.TextFn == nil {
		t.Errorf("signal child must normalize to reactive text, got %+v", child)
	}
	if got := child.TextFn(); got != 0 {
		t.Errorf("reactive text must read the signal, got %v", got)
	}
}

func TestFragAndKeyed(t *testing.T) {
	frag := Frag(El("a"), El("b"))
	if frag.Kind != KindFragment || len(frag.Children) != 2 {
		t.Errorf("frag: %+v", frag)
	}

	list := Keyed(El("li", WithKey("a")), El("li", WithKey("b")))
	if list.Kind != KindList {
		t.Errorf("keyed list kind = %v", list.Kind)
	}
	if list.Children[0].Key != "a" || list.Children[1].Key != "b" {
		t.Errorf("keys not captured: %q %q", list.Children[0].Key, list.Children[1].Key)
	}
}

func TestBoundaryIsListWithConfig(t *testing.T) {
	fallback := El("p", "failed")
	node := Boundary(fallback, func(error) {}, El("div"))

	if node.Kind != KindList {
		t.Errorf("boundary must be a list node, got %v", node.Kind)
	}
	if node.Boundary == nil || node.Boundary.Fallback != fallback {
		t.Error("boundary config not attached")
	}
}

func TestBlue(t *testing.T) {
	def := &ComponentDef{Name: "counter", View: func(*RenderContext) *VNode { return El("div") }}
	node := Blue(def, Props{"start": 3, "key": "c1"}, Portal{Name: "footer", Content: El("footer")})

	if node.Kind != KindBlueprint || node.Def != def {
		t.Fatalf("blueprint: %+v", node)
	}
	if node.Key != "c1" {
		t.Errorf("key prop must set Key, got %q", node.Key)
	}
	if node.Portals["footer"] == nil {
		t.Error("portal not captured")
	}
}

func TestIsNode(t *testing.T) {
	if !IsNode(El("div")) {
		t.Error("IsNode must accept *VNode")
	}
	if IsNode("div") || IsNode(nil) || IsNode(42) {
		t.Error("IsNode must reject plain values")
	}
}

func TestWalkPreOrder(t *testing.T) {
	tree := El("div",
		El("span", "a"),
		El("ul", El("li")),
	)

	var tags []string
	Walk(tree, func(n *VNode) bool {
		if n.Kind == KindElement {
			tags = append(tags, n.Tag)
		}
		return true
	})

	want := []string{"div", "span", "ul", "li"}
	if len(tags) != len(want) {
		t.Fatalf("visited %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Fatalf("visited %v, want %v", tags, want)
		}
	}
}

func TestWalkSkipsChildrenOnFalse(t *testing.T) {
	tree := El("div", El("ul", El("li")))
	var tags []string
	Walk(tree, func(n *VNode) bool {
		if n.Kind == KindElement {
			tags = append(tags, n.Tag)
		}
		return n.Tag != "ul"
	})
	for _, tag := range tags {
		if tag == "li" {
			t.Error("children of a skipped node were visited")
		}
	}
}
