package vnode

import (
	"fmt"

	"github.com/chrismichaelps/effuse-sub003/pkg/effuse"
)

// El creates an element node. Arguments can be: nil, Attr, []Attr,
// Props, EventHandler, or anything appendChild accepts as a child slot.
func El(tag string, args ...any) *VNode {
	node := &VNode{
		Kind:  KindElement,
		Tag:   tag,
		Props: make(Props),
	}

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			// Ignore nil (allows conditional attributes)
			continue

		case Attr:
			node.setAttr(v)

		case []Attr:
			for _, attr := range v {
				node.setAttr(attr)
			}

		case Props:
			for key, value := range v {
				node.setAttr(Attr{Key: key, Value: value})
			}

		case EventHandler:
			node.Props["on"+v.Event] = v.Handler

		default:
			appendChild(node, arg)
		}
	}

	return node
}

func (v *VNode) setAttr(a Attr) {
	if a.Key == "" {
		return
	}
	if a.Key == "key" {
		v.Key = fmt.Sprintf("%v", a.Value)
		return
	}
	v.Props[a.Key] = a.Value
}

// Txt creates a text node. A plain value renders its string form once;
// an effuse.Source or a zero-arg function renders reactively, updated in
// place whenever its dependencies change.
func Txt(v any) *VNode {
	switch t := v.(type) {
	case nil:
		return &VNode{Kind: KindText}
	case string:
		return &VNode{Kind: KindText, Text: t}
	case effuse.Source:
		return &VNode{Kind: KindText, TextFn: t.GetAny}
	case func() any:
		return &VNode{Kind: KindText, TextFn: t}
	default:
		return &VNode{Kind: KindText, Text: fmt.Sprintf("%v", t)}
	}
}

// Txtf creates a formatted static text node.
func Txtf(format string, args ...any) *VNode {
	return Txt(fmt.Sprintf(format, args...))
}

// Frag groups children without a wrapper element.
func Frag(children ...any) *VNode {
	node := &VNode{Kind: KindFragment}
	for _, child := range children {
		appendChild(node, child)
	}
	return node
}

// Keyed creates a list node whose children are reconciled by key.
func Keyed(children ...any) *VNode {
	node := &VNode{Kind: KindList}
	for _, child := range children {
		appendChild(node, child)
	}
	return node
}

// Boundary creates an error-boundary list: a panic while rendering its
// children swaps in fallback and calls onError. Siblings outside the
// boundary are unaffected.
func Boundary(fallback *VNode, onError func(error), children ...any) *VNode {
	node := Keyed(children...)
	node.Boundary = &BoundaryConfig{Fallback: fallback, OnError: onError}
	return node
}

// Blue creates a blueprint (component) node from a definition and props.
func Blue(def *ComponentDef, props Props, portals ...Portal) *VNode {
	node := &VNode{
		Kind:  KindBlueprint,
		Def:   def,
		Props: props,
	}
	if key, ok := props["key"]; ok {
		node.Key = fmt.Sprintf("%v", key)
	}
	for _, p := range portals {
		if p.Content == nil {
			continue
		}
		if node.Portals == nil {
			node.Portals = make(map[string]*VNode)
		}
		node.Portals[p.Name] = p.Content
	}
	return node
}

// On creates an event handler prop for El.
func On(event string, handler func(any)) EventHandler {
	return EventHandler{Event: event, Handler: handler}
}

// WithKey creates a key attribute for reconciliation. The key is
// converted to a string with fmt.Sprintf.
func WithKey(key any) Attr {
	return Attr{Key: "key", Value: fmt.Sprintf("%v", key)}
}

// appendChild normalizes one child slot onto the node. A slot may be
// nil (nothing), a *VNode, a []*VNode or []any (implicit fragment
// contents), an effuse.Source or zero-arg function (reactive text), or
// any other value (static text via its string form).
func appendChild(node *VNode, child any) {
	switch v := child.(type) {
	case nil:
		return

	case *VNode:
		if v != nil {
			node.Children = append(node.Children, v)
		}

	case []*VNode:
		for _, c := range v {
			if c != nil {
				node.Children = append(node.Children, c)
			}
		}

	case []any:
		for _, c := range v {
			appendChild(node, c)
		}

	case effuse.Source:
		node.Children = append(node.Children, Txt(v))

	case func() any:
		node.Children = append(node.Children, Txt(v))

	default:
		node.Children = append(node.Children, Txt(v))
	}
}
