package vnode

import "github.com/chrismichaelps/effuse-sub003/pkg/effuse"

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement   Kind = iota // <div>, <button>, etc.
	KindText                  // Plain or reactive text
	KindFragment              // Grouping without wrapper
	KindList                  // Keyed child list
	KindBlueprint             // Component instance
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindFragment:
		return "Fragment"
	case KindList:
		return "List"
	case KindBlueprint:
		return "Blueprint"
	default:
		return "Unknown"
	}
}

// Props holds attributes and event handlers.
type Props map[string]any

// VNode is a virtual document node. Nodes are immutable value data:
// an "update" builds a new node, and identity across renders is carried
// only by Key, never by pointer equality.
type VNode struct {
	Kind     Kind     // Node type
	Tag      string   // Element tag name (e.g., "div")
	Props    Props    // Attributes and event handlers
	Children []*VNode // Child nodes
	Key      string   // Reconciliation key
	Text     string   // For KindText with static content
	TextFn   func() any // For KindText with reactive content; read inside a tracking frame
	Def      *ComponentDef     // For KindBlueprint
	Portals  map[string]*VNode // Named subtrees handed to a blueprint's view

	// Boundary, when set on a KindList node, turns the list into an
	// error boundary: a panic while rendering its children swaps in the
	// fallback subtree and invokes OnError.
	Boundary *BoundaryConfig
}

// BoundaryConfig configures an error-boundary list node.
type BoundaryConfig struct {
	Fallback *VNode
	OnError  func(error)
}

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value any
}

// EventHandler represents an event handler prop.
type EventHandler struct {
	Event   string // "click", "input", etc.
	Handler func(any)
}

// Portal names a subtree passed alongside a blueprint's props.
type Portal struct {
	Name    string
	Content *VNode
}

// PropSpec declares one prop a blueprint accepts. A nil Validate only
// checks presence for required props.
type PropSpec struct {
	Name     string
	Required bool
	Validate func(value any) error
}

// RenderContext is handed to a blueprint's view function.
type RenderContext struct {
	Props   Props
	State   *effuse.Rx
	Portals map[string]*VNode
	Owner   *effuse.Owner
}

// ComponentDef is the component definition shape consumed by the mount
// engine. Only View is mandatory.
type ComponentDef struct {
	Name    string
	Props   []PropSpec
	State   func(props Props) map[string]any
	View    func(ctx *RenderContext) *VNode
	OnError func(err error) *VNode
	Loading func() *VNode

	OnMount   func()
	OnUnmount func()
}

// IsNode reports whether v is a virtual node, distinguishing the tagged
// union from plain values in a child position.
func IsNode(v any) bool {
	_, ok := v.(*VNode)
	return ok
}

// Walk visits n and its descendants in depth-first pre-order. Returning
// false from visit skips the node's children.
func Walk(n *VNode, visit func(*VNode) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for _, child := range n.Children {
		Walk(child, visit)
	}
	for _, portal := range n.Portals {
		Walk(portal, visit)
	}
}

// HasEventProps reports whether the node carries any event handler props.
func (v *VNode) HasEventProps() bool {
	if v == nil || v.Kind != KindElement {
		return false
	}
	for key := range v.Props {
		if len(key) > 2 && key[:2] == "on" {
			return true
		}
	}
	return false
}
