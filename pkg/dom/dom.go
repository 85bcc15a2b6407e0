// Package dom defines the host document contract the mount engine
// renders into, plus an in-memory implementation used by tests, the
// bench CLI, and the live server.
package dom

// Event is a host event delivered to listeners registered with On.
type Event struct {
	Type   string
	Target Node
	Value  any
}

// Document creates live nodes. The mount engine never constructs nodes
// directly; it always goes through the document so alternative hosts
// can be plugged in.
type Document interface {
	CreateElement(tag string) Node
	CreateText(text string) Node
}

// Node is one live document node. Element and text nodes share the
// interface; text-only operations on elements (and vice versa) are
// no-ops.
type Node interface {
	AppendChild(child Node)
	// InsertBefore places child immediately before ref under this node.
	// A nil ref appends. A child already attached elsewhere is detached
	// first, so InsertBefore doubles as the move primitive.
	InsertBefore(child, ref Node)
	RemoveChild(child Node)

	FirstChild() Node
	NextSibling() Node
	Parent() Node

	Tag() string
	Text() string
	SetText(text string)

	Attr(name string) (string, bool)
	SetAttr(name, value string)
	RemoveAttr(name string)

	// On registers an event listener and returns its removal function.
	On(event string, handler func(Event)) (off func())
	// Dispatch delivers ev to this node's listeners, then bubbles to
	// ancestors.
	Dispatch(ev Event)
}
