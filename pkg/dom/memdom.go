package dom

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// MutationOp identifies a document mutation kind. The live server
// serializes mutations as JSON patch frames, so the values are stable
// wire names.
type MutationOp string

const (
	OpCreateElement MutationOp = "create-element"
	OpCreateText    MutationOp = "create-text"
	OpSetText       MutationOp = "set-text"
	OpSetAttr       MutationOp = "set-attr"
	OpRemoveAttr    MutationOp = "remove-attr"
	OpInsert        MutationOp = "insert"
	OpRemove        MutationOp = "remove"
)

// Mutation describes one document change. Node IDs are document-local
// and stable for the node's lifetime.
type Mutation struct {
	Op     MutationOp `json:"op"`
	Node   uint64     `json:"node"`
	Parent uint64     `json:"parent,omitempty"`
	Ref    uint64     `json:"ref,omitempty"`
	Tag    string     `json:"tag,omitempty"`
	Name   string     `json:"name,omitempty"`
	Value  string     `json:"value,omitempty"`
}

// Stats counts document mutations, used by reconciliation tests and the
// bench CLI to verify minimal churn.
type Stats struct {
	Created    int64
	Moved      int64
	Removed    int64
	TextWrites int64
	AttrWrites int64
}

// MemDocument is a deterministic in-memory Document.
type MemDocument struct {
	nextID atomic.Uint64

	mu        sync.Mutex
	root      *memNode
	nodes     map[uint64]*memNode
	stats     Stats
	observers []func(Mutation)
}

// NewDocument creates an empty in-memory document with a root container
// node. The root is not counted in Stats.
func NewDocument() *MemDocument {
	d := &MemDocument{nodes: make(map[uint64]*memNode)}
	d.root = &memNode{doc: d, id: d.nextID.Add(1), tag: "root"}
	d.nodes[d.root.id] = d.root
	return d
}

// Root returns the document's container node.
func (d *MemDocument) Root() Node {
	return d.root
}

// Stats returns a snapshot of the mutation counters.
func (d *MemDocument) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// ResetStats zeroes the mutation counters.
func (d *MemDocument) ResetStats() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats = Stats{}
}

// Observe registers fn to receive every subsequent mutation. Used by
// the live server to stream patches.
func (d *MemDocument) Observe(fn func(Mutation)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, fn)
}

// NodeByID looks up a live node by its document-local ID.
func (d *MemDocument) NodeByID(id uint64) (Node, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.nodes[id]
	if !ok {
		return nil, false
	}
	return n, true
}

// NodeID returns the document-local ID of a node created by this
// document, or 0 for foreign nodes.
func (d *MemDocument) NodeID(n Node) uint64 {
	if mn, ok := n.(*memNode); ok && mn.doc == d {
		return mn.id
	}
	return 0
}

func (d *MemDocument) emit(m Mutation) {
	for _, fn := range d.observers {
		fn(m)
	}
}

// CreateElement implements Document.
func (d *MemDocument) CreateElement(tag string) Node {
	n := &memNode{doc: d, id: d.nextID.Add(1), tag: tag}

	d.mu.Lock()
	d.nodes[n.id] = n
	d.stats.Created++
	d.emit(Mutation{Op: OpCreateElement, Node: n.id, Tag: tag})
	d.mu.Unlock()

	return n
}

// CreateText implements Document.
func (d *MemDocument) CreateText(text string) Node {
	n := &memNode{doc: d, id: d.nextID.Add(1), isText: true, data: text}

	d.mu.Lock()
	d.nodes[n.id] = n
	d.stats.Created++
	d.emit(Mutation{Op: OpCreateText, Node: n.id, Value: text})
	d.mu.Unlock()

	return n
}

// HTML renders the document as an HTML-ish string for assertions.
func (d *MemDocument) HTML() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var sb strings.Builder
	for _, child := range d.root.children {
		child.render(&sb)
	}
	return sb.String()
}

type listener struct {
	id      uint64
	handler func(Event)
}

type memNode struct {
	doc    *MemDocument
	id     uint64
	isText bool

	tag      string
	data     string
	attrs    map[string]string
	parent   *memNode
	children []*memNode

	handlers map[string][]listener
}

func (n *memNode) AppendChild(child Node) {
	n.InsertBefore(child, nil)
}

func (n *memNode) InsertBefore(child, ref Node) {
	c := asMemNode(child)
	if c == nil {
		return
	}

	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	moved := c.parent != nil
	if moved {
		c.parent.detach(c)
	}

	idx := len(n.children)
	var refID uint64
	if r := asMemNode(ref); r != nil {
		refID = r.id
		for i, existing := range n.children {
			if existing == r {
				idx = i
				break
			}
		}
	}

	n.children = append(n.children, nil)
	copy(n.children[idx+1:], n.children[idx:])
	n.children[idx] = c
	c.parent = n

	if moved {
		n.doc.stats.Moved++
	}
	n.doc.emit(Mutation{Op: OpInsert, Node: c.id, Parent: n.id, Ref: refID})
}

func (n *memNode) RemoveChild(child Node) {
	c := asMemNode(child)
	if c == nil || c.parent != n {
		return
	}

	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	n.detach(c)
	n.doc.stats.Removed++
	n.doc.emit(Mutation{Op: OpRemove, Node: c.id})
}

// detach unlinks c from n without touching counters. Caller holds the
// document lock.
func (n *memNode) detach(c *memNode) {
	for i, existing := range n.children {
		if existing == c {
			n.children = append(n.children[:i], n.children[i+1:]...)
			break
		}
	}
	c.parent = nil
}

func (n *memNode) FirstChild() Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if len(n.children) == 0 {
		return nil
	}
	return n.children[0]
}

func (n *memNode) NextSibling() Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if n.parent == nil {
		return nil
	}
	for i, sib := range n.parent.children {
		if sib == n && i+1 < len(n.parent.children) {
			return n.parent.children[i+1]
		}
	}
	return nil
}

func (n *memNode) Parent() Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *memNode) Tag() string {
	return n.tag
}

func (n *memNode) Text() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.data
}

func (n *memNode) SetText(text string) {
	if !n.isText {
		return
	}

	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	n.data = text
	n.doc.stats.TextWrites++
	n.doc.emit(Mutation{Op: OpSetText, Node: n.id, Value: text})
}

func (n *memNode) Attr(name string) (string, bool) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	v, ok := n.attrs[name]
	return v, ok
}

func (n *memNode) SetAttr(name, value string) {
	if n.isText {
		return
	}

	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	if old, ok := n.attrs[name]; ok && old == value {
		return
	}
	n.attrs[name] = value
	n.doc.stats.AttrWrites++
	n.doc.emit(Mutation{Op: OpSetAttr, Node: n.id, Name: name, Value: value})
}

func (n *memNode) RemoveAttr(name string) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	if _, ok := n.attrs[name]; !ok {
		return
	}
	delete(n.attrs, name)
	n.doc.emit(Mutation{Op: OpRemoveAttr, Node: n.id, Name: name})
}

func (n *memNode) On(event string, handler func(Event)) func() {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	if n.handlers == nil {
		n.handlers = make(map[string][]listener)
	}
	l := listener{id: n.doc.nextID.Add(1), handler: handler}
	n.handlers[event] = append(n.handlers[event], l)

	return func() {
		n.doc.mu.Lock()
		defer n.doc.mu.Unlock()
		list := n.handlers[event]
		for i, existing := range list {
			if existing.id == l.id {
				n.handlers[event] = append(list[:i], list[i+1:]...)
				return
			}
		}
	}
}

func (n *memNode) Dispatch(ev Event) {
	if ev.Target == nil {
		ev.Target = n
	}

	n.doc.mu.Lock()
	list := make([]listener, len(n.handlers[ev.Type]))
	copy(list, n.handlers[ev.Type])
	parent := n.parent
	n.doc.mu.Unlock()

	for _, l := range list {
		l.handler(ev)
	}
	if parent != nil {
		parent.Dispatch(ev)
	}
}

// render writes an HTML-ish form of the subtree. Caller holds the
// document lock.
func (n *memNode) render(sb *strings.Builder) {
	if n.isText {
		sb.WriteString(n.data)
		return
	}

	sb.WriteByte('<')
	sb.WriteString(n.tag)

	names := make([]string, 0, len(n.attrs))
	for name := range n.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(sb, " %s=%q", name, n.attrs[name])
	}

	sb.WriteByte('>')
	for _, child := range n.children {
		child.render(sb)
	}
	fmt.Fprintf(sb, "</%s>", n.tag)
}

func asMemNode(n Node) *memNode {
	if n == nil {
		return nil
	}
	mn, _ := n.(*memNode)
	return mn
}
