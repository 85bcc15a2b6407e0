// Package vnode defines the virtual node model for Effuse.
//
// Nodes form a closed tagged union of five kinds: Element, Text,
// Fragment, List, and Blueprint. They are immutable value data; an
// update always builds a new node, and identity across renders travels
// only through the optional reconciliation Key.
//
// # Building trees
//
// Trees are built with variadic constructors:
//
//	El("div", Attr{Key: "class", Value: "card"},
//	    El("h1", "Title"),
//	    Txt(count),
//	    On("click", handler),
//	)
//
// A child slot may be nil (renders nothing), a *VNode, a slice
// (implicit fragment), a plain value (static text), an effuse.Source,
// or a zero-arg function (reactive text).
//
// # Blueprints
//
// Blue wraps a ComponentDef with props and optional portals. The mount
// engine validates props against the definition's PropSpec list, builds
// reactive state, and runs View inside a fresh owner scope.
package vnode
