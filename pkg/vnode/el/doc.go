// Package el provides typed helpers over the vnode constructors: one
// function per common HTML tag, plus attribute and event shorthands.
//
// Views written with it read like markup:
//
//	el.Div(el.Class("card"),
//	    el.H1("Title"),
//	    el.Button(el.OnClick(increment), "+1"),
//	)
package el
