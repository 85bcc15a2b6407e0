// Package etest provides headless testing helpers for reactive trees.
//
// Mount renders a node tree into an in-memory document and returns a
// Container with query, event, and assertion helpers. Everything runs
// synchronously, so tests read like scripts:
//
//	c := etest.Mount(t, Counter())
//	c.Click(c.Find("button"))
//	c.ExpectContains("Count: 1")
package etest
