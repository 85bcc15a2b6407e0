// Package store provides shared signal containers on top of the core
// tracking primitives.
//
// Two flavors exist. A Global is an ordinary signal declared at package
// level and shared by everything in the process. A Keyed is a definition:
// each scope that installs a Scope via effuse.SetContext gets its own
// independent instance, lazily created on first access.
//
// Usage:
//
//	// Shared by all scopes.
//	var ServerStatus = store.NewGlobal("online")
//
//	// One instance per scope (e.g. per live-server session).
//	var Cart = store.NewKeyed([]Item{})
//
//	effuse.WithOwner(sessionOwner, func() {
//	    effuse.SetContext(store.ScopeKey, store.NewScope())
//	    Cart.Set([]Item{...})
//	})
//
// Everything here goes through the exported effuse API; the package is
// deliberately written as an external collaborator of the core.
package store
