// Package persist snapshots reactive state to an embedded bbolt database.
//
// A Persistable is anything with a stable key and a JSON-compatible value.
// Var wraps a signal with such a key. Store writes snapshots into a single
// bucket, one entry per key, and can keep them fresh automatically via
// AutoSave, which re-saves a value whenever its signal changes.
//
// Usage:
//
//	count := persist.NewVar("counter", 0)
//	st, err := persist.Open("app.db")
//	defer st.Close()
//
//	st.Load(count)            // restore previous snapshot, if any
//	stop := st.AutoSave(count) // save on every change
//	defer stop()
package persist
