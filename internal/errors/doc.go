// Package errors provides structured, actionable error messages for
// Effuse.
//
// # Error Categories
//
// Errors are organized into categories:
//   - runtime: engine errors (tracking imbalance, disposed owners)
//   - validation: blueprint prop schema failures
//   - protocol: live-server wire errors (bad frames, unknown nodes)
//   - persist: snapshot save/load failures
//   - cli: command-line usage errors
//
// # Error Codes
//
// Each error has a unique code (e.g., "E040") that maps to a short
// message, a detailed explanation, and a documentation URL.
//
// # Usage
//
//	err := errors.New("E040").
//	    WithDetail("blueprint %q requires prop %q", "counter", "start").
//	    WithSuggestion("Pass the prop in the Blue(...) call")
//
//	fmt.Println(err.FormatCompact())
//	// Output: E040: Missing required prop
package errors
