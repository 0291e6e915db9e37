// Package errors provides structured, coded errors for Lumen.
//
// Every error surfaced by the render core or the serving layer carries a
// stable code (e.g. "E021") that maps to:
//   - A short message describing the error
//   - A detailed explanation
//   - A documentation URL
//
// # Error Categories
//
// Errors are organized into categories:
//   - runtime: reactive graph errors (dead signals, memo cycles)
//   - render: template and vnode contract violations (slot mismatch, double free)
//   - protocol: mutation stream errors (buffer full, truncated stream)
//   - events: dispatch errors (unknown handler, action type mismatch)
//   - app: shell lifecycle errors
//   - config: serving-layer configuration errors
//
// # Usage
//
//	err := errors.New("E021").
//	    WithSuggestion("Pass one value per declared dynamic slot")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E021: Dynamic slot count mismatch
//	//
//	//   The dynamic node and attribute values passed to a template
//	//   reference must match the counts declared at registration.
//	//
//	//   Hint: Pass one value per declared dynamic slot
//	//
//	//   Learn more: https://lumen.dev/docs/errors/E021
//
// Contract violations inside the render core panic with a *LumenError as
// the payload; host-boundary failures return one as an ordinary error.
package errors
