// internal/contextkeys/keys.go
package contextkeys

// contextKey is a private type so context keys cannot collide with other
// packages.
type contextKey string

const TraceIDKey contextKey = "trace_id"
const CustomerNumberKey contextKey = "customer_number"
