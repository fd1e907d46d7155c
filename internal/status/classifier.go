// Package status resolves caller-facing status tokens into predicates over
// the raw Aspect4 order-status strings.
package status

// StatusDone is the exact backend string for a fully delivered order.
// Aspect4 reports statuses in Danish; matching is case-sensitive.
const StatusDone = "Færdig leveret"

// Predicate decides whether an order status passes the active filter.
type Predicate func(orderStatus string) bool

// Resolve maps a filter token to its predicate:
//
//	""      every order (no filter requested)
//	"Done"  exactly StatusDone
//	"Open"  everything that is not StatusDone, partial deliveries included
//	other   verbatim, case-sensitive match
//
// An unrecognised token is valid input; it simply matches nothing.
func Resolve(token string) Predicate {
	switch token {
	case "":
		return func(string) bool { return true }
	case "Done":
		return func(s string) bool { return s == StatusDone }
	case "Open":
		return func(s string) bool { return s != StatusDone }
	default:
		return func(s string) bool { return s == token }
	}
}
