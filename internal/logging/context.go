// internal/logging/context.go
package logging

import (
	"context"

	"go.uber.org/zap"

	"github.com/tommy2310DK/Aspect4/internal/contextkeys"
)

// FieldsFromContext extracts the request-scoped log fields (trace_id,
// customer_number) from the context as zap fields.
func FieldsFromContext(ctx context.Context) []zap.Field {
	fields := []zap.Field{}
	if trace, ok := ctx.Value(contextkeys.TraceIDKey).(string); ok && trace != "" {
		fields = append(fields, zap.String("trace_id", trace))
	}
	if customer, ok := ctx.Value(contextkeys.CustomerNumberKey).(string); ok && customer != "" {
		fields = append(fields, zap.String("customer_number", customer))
	}
	return fields
}

// WithCustomerNumber records the customer number on the context so every
// log line of the request carries it.
func WithCustomerNumber(ctx context.Context, customerNumber string) context.Context {
	if customerNumber == "" {
		return ctx
	}
	return context.WithValue(ctx, contextkeys.CustomerNumberKey, customerNumber)
}

// WithTraceID records the trace id on the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}
	return context.WithValue(ctx, contextkeys.TraceIDKey, traceID)
}
