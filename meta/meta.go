// Package meta provides functionality for managing request metadata through context.
package meta

import "context"

// ContextKey is a type for keys used in context values for metadata.
type ContextKey string

const (
	// TraceID represents a unique identifier for tracing requests across services.
	TraceID ContextKey = "trace_id"

	// RequestID is the optional client supplied identifier of a single request.
	RequestID ContextKey = "request_id"

	// ConnID identifies a client connection to the broker.
	ConnID ContextKey = "conn_id"

	// Transport names the surface a request came in on: tcp, http or grpc.
	Transport ContextKey = "transport"

	// Operation is the queue operation being served: enqueue, dequeue or ack.
	Operation ContextKey = "operation"

	// IPAddress contains the client's IP address.
	IPAddress ContextKey = "ip_address"

	// RemoteAddr contains the network address that sent the request.
	RemoteAddr ContextKey = "remote_addr"

	// UserAgent contains the user agent string from the request.
	UserAgent ContextKey = "user_agent"
)

// allKeys lists every key ExtractMetaFromContext looks for.
//
//nolint:gochecknoglobals // static lookup list
var allKeys = []ContextKey{
	TraceID,
	RequestID,
	ConnID,
	Transport,
	Operation,
	IPAddress,
	RemoteAddr,
	UserAgent,
}

// InjectMetaToContext adds metadata from the provided map to the context.
// It only adds values that are not empty strings and returns a new context
// with the added values.
func InjectMetaToContext(ctx context.Context, data map[ContextKey]string) context.Context {
	for k, v := range data {
		if v != "" {
			ctx = context.WithValue(ctx, k, v) //nolint:fatcontext // allow due to finite number of keys
		}
	}
	return ctx
}

// ExtractMetaFromContext extracts all metadata from the provided context.
// Only non-empty string values are included in the returned map.
func ExtractMetaFromContext(ctx context.Context) map[ContextKey]string {
	data := make(map[ContextKey]string)
	for _, k := range allKeys {
		if v, ok := ctx.Value(k).(string); ok && v != "" {
			data[k] = v
		}
	}
	return data
}

// Find returns the value stored under key, or an empty string.
func Find(ctx context.Context, key ContextKey) string {
	v, _ := ctx.Value(key).(string) //nolint:errcheck // missing or non-string means empty
	return v
}
