package kernel

// ContextKey namespaces values stored in fiber locals and context.Context.
type ContextKey string

const (
	// SessionContextKey holds the per-request session built by the access guard
	SessionContextKey ContextKey = "session"

	// RequestIDKey holds the request id assigned by the requestid middleware
	RequestIDKey ContextKey = "request_id"
)
