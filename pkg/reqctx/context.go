package reqctx

import "context"

type ctxKey int

const (
	keyRequestMeta ctxKey = iota
	keyIdentity
)

// RequestMeta is what the HTTP edge knows about a request before any handler
// runs.
type RequestMeta struct {
	RequestID string
	ClientIP  string
}

func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, keyRequestMeta, meta)
}

// RequestIDFromContext returns "" outside an HTTP request.
func RequestIDFromContext(ctx context.Context) string {
	meta, _ := ctx.Value(keyRequestMeta).(RequestMeta)
	return meta.RequestID
}

// LogAttrs returns slog key/value pairs identifying the request in ctx.
// Fields that are not known are left out.
func LogAttrs(ctx context.Context) []any {
	meta, _ := ctx.Value(keyRequestMeta).(RequestMeta)

	var attrs []any
	if meta.RequestID != "" {
		attrs = append(attrs, "request_id", meta.RequestID)
	}
	if meta.ClientIP != "" {
		attrs = append(attrs, "client_ip", meta.ClientIP)
	}
	if owner, ok := OwnerIDFromContext(ctx); ok {
		attrs = append(attrs, "owner_id", owner.String())
	}
	return attrs
}
