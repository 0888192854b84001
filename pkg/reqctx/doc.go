// Package reqctx carries request-scoped data through context.Context.
//
// HTTP middleware stores the request metadata and, once a token is verified,
// the caller's identity:
//
//	ctx = reqctx.WithRequestMeta(ctx, reqctx.RequestMeta{RequestID: rid})
//	ctx = reqctx.WithIdentity(ctx, claims)
//
// Services resolve the schedule owner without knowing about HTTP:
//
//	ownerID, ok := reqctx.OwnerIDFromContext(ctx)
//
// Schedule mutations treat a missing or expired identity as an
// unauthenticated caller.
package reqctx
