package httpx

import (
	"context"

	"github.com/fernwood-health/apothecary/pkg/sessiontoken"
)

type ctxKey string

const (
	CtxKeySubject ctxKey = "subject"
	CtxKeyEmail   ctxKey = "email"
	CtxKeyRole    ctxKey = "role"
	CtxKeyClaims  ctxKey = "claims" // full sessiontoken.Claims when needed
)

// SubjectFromCtx returns the authenticated subject id, or "" when the
// request carried no verified session.
func SubjectFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeySubject).(string); ok {
		return v
	}
	return ""
}

// ClaimsFromCtx returns the verified session claims attached by
// SessionMiddleware.
func ClaimsFromCtx(ctx context.Context) (sessiontoken.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(sessiontoken.Claims)
	return c, ok
}

func contextWithSession(ctx context.Context, c sessiontoken.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeySubject, c.Subject)
	ctx = context.WithValue(ctx, CtxKeyEmail, c.Email)
	ctx = context.WithValue(ctx, CtxKeyRole, c.Role)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}
