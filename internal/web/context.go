package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/registers/internal/auth"
	"github.com/JonMunkholm/registers/internal/core"
)

// WithRequestMetadata adds the client IP and, when a session is present, the
// actor to ctx for mutation logging.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, clientIP(r)) // already resolved by TrustedRealIP
	if sess, ok := auth.FromContext(ctx); ok {
		ctx = core.ContextWithActor(ctx, sess.Actor())
	}
	return ctx
}

// requestMetadata applies WithRequestMetadata to every request.
func requestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithRequestMetadata(r.Context(), r)))
	})
}
