package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/fuelgrid/internal/core"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx so batch
// deletes can log who asked for them.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ip := r.RemoteAddr // already rewritten by TrustedRealIP
	ua := r.Header.Get("User-Agent")
	ctx = core.ContextWithIPAddress(ctx, ip)
	ctx = core.ContextWithUserAgent(ctx, ua)
	return ctx
}
