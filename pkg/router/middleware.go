package router

import (
	"errors"
	"net/http"
	"runtime/debug"
	"strconv"

	"github.com/nmtp/applyportal/pkg/logging"
)

// Common errors.
var (
	ErrNilRenderer = errors.New("component returned nil renderer")
	ErrNotMounted  = errors.New("component not mounted")
)

// Recovery turns a handler panic into a 500 and logs the stack.
func Recovery() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logging.L(r.Context()).Error("panic recovered",
						logging.Any("panic", rec),
						logging.String("stack", string(debug.Stack())),
					)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SecureHeadersConfig configures security headers.
type SecureHeadersConfig struct {
	FrameOptions   string
	ReferrerPolicy string

	// ContentSecurityPolicy is sent verbatim when set.
	ContentSecurityPolicy string

	// HSTSMaxAge enables Strict-Transport-Security on HTTPS requests when
	// positive.
	HSTSMaxAge int
}

// DefaultSecureHeadersConfig returns secure default configuration. Views
// load scripts only from the origin and style inline.
func DefaultSecureHeadersConfig() SecureHeadersConfig {
	return SecureHeadersConfig{
		FrameOptions:   "DENY",
		ReferrerPolicy: "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; " +
			"script-src 'self'; " +
			"style-src 'self' 'unsafe-inline'; " +
			"img-src 'self' data:; " +
			"connect-src 'self' ws: wss:; " +
			"frame-ancestors 'none'; " +
			"base-uri 'self'; " +
			"form-action 'self'",
		HSTSMaxAge: 31536000,
	}
}

// SecureHeaders middleware adds security headers.
func SecureHeaders(config SecureHeadersConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			if config.FrameOptions != "" {
				h.Set("X-Frame-Options", config.FrameOptions)
			}
			if config.ReferrerPolicy != "" {
				h.Set("Referrer-Policy", config.ReferrerPolicy)
			}
			if config.ContentSecurityPolicy != "" {
				h.Set("Content-Security-Policy", config.ContentSecurityPolicy)
			}
			if config.HSTSMaxAge > 0 && (r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https") {
				h.Set("Strict-Transport-Security", "max-age="+strconv.Itoa(config.HSTSMaxAge)+"; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}
