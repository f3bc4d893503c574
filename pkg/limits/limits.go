// Package limits caps concurrent live connections per client address
// and across the whole portal.
package limits

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
)

// DefaultMaxPerIP applies when no per-address limit is configured.
const DefaultMaxPerIP = 20

// ConnectionLimiter limits concurrent connections per IP address and,
// when maxGlobal is positive, in total.
type ConnectionLimiter struct {
	maxPerIP    int
	maxGlobal   int64
	connections sync.Map // map[string]*atomic.Int32
	total       atomic.Int64

	blocked atomic.Int64
	allowed atomic.Int64
}

// NewConnectionLimiter creates a limiter. maxGlobal <= 0 disables the
// global cap.
func NewConnectionLimiter(maxPerIP, maxGlobal int) *ConnectionLimiter {
	if maxPerIP <= 0 {
		maxPerIP = DefaultMaxPerIP
	}
	return &ConnectionLimiter{maxPerIP: maxPerIP, maxGlobal: int64(maxGlobal)}
}

// Acquire takes a slot for ip. It reports false when a limit is reached.
func (cl *ConnectionLimiter) Acquire(ip string) bool {
	if cl.maxGlobal > 0 && cl.total.Add(1) > cl.maxGlobal {
		cl.total.Add(-1)
		cl.blocked.Add(1)
		return false
	}

	counter, _ := cl.connections.LoadOrStore(ip, &atomic.Int32{})
	c := counter.(*atomic.Int32)
	for {
		cur := c.Load()
		if int(cur) >= cl.maxPerIP {
			if cl.maxGlobal > 0 {
				cl.total.Add(-1)
			}
			cl.blocked.Add(1)
			return false
		}
		if c.CompareAndSwap(cur, cur+1) {
			cl.allowed.Add(1)
			return true
		}
	}
}

// Release frees a slot taken by Acquire.
func (cl *ConnectionLimiter) Release(ip string) {
	if cl.maxGlobal > 0 {
		cl.total.Add(-1)
	}
	if counter, ok := cl.connections.Load(ip); ok {
		c := counter.(*atomic.Int32)
		if c.Add(-1) <= 0 {
			cl.connections.Delete(ip)
		}
	}
}

// Count returns the open connections for ip.
func (cl *ConnectionLimiter) Count(ip string) int {
	if counter, ok := cl.connections.Load(ip); ok {
		return int(counter.(*atomic.Int32).Load())
	}
	return 0
}

// Blocked returns how many connections were refused.
func (cl *ConnectionLimiter) Blocked() int64 { return cl.blocked.Load() }

// Allowed returns how many connections were admitted.
func (cl *ConnectionLimiter) Allowed() int64 { return cl.allowed.Load() }

// Middleware limits WebSocket upgrades. Plain page loads pass through.
// The slot is held until the live session's handler returns.
func (cl *ConnectionLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
				next.ServeHTTP(w, r)
				return
			}

			ip := ClientIP(r)
			if !cl.Acquire(ip) {
				http.Error(w, "Too Many Connections", http.StatusTooManyRequests)
				return
			}
			defer cl.Release(ip)

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP extracts the client address, preferring X-Forwarded-For and
// X-Real-IP over RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
