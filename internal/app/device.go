package app

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// DeviceCookieName identifies the applicant's browser. Drafts and the
// applicant dashboard are scoped to it.
const DeviceCookieName = "nmtp_device"

const deviceCookieMaxAge = 365 * 24 * time.Hour

// DeviceCookie makes sure every request carries a device id, issuing
// one when the browser has none yet.
func DeviceCookie(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(DeviceCookieName); err != nil || c.Value == "" {
			id := uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     DeviceCookieName,
				Value:    id,
				Path:     "/",
				MaxAge:   int(deviceCookieMaxAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			r.AddCookie(&http.Cookie{Name: DeviceCookieName, Value: id})
		}
		next.ServeHTTP(w, r)
	})
}
