// Package cookie provides the low-level cookie jar the auth codec writes through.
package cookie

import "net/http"

// Options control the attributes applied to every cookie write.
type Options struct {
	// Days is the expiry horizon in days. Zero means session cookie.
	Days int
	// Secure marks the cookie HTTPS-only. On in production.
	Secure bool
	// SameSite is the same-site policy applied to the cookie.
	SameSite http.SameSite
}

// DefaultOptions is the production policy: 7-day expiry, Secure, strict same-site.
func DefaultOptions() Options {
	return Options{Days: 7, Secure: true, SameSite: http.SameSiteStrictMode}
}

// Jar is a best-effort key/value sink over a browser-style cookie jar.
//
// Set reports whether the write was accepted, but callers are not required to
// check it: under normal conditions a Set is observable by the next Get on
// the same jar, while hostile environments (cookies disabled, quota) may drop
// writes silently. Jar implementations never return errors.
type Jar interface {
	// Get returns the stored value, or false when the cookie is absent.
	Get(name string) (string, bool)
	// Set writes name=value with the given attributes.
	Set(name, value string, opts Options) bool
	// Remove deletes the cookie. Removing an absent cookie is a no-op.
	Remove(name string)
}
