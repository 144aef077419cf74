package cookie

import (
	"net/http"
	"time"
)

// HTTPJar adapts a single request/response pair to the Jar interface for
// server-rendered contexts. Reads come from the request's Cookie header;
// writes become Set-Cookie headers on the response.
//
// An overlay keeps values written during the current request visible to
// subsequent Gets, so read-after-write behaves like a live browser jar even
// though the request's Cookie header is immutable.
type HTTPJar struct {
	r *http.Request
	w http.ResponseWriter

	// overlay maps names touched in this request; nil value marks removal.
	overlay map[string]*string
}

var _ Jar = (*HTTPJar)(nil)

// NewHTTPJar builds a jar over one request/response exchange.
func NewHTTPJar(w http.ResponseWriter, r *http.Request) *HTTPJar {
	return &HTTPJar{r: r, w: w, overlay: map[string]*string{}}
}

// Get returns the value written during this request, or the value the client
// sent with it.
func (j *HTTPJar) Get(name string) (string, bool) {
	if v, touched := j.overlay[name]; touched {
		if v == nil {
			return "", false
		}
		return *v, true
	}
	if j.r == nil {
		return "", false
	}
	c, err := j.r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// Set emits a Set-Cookie header. It reports false, without failing, when the
// cookie cannot be serialized or there is no response to attach it to.
func (j *HTTPJar) Set(name, value string, opts Options) bool {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	}
	if opts.Days > 0 {
		c.MaxAge = opts.Days * 24 * 60 * 60
		c.Expires = time.Now().AddDate(0, 0, opts.Days)
	}
	if j.w == nil || c.Valid() != nil {
		return false
	}
	http.SetCookie(j.w, c)
	v := value
	j.overlay[name] = &v
	return true
}

// Remove expires the cookie on the client and hides it from this request.
func (j *HTTPJar) Remove(name string) {
	if j.w != nil {
		http.SetCookie(j.w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
	}
	j.overlay[name] = nil
}
