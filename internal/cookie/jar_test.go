package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryJar_SetGetRemove(t *testing.T) {
	t.Parallel()
	j := NewMemoryJar()

	_, ok := j.Get("missing")
	assert.False(t, ok)

	assert.True(t, j.Set("a", "1", DefaultOptions()))
	v, ok := j.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	j.Remove("a")
	_, ok = j.Get("a")
	assert.False(t, ok)

	// Removing an absent cookie stays a no-op.
	j.Remove("a")
	assert.Equal(t, 0, j.Len())
}

func TestMemoryJar_FailWrites(t *testing.T) {
	t.Parallel()
	j := NewMemoryJar()
	j.FailWrites = true

	assert.False(t, j.Set("a", "1", DefaultOptions()))
	_, ok := j.Get("a")
	assert.False(t, ok)
}

func TestHTTPJar_ReadsRequestCookies(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "sid", Value: "abc"})
	j := NewHTTPJar(httptest.NewRecorder(), r)

	v, ok := j.Get("sid")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	_, ok = j.Get("other")
	assert.False(t, ok)
}

func TestHTTPJar_SetWritesAttributes(t *testing.T) {
	t.Parallel()
	w := httptest.NewRecorder()
	j := NewHTTPJar(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, j.Set("sid", "abc", DefaultOptions()))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "sid", c.Name)
	assert.Equal(t, "abc", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 7*24*60*60, c.MaxAge)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
}

func TestHTTPJar_ReadAfterWriteWithinRequest(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "sid", Value: "old"})
	j := NewHTTPJar(httptest.NewRecorder(), r)

	j.Set("sid", "new", DefaultOptions())
	v, ok := j.Get("sid")
	assert.True(t, ok)
	assert.Equal(t, "new", v)

	j.Remove("sid")
	_, ok = j.Get("sid")
	assert.False(t, ok)
}

func TestHTTPJar_RemoveExpiresClientCookie(t *testing.T) {
	t.Parallel()
	w := httptest.NewRecorder()
	j := NewHTTPJar(w, httptest.NewRequest(http.MethodGet, "/", nil))

	j.Remove("sid")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestHTTPJar_SetWithoutResponseReportsFalse(t *testing.T) {
	t.Parallel()
	j := NewHTTPJar(nil, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, j.Set("sid", "abc", DefaultOptions()))
}
