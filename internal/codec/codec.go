// Package codec persists auth snapshots into the cookie jar and mirrors the
// session tokens into the compatibility cookies the server-side request gate
// reads.
package codec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/campusgrid/authstate/internal/cookie"
	"github.com/campusgrid/authstate/internal/errs"
	"github.com/campusgrid/authstate/internal/model"
)

// Cookie names. AccessTokenCookie and RefreshTokenCookie are an external
// contract: the request gate authorizes requests from them alone and must
// never need to parse PrimaryRecordCookie.
const (
	PrimaryRecordCookie = "campusgrid_auth"
	AccessTokenCookie   = "access_token"
	RefreshTokenCookie  = "refresh_token"
)

// Recorder counts codec-level events. Satisfied by metrics.Collector.
type Recorder interface {
	RecordCookieWriteFailure(name string)
}

type nopRecorder struct{}

func (nopRecorder) RecordCookieWriteFailure(string) {}

// Codec encodes the persistable subset of an auth snapshot into the primary
// record cookie and derives the two compatibility cookies from it.
//
// The compatibility cookies are never written independently: every encode of
// a session-bearing snapshot rewrites both in the same logical operation, and
// an encode without a session removes both. Divergence between them and the
// primary record would let the request gate authorize against credentials the
// store no longer holds.
//
// There is no atomicity across the individual cookie writes; a concurrent
// reader can observe the primary record updated while a compatibility cookie
// is still stale. Last writer wins across tabs.
type Codec struct {
	jar  cookie.Jar
	opts cookie.Options
	log  *zap.Logger
	rec  Recorder
}

// New builds a codec over the given jar. A nil logger or recorder disables
// that output.
func New(jar cookie.Jar, opts cookie.Options, log *zap.Logger, rec Recorder) *Codec {
	if log == nil {
		log = zap.NewNop()
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Codec{jar: jar, opts: opts, log: log, rec: rec}
}

// Encode writes the snapshot's persistable subset. Best-effort: cookie writes
// that the jar drops are counted and logged, never returned as errors.
func (c *Codec) Encode(snap model.AuthSnapshot) {
	rec := model.RecordFromSnapshot(snap)

	if rec.User == nil && rec.Session == nil && rec.Profile == nil {
		c.jar.Remove(PrimaryRecordCookie)
		c.jar.Remove(AccessTokenCookie)
		c.jar.Remove(RefreshTokenCookie)
		return
	}

	b, err := json.Marshal(rec)
	if err != nil {
		// Only reachable through invalid raw JSON smuggled into Profile.Extra.
		c.log.Error("encode auth record", zap.Error(err))
		return
	}
	c.set(PrimaryRecordCookie, base64.RawURLEncoding.EncodeToString(b))

	if rec.Session == nil {
		c.jar.Remove(AccessTokenCookie)
		c.jar.Remove(RefreshTokenCookie)
		return
	}
	c.set(AccessTokenCookie, rec.Session.AccessToken)
	// Refresh cookie is written even when the token is absent (empty value)
	// so the gate can distinguish "no refresh token" from "stale cookie".
	c.set(RefreshTokenCookie, rec.Session.RefreshToken)
}

// Decode reads the primary record. It fails soft: a missing or malformed
// cookie yields (zero, false), never an error.
func (c *Codec) Decode() (model.StoredAuthRecord, bool) {
	raw, ok := c.jar.Get(PrimaryRecordCookie)
	if !ok {
		return model.StoredAuthRecord{}, false
	}
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		c.log.Warn("decode auth record", zap.Error(fmt.Errorf("%w: %v", errs.ErrMalformedRecord, err)))
		return model.StoredAuthRecord{}, false
	}
	var rec model.StoredAuthRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		c.log.Warn("decode auth record", zap.Error(fmt.Errorf("%w: %v", errs.ErrMalformedRecord, err)))
		return model.StoredAuthRecord{}, false
	}
	return rec, true
}

func (c *Codec) set(name, value string) {
	if ok := c.jar.Set(name, value, c.opts); !ok {
		c.rec.RecordCookieWriteFailure(name)
		c.log.Warn("cookie write dropped", zap.String("cookie", name))
	}
}
