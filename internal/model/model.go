// Package model defines domain entities shared by the auth store, codec and remote clients.
package model

import (
	"encoding/json"
	"time"
)

// Role is an application-level role carried on a profile.
type Role string

// Known roles. Unknown values are preserved, not rejected: the identity
// backend may introduce roles this client has not learned yet.
const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// IsValid reports whether the role is one of the known values.
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// User is the identity record issued by the external identity provider.
// The provider owns every attribute beyond the opaque ID.
type User struct {
	ID string `json:"id"`
}

// Session is the credential pair for an authenticated connection.
// RefreshToken is optional. Sessions are issued by the identity provider;
// this core only stores and relays them.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	IssuedAt     time.Time `json:"issued_at"`
}

// Profile is the mutable application-level record keyed by User.ID.
//
// Extra keeps JSON fields this core does not interpret; they round-trip
// through serialization untouched so newer backend fields survive a client
// that predates them.
type Profile struct {
	UserID      string
	DisplayName string
	Handle      string
	Email       string
	Phone       string
	AvatarURL   string
	Role        Role
	Online      bool
	LastSeenAt  time.Time

	Extra map[string]json.RawMessage
}

// profileWire carries the fields of Profile that have fixed JSON names.
type profileWire struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name,omitempty"`
	Handle      string    `json:"handle,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Role        Role      `json:"role,omitempty"`
	Online      bool      `json:"is_online"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

var knownProfileKeys = map[string]struct{}{
	"user_id": {}, "display_name": {}, "handle": {}, "email": {},
	"phone": {}, "avatar_url": {}, "role": {}, "is_online": {}, "last_seen_at": {},
}

// MarshalJSON emits the typed fields plus any preserved unknown fields.
// A preserved field never shadows a typed one.
func (p Profile) MarshalJSON() ([]byte, error) {
	wire := profileWire{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		Handle:      p.Handle,
		Email:       p.Email,
		Phone:       p.Phone,
		AvatarURL:   p.AvatarURL,
		Role:        p.Role,
		Online:      p.Online,
		LastSeenAt:  p.LastSeenAt,
	}
	b, err := json.Marshal(wire)
	if err != nil {
		return nil, err
	}
	if len(p.Extra) == 0 {
		return b, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(b, &merged); err != nil {
		return nil, err
	}
	for k, v := range p.Extra {
		if _, known := knownProfileKeys[k]; known {
			continue
		}
		merged[k] = v
	}
	return json.Marshal(merged)
}

// UnmarshalJSON fills the typed fields and stashes everything else in Extra.
func (p *Profile) UnmarshalJSON(data []byte) error {
	var wire profileWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var extra map[string]json.RawMessage
	for k, v := range raw {
		if _, known := knownProfileKeys[k]; known {
			continue
		}
		if extra == nil {
			extra = map[string]json.RawMessage{}
		}
		extra[k] = v
	}

	*p = Profile{
		UserID:      wire.UserID,
		DisplayName: wire.DisplayName,
		Handle:      wire.Handle,
		Email:       wire.Email,
		Phone:       wire.Phone,
		AvatarURL:   wire.AvatarURL,
		Role:        wire.Role,
		Online:      wire.Online,
		LastSeenAt:  wire.LastSeenAt,
		Extra:       extra,
	}
	return nil
}

// Clone returns a deep copy safe to hand to other goroutines.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	cpy := *p
	if p.Extra != nil {
		cpy.Extra = make(map[string]json.RawMessage, len(p.Extra))
		for k, v := range p.Extra {
			cpy.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return &cpy
}

// AuthSnapshot is the full in-memory authentication state at an instant.
// A nil pointer means absent. Invariant: Session != nil implies User != nil.
type AuthSnapshot struct {
	User    *User
	Session *Session
	Profile *Profile

	Loading     bool
	Initialized bool
}

// Clone returns a deep copy of the snapshot.
func (s AuthSnapshot) Clone() AuthSnapshot {
	cpy := s
	if s.User != nil {
		u := *s.User
		cpy.User = &u
	}
	if s.Session != nil {
		sess := *s.Session
		cpy.Session = &sess
	}
	cpy.Profile = s.Profile.Clone()
	return cpy
}

// StoredAuthRecord is the durable projection of a snapshot. The Loading and
// Initialized flags are deliberately excluded: they are recomputed at
// rehydration, never persisted.
type StoredAuthRecord struct {
	User    *User    `json:"user,omitempty"`
	Session *Session `json:"session,omitempty"`
	Profile *Profile `json:"profile,omitempty"`
}

// RecordFromSnapshot projects the persistable subset of a snapshot.
func RecordFromSnapshot(s AuthSnapshot) StoredAuthRecord {
	return StoredAuthRecord{User: s.User, Session: s.Session, Profile: s.Profile}
}

// Snapshot reconstructs an in-memory snapshot from the record. Flags are left
// at their zero values; the store owns them.
func (r StoredAuthRecord) Snapshot() AuthSnapshot {
	return AuthSnapshot{User: r.User, Session: r.Session, Profile: r.Profile}
}

// PresenceUpdate is the payload of a remote presence mutation.
type PresenceUpdate struct {
	UserID     string    `json:"id"`
	Online     bool      `json:"is_online"`
	LastSeenAt time.Time `json:"last_seen_at"`
}
