package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campusgrid/authstate/internal/cookie"
	"github.com/campusgrid/authstate/internal/model"
)

type profileFunc func() error

func (f profileFunc) UpdatePresence(context.Context, model.PresenceUpdate) error { return f() }

func TestUpdateOnlineStatus_NoUserIsSilentNoOp(t *testing.T) {
	t.Parallel()
	profiles := &fakeProfiles{}
	rec := newFakeRecorder()
	s := New(testCodec(cookie.NewMemoryJar()), &fakeIdentity{}, profiles, WithRecorder(rec))

	before := s.Snapshot()
	if err := s.UpdateOnlineStatus(context.Background(), true); err != nil {
		t.Fatalf("no-user presence update must not error, got %v", err)
	}
	after := s.Snapshot()

	if profiles.calls != 0 {
		t.Fatalf("no remote call expected, got %d", profiles.calls)
	}
	if before.Profile != nil || after.Profile != nil {
		t.Fatal("snapshot must stay unchanged")
	}
	if rec.presence[presenceSkipped] != 1 {
		t.Fatalf("want one skipped presence update, got %v", rec.presence)
	}
}

func TestUpdateOnlineStatus_RemoteFailureLeavesLocalStateUntouched(t *testing.T) {
	t.Parallel()
	remoteErr := errors.New("profile service down")
	profiles := &fakeProfiles{err: remoteErr}
	s := New(testCodec(cookie.NewMemoryJar()), &fakeIdentity{}, profiles)
	s.SetAuth(testUser(), testSession())

	p := testProfile()
	p.Online = false
	p.LastSeenAt = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	s.SetProfile(p)

	err := s.UpdateOnlineStatus(context.Background(), true)
	if !errors.Is(err, remoteErr) {
		t.Fatalf("want remote error surfaced, got %v", err)
	}

	got := s.CurrentProfile()
	if got.Online {
		t.Fatal("local online flag must not drift ahead of the server")
	}
	if !got.LastSeenAt.Equal(p.LastSeenAt) {
		t.Fatalf("last seen must be unchanged, got %v", got.LastSeenAt)
	}
}

func TestUpdateOnlineStatus_SuccessEchoesConfirmedWrite(t *testing.T) {
	t.Parallel()
	profiles := &fakeProfiles{}
	rec := newFakeRecorder()
	s := New(testCodec(cookie.NewMemoryJar()), &fakeIdentity{}, profiles, WithRecorder(rec))
	s.SetAuth(testUser(), testSession())
	s.SetProfile(testProfile())

	issued := time.Now()
	if err := s.UpdateOnlineStatus(context.Background(), true); err != nil {
		t.Fatalf("UpdateOnlineStatus: %v", err)
	}

	if profiles.calls != 1 {
		t.Fatalf("want one remote call, got %d", profiles.calls)
	}
	if profiles.last.UserID != "u-1" || !profiles.last.Online {
		t.Fatalf("unexpected remote payload: %+v", profiles.last)
	}

	got := s.CurrentProfile()
	if !got.Online {
		t.Fatal("confirmed write must be echoed locally")
	}
	if got.LastSeenAt.Before(issued.Add(-time.Second)) {
		t.Fatalf("last seen %v must not predate the call at %v", got.LastSeenAt, issued)
	}
	if rec.presence[presenceOK] != 1 {
		t.Fatalf("want one ok presence update, got %v", rec.presence)
	}
}

func TestUpdateOnlineStatus_ClockOverride(t *testing.T) {
	t.Parallel()
	fixed := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	profiles := &fakeProfiles{}
	s := New(testCodec(cookie.NewMemoryJar()), &fakeIdentity{}, profiles,
		WithClock(func() time.Time { return fixed }),
	)
	s.SetAuth(testUser(), testSession())
	s.SetProfile(testProfile())

	if err := s.UpdateOnlineStatus(context.Background(), false); err != nil {
		t.Fatalf("UpdateOnlineStatus: %v", err)
	}

	if !profiles.last.LastSeenAt.Equal(fixed) {
		t.Fatalf("want last seen %v, got %v", fixed, profiles.last.LastSeenAt)
	}
	if got := s.CurrentProfile(); !got.LastSeenAt.Equal(fixed) || got.Online {
		t.Fatalf("local echo mismatch: %+v", got)
	}
}

func TestUpdateOnlineStatus_SignOutDuringFlightDropsEcho(t *testing.T) {
	t.Parallel()
	s := New(testCodec(cookie.NewMemoryJar()), &fakeIdentity{}, nil)
	s.SetAuth(testUser(), testSession())
	s.SetProfile(testProfile())

	// The fake clears the store before confirming, simulating a sign-out
	// that lands while the presence call is in flight.
	s.profiles = profileFunc(func() error {
		s.ClearAuth()
		return nil
	})

	if err := s.UpdateOnlineStatus(context.Background(), true); err != nil {
		t.Fatalf("UpdateOnlineStatus: %v", err)
	}
	if s.CurrentProfile() != nil {
		t.Fatal("confirmed write has no profile to land on after sign-out")
	}
}
