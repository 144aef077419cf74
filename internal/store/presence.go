package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/campusgrid/authstate/internal/model"
)

// Presence update outcomes reported to the Recorder.
const (
	presenceOK      = "ok"
	presenceFailed  = "remote_failed"
	presenceSkipped = "skipped"
)

// UpdateOnlineStatus writes the current user's presence to the profile
// service and, only after the remote confirms, echoes it into the local
// profile. Without a signed-in user it is a silent no-op: no remote call, no
// state change, nil error.
//
// On remote failure the local profile is left untouched so presence never
// drifts ahead of the server's view; the error is returned for the caller.
func (s *Store) UpdateOnlineStatus(ctx context.Context, online bool) error {
	s.mu.Lock()
	var userID string
	if s.snap.User != nil {
		userID = s.snap.User.ID
	}
	s.mu.Unlock()

	if userID == "" {
		s.rec.RecordPresenceUpdate(presenceSkipped)
		return nil
	}

	upd := model.PresenceUpdate{
		UserID:     userID,
		Online:     online,
		LastSeenAt: s.now().UTC(),
	}
	if err := s.profiles.UpdatePresence(ctx, upd); err != nil {
		s.log.Warn("presence update failed",
			zap.String("user_id", userID),
			zap.Bool("online", online),
			zap.Error(err),
		)
		s.rec.RecordPresenceUpdate(presenceFailed)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.RecordPresenceUpdate(presenceOK)

	// The user may have signed out while the call was in flight; the
	// confirmed write then has no local profile to land on.
	if s.snap.User == nil || s.snap.User.ID != userID || s.snap.Profile == nil {
		return nil
	}

	p := s.snap.Profile.Clone()
	p.Online = upd.Online
	p.LastSeenAt = upd.LastSeenAt
	s.snap.Profile = p
	s.commitLocked(true)
	return nil
}
