package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Sign-out outcomes reported to the Recorder.
const (
	signOutOK           = "ok"
	signOutRemoteFailed = "remote_failed"
)

// SignOut revokes the session on the identity provider and tears down local
// state. The remote call is best-effort: whatever it returns (or panics
// with), the snapshot is cleared, the loading flag dropped and both
// compatibility cookies removed, so the user is never stuck signed in
// locally after asking to leave. The remote error is returned for callers
// that care; local state is already clean when it is.
//
// Concurrent SignOut calls are tolerated: re-clearing an absent snapshot is
// a no-op.
func (s *Store) SignOut(ctx context.Context) error {
	s.SetLoading(true)

	var remoteErr error
	if s.identity != nil {
		remoteErr = func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("sign-out panic: %v", r)
				}
			}()
			return s.identity.SignOut(ctx)
		}()
	}
	if remoteErr != nil {
		s.log.Warn("remote sign-out failed, clearing local state anyway", zap.Error(remoteErr))
		s.rec.RecordSignOut(signOutRemoteFailed)
	} else {
		s.rec.RecordSignOut(signOutOK)
	}

	s.clearLocal()
	return remoteErr
}

// ClearAuth tears down local state without contacting the identity provider.
// It backs fatal-auth-error recovery paths where a remote sign-out is
// inappropriate or already known to be moot.
func (s *Store) ClearAuth() {
	s.clearLocal()
}

func (s *Store) clearLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.User = nil
	s.snap.Session = nil
	s.snap.Profile = nil
	s.snap.Loading = false
	s.snap.Initialized = true
	// Encoding the all-absent snapshot removes the primary record and both
	// compatibility cookies in the same logical operation.
	s.commitLocked(true)
}
