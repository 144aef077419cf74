package remote

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/campusgrid/authstate/internal/model"
)

// ProfileClient mutates application profiles on the backend.
type ProfileClient struct {
	httpCaller
}

// NewProfileClient builds a client for the profile service at baseURL.
func NewProfileClient(baseURL string, httpc *http.Client, token TokenSource, log *zap.Logger) *ProfileClient {
	return &ProfileClient{httpCaller: newHTTPCaller(baseURL, httpc, token, log)}
}

// UpdatePresence writes the online flag and last-seen timestamp for one
// profile. The caller echoes the change locally only after this returns nil.
func (c *ProfileClient) UpdatePresence(ctx context.Context, upd model.PresenceUpdate) error {
	if upd.UserID == "" {
		return fmt.Errorf("validation: empty user id")
	}
	path := "/profiles/" + upd.UserID + "/presence"
	if _, err := c.call(ctx, http.MethodPatch, path, upd); err != nil {
		return err
	}
	c.log.Debug("presence updated",
		zap.String("user_id", upd.UserID),
		zap.Bool("online", upd.Online),
	)
	return nil
}
