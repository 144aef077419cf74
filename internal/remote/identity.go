package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/campusgrid/authstate/internal/errs"
	"github.com/campusgrid/authstate/internal/model"
)

// IdentityClient talks to the identity provider's auth endpoints. Token
// issuance and its cryptography live entirely on the provider side; this
// client only relays calls.
type IdentityClient struct {
	httpCaller
}

// NewIdentityClient builds a client for the identity provider at baseURL.
func NewIdentityClient(baseURL string, httpc *http.Client, token TokenSource, log *zap.Logger) *IdentityClient {
	return &IdentityClient{httpCaller: newHTTPCaller(baseURL, httpc, token, log)}
}

// SignOut revokes the current session on the provider.
func (c *IdentityClient) SignOut(ctx context.Context) error {
	if _, err := c.call(ctx, http.MethodPost, "/auth/v1/logout", nil); err != nil {
		return err
	}
	c.log.Info("remote sign-out complete")
	return nil
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges a refresh token for a fresh session. The refresh policy
// (when and how often) belongs to the caller, not to this client.
func (c *IdentityClient) Refresh(ctx context.Context, refreshToken string) (model.Session, error) {
	if refreshToken == "" {
		return model.Session{}, fmt.Errorf("%w: no refresh token", errs.ErrUnauthorized)
	}

	data, err := c.call(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return model.Session{}, err
	}

	var resp refreshResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return model.Session{}, fmt.Errorf("%w: bad refresh response: %v", errs.ErrRemoteUnavailable, err)
	}
	if resp.AccessToken == "" {
		return model.Session{}, fmt.Errorf("%w: refresh response without access token", errs.ErrRemoteUnavailable)
	}

	return model.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		IssuedAt:     time.Now().UTC(),
	}, nil
}
