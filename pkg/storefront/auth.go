package storefront

import (
	"context"
)

// Register creates an account and establishes the session from the
// returned token and user. Validation failures (missing fields, bad
// email, password confirmation mismatch) are caught before any request
// is issued.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	if err := c.validateRequest(req); err != nil {
		return AuthResponse{}, err
	}

	resp, err := runMutation(ctx, c, mutRegister, 0, func(ctx context.Context) (AuthResponse, error) {
		var out AuthResponse
		err := c.api.Post(ctx, "/api/auth/register", req, &out)
		return out, err
	})
	if err != nil {
		return AuthResponse{}, err
	}

	c.session.SetAuth(resp.User, resp.Token)
	return resp, nil
}

// Login authenticates and establishes the session. The session store
// is updated directly; no cache key depends on auth state.
func (c *Client) Login(ctx context.Context, req LoginRequest) (AuthResponse, error) {
	if err := c.validateRequest(req); err != nil {
		return AuthResponse{}, err
	}

	resp, err := runMutation(ctx, c, mutLogin, 0, func(ctx context.Context) (AuthResponse, error) {
		var out AuthResponse
		err := c.api.Post(ctx, "/api/auth/login", req, &out)
		return out, err
	})
	if err != nil {
		return AuthResponse{}, err
	}

	c.session.SetAuth(resp.User, resp.Token)
	return resp, nil
}

// Logout clears the session and its persisted copy. No network call is
// made; the token is simply discarded.
func (c *Client) Logout() {
	c.session.Logout()
}
