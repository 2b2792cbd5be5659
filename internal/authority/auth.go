package authority

import (
	"context"
	"net/http"
)

type AuthClient struct {
	c *client
}

// LoginResult is the backend's login payload. Username and email are not
// part of it; callers fill those in themselves.
type LoginResult struct {
	UserID       string   `json:"userId"`
	Roles        []string `json:"roles"`
	Token        string   `json:"token"`
	RefreshToken string   `json:"refreshToken"`
}

// TokenPair is the result of a refresh.
type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

func (a *AuthClient) Authenticate(ctx context.Context, username, password string) (*LoginResult, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}
	var out LoginResult
	if err := a.c.do(ctx, http.MethodPost, "/Auth/login", "", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AuthClient) RefreshToken(ctx context.Context, token, refreshToken string) (*TokenPair, error) {
	body := map[string]string{
		"token":        token,
		"refreshToken": refreshToken,
	}
	var out TokenPair
	if err := a.c.do(ctx, http.MethodPost, "/Auth/refresh", "", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout tells the backend to drop the refresh token. Best-effort by
// contract: callers clear local state regardless of the result.
func (a *AuthClient) Logout(ctx context.Context, token string) error {
	return a.c.do(ctx, http.MethodPost, "/Auth/logout", token, nil, nil, nil)
}
