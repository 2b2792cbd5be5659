package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dealerhub/internal/authority"
	"dealerhub/internal/rbac"

	"go.uber.org/zap"
)

// ErrSessionExpired is returned when a token refresh fails; the session
// is already cleared by the time callers see it.
var ErrSessionExpired = errors.New("session expired, sign in again")

// AuthorityAPI is the slice of the backend the authentication service
// needs.
type AuthorityAPI interface {
	Authenticate(ctx context.Context, username, password string) (*authority.LoginResult, error)
	RefreshToken(ctx context.Context, token, refreshToken string) (*authority.TokenPair, error)
	Logout(ctx context.Context, token string) error
}

// Service establishes, reads, and tears down the authenticated session.
type Service struct {
	api      AuthorityAPI
	sessions Store
	fallback *FallbackDirectory
	logger   *zap.SugaredLogger
}

func NewService(api AuthorityAPI, sessions Store, fallback *FallbackDirectory, logger *zap.SugaredLogger) *Service {
	return &Service{
		api:      api,
		sessions: sessions,
		fallback: fallback,
		logger:   logger,
	}
}

// Login resolves credentials into a principal and writes the session
// record. Fallback accounts are checked first and never touch the
// backend. On any failure nothing is written: the session state is
// exactly what it was before the call.
func (s *Service) Login(ctx context.Context, sessionID, username, pass string) (*Principal, error) {
	if s.fallback != nil {
		if acct, ok := s.fallback.Match(username, pass); ok {
			principal := acct.Principal()
			if err := s.writeSession(ctx, sessionID, principal); err != nil {
				return nil, err
			}
			s.logger.Infow("fallback account login", "username", username, "role", acct.Role)
			return principal, nil
		}
	}

	res, err := s.api.Authenticate(ctx, username, pass)
	if err != nil {
		return nil, err
	}

	// Role names outside the closed vocabulary grant nothing; drop them
	// here instead of carrying them through session state.
	roles := rbac.Normalize(res.Roles)

	// The login payload carries neither display name nor email; the
	// username stands in for the name, matching the original client.
	principal := &Principal{
		ID:           res.UserID,
		Username:     username,
		Name:         username,
		IsActive:     true,
		Roles:        roles,
		Token:        res.Token,
		RefreshToken: res.RefreshToken,
	}

	if err := s.writeSession(ctx, sessionID, principal); err != nil {
		return nil, err
	}
	return principal, nil
}

// Logout clears local session state unconditionally.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Clear(ctx, sessionID)
}

// LogoutWithAuthority additionally tells the backend to drop the refresh
// token. The upstream call is best-effort: its failure is logged and
// never blocks clearing local state.
func (s *Service) LogoutWithAuthority(ctx context.Context, sessionID string) error {
	rec, err := s.sessions.Get(ctx, sessionID)
	if err == nil && rec.Valid() {
		if err := s.api.Logout(ctx, rec.Principal.Token); err != nil {
			s.logger.Warnw("backend logout failed, clearing local session anyway", "error", err)
		}
	}
	return s.sessions.Clear(ctx, sessionID)
}

// Current returns the session's principal, or nil when there is none.
// Malformed or inconsistent persisted state reads as logged out.
func (s *Service) Current(ctx context.Context, sessionID string) (*Principal, error) {
	rec, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !rec.Valid() {
		return nil, nil
	}
	return rec.Principal, nil
}

// IsLoggedIn reports the logged-in flag only.
func (s *Service) IsLoggedIn(ctx context.Context, sessionID string) bool {
	rec, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return false
	}
	return rec.Valid()
}

// Refresh swaps the stored token pair for a fresh one. A failed refresh
// forces logout: the session is cleared and ErrSessionExpired surfaces
// to the caller.
func (s *Service) Refresh(ctx context.Context, sessionID string) (*Principal, error) {
	rec, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !rec.Valid() {
		return nil, ErrSessionExpired
	}

	principal := rec.Principal

	// Fallback principals hold synthetic tokens the backend has never
	// seen; their sessions simply stay as they are.
	if s.fallback != nil {
		if _, ok := s.fallback.accounts[principal.Username]; ok && principal.ID == "local-"+principal.Username {
			return principal, nil
		}
	}

	pair, err := s.api.RefreshToken(ctx, principal.Token, principal.RefreshToken)
	if err != nil {
		if clearErr := s.sessions.Clear(ctx, sessionID); clearErr != nil {
			s.logger.Errorw("failed clearing session after refresh failure", "error", clearErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}

	principal.Token = pair.Token
	principal.RefreshToken = pair.RefreshToken
	if err := s.writeSession(ctx, sessionID, principal); err != nil {
		return nil, err
	}
	return principal, nil
}

// writeSession persists the principal and the logged-in flag as one
// record.
func (s *Service) writeSession(ctx context.Context, sessionID string, principal *Principal) error {
	now := time.Now()
	return s.sessions.Set(ctx, sessionID, &Record{
		Principal: principal,
		LoggedIn:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
}
