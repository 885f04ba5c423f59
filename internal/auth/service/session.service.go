package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"techdocs/internal/auth/model"
	"techdocs/internal/auth/repository"
	"techdocs/pkg/logger"
	"techdocs/socket"
	"techdocs/store"

	"github.com/golang-jwt/jwt/v5"
)

// SessionService owns the token and user profile. The durable store holds a
// mirror that is read once by Hydrate and rewritten on every change.
type SessionService struct {
	Repo  *repository.AuthRepository
	Store store.Store
	Keys  store.Keys
	Hub   *socket.Hub

	mu    sync.RWMutex
	token string
	user  *model.User
}

func NewSessionService(st store.Store, keys store.Keys, hub *socket.Hub) *SessionService {
	return &SessionService{Store: st, Keys: keys, Hub: hub}
}

// Hydrate loads the session mirrored in the store. A stored user record that
// does not decode invalidates the whole mirror.
func (s *SessionService) Hydrate(ctx context.Context) error {
	token, err := s.Store.Get(ctx, s.Keys.Token)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("load session token: %w", err)
	}

	var user *model.User
	raw, err := s.Store.Get(ctx, s.Keys.User)
	switch {
	case errors.Is(err, store.ErrNotFound) || raw == "null":
	case err != nil:
		return fmt.Errorf("load session user: %w", err)
	default:
		var u model.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			logger.Sugar.Warnf("Discarding malformed stored user record: %v", err)
			if err := s.Store.Delete(ctx, s.Keys.Token, s.Keys.User); err != nil {
				logger.Sugar.Errorf("Failed to clear malformed session: %v", err)
			}
			token = ""
		} else {
			user = &u
		}
	}

	s.mu.Lock()
	s.token, s.user = token, user
	s.mu.Unlock()
	return nil
}

func (s *SessionService) Login(ctx context.Context, creds model.Credentials) error {
	resp, err := s.Repo.Login(ctx, creds)
	if err != nil {
		logger.Sugar.Errorf("Login error: %v", err)
		return err
	}
	return s.establish(ctx, resp, "login")
}

func (s *SessionService) Register(ctx context.Context, req model.RegisterRequest) error {
	resp, err := s.Repo.Register(ctx, req)
	if err != nil {
		logger.Sugar.Errorf("Registration error: %v", err)
		return err
	}
	return s.establish(ctx, resp, "register")
}

// establish writes the mirror first and swaps memory only once both keys are
// stored, so a storage failure leaves the previous session untouched.
func (s *SessionService) establish(ctx context.Context, resp *model.AuthResponse, state string) error {
	userJSON, err := json.Marshal(resp.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.Store.Set(ctx, s.Keys.Token, resp.Token); err != nil {
		return fmt.Errorf("persist session token: %w", err)
	}
	if err := s.Store.Set(ctx, s.Keys.User, string(userJSON)); err != nil {
		if derr := s.Store.Delete(ctx, s.Keys.Token); derr != nil {
			logger.Sugar.Errorf("Failed to roll back session token: %v", derr)
		}
		return fmt.Errorf("persist session user: %w", err)
	}

	user := resp.User
	s.mu.Lock()
	s.token, s.user = resp.Token, &user
	s.mu.Unlock()

	logger.Sugar.Infof("Session established for %s", user.Username)
	s.Hub.Publish(ctx, socket.Event{Type: socket.SessionType, State: state, Message: user.Username})
	return nil
}

// Logout always succeeds; storage failures are only logged.
func (s *SessionService) Logout(ctx context.Context) {
	s.mu.Lock()
	s.token, s.user = "", nil
	s.mu.Unlock()

	if err := s.Store.Delete(ctx, s.Keys.Token, s.Keys.User); err != nil {
		logger.Sugar.Errorf("Failed to clear stored session: %v", err)
	}
	s.Hub.Publish(ctx, socket.Event{Type: socket.SessionType, State: "logout"})
}

// ClearCredentials drops the session after the server rejected it. held
// reports whether a token was in memory at the time.
func (s *SessionService) ClearCredentials(ctx context.Context) (held bool, err error) {
	s.mu.Lock()
	held = s.token != ""
	s.token, s.user = "", nil
	s.mu.Unlock()
	return held, s.Store.Delete(ctx, s.Keys.Token, s.Keys.User)
}

func (s *SessionService) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Token implements middleware.TokenProvider from the in-memory session.
func (s *SessionService) Token(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

func (s *SessionService) User() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// ExpiresAt reads the exp claim when the token is a JWT. The signature is not
// checked; only the server decides whether a token is valid.
func (s *SessionService) ExpiresAt() (time.Time, bool) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
