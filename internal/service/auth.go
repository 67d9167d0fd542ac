package service

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Zereker/adboard/internal/domain"
	"github.com/Zereker/adboard/internal/repo"
	"github.com/Zereker/adboard/pkg/log"
	"github.com/Zereker/adboard/pkg/store"
)

// Demo account seeded when auth.seed_demo_user is set.
const (
	DemoUsername = "demo"
	DemoPassword = "demo123"
	DemoEmail    = "demo@example.com"
)

// AuthService registers users and manages login sessions.
type AuthService struct {
	logger   *slog.Logger
	cfg      AuthConfig
	users    repo.Users
	sessions repo.Sessions
	now      func() time.Time

	// mu makes the uniqueness check and the insert of an account atomic
	mu sync.Mutex
}

// NewAuthService creates the auth service.
func NewAuthService(cfg AuthConfig, stores *repo.Stores) (*AuthService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithMessage(err, "invalid auth config")
	}
	return &AuthService{
		logger:   log.Logger("auth"),
		cfg:      cfg,
		users:    stores.Users,
		sessions: stores.Sessions,
		now:      time.Now,
	}, nil
}

// Register creates an account after validating the form and checking that
// username and email are free.
func (s *AuthService) Register(req domain.RegisterRequest) (domain.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := req.Validate(); err != nil {
		return domain.User{}, err
	}
	if err := s.checkFree(req.Username, req.Email); err != nil {
		return domain.User{}, err
	}

	hash, err := HashPassword(req.Password, s.cfg.HashIterations)
	if err != nil {
		return domain.User{}, errors.WithMessage(err, "hash password")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// the account may have been taken while hashing
	if err := s.checkFree(req.Username, req.Email); err != nil {
		return domain.User{}, err
	}

	user, err := s.users.Add(domain.NewUser(req.Username, req.Email, hash))
	if err != nil {
		return domain.User{}, errors.WithMessage(err, "store user")
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func (s *AuthService) checkFree(username, email string) error {
	if s.users.UsernameExists(username) {
		return errors.WithMessagef(ErrConflict, "username %q", username)
	}
	if s.users.EmailExists(email) {
		return errors.WithMessagef(ErrConflict, "email %q", email)
	}
	return nil
}

// EnsureDemoUser seeds the demo account unless it exists. Demo credentials
// skip the registration form checks.
func (s *AuthService) EnsureDemoUser() (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users.GetByUsername(DemoUsername); ok {
		return u, nil
	}

	hash, err := HashPassword(DemoPassword, s.cfg.HashIterations)
	if err != nil {
		return domain.User{}, errors.WithMessage(err, "hash password")
	}
	user, err := s.users.Add(domain.NewUser(DemoUsername, DemoEmail, hash))
	if err != nil {
		return domain.User{}, errors.WithMessage(err, "store demo user")
	}

	s.logger.Info("demo user seeded", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and issues a session. Unknown usernames and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(req domain.LoginRequest) (domain.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return domain.LoginResponse{}, err
	}

	user, ok := s.users.GetByUsername(strings.TrimSpace(req.Username))
	if !ok || !VerifyPassword(req.Password, user.PasswordHash) {
		return domain.LoginResponse{}, errors.WithMessage(ErrUnauthorized, "invalid username or password")
	}

	now := s.now().UTC()
	user, ok, err := s.users.Update(user.ID, store.Patch{"last_login": now})
	if err != nil {
		return domain.LoginResponse{}, errors.WithMessage(err, "record login")
	}
	if !ok {
		// removed or evicted since the lookup
		return domain.LoginResponse{}, errors.WithMessage(ErrUnauthorized, "invalid username or password")
	}

	s.sessions.PurgeExpired(now)

	session, err := s.sessions.Add(domain.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.sessionTimeout),
	})
	if err != nil {
		return domain.LoginResponse{}, errors.WithMessage(err, "store session")
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return domain.LoginResponse{Token: session.Token, ExpiresAt: session.ExpiresAt, User: user}, nil
}

// Logout ends the session. Unknown tokens are ignored.
func (s *AuthService) Logout(token string) {
	s.sessions.Delete(token)
}

// Authenticate resolves a bearer token to its user.
func (s *AuthService) Authenticate(token string) (domain.User, error) {
	session, ok := s.sessions.Get(token)
	if !ok {
		return domain.User{}, ErrUnauthorized
	}
	if session.Expired(s.now()) {
		s.sessions.Delete(token)
		return domain.User{}, errors.WithMessage(ErrUnauthorized, "session expired")
	}

	user, ok := s.users.Get(session.UserID)
	if !ok {
		// user evicted or deleted after login
		s.sessions.Delete(token)
		return domain.User{}, ErrUnauthorized
	}
	return user, nil
}

// UserByUsername looks up an account.
func (s *AuthService) UserByUsername(username string) (domain.User, error) {
	user, ok := s.users.GetByUsername(username)
	if !ok {
		return domain.User{}, errors.WithMessagef(ErrNotFound, "user %q", username)
	}
	return user, nil
}
