package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Config tunes the session authority.
type Config struct {
	SessionTTL time.Duration
	// AutoConfirm grants a session at sign-up instead of waiting for the
	// emailed confirmation.
	AutoConfirm bool
	// ConfirmURL is the link base logged for out-of-band confirmation; the
	// token is appended as a query parameter.
	ConfirmURL string
	HashCost   int
}

// Service is the session authority for one console process. It remembers the
// console's current access token the way a browser client persists its
// session.
type Service struct {
	users    UserStore
	sessions SessionStore
	notifier *Notifier
	cfg      Config
	now      func() time.Time

	mu      sync.Mutex
	current string
}

func NewService(users UserStore, sessions SessionStore, notifier *Notifier, cfg Config) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = time.Hour
	}
	if cfg.HashCost == 0 {
		cfg.HashCost = bcrypt.DefaultCost
	}
	return &Service{
		users:    users,
		sessions: sessions,
		notifier: notifier,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CurrentSession returns the live session or nil when signed out. When the
// held session has expired it is dropped and SIGNED_OUT is published.
func (s *Service) CurrentSession(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	token := s.current
	s.mu.Unlock()

	if token == "" {
		return nil, nil
	}

	session, err := s.sessions.Load(ctx, token)
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if err == nil && s.now().Before(session.ExpiresAt) {
		return session, nil
	}

	s.mu.Lock()
	expired := s.current == token
	if expired {
		s.current = ""
	}
	s.mu.Unlock()

	if expired {
		if err := s.sessions.Delete(ctx, token); err != nil {
			slog.Warn("Failed to revoke expired session", "err", err)
		}
		slog.Info("Auth: Session expired")
		if err := s.notifier.Publish(SessionEvent{Type: EventSignedOut}); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	slog.Info("Auth: Signing in", "email", email)

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.ConfirmedAt == nil {
		return nil, ErrEmailNotConfirmed
	}

	return s.grant(ctx, user.User)
}

func (s *Service) SignUp(ctx context.Context, email, password string) (*SignUpResult, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.HashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	stored, err := s.users.CreateUser(ctx, NewUser{
		ID:                uuid.NewString(),
		Email:             email,
		PasswordHash:      string(hash),
		ConfirmationToken: uuid.NewString(),
		Confirmed:         s.cfg.AutoConfirm,
	})
	if err != nil {
		return nil, err
	}

	result := &SignUpResult{User: stored.User}
	if s.cfg.AutoConfirm {
		session, err := s.grant(ctx, stored.User)
		if err != nil {
			return nil, err
		}
		result.Session = session
		return result, nil
	}

	result.ConfirmationPending = true
	slog.Info("Auth: Confirmation required",
		"email", email,
		"user_id", stored.ID,
		"confirm_url", s.cfg.ConfirmURL+"?token="+stored.ConfirmationToken,
	)
	return result, nil
}

// Confirm marks the user owning token as confirmed. It does not grant a
// session; the user signs in afterwards.
func (s *Service) Confirm(ctx context.Context, token string) (*User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidToken
	}
	stored, err := s.users.ConfirmByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	slog.Info("Auth: Email confirmed", "user_id", stored.ID, "email", stored.Email)
	return &stored.User, nil
}

func (s *Service) SignOut(ctx context.Context) error {
	s.mu.Lock()
	token := s.current
	s.current = ""
	s.mu.Unlock()

	if token != "" {
		if err := s.sessions.Delete(ctx, token); err != nil {
			slog.Warn("Failed to revoke session", "err", err)
		}
	}

	slog.Info("Auth: Signed out")
	return s.notifier.Publish(SessionEvent{Type: EventSignedOut})
}

func (s *Service) Subscribe(ctx context.Context, fn func(SessionEvent)) error {
	return s.notifier.Subscribe(ctx, fn)
}

func (s *Service) grant(ctx context.Context, user User) (*Session, error) {
	session := Session{
		AccessToken: uuid.NewString(),
		User:        user,
		ExpiresAt:   s.now().Add(s.cfg.SessionTTL),
	}
	if err := s.sessions.Save(ctx, session, s.cfg.SessionTTL); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	s.mu.Lock()
	previous := s.current
	s.current = session.AccessToken
	s.mu.Unlock()

	if previous != "" && previous != session.AccessToken {
		if err := s.sessions.Delete(ctx, previous); err != nil {
			slog.Warn("Failed to revoke replaced session", "err", err)
		}
	}

	slog.Info("Auth: Session granted", "user_id", user.ID, "expires_at", session.ExpiresAt)
	if err := s.notifier.Publish(SessionEvent{Type: EventSignedIn, Session: &session}); err != nil {
		return nil, err
	}
	return &session, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
