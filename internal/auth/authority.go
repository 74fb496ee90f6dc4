package auth

import (
	"context"
	"errors"
	"time"
)

// Messages mirror the identity provider's wording; the console shows them to
// the operator verbatim.
var (
	ErrInvalidCredentials = errors.New("Invalid login credentials")
	ErrEmailNotConfirmed  = errors.New("Email not confirmed")
	ErrEmailTaken         = errors.New("User already registered")
	ErrInvalidEmail       = errors.New("Unable to validate email address: invalid format")
	ErrWeakPassword       = errors.New("Password should be at least 6 characters")
	ErrInvalidToken       = errors.New("Token has expired or is invalid")
	ErrUserNotFound       = errors.New("user not found")
	ErrSessionNotFound    = errors.New("session not found")
)

// MinPasswordLength is the shortest password accepted at sign-up.
const MinPasswordLength = 6

// User is an authenticated identity.
type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Session is a granted sign-in.
type Session struct {
	AccessToken string    `json:"access_token"`
	User        User      `json:"user"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// EventType names a session transition.
type EventType string

const (
	EventSignedIn  EventType = "SIGNED_IN"
	EventSignedOut EventType = "SIGNED_OUT"
)

// SessionEvent is delivered to subscribers on every session transition.
// Session is nil after a sign-out.
type SessionEvent struct {
	Type    EventType `json:"type"`
	Session *Session  `json:"session,omitempty"`
}

// SignUpResult describes the outcome of a successful sign-up. When the
// provider requires out-of-band confirmation no session is granted.
type SignUpResult struct {
	User                User     `json:"user"`
	Session             *Session `json:"session,omitempty"`
	ConfirmationPending bool     `json:"confirmation_pending"`
}

// Authority is the session contract the console depends on.
type Authority interface {
	// CurrentSession returns the live session or nil when signed out.
	CurrentSession(ctx context.Context) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*SignUpResult, error)
	SignOut(ctx context.Context) error
	// Subscribe registers fn for every subsequent session transition until
	// ctx is done.
	Subscribe(ctx context.Context, fn func(SessionEvent)) error
}

// StoredUser is a user row including its credentials.
type StoredUser struct {
	User
	PasswordHash      string
	ConfirmationToken string
}

// NewUser is the row written at sign-up.
type NewUser struct {
	ID                string
	Email             string
	PasswordHash      string
	ConfirmationToken string
	Confirmed         bool
}

// UserStore persists identities. CreateUser also creates the user's profile.
type UserStore interface {
	CreateUser(ctx context.Context, u NewUser) (*StoredUser, error)
	FindByEmail(ctx context.Context, email string) (*StoredUser, error)
	ConfirmByToken(ctx context.Context, token string) (*StoredUser, error)
}

// SessionStore keeps granted sessions until they expire.
type SessionStore interface {
	Save(ctx context.Context, s Session, ttl time.Duration) error
	Load(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
}
