package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/auth"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/entity"
)

// UserStore keeps identities next to the profile table of db. Creating a user
// also creates its profile, the way the identity provider's sign-up trigger
// does.
type UserStore struct {
	db *DB

	mu    sync.Mutex
	users []auth.StoredUser
}

func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) CreateUser(ctx context.Context, u auth.NewUser) (*auth.StoredUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return nil, auth.ErrEmailTaken
		}
	}

	now := s.db.now()
	stored := auth.StoredUser{
		User: auth.User{
			ID:        u.ID,
			Email:     u.Email,
			CreatedAt: now,
		},
		PasswordHash:      u.PasswordHash,
		ConfirmationToken: u.ConfirmationToken,
	}
	if u.Confirmed {
		stored.ConfirmedAt = &now
	}

	if err := s.db.InsertProfile(entity.Profile{ID: u.ID, Username: UsernameFromEmail(u.Email)}); err != nil {
		return nil, err
	}
	s.users = append(s.users, stored)

	out := stored
	return &out, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*auth.StoredUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (s *UserStore) ConfirmByToken(ctx context.Context, token string) (*auth.StoredUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		u := &s.users[i]
		if u.ConfirmationToken != token {
			continue
		}
		if u.ConfirmedAt == nil {
			now := s.db.now()
			u.ConfirmedAt = &now
		}
		u.ConfirmationToken = ""
		out := *u
		return &out, nil
	}
	return nil, auth.ErrInvalidToken
}

// UsernameFromEmail derives the default username of a new profile.
func UsernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// SessionStore keeps sessions in process memory. Expired sessions are dropped
// on read.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]sessionEntry
	now      func() time.Time
}

type sessionEntry struct {
	session   auth.Session
	expiresAt time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]sessionEntry),
		now:      time.Now,
	}
}

func (s *SessionStore) Save(ctx context.Context, session auth.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.AccessToken] = sessionEntry{session: session, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *SessionStore) Load(ctx context.Context, token string) (*auth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[token]
	if !ok {
		return nil, auth.ErrSessionNotFound
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.sessions, token)
		return nil, auth.ErrSessionNotFound
	}
	session := entry.session
	return &session, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
	return nil
}
