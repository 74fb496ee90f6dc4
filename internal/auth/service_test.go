package auth_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/auth"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/repository/memory"
)

type recorder struct {
	mu     sync.Mutex
	events []auth.SessionEvent
}

func (r *recorder) record(ev auth.SessionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []auth.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]auth.EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

type fixture struct {
	svc   *auth.Service
	users *memory.UserStore
	db    *memory.DB
}

func newFixture(t *testing.T, autoConfirm bool) fixture {
	t.Helper()
	db := memory.NewDB()
	users := memory.NewUserStore(db)
	notifier := auth.NewNotifier(slog.Default())
	t.Cleanup(func() { notifier.Close() })

	svc := auth.NewService(users, memory.NewSessionStore(), notifier, auth.Config{
		AutoConfirm: autoConfirm,
		ConfirmURL:  "http://localhost:8080/auth/v1/verify",
		HashCost:    bcrypt.MinCost,
	})
	return fixture{svc: svc, users: users, db: db}
}

func TestService_SignUpRequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	result, err := f.svc.SignUp(ctx, "New.Admin@Example.com", "secret1")
	require.NoError(t, err)
	assert.True(t, result.ConfirmationPending)
	assert.Nil(t, result.Session)
	assert.Equal(t, "new.admin@example.com", result.User.Email)

	session, err := f.svc.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, session, "no session before confirmation")

	_, err = f.svc.SignIn(ctx, "new.admin@example.com", "secret1")
	assert.ErrorIs(t, err, auth.ErrEmailNotConfirmed)

	stored, err := f.users.FindByEmail(ctx, "new.admin@example.com")
	require.NoError(t, err)
	confirmed, err := f.svc.Confirm(ctx, stored.ConfirmationToken)
	require.NoError(t, err)
	assert.NotNil(t, confirmed.ConfirmedAt)

	session, err = f.svc.SignIn(ctx, "new.admin@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, session.User.ID)

	profiles, err := f.db.Profiles().FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "new.admin", profiles[0].Username)
}

func TestService_SignUpAutoConfirmGrantsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	result, err := f.svc.SignUp(ctx, "admin@example.com", "secret1")
	require.NoError(t, err)
	assert.False(t, result.ConfirmationPending)
	require.NotNil(t, result.Session)

	current, err := f.svc.CurrentSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, result.Session.AccessToken, current.AccessToken)
}

func TestService_SignUpRejectsInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	_, err := f.svc.SignUp(ctx, "admin@example.com", "secret1")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"invalid email", "not-an-email", "secret1", auth.ErrInvalidEmail},
		{"short password", "other@example.com", "12345", auth.ErrWeakPassword},
		{"duplicate email", "ADMIN@example.com", "secret1", auth.ErrEmailTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SignUp(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_SignInInvalidCredentials(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	_, err := f.svc.SignUp(ctx, "admin@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, f.svc.SignOut(ctx))

	_, err = f.svc.SignIn(ctx, "admin@example.com", "wrong-password")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	assert.EqualError(t, err, "Invalid login credentials")

	_, err = f.svc.SignIn(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	session, err := f.svc.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestService_ConfirmUnknownToken(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.svc.Confirm(context.Background(), "")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = f.svc.Confirm(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestService_SubscribeObservesTransitionsInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t, true)

	rec := &recorder{}
	require.NoError(t, f.svc.Subscribe(ctx, rec.record))

	_, err := f.svc.SignUp(ctx, "admin@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, f.svc.SignOut(ctx))
	_, err = f.svc.SignIn(ctx, "admin@example.com", "secret1")
	require.NoError(t, err)

	assert.Equal(t, []auth.EventType{auth.EventSignedIn, auth.EventSignedOut, auth.EventSignedIn}, rec.types())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.NotNil(t, rec.events[0].Session)
	assert.Equal(t, "admin@example.com", rec.events[0].Session.User.Email)
	assert.Nil(t, rec.events[1].Session)
}

func TestService_SignOutClearsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	_, err := f.svc.SignUp(ctx, "admin@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, f.svc.SignOut(ctx))
	session, err := f.svc.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, session)

	// Signing out twice is harmless.
	require.NoError(t, f.svc.SignOut(ctx))
}

func TestService_ExpiredSessionPublishesSignOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := auth.NewNotifier(slog.Default())
	t.Cleanup(func() { notifier.Close() })
	svc := auth.NewService(memory.NewUserStore(memory.NewDB()), memory.NewSessionStore(), notifier, auth.Config{
		SessionTTL:  20 * time.Millisecond,
		AutoConfirm: true,
		HashCost:    bcrypt.MinCost,
	})

	rec := &recorder{}
	require.NoError(t, svc.Subscribe(ctx, rec.record))

	_, err := svc.SignUp(ctx, "admin@example.com", "secret1")
	require.NoError(t, err)
	session, err := svc.CurrentSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)

	time.Sleep(60 * time.Millisecond)

	session, err = svc.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.Equal(t, []auth.EventType{auth.EventSignedIn, auth.EventSignedOut}, rec.types())

	// The expiry is reported once.
	_, err = svc.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Len(t, rec.types(), 2)
}
