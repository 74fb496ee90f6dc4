package console_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/auth"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/console"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/entity"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/repository"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/repository/memory"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/service"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/state"
)

type harness struct {
	console *console.Console
	auth    *auth.Service
	users   *memory.UserStore
	db      *memory.DB
	store   *state.Store
}

func newHarness(t *testing.T, autoConfirm bool) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	db := memory.NewDB()
	db.SeedProducts(entity.Product{ID: "p1", Name: "Shirt", Price: decimal.RequireFromString("125.00"), StockQuantity: 5})

	users := memory.NewUserStore(db)
	notifier := auth.NewNotifier(slog.Default())
	t.Cleanup(func() { notifier.Close() })
	authSvc := auth.NewService(users, memory.NewSessionStore(), notifier, auth.Config{
		AutoConfirm: autoConfirm,
		HashCost:    bcrypt.MinCost,
	})

	store := state.NewStore(db.Profiles(), db.Products(), db.Orders())
	c := console.New(console.Deps{
		Auth:     authSvc,
		Store:    store,
		Composer: service.NewOrderComposer(db.Orders(), db.OrderItems(), store, nil),
		Profiles: service.NewProfileService(db.Profiles(), store),
		Products: service.NewProductService(db.Products(), db.Blobs("http://localhost:8080"), "", store),
		Orders:   service.NewOrderService(db.Orders(), store),
	})

	assert.True(t, c.View().Loading)
	require.NoError(t, c.Start(ctx))
	assert.False(t, c.View().Loading)

	return &harness{console: c, auth: authSvc, users: users, db: db, store: store}
}

func (h *harness) signIn(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.console.SignUp(ctx, "admin@example.com", "secret1"))
	if !h.console.SignedIn() {
		require.NoError(t, h.console.SignIn(ctx, "admin@example.com", "secret1"))
	}
	require.True(t, h.console.SignedIn())
	return h.console.View().User.ID
}

func TestConsole_SignUpConfirmationScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, false)

	h.console.ToggleAuthMode()
	assert.Equal(t, console.ModeSignUp, h.console.View().AuthMode)

	require.NoError(t, h.console.SignUp(ctx, "new@example.com", "secret1"))
	v := h.console.View()
	assert.Equal(t, console.SignUpSuccessMessage, v.AuthMessage)
	assert.False(t, v.AuthMessageIsError)
	assert.Equal(t, console.ModeSignIn, v.AuthMode, "switched back to sign-in")
	assert.False(t, v.SignedIn)
	assert.Empty(t, h.store.Profiles(), "nothing loads without a session")

	err := h.console.SignIn(ctx, "new@example.com", "secret1")
	require.ErrorIs(t, err, auth.ErrEmailNotConfirmed)
	v = h.console.View()
	assert.Equal(t, "Sign in failed: Email not confirmed", v.AuthMessage)
	assert.True(t, v.AuthMessageIsError)

	stored, err := h.users.FindByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	_, err = h.auth.Confirm(ctx, stored.ConfirmationToken)
	require.NoError(t, err)

	require.NoError(t, h.console.SignIn(ctx, "new@example.com", "secret1"))
	v = h.console.View()
	assert.True(t, v.SignedIn)
	assert.Empty(t, v.AuthMessage)
	assert.Len(t, h.console.Profiles(), 1, "signing in loads every collection")
	assert.Len(t, h.console.Products(), 1)
}

func TestConsole_SignUpFailureMessage(t *testing.T) {
	h := newHarness(t, false)
	h.console.ToggleAuthMode()

	err := h.console.SignUp(context.Background(), "new@example.com", "123")
	require.ErrorIs(t, err, auth.ErrWeakPassword)

	v := h.console.View()
	assert.Equal(t, "Sign up failed: Password should be at least 6 characters", v.AuthMessage)
	assert.Equal(t, console.ModeSignUp, v.AuthMode, "stays on the sign-up form")
}

func TestConsole_ToggleClearsMessageAndCredentials(t *testing.T) {
	h := newHarness(t, false)
	_ = h.console.SignIn(context.Background(), "who@example.com", "wrong-pass")
	require.NotEmpty(t, h.console.View().AuthMessage)
	require.Equal(t, "who@example.com", h.console.View().Email)

	assert.Equal(t, console.ModeSignUp, h.console.ToggleAuthMode())
	v := h.console.View()
	assert.Empty(t, v.AuthMessage)
	assert.Empty(t, v.Email)
	assert.Equal(t, "Sign Up for Admin Access", v.AuthTitle)

	assert.Equal(t, console.ModeSignIn, h.console.ToggleAuthMode())
}

func TestConsole_SignOutClearsCollections(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, true)
	h.signIn(t)
	require.NotEmpty(t, h.console.Products())
	require.NoError(t, h.console.ViewUserOrders(ctx, "someone"))

	require.NoError(t, h.console.SignOut(ctx))
	v := h.console.View()
	assert.False(t, v.SignedIn)
	assert.Empty(t, v.SelectedUserID)
	assert.Empty(t, h.console.Products())
	assert.Empty(t, h.console.Profiles())

	_, ok := h.console.SelectedOrders()
	assert.False(t, ok)
	assert.ErrorIs(t, h.console.SwitchTab(ctx, console.TabProducts), console.ErrNotSignedIn)
}

func TestConsole_StartWithExistingSessionLoadsData(t *testing.T) {
	h := newHarness(t, true)
	h.signIn(t)

	restarted := console.New(console.Deps{
		Auth:     h.auth,
		Store:    state.NewStore(h.db.Profiles(), h.db.Products(), h.db.Orders()),
		Products: service.NewProductService(h.db.Products(), h.db.Blobs(""), "", nil),
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, restarted.Start(ctx))

	assert.True(t, restarted.SignedIn())
	assert.Len(t, restarted.Profiles(), 1)
}

func TestConsole_TabsAndSelection(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, true)
	userID := h.signIn(t)

	_, ok := h.console.SelectedOrders()
	assert.False(t, ok, "no selection yet")

	require.NoError(t, h.console.ViewUserOrders(ctx, userID))
	v := h.console.View()
	assert.Equal(t, console.TabOrders, v.Tab)
	assert.Equal(t, userID, v.SelectedUserID)

	orders, ok := h.console.SelectedOrders()
	assert.True(t, ok)
	assert.Empty(t, orders)

	require.NoError(t, h.console.SwitchTab(ctx, console.TabProducts))
	v = h.console.View()
	assert.Equal(t, console.TabProducts, v.Tab)
	assert.Empty(t, v.SelectedUserID)

	assert.ErrorIs(t, h.console.SwitchTab(ctx, "carts"), console.ErrUnknownTab)
}

func TestConsole_SubmitOrderScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, true)
	userID := h.signIn(t)

	d := entity.NewOrderDraft()
	d.UserID = userID
	d.TotalAmount = decimal.RequireFromString("250.00")
	d.ShippingAddress = "12 Rizal St"
	d.ProductID = "p1"
	d.Quantity = 2
	d.PriceAtPurchase = decimal.RequireFromString("125.00")

	result, err := h.console.SubmitOrder(ctx, d)
	require.NoError(t, err)
	require.NoError(t, result.Err)
	assert.Equal(t, entity.NewOrderDraft(), h.console.View().NewOrder, "form reset after success")

	require.NoError(t, h.console.ViewUserOrders(ctx, userID))
	orders, ok := h.console.SelectedOrders()
	require.True(t, ok)
	require.Len(t, orders, 1)
	assert.Equal(t, entity.OrderStatusPending, orders[0].Status)
	require.Len(t, orders[0].Items, 1)
	assert.True(t, orders[0].Items[0].PriceAtPurchase.Equal(decimal.RequireFromString("125.00")))
}

func TestConsole_OrphanedOrderKeepsForm(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, true)
	userID := h.signIn(t)

	d := entity.NewOrderDraft()
	d.UserID = userID
	d.ProductID = "gone"

	result, err := h.console.SubmitOrder(ctx, d)
	require.NoError(t, err)
	assert.True(t, result.Orphaned())
	assert.Equal(t, d, h.console.View().NewOrder)
}

func TestConsole_ProfileEditForm(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, true)
	userID := h.signIn(t)

	_, err := h.console.EditProfile(ctx, "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	edit, err := h.console.EditProfile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "admin", edit.Username)

	edit.FullName = "Ada Admin"
	require.NoError(t, h.console.SaveProfile(ctx, *edit))
	assert.Nil(t, h.console.View().EditingProfile, "form closes on success")
	assert.Equal(t, "Ada Admin", h.console.Profiles()[0].FullName)

	assert.ErrorIs(t, h.console.SaveProfile(ctx, *edit), console.ErrNoOpenForm)
}

func TestConsole_FailedSaveKeepsForm(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, true)
	userID := h.signIn(t)

	d := entity.NewOrderDraft()
	d.UserID = userID
	d.ProductID = "p1"
	result, err := h.console.SubmitOrder(ctx, d)
	require.NoError(t, err)
	require.True(t, result.Succeeded())

	edit, err := h.console.EditOrder(ctx, result.Order.ID)
	require.NoError(t, err)
	edit.Status = "Lost"
	edit.ShippingAddress = "unsaved input"

	require.ErrorIs(t, h.console.SaveOrder(ctx, *edit), entity.ErrInvalidStatus)
	open := h.console.View().EditingOrder
	require.NotNil(t, open)
	assert.Equal(t, "unsaved input", open.ShippingAddress)

	h.console.CancelOrderEdit()
	assert.Nil(t, h.console.View().EditingOrder)
}

func TestConsole_ProductEditKeepsStoredImagePath(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, true)
	h.signIn(t)

	d := entity.NewProductDraft()
	d.Name = "Cap"
	d.Image = &entity.Upload{Filename: "cap.png", Data: []byte("png")}
	created, err := h.console.CreateProduct(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, entity.NewProductDraft(), h.console.View().NewProduct)

	edit, err := h.console.EditProduct(ctx, created.ID)
	require.NoError(t, err)

	tampered := *edit
	bogus := "elsewhere.png"
	tampered.ImagePath = &bogus
	tampered.Name = "Blue Cap"
	require.NoError(t, h.console.SaveProduct(ctx, tampered))

	for _, p := range h.console.Products() {
		if p.ID == created.ID {
			assert.Equal(t, "Blue Cap", p.Name)
			require.NotNil(t, p.ImagePath)
			assert.Equal(t, *created.ImagePath, *p.ImagePath)
			assert.Contains(t, p.ImageURL, "/storage/v1/object/public/product-images/")
			return
		}
	}
	t.Fatal("product missing from snapshot")
}

func TestConsole_DashboardRequiresSession(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, false)

	_, err := h.console.SubmitOrder(ctx, entity.NewOrderDraft())
	assert.ErrorIs(t, err, console.ErrNotSignedIn)
	assert.ErrorIs(t, h.console.DeleteProduct(ctx, "p1"), console.ErrNotSignedIn)
	assert.ErrorIs(t, h.console.ViewUserOrders(ctx, "u1"), console.ErrNotSignedIn)
}

// expiringAuthority reports no live session once expired, the way the
// authority does after a session's TTL has passed.
type expiringAuthority struct {
	auth.Authority

	mu      sync.Mutex
	expired bool
}

func (a *expiringAuthority) expire() {
	a.mu.Lock()
	a.expired = true
	a.mu.Unlock()
}

func (a *expiringAuthority) CurrentSession(ctx context.Context) (*auth.Session, error) {
	a.mu.Lock()
	expired := a.expired
	a.mu.Unlock()
	if expired {
		return nil, nil
	}
	return a.Authority.CurrentSession(ctx)
}

func TestConsole_ExpiredSessionSignsOutAndBlocksWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := newHarness(t, true)
	h.signIn(t)

	authority := &expiringAuthority{Authority: h.auth}
	store := state.NewStore(h.db.Profiles(), h.db.Products(), h.db.Orders())
	c := console.New(console.Deps{
		Auth:     authority,
		Store:    store,
		Products: service.NewProductService(h.db.Products(), h.db.Blobs(""), "", store),
	})
	require.NoError(t, c.Start(ctx))
	require.True(t, c.SignedIn())
	require.Len(t, c.Products(), 1)
	token := c.Session().AccessToken
	require.NoError(t, c.Authorize(ctx, token))

	authority.expire()

	assert.ErrorIs(t, c.DeleteProduct(ctx, "p1"), console.ErrNotSignedIn)
	assert.False(t, c.SignedIn())
	assert.Empty(t, c.Products(), "snapshots cleared on expiry")
	assert.ErrorIs(t, c.Authorize(ctx, token), console.ErrNotSignedIn)

	products, err := h.db.Products().FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 1, "nothing was deleted")
}

func TestConsole_AuthorizeChecksToken(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, true)

	assert.ErrorIs(t, h.console.Authorize(ctx, ""), console.ErrNotSignedIn)

	h.signIn(t)
	token := h.console.Session().AccessToken
	require.NotEmpty(t, token)

	assert.NoError(t, h.console.Authorize(ctx, token))
	assert.ErrorIs(t, h.console.Authorize(ctx, ""), console.ErrBadToken)
	assert.ErrorIs(t, h.console.Authorize(ctx, "not-"+token), console.ErrBadToken)
}
