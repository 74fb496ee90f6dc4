// Package console holds the state of one operator's admin console: the
// session, the auth form, the active tab, the selected user and the open
// forms. Remote data lives in the state store; the console only decides when
// it is refreshed or cleared.
package console

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/auth"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/entity"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/service"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/state"
)

var (
	ErrNotSignedIn = errors.New("not signed in")
	ErrBadToken    = errors.New("missing or invalid access token")
	ErrNoSelection = errors.New("no user selected")
	ErrNoOpenForm  = errors.New("no edit form is open")
	ErrUnknownTab  = errors.New("unknown tab")
)

// Tab is a dashboard screen.
type Tab string

const (
	TabProfiles Tab = "profiles"
	TabProducts Tab = "products"
	TabOrders   Tab = "orders"
)

// AuthMode selects the form shown to a signed-out operator.
type AuthMode string

const (
	ModeSignIn AuthMode = "sign_in"
	ModeSignUp AuthMode = "sign_up"
)

const (
	signInFailedPrefix = "Sign in failed: "
	signUpFailedPrefix = "Sign up failed: "

	SignUpSuccessMessage = "Sign up successful! Please check your email to confirm your account."
)

// Snapshots is the view state store as seen by the console.
type Snapshots interface {
	RefreshAll(ctx context.Context) error
	Clear()
	Profiles() []entity.Profile
	Products() []entity.Product
	Orders() []entity.Order
	Status() map[state.Collection]state.Status
}

type Composer interface {
	Compose(ctx context.Context, draft entity.OrderDraft) *service.Composition
}

type ProfileHandler interface {
	Update(ctx context.Context, edit entity.ProfileEdit) error
	Delete(ctx context.Context, id string) error
}

type ProductHandler interface {
	Create(ctx context.Context, draft entity.ProductDraft) (*entity.Product, error)
	Update(ctx context.Context, edit entity.ProductEdit) error
	Delete(ctx context.Context, id string) error
	ImageURL(p entity.Product) string
}

type OrderHandler interface {
	Update(ctx context.Context, edit entity.OrderEdit) error
	Delete(ctx context.Context, id string) error
}

// Deps are the collaborators of a Console.
type Deps struct {
	Auth     auth.Authority
	Store    Snapshots
	Composer Composer
	Profiles ProfileHandler
	Products ProductHandler
	Orders   OrderHandler
}

// Console is the state of one operator session. Its mutex guards only the
// console's own fields and is never held while calling the authority, the
// store or a write handler.
type Console struct {
	auth     auth.Authority
	store    Snapshots
	composer Composer
	profiles ProfileHandler
	products ProductHandler
	orders   OrderHandler

	mu             sync.Mutex
	loading        bool
	session        *auth.Session
	mode           AuthMode
	email          string
	authMessage    string
	authFailed     bool
	tab            Tab
	selectedUserID string
	newOrder       entity.OrderDraft
	newProduct     entity.ProductDraft
	editingProfile *entity.ProfileEdit
	editingProduct *entity.ProductEdit
	editingOrder   *entity.OrderEdit
}

func New(d Deps) *Console {
	return &Console{
		auth:       d.Auth,
		store:      d.Store,
		composer:   d.Composer,
		profiles:   d.Profiles,
		products:   d.Products,
		orders:     d.Orders,
		loading:    true,
		mode:       ModeSignIn,
		tab:        TabProfiles,
		newOrder:   entity.NewOrderDraft(),
		newProduct: entity.NewProductDraft(),
	}
}

// Start subscribes to session changes and resolves the initial session. The
// console reports loading until the lookup has completed.
func (c *Console) Start(ctx context.Context) error {
	if err := c.auth.Subscribe(ctx, func(ev auth.SessionEvent) {
		c.HandleSessionChange(ctx, ev)
	}); err != nil {
		return fmt.Errorf("failed to subscribe to session changes: %w", err)
	}

	session, err := c.auth.CurrentSession(ctx)

	c.mu.Lock()
	c.loading = false
	c.mu.Unlock()

	if err != nil {
		slog.Error("Console: Initial session lookup failed", "err", err)
		return fmt.Errorf("failed to resolve session: %w", err)
	}
	if session != nil {
		c.HandleSessionChange(ctx, auth.SessionEvent{Type: auth.EventSignedIn, Session: session})
	}
	return nil
}

// HandleSessionChange applies a session transition: signing in loads all
// three collections, signing out empties them.
func (c *Console) HandleSessionChange(ctx context.Context, ev auth.SessionEvent) {
	switch ev.Type {
	case auth.EventSignedIn:
		c.mu.Lock()
		c.session = ev.Session
		c.mu.Unlock()

		slog.Info("Console: Signed in, loading collections", "user_id", userID(ev.Session))
		if err := c.store.RefreshAll(ctx); err != nil {
			slog.Warn("Console: Some collections failed to load", "err", err)
		}

	case auth.EventSignedOut:
		c.mu.Lock()
		c.session = nil
		c.selectedUserID = ""
		c.editingProfile = nil
		c.editingProduct = nil
		c.editingOrder = nil
		c.mu.Unlock()

		c.store.Clear()
		slog.Info("Console: Signed out, collections cleared")

	default:
		slog.Warn("Console: Ignoring unknown session event", "type", ev.Type)
	}
}

func userID(s *auth.Session) string {
	if s == nil {
		return ""
	}
	return s.User.ID
}

// SignIn attempts a sign-in. On failure the provider's message is shown with
// a failure prefix and the error is returned.
func (c *Console) SignIn(ctx context.Context, email, password string) error {
	c.mu.Lock()
	c.authMessage = ""
	c.authFailed = false
	c.email = email
	c.mu.Unlock()

	if _, err := c.auth.SignIn(ctx, email, password); err != nil {
		c.setAuthMessage(signInFailedPrefix+err.Error(), true)
		return err
	}
	return nil
}

// SignUp registers a new operator. On success the console switches back to
// the sign-in form and asks the operator to confirm their email.
func (c *Console) SignUp(ctx context.Context, email, password string) error {
	c.mu.Lock()
	c.authMessage = ""
	c.authFailed = false
	c.email = email
	c.mu.Unlock()

	if _, err := c.auth.SignUp(ctx, email, password); err != nil {
		c.setAuthMessage(signUpFailedPrefix+err.Error(), true)
		return err
	}

	c.mu.Lock()
	c.authMessage = SignUpSuccessMessage
	c.authFailed = false
	c.mode = ModeSignIn
	c.mu.Unlock()
	return nil
}

func (c *Console) setAuthMessage(msg string, failed bool) {
	c.mu.Lock()
	c.authMessage = msg
	c.authFailed = failed
	c.mu.Unlock()
}

// ToggleAuthMode switches between the sign-in and sign-up forms and clears
// the message and credentials.
func (c *Console) ToggleAuthMode() AuthMode {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode == ModeSignIn {
		c.mode = ModeSignUp
	} else {
		c.mode = ModeSignIn
	}
	c.authMessage = ""
	c.authFailed = false
	c.email = ""
	return c.mode
}

func (c *Console) SignOut(ctx context.Context) error {
	if err := c.auth.SignOut(ctx); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

// SignedIn reports whether the console holds a session. It does not ask the
// authority whether that session is still valid; ValidateSession does.
func (c *Console) SignedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// Session returns a copy of the held session, or nil when signed out.
func (c *Console) Session() *auth.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// ValidateSession asks the authority for the live session. When the
// authority no longer holds one the console is signed out and its snapshots
// are cleared.
func (c *Console) ValidateSession(ctx context.Context) (*auth.Session, error) {
	session, err := c.auth.CurrentSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}
	if session == nil {
		if c.SignedIn() {
			slog.Info("Console: Session no longer valid, signing out")
			c.HandleSessionChange(ctx, auth.SessionEvent{Type: auth.EventSignedOut})
		}
		return nil, ErrNotSignedIn
	}
	if !c.SignedIn() {
		return nil, ErrNotSignedIn
	}
	return session, nil
}

// Authorize checks that token is the access token of the live session.
func (c *Console) Authorize(ctx context.Context, token string) error {
	session, err := c.ValidateSession(ctx)
	if err != nil {
		return err
	}
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(session.AccessToken)) != 1 {
		return ErrBadToken
	}
	return nil
}

func (c *Console) requireSession(ctx context.Context) error {
	_, err := c.ValidateSession(ctx)
	return err
}

// SwitchTab shows tab. Switching to profiles or products clears the selected
// user.
func (c *Console) SwitchTab(ctx context.Context, tab Tab) error {
	if err := c.requireSession(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch tab {
	case TabProfiles, TabProducts:
		c.selectedUserID = ""
	case TabOrders:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	c.tab = tab
	return nil
}

// ViewUserOrders selects userID and shows the orders tab.
func (c *Console) ViewUserOrders(ctx context.Context, userID string) error {
	if err := c.requireSession(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedUserID = userID
	c.tab = TabOrders
	return nil
}

// SelectedOrders returns the orders of the selected user from the current
// snapshot. ok is false when no user is selected.
func (c *Console) SelectedOrders() (orders []entity.Order, ok bool) {
	c.mu.Lock()
	selected := c.selectedUserID
	c.mu.Unlock()

	if selected == "" {
		return nil, false
	}
	return state.OrdersForUser(c.store.Orders(), selected), true
}

// ProductView is a product with its image resolved to a public URL.
type ProductView struct {
	entity.Product
	ImageURL string `json:"image_url,omitempty"`
}

func (c *Console) Profiles() []entity.Profile {
	return c.store.Profiles()
}

func (c *Console) Products() []ProductView {
	products := c.store.Products()
	out := make([]ProductView, len(products))
	for i, p := range products {
		out[i] = ProductView{Product: p, ImageURL: c.products.ImageURL(p)}
	}
	return out
}

// View is a point-in-time copy of the console state.
type View struct {
	Loading            bool                              `json:"loading"`
	SignedIn           bool                              `json:"signed_in"`
	User               *auth.User                        `json:"user,omitempty"`
	AuthMode           AuthMode                          `json:"auth_mode"`
	AuthTitle          string                            `json:"auth_title"`
	AuthMessage        string                            `json:"auth_message,omitempty"`
	AuthMessageIsError bool                              `json:"auth_message_is_error"`
	Email              string                            `json:"email"`
	Tab                Tab                               `json:"tab"`
	SelectedUserID     string                            `json:"selected_user_id,omitempty"`
	NewOrder           entity.OrderDraft                 `json:"new_order"`
	NewProduct         entity.ProductDraft               `json:"new_product"`
	EditingProfile     *entity.ProfileEdit               `json:"editing_profile,omitempty"`
	EditingProduct     *entity.ProductEdit               `json:"editing_product,omitempty"`
	EditingOrder       *entity.OrderEdit                 `json:"editing_order,omitempty"`
	Status             map[state.Collection]state.Status `json:"status,omitempty"`
	OrderStatuses      []entity.OrderStatus              `json:"order_statuses"`
}

func (c *Console) View() View {
	status := c.store.Status()

	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Loading:        c.loading,
		SignedIn:       c.session != nil,
		AuthMode:       c.mode,
		AuthTitle:      "Sign In to Admin Dashboard",
		AuthMessage:    c.authMessage,
		Email:          c.email,
		Tab:            c.tab,
		SelectedUserID: c.selectedUserID,
		NewOrder:       c.newOrder,
		NewProduct:     c.newProduct,
		Status:         status,
		OrderStatuses:  entity.OrderStatuses,
	}
	if c.mode == ModeSignUp {
		v.AuthTitle = "Sign Up for Admin Access"
	}
	v.AuthMessageIsError = c.authFailed
	if c.session != nil {
		u := c.session.User
		v.User = &u
	}
	if c.editingProfile != nil {
		e := *c.editingProfile
		v.EditingProfile = &e
	}
	if c.editingProduct != nil {
		e := *c.editingProduct
		v.EditingProduct = &e
	}
	if c.editingOrder != nil {
		e := *c.editingOrder
		v.EditingOrder = &e
	}
	return v
}
