package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/entity"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/messaging"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/repository"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/repository/memory"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/service"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/state"
)

type published struct {
	topic string
	key   string
	event any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) PublishEvent(ctx context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{topic: topic, key: key, event: event})
	return p.err
}

var _ messaging.Publisher = (*recordingPublisher)(nil)

type failingBlobs struct {
	repository.BlobStore
}

func (failingBlobs) Upload(ctx context.Context, bucket, name, contentType string, data []byte) (string, error) {
	return "", errors.New("bucket not found")
}

type countingRefresher struct {
	store *state.Store
	mu    sync.Mutex
	calls []state.Collection
}

func (r *countingRefresher) Refresh(ctx context.Context, c state.Collection) error {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
	return r.store.Refresh(ctx, c)
}

type fixture struct {
	db        *memory.DB
	store     *state.Store
	refresher *countingRefresher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.NewDB()
	require.NoError(t, db.InsertProfile(entity.Profile{ID: "u1", Username: "alice"}))
	db.SeedProducts(entity.Product{ID: "p1", Name: "Shirt", Price: decimal.RequireFromString("125.00"), StockQuantity: 10})

	store := state.NewStore(db.Profiles(), db.Products(), db.Orders())
	require.NoError(t, store.RefreshAll(context.Background()))
	return &fixture{db: db, store: store, refresher: &countingRefresher{store: store}}
}

func (f *fixture) composer(pub messaging.Publisher) *service.OrderComposer {
	return service.NewOrderComposer(f.db.Orders(), f.db.OrderItems(), f.refresher, pub)
}

func draft(userID, productID string) entity.OrderDraft {
	d := entity.NewOrderDraft()
	d.UserID = userID
	d.TotalAmount = decimal.RequireFromString("250.00")
	d.ShippingAddress = "12 Rizal St"
	d.ProductID = productID
	d.Quantity = 2
	d.PriceAtPurchase = decimal.RequireFromString("125.00")
	d.ProductSize = "M"
	return d
}

func TestOrderComposer_ComposesOrderWithItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pub := &recordingPublisher{}

	result := f.composer(pub).Compose(ctx, draft("u1", "p1"))
	require.NoError(t, result.Err)
	assert.True(t, result.Succeeded())
	assert.False(t, result.Orphaned())
	assert.Equal(t, entity.OrderStatusPending, result.Order.Status)
	assert.Equal(t, result.Order.ID, result.Item.OrderID)

	orders := state.OrdersForUser(f.store.Orders(), "u1")
	require.Len(t, orders, 1)
	o := orders[0]
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("250.00")))
	assert.Equal(t, entity.DefaultPaymentMethod, o.PaymentMethod)
	assert.Equal(t, entity.OrderStatusPending, o.Status)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "p1", o.Items[0].ProductID)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.True(t, o.Items[0].PriceAtPurchase.Equal(decimal.RequireFromString("125.00")))

	assert.Equal(t, []state.Collection{state.Orders}, f.refresher.calls)

	require.Len(t, pub.events, 1)
	assert.Equal(t, messaging.TopicOrdersComposed, pub.events[0].topic)
	assert.Equal(t, result.Order.ID, pub.events[0].key)
}

func TestOrderComposer_ItemFailureLeavesOrphan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pub := &recordingPublisher{}

	result := f.composer(pub).Compose(ctx, draft("u1", "missing-product"))
	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, repository.ErrForeignKey)
	assert.True(t, result.ParentCreated)
	assert.False(t, result.ItemCreated)
	assert.True(t, result.Orphaned())
	assert.Nil(t, result.Item)

	assert.Empty(t, f.refresher.calls, "no refresh after a failed composition")
	assert.Empty(t, f.store.Orders())

	// The parent is in the store with no items and shows up on the next refresh.
	require.NoError(t, f.store.Refresh(ctx, state.Orders))
	orders := f.store.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, result.Order.ID, orders[0].ID)
	assert.Empty(t, orders[0].Items)

	require.Len(t, pub.events, 1)
	assert.Equal(t, messaging.TopicOrdersOrphaned, pub.events[0].topic)
	orphan, ok := pub.events[0].event.(entity.OrderOrphaned)
	require.True(t, ok)
	assert.Equal(t, "missing-product", orphan.ProductID)
}

func TestOrderComposer_ParentFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pub := &recordingPublisher{}

	result := f.composer(pub).Compose(ctx, draft("no-such-user", "p1"))
	require.Error(t, result.Err)
	assert.False(t, result.ParentCreated)
	assert.False(t, result.ItemCreated)
	assert.False(t, result.Orphaned())

	orders, err := f.db.Orders().FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, pub.events)
	assert.Empty(t, f.refresher.calls)
}

func TestOrderComposer_ValidationRunsBeforeWrites(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*entity.OrderDraft)
		wantErr error
	}{
		{"missing user", func(d *entity.OrderDraft) { d.UserID = "" }, entity.ErrMissingField},
		{"zero quantity", func(d *entity.OrderDraft) { d.Quantity = 0 }, entity.ErrInvalidQuantity},
		{"negative total", func(d *entity.OrderDraft) { d.TotalAmount = decimal.NewFromInt(-1) }, entity.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			d := draft("u1", "p1")
			tt.mutate(&d)

			result := f.composer(nil).Compose(context.Background(), d)
			assert.ErrorIs(t, result.Err, tt.wantErr)
			assert.False(t, result.ParentCreated)

			orders, err := f.db.Orders().FindAll(context.Background())
			require.NoError(t, err)
			assert.Empty(t, orders)
		})
	}
}

func TestOrderComposer_PublishFailureDoesNotChangeOutcome(t *testing.T) {
	f := newFixture(t)
	pub := &recordingPublisher{err: errors.New("broker down")}

	result := f.composer(pub).Compose(context.Background(), draft("u1", "p1"))
	require.NoError(t, result.Err)
	assert.True(t, result.Succeeded())
}

func TestOrderComposer_RetryAfterOrphanCreatesSecondParent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	composer := f.composer(nil)

	first := composer.Compose(ctx, draft("u1", "missing-product"))
	require.True(t, first.Orphaned())

	second := composer.Compose(ctx, draft("u1", "p1"))
	require.True(t, second.Succeeded())
	assert.NotEqual(t, first.Order.ID, second.Order.ID)

	assert.Len(t, state.OrdersForUser(f.store.Orders(), "u1"), 2)
}

// cancelAfterInsert cancels the caller's context as soon as the parent order
// is written.
type cancelAfterInsert struct {
	repository.OrderRepository
	cancel context.CancelFunc
}

func (r *cancelAfterInsert) Insert(ctx context.Context, order entity.NewOrder) (*entity.Order, error) {
	o, err := r.OrderRepository.Insert(ctx, order)
	r.cancel()
	return o, err
}

// contextAwareItems fails like database/sql does once ctx is done.
type contextAwareItems struct {
	repository.OrderItemRepository
}

func (r contextAwareItems) Insert(ctx context.Context, item entity.NewOrderItem) (*entity.OrderItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.OrderItemRepository.Insert(ctx, item)
}

func TestOrderComposer_CallerCancellationDoesNotSplitWrites(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	composer := service.NewOrderComposer(
		&cancelAfterInsert{OrderRepository: f.db.Orders(), cancel: cancel},
		contextAwareItems{OrderItemRepository: f.db.OrderItems()},
		f.refresher,
		nil,
	)

	result := composer.Compose(ctx, draft("u1", "p1"))
	require.NoError(t, result.Err)
	assert.Error(t, ctx.Err(), "caller context was cancelled mid-composition")
	assert.True(t, result.ParentCreated)
	assert.True(t, result.ItemCreated)
	assert.False(t, result.Orphaned())

	orders := state.OrdersForUser(f.store.Orders(), "u1")
	require.Len(t, orders, 1)
	assert.Len(t, orders[0].Items, 1)
}
