package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/entity"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/messaging"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/repository"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/state"
)

// Composition is the outcome of composing an order and its line item.
//
// The two inserts are not atomic. ParentCreated without ItemCreated means
// the order row exists with no items; it is reported and left in place.
type Composition struct {
	ParentCreated bool
	ItemCreated   bool
	Order         *entity.Order
	Item          *entity.OrderItem
	Err           error
}

// Succeeded reports whether both rows were written.
func (c *Composition) Succeeded() bool {
	return c.ParentCreated && c.ItemCreated
}

// Orphaned reports whether the parent order was written without its item.
func (c *Composition) Orphaned() bool {
	return c.ParentCreated && !c.ItemCreated
}

// OrderComposer creates an order and its single line item in two
// sequential writes.
type OrderComposer struct {
	orders    repository.OrderRepository
	items     repository.OrderItemRepository
	refresher state.Refresher
	publisher messaging.Publisher
	now       func() time.Time
}

func NewOrderComposer(
	orders repository.OrderRepository,
	items repository.OrderItemRepository,
	refresher state.Refresher,
	publisher messaging.Publisher,
) *OrderComposer {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &OrderComposer{
		orders:    orders,
		items:     items,
		refresher: refresher,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Compose validates the draft, inserts the parent order, then inserts the
// item bound to the returned order id. Orders are refreshed only when both
// writes succeed. Once started, a composition is not cancelled with ctx, so
// a caller going away cannot split the two writes.
func (c *OrderComposer) Compose(ctx context.Context, draft entity.OrderDraft) *Composition {
	if err := draft.Validate(); err != nil {
		return &Composition{Err: err}
	}
	ctx = context.WithoutCancel(ctx)

	slog.Info("Service: Composing order", "user_id", draft.UserID, "product_id", draft.ProductID, "quantity", draft.Quantity)

	order, err := c.orders.Insert(ctx, draft.Order())
	if err != nil {
		slog.Error("Service: Order insert failed", "user_id", draft.UserID, "err", err)
		return &Composition{Err: err}
	}

	result := &Composition{ParentCreated: true, Order: order}

	item, err := c.items.Insert(ctx, draft.Item(order.ID))
	if err != nil {
		result.Err = err
		slog.Error("Service: Item insert failed, order left without items",
			"order_id", order.ID,
			"user_id", order.UserID,
			"product_id", draft.ProductID,
			"err", err,
		)
		c.publish(ctx, messaging.TopicOrdersOrphaned, order.ID, entity.OrderOrphaned{
			OrderID:    order.ID,
			UserID:     order.UserID,
			ProductID:  draft.ProductID,
			Reason:     err.Error(),
			OrphanedAt: c.now(),
		})
		return result
	}

	result.ItemCreated = true
	result.Item = item
	order.Items = append(order.Items, *item)

	refreshAfterWrite(ctx, c.refresher, state.Orders)

	c.publish(ctx, messaging.TopicOrdersComposed, order.ID, entity.OrderComposed{
		OrderID:     order.ID,
		UserID:      order.UserID,
		ItemID:      item.ID,
		TotalAmount: order.TotalAmount,
		ComposedAt:  c.now(),
	})

	slog.Info("Service: Order composed", "order_id", order.ID, "item_id", item.ID)
	return result
}

func (c *OrderComposer) publish(ctx context.Context, topic, key string, event entity.Event) {
	if err := c.publisher.PublishEvent(ctx, topic, key, event); err != nil {
		slog.Error("Failed to publish "+event.EventType(), "topic", topic, "key", key, "err", err)
	}
}

// refreshAfterWrite refetches the collection a write touched. A failed
// refresh is logged by the store and does not fail the write.
func refreshAfterWrite(ctx context.Context, r state.Refresher, c state.Collection) {
	if err := r.Refresh(ctx, c); err != nil {
		slog.Warn("Service: Write succeeded but refresh failed", "collection", c, "err", err)
	}
}
