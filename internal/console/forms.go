package console

import (
	"context"
	"fmt"

	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/entity"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/repository"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/service"
)

// --- Orders ---

// SubmitOrder stores draft as the order form and composes it. The form is
// reset to its defaults only when both the order and its item were written;
// otherwise it keeps the operator's input.
func (c *Console) SubmitOrder(ctx context.Context, draft entity.OrderDraft) (*service.Composition, error) {
	if err := c.requireSession(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.newOrder = draft
	c.mu.Unlock()

	result := c.composer.Compose(ctx, draft)
	if result.Succeeded() {
		c.mu.Lock()
		c.newOrder = entity.NewOrderDraft()
		c.mu.Unlock()
	}
	return result, nil
}

// EditOrder opens the order edit form prefilled from the snapshot.
func (c *Console) EditOrder(ctx context.Context, id string) (*entity.OrderEdit, error) {
	if err := c.requireSession(ctx); err != nil {
		return nil, err
	}
	for _, o := range c.store.Orders() {
		if o.ID == id {
			edit := entity.EditOrder(o)
			c.mu.Lock()
			c.editingOrder = &edit
			c.mu.Unlock()
			return &edit, nil
		}
	}
	return nil, fmt.Errorf("order %s: %w", id, repository.ErrNotFound)
}

// SaveOrder writes edit through the open order form. The form closes on
// success and keeps the input on failure.
func (c *Console) SaveOrder(ctx context.Context, edit entity.OrderEdit) error {
	if err := c.requireSession(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	if c.editingOrder == nil {
		c.mu.Unlock()
		return ErrNoOpenForm
	}
	edit.ID = c.editingOrder.ID
	c.editingOrder = &edit
	c.mu.Unlock()

	if err := c.orders.Update(ctx, edit); err != nil {
		return err
	}

	c.mu.Lock()
	if c.editingOrder != nil && c.editingOrder.ID == edit.ID {
		c.editingOrder = nil
	}
	c.mu.Unlock()
	return nil
}

func (c *Console) CancelOrderEdit() {
	c.mu.Lock()
	c.editingOrder = nil
	c.mu.Unlock()
}

func (c *Console) DeleteOrder(ctx context.Context, id string) error {
	if err := c.requireSession(ctx); err != nil {
		return err
	}
	return c.orders.Delete(ctx, id)
}

// --- Profiles ---

// EditProfile opens the profile edit form prefilled from the snapshot.
func (c *Console) EditProfile(ctx context.Context, id string) (*entity.ProfileEdit, error) {
	if err := c.requireSession(ctx); err != nil {
		return nil, err
	}
	for _, p := range c.store.Profiles() {
		if p.ID == id {
			edit := entity.EditProfile(p)
			c.mu.Lock()
			c.editingProfile = &edit
			c.mu.Unlock()
			return &edit, nil
		}
	}
	return nil, fmt.Errorf("profile %s: %w", id, repository.ErrNotFound)
}

// SaveProfile writes edit through the open profile form. The form closes on
// success and keeps the input on failure.
func (c *Console) SaveProfile(ctx context.Context, edit entity.ProfileEdit) error {
	if err := c.requireSession(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	if c.editingProfile == nil {
		c.mu.Unlock()
		return ErrNoOpenForm
	}
	edit.ID = c.editingProfile.ID
	c.editingProfile = &edit
	c.mu.Unlock()

	if err := c.profiles.Update(ctx, edit); err != nil {
		return err
	}

	c.mu.Lock()
	if c.editingProfile != nil && c.editingProfile.ID == edit.ID {
		c.editingProfile = nil
	}
	c.mu.Unlock()
	return nil
}

func (c *Console) CancelProfileEdit() {
	c.mu.Lock()
	c.editingProfile = nil
	c.mu.Unlock()
}

// DeleteProfile removes the profile. Only the profiles snapshot is
// refreshed, so the orders view keeps showing the user's orders until orders
// are next refreshed.
func (c *Console) DeleteProfile(ctx context.Context, id string) error {
	if err := c.requireSession(ctx); err != nil {
		return err
	}
	return c.profiles.Delete(ctx, id)
}

// --- Products ---

// CreateProduct stores draft as the product form and creates the product.
// The form is reset on success.
func (c *Console) CreateProduct(ctx context.Context, draft entity.ProductDraft) (*entity.Product, error) {
	if err := c.requireSession(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.newProduct = draft
	c.mu.Unlock()

	product, err := c.products.Create(ctx, draft)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.newProduct = entity.NewProductDraft()
	c.mu.Unlock()
	return product, nil
}

// EditProduct opens the product edit form prefilled from the snapshot.
func (c *Console) EditProduct(ctx context.Context, id string) (*entity.ProductEdit, error) {
	if err := c.requireSession(ctx); err != nil {
		return nil, err
	}
	for _, p := range c.store.Products() {
		if p.ID == id {
			edit := entity.EditProduct(p)
			c.mu.Lock()
			c.editingProduct = &edit
			c.mu.Unlock()
			return &edit, nil
		}
	}
	return nil, fmt.Errorf("product %s: %w", id, repository.ErrNotFound)
}

// SaveProduct writes edit through the open product form. The stored image
// path always comes from the open form; it changes only when edit carries a
// new file.
func (c *Console) SaveProduct(ctx context.Context, edit entity.ProductEdit) error {
	if err := c.requireSession(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	if c.editingProduct == nil {
		c.mu.Unlock()
		return ErrNoOpenForm
	}
	edit.ID = c.editingProduct.ID
	edit.ImagePath = c.editingProduct.ImagePath
	c.editingProduct = &edit
	c.mu.Unlock()

	if err := c.products.Update(ctx, edit); err != nil {
		return err
	}

	c.mu.Lock()
	if c.editingProduct != nil && c.editingProduct.ID == edit.ID {
		c.editingProduct = nil
	}
	c.mu.Unlock()
	return nil
}

func (c *Console) CancelProductEdit() {
	c.mu.Lock()
	c.editingProduct = nil
	c.mu.Unlock()
}

func (c *Console) DeleteProduct(ctx context.Context, id string) error {
	if err := c.requireSession(ctx); err != nil {
		return err
	}
	return c.products.Delete(ctx, id)
}
