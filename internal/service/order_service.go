package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/entity"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/repository"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/state"
)

// OrderService edits and deletes existing orders. Creation goes through
// OrderComposer.
type OrderService struct {
	orderRepo repository.OrderRepository
	refresher state.Refresher
}

func NewOrderService(orderRepo repository.OrderRepository, refresher state.Refresher) *OrderService {
	return &OrderService{orderRepo: orderRepo, refresher: refresher}
}

// Update writes status, total, shipping address and payment method. The
// status is validated before the write.
func (s *OrderService) Update(ctx context.Context, edit entity.OrderEdit) error {
	if err := edit.Validate(); err != nil {
		return err
	}

	slog.Info("Service: Updating order", "order_id", edit.ID, "status", edit.Status)
	if err := s.orderRepo.Update(ctx, edit.ID, edit.OrderUpdate); err != nil {
		return fmt.Errorf("failed to update order %s: %w", edit.ID, err)
	}

	refreshAfterWrite(ctx, s.refresher, state.Orders)
	return nil
}

// Delete removes the order and, through the store, its items.
func (s *OrderService) Delete(ctx context.Context, id string) error {
	slog.Info("Service: Deleting order", "order_id", id)
	if err := s.orderRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete order %s: %w", id, err)
	}

	refreshAfterWrite(ctx, s.refresher, state.Orders)
	return nil
}
