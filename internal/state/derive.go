package state

import "github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/entity"

// OrdersForUser returns the orders placed by userID in snapshot order. It
// returns nil when no user is selected.
func OrdersForUser(orders []entity.Order, userID string) []entity.Order {
	if userID == "" {
		return nil
	}
	out := []entity.Order{}
	for _, o := range orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out
}
