package state

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/entity"
)

func TestOrdersForUser(t *testing.T) {
	orders := []entity.Order{
		{ID: "o1", UserID: "u1"},
		{ID: "o2", UserID: "u2"},
		{ID: "o3", UserID: "u1"},
	}

	tests := []struct {
		name    string
		userID  string
		wantIDs []string
	}{
		{"no selection", "", nil},
		{"user with orders", "u1", []string{"o1", "o3"}},
		{"user without orders", "u3", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OrdersForUser(orders, tt.userID)
			if tt.wantIDs == nil {
				assert.Nil(t, got)
				return
			}
			ids := []string{}
			for _, o := range got {
				ids = append(ids, o.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}
