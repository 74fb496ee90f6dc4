package main

import (
	"github.com/shopspring/decimal"

	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/entity"
)

// seedCatalogue is loaded into an empty catalogue at startup.
func seedCatalogue() []entity.Product {
	return []entity.Product{
		{
			ID:            "prod-001",
			Name:          "Classic Cotton Tee",
			Description:   "Everyday crew neck shirt",
			Price:         decimal.RequireFromString("125.00"),
			StockQuantity: 50,
			Color:         "White",
		},
		{
			ID:            "prod-002",
			Name:          "Denim Jacket",
			Description:   "Mid-wash denim with brass buttons",
			Price:         decimal.RequireFromString("1499.00"),
			StockQuantity: 12,
			Color:         "Blue",
		},
		{
			ID:            "prod-003",
			Name:          "Canvas Tote",
			Description:   "Heavy canvas shopping bag",
			Price:         decimal.RequireFromString("349.50"),
			StockQuantity: 30,
			Color:         "Natural",
		},
	}
}
