package entity

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderItem snapshots name and price at placement time so later menu
// edits never change a placed order.
type OrderItem struct {
	gorm.Model
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2)" json:"unitPrice"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2)" json:"subtotal"`

	OrderID uint  `json:"orderId"`
	Order   Order `json:"-"`

	MenuItemID uint     `json:"menuItemId"`
	MenuItem   MenuItem `json:"-"`

	Selections []OrderItemSelection `json:"selections,omitempty"`
}

type OrderItemSelection struct {
	gorm.Model
	Name  string          `json:"name"`
	Price decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`

	OrderItemID  uint       `json:"orderItemId"`
	MenuOptionID uint       `json:"menuOptionId"`
	MenuOption   MenuOption `json:"-"`
}
