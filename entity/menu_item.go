package entity

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MenuItem struct {
	gorm.Model
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`
	IsAvailable bool            `gorm:"default:true" json:"isAvailable"`

	RestaurantID uint       `json:"restaurantId"`
	Restaurant   Restaurant `json:"-"`

	Options []MenuOption `json:"options"`
}

// MenuOption is a selectable customization, priced as a delta on top of
// the item price (zero for free choices).
type MenuOption struct {
	gorm.Model
	Name  string          `json:"name"`
	Price decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`

	MenuItemID uint     `json:"menuItemId"`
	MenuItem   MenuItem `json:"-"`
}
