package entity

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Restaurant struct {
	gorm.Model
	Name    string `json:"name"`
	Address string `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`

	DeliveryFee    decimal.Decimal `gorm:"type:decimal(12,2)" json:"deliveryFee"`
	MinOrderAmount decimal.Decimal `gorm:"type:decimal(12,2)" json:"minOrderAmount"`
	// Fraction of the subtotal retained by the platform, e.g. 0.20.
	CommissionRate decimal.Decimal `gorm:"type:decimal(5,4)" json:"commissionRate"`

	IsOpen   bool `gorm:"default:true" json:"isOpen"`
	IsActive bool `gorm:"default:true" json:"isActive"`

	// Rolled up on delivery, never recomputed retroactively.
	TotalEarnings decimal.Decimal `gorm:"type:decimal(14,2)" json:"totalEarnings"`
	TotalOrders   int64           `json:"totalOrders"`

	UserID uint `json:"userId"` // owner
	User   User `json:"-"`

	MenuItems []MenuItem `json:"-"`
	Orders    []Order    `json:"-"`
}
