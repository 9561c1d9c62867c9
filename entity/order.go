package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Order struct {
	gorm.Model
	// Human-readable identifier, assigned once at creation.
	OrderNumber string `gorm:"uniqueIndex;not null" json:"orderNumber"`

	UserID uint `json:"userId"`
	User   User `json:"-"`

	RestaurantID uint       `json:"restaurantId"`
	Restaurant   Restaurant `json:"-"`

	// Null until dispatch assigns a driver; at most one driver ever.
	DriverID *uint   `json:"driverId,omitempty"`
	Driver   *Driver `json:"-"`

	// Pricing snapshot, immutable after creation.
	Subtotal           decimal.Decimal `gorm:"type:decimal(12,2)" json:"subtotal"`
	DeliveryFee        decimal.Decimal `gorm:"type:decimal(12,2)" json:"deliveryFee"`
	ServiceFee         decimal.Decimal `gorm:"type:decimal(12,2)" json:"serviceFee"`
	Tax                decimal.Decimal `gorm:"type:decimal(12,2)" json:"tax"`
	Discount           decimal.Decimal `gorm:"type:decimal(12,2)" json:"discount"`
	Total              decimal.Decimal `gorm:"type:decimal(12,2)" json:"total"`
	PlatformCommission decimal.Decimal `gorm:"type:decimal(12,2)" json:"platformCommission"`
	RestaurantEarnings decimal.Decimal `gorm:"type:decimal(12,2)" json:"restaurantEarnings"`
	DriverEarnings     decimal.Decimal `gorm:"type:decimal(12,2)" json:"driverEarnings"`
	SurgeApplied       bool            `json:"surgeApplied"`
	SurgeMultiplier    decimal.Decimal `gorm:"type:decimal(5,2)" json:"surgeMultiplier"`

	Address    string  `json:"address"`
	AddressLat float64 `json:"addressLat"`
	AddressLng float64 `json:"addressLng"`

	Status OrderStatus `gorm:"type:varchar(20);index;default:pending" json:"status"`

	// Milestones stamped by the matching transition.
	AcceptedAt  *time.Time `json:"acceptedAt,omitempty"`
	PreparedAt  *time.Time `json:"preparedAt,omitempty"`
	PickedUpAt  *time.Time `json:"pickedUpAt,omitempty"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`

	CancelReason string     `json:"cancelReason,omitempty"`
	CancelledBy  string     `json:"cancelledBy,omitempty"` // actor role
	CancelledAt  *time.Time `json:"cancelledAt,omitempty"`

	OrderItems []OrderItem     `json:"items,omitempty"`
	Payment    *Payment        `json:"payment,omitempty"`
	History    []StatusHistory `gorm:"foreignKey:OrderID" json:"history,omitempty"`
}
