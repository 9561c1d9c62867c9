package entity

import (
	"gorm.io/gorm"
)

// StatusHistory is the append-only audit trail of every status an order
// has passed through. Exactly one row per accepted transition; the
// timestamp is CreatedAt.
type StatusHistory struct {
	gorm.Model
	OrderID uint        `gorm:"index" json:"orderId"`
	Status  OrderStatus `gorm:"type:varchar(20)" json:"status"`
	Note    string      `json:"note,omitempty"`
}
