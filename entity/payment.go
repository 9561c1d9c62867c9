package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PaymentMethodCash   = "cash"
	PaymentMethodCard   = "card"
	PaymentMethodWallet = "wallet"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodWallet:
		return true
	}
	return false
}

type Payment struct {
	gorm.Model
	Method string          `json:"method"`
	Status string          `gorm:"default:pending" json:"status"`
	Amount decimal.Decimal `gorm:"type:decimal(12,2)" json:"amount"`

	// Reference issued by the external gateway; empty for cash.
	TransactionID string     `json:"transactionId,omitempty"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`

	OrderID uint  `gorm:"uniqueIndex" json:"orderId"`
	Order   Order `json:"-"`
}
