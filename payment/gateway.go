// Package payment defines the boundary to the external payment
// provider. The core only stores the transaction reference and status;
// gateway protocol details live behind this interface.
package payment

import (
	"context"
	"fmt"

	"github.com/Amm-ar/delivero-backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Gateway interface {
	// Authorize reserves the amount against the order and returns the
	// provider's transaction reference.
	Authorize(ctx context.Context, amount decimal.Decimal, orderRef string) (string, error)
	// Confirm captures a previously authorized transaction.
	Confirm(ctx context.Context, transactionRef string) (string, error)
	// Refund reverses a transaction, fully when amount is nil.
	Refund(ctx context.Context, transactionRef string, amount *decimal.Decimal) (string, error)
}

// MockGateway is the in-process stand-in used in development and tests.
// Every call succeeds and returns a fresh reference.
type MockGateway struct{}

func NewMockGateway() *MockGateway { return &MockGateway{} }

func (g *MockGateway) Authorize(_ context.Context, amount decimal.Decimal, orderRef string) (string, error) {
	ref := "txn_" + uuid.NewString()
	logger.L().Info("payment authorized",
		zap.String("order_ref", orderRef),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("transaction_ref", ref))
	return ref, nil
}

func (g *MockGateway) Confirm(_ context.Context, transactionRef string) (string, error) {
	logger.L().Info("payment confirmed", zap.String("transaction_ref", transactionRef))
	return "completed", nil
}

func (g *MockGateway) Refund(_ context.Context, transactionRef string, amount *decimal.Decimal) (string, error) {
	if transactionRef == "" {
		return "", fmt.Errorf("refund: empty transaction ref")
	}
	ref := "rfn_" + uuid.NewString()
	fields := []zap.Field{
		zap.String("transaction_ref", transactionRef),
		zap.String("refund_ref", ref),
	}
	if amount != nil {
		fields = append(fields, zap.String("amount", amount.StringFixed(2)))
	}
	logger.L().Info("payment refunded", fields...)
	return ref, nil
}
