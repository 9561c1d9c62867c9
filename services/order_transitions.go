package services

import (
	"context"
	"time"

	"github.com/Amm-ar/delivero-backend/entity"
	"github.com/Amm-ar/delivero-backend/pkg/apperr"
	"github.com/Amm-ar/delivero-backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// transitionActor maps each driver/restaurant status to the role that
// may set it. Assignment is absent on purpose: it only happens through
// dispatch, never through a direct status update.
var transitionActor = map[entity.OrderStatus]string{
	entity.StatusConfirmed: entity.RoleOwner,
	entity.StatusPreparing: entity.RoleOwner,
	entity.StatusReady:     entity.RoleOwner,
	entity.StatusRejected:  entity.RoleOwner,
	entity.StatusPickedUp:  entity.RoleDriver,
	entity.StatusOnTheWay:  entity.RoleDriver,
	entity.StatusDelivered: entity.RoleDriver,
}

// UpdateStatus drives the order state machine. The authorization gate
// runs before the state-machine gate; the write itself is a conditional
// update keyed on the status the actor saw, so concurrent writers
// cannot silently drop a history entry.
func (s *OrderService) UpdateStatus(orderID uint, target entity.OrderStatus, actorRole string, actorID uint, note string) (*entity.Order, error) {
	if !target.Valid() {
		return nil, apperr.Newf(apperr.KindValidation, "unknown status %q", target)
	}
	if target == entity.StatusCancelled {
		return s.Cancel(orderID, actorRole, actorID, note)
	}

	o, err := s.Orders.GetOrder(orderID)
	if err != nil {
		return nil, notFoundOr(err, "order not found")
	}

	wantRole, settable := transitionActor[target]
	if !settable {
		return nil, apperr.Newf(apperr.KindForbidden, "status %q cannot be set directly", target)
	}
	if actorRole != wantRole {
		return nil, apperr.Newf(apperr.KindForbidden, "role %q may not set status %q", actorRole, target)
	}
	switch wantRole {
	case entity.RoleOwner:
		owned, err := s.Restaurants.IsOwnedBy(o.RestaurantID, actorID)
		if err != nil {
			return nil, err
		}
		if !owned {
			return nil, apperr.New(apperr.KindForbidden, "order belongs to another restaurant")
		}
	case entity.RoleDriver:
		d, err := s.Drivers.GetByUserID(actorID)
		if err != nil {
			return nil, notFoundOr(err, "no driver profile for this account")
		}
		if o.DriverID == nil || *o.DriverID != d.ID {
			return nil, apperr.New(apperr.KindForbidden, "order is not assigned to you")
		}
	}

	// Retried identical request by a permitted actor: already in the
	// target state, nothing to reapply and no duplicate history entry.
	// This runs after the authorization gates so a stranger replaying
	// the current status still gets Forbidden, not the order.
	if o.Status == target {
		return s.Orders.GetOrderDetail(orderID)
	}

	if !o.Status.CanTransitionTo(target) {
		return nil, apperr.Newf(apperr.KindInvalidTransition,
			"cannot transition from %q to %q", o.Status, target)
	}

	now := time.Now()
	extra := map[string]any{}
	switch target {
	case entity.StatusConfirmed:
		extra["accepted_at"] = now
	case entity.StatusReady:
		extra["prepared_at"] = now
	case entity.StatusPickedUp:
		extra["picked_up_at"] = now
	case entity.StatusDelivered:
		extra["delivered_at"] = now
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		affected, err := s.Orders.UpdateStatusGuard(tx, o.ID, o.Status, target, extra)
		if err != nil {
			return err
		}
		if affected == 0 {
			return apperr.New(apperr.KindConflict, "order was modified concurrently, re-read and retry")
		}
		if err := s.Orders.AppendHistory(tx, o.ID, target, note); err != nil {
			return err
		}

		if target == entity.StatusDelivered {
			if err := s.Orders.CompletePayment(tx, o.ID, now); err != nil {
				return err
			}
			if err := s.Restaurants.AddEarnings(tx, o.RestaurantID, o.RestaurantEarnings); err != nil {
				return err
			}
			if o.DriverID != nil {
				if err := s.Drivers.MarkDelivered(tx, *o.DriverID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out, err := s.Orders.GetOrderDetail(o.ID)
	if err != nil {
		return nil, err
	}

	// Capture the reserved amount once the food is in the customer's
	// hands. The order is already delivered and settled locally, so a
	// gateway hiccup here is logged, not surfaced.
	if target == entity.StatusDelivered && out.Payment != nil &&
		out.Payment.Method != entity.PaymentMethodCash && out.Payment.TransactionID != "" {
		if _, err := s.Gateway.Confirm(context.Background(), out.Payment.TransactionID); err != nil {
			logger.L().Warn("payment capture failed",
				zap.Uint("order_id", out.ID),
				zap.String("transaction_ref", out.Payment.TransactionID),
				zap.Error(err))
		}
	}

	s.Coord.StatusChanged(out)
	return out, nil
}

// Cancel ends a not-yet-delivered order. The payment record is left
// untouched; refunds are a separate, explicit operator action.
func (s *OrderService) Cancel(orderID uint, actorRole string, actorID uint, reason string) (*entity.Order, error) {
	o, err := s.Orders.GetOrder(orderID)
	if err != nil {
		return nil, notFoundOr(err, "order not found")
	}

	switch actorRole {
	case entity.RoleCustomer:
		if o.UserID != actorID {
			return nil, apperr.New(apperr.KindForbidden, "you may only cancel your own orders")
		}
	case entity.RoleOwner:
		owned, err := s.Restaurants.IsOwnedBy(o.RestaurantID, actorID)
		if err != nil {
			return nil, err
		}
		if !owned {
			return nil, apperr.New(apperr.KindForbidden, "order belongs to another restaurant")
		}
	case entity.RoleAdmin:
		// admins may cancel any order
	default:
		return nil, apperr.Newf(apperr.KindForbidden, "role %q may not cancel orders", actorRole)
	}

	if !o.Status.CanTransitionTo(entity.StatusCancelled) {
		return nil, apperr.Newf(apperr.KindInvalidTransition,
			"order in status %q can no longer be cancelled", o.Status)
	}

	now := time.Now()
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		affected, err := s.Orders.UpdateStatusGuard(tx, o.ID, o.Status, entity.StatusCancelled, map[string]any{
			"cancel_reason": reason,
			"cancelled_by":  actorRole,
			"cancelled_at":  now,
		})
		if err != nil {
			return err
		}
		if affected == 0 {
			return apperr.New(apperr.KindConflict, "order was modified concurrently, re-read and retry")
		}
		return s.Orders.AppendHistory(tx, o.ID, entity.StatusCancelled, reason)
	})
	if err != nil {
		return nil, err
	}

	out, err := s.Orders.GetOrderDetail(o.ID)
	if err != nil {
		return nil, err
	}
	s.Coord.StatusChanged(out)
	return out, nil
}
