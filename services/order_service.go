package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Amm-ar/delivero-backend/entity"
	"github.com/Amm-ar/delivero-backend/payment"
	"github.com/Amm-ar/delivero-backend/pkg/apperr"
	"github.com/Amm-ar/delivero-backend/pricing"
	"github.com/Amm-ar/delivero-backend/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderService struct {
	DB          *gorm.DB
	Orders      *repository.OrderRepository
	Restaurants *repository.RestaurantRepository
	Menus       *repository.MenuRepository
	Drivers     *repository.DriverRepository
	Gateway     payment.Gateway
	Coord       *Coordinator

	Pricing pricing.Params
	// IsSurgeTime decides whether the surge multiplier applies at a
	// given moment; injected so the service stays clock-testable.
	IsSurgeTime func(time.Time) bool
}

func NewOrderService(
	db *gorm.DB,
	orders *repository.OrderRepository,
	restaurants *repository.RestaurantRepository,
	menus *repository.MenuRepository,
	drivers *repository.DriverRepository,
	gateway payment.Gateway,
	coord *Coordinator,
	params pricing.Params,
	isSurgeTime func(time.Time) bool,
) *OrderService {
	if isSurgeTime == nil {
		isSurgeTime = func(time.Time) bool { return false }
	}
	return &OrderService{
		DB:          db,
		Orders:      orders,
		Restaurants: restaurants,
		Menus:       menus,
		Drivers:     drivers,
		Gateway:     gateway,
		Coord:       coord,
		Pricing:     params,
		IsSurgeTime: isSurgeTime,
	}
}

// ----- DTOs from controllers -----

type PlaceOrderItem struct {
	MenuItemID uint
	Quantity   int
	OptionIDs  []uint
}

type PlaceOrderInput struct {
	RestaurantID  uint
	Items         []PlaceOrderItem
	Address       string
	Lat           float64
	Lng           float64
	PaymentMethod string
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(apperr.KindNotFound, msg)
	}
	return err
}

// newOrderNumber builds the human-readable identifier, e.g.
// DLV-20250901-7F3A2C. Assigned exactly once, at creation.
func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:6])
	return "DLV-" + now.Format("20060102") + "-" + suffix
}

// Place validates the request, prices it, and persists the order in
// pending state. Business rules run before anything is written: a
// rejected placement leaves no trace.
func (s *OrderService) Place(ctx context.Context, userID uint, in PlaceOrderInput) (*entity.Order, error) {
	if len(in.Items) == 0 {
		return nil, apperr.New(apperr.KindValidation, "order must contain at least one item")
	}
	if in.Address == "" {
		return nil, apperr.New(apperr.KindValidation, "delivery address is required")
	}
	if !entity.ValidPaymentMethod(in.PaymentMethod) {
		return nil, apperr.Newf(apperr.KindValidation, "unknown payment method %q", in.PaymentMethod)
	}
	for _, it := range in.Items {
		if it.Quantity < 1 {
			return nil, apperr.New(apperr.KindValidation, "item quantity must be at least 1")
		}
	}

	rest, err := s.Restaurants.Get(in.RestaurantID)
	if err != nil {
		return nil, notFoundOr(err, "restaurant not found")
	}
	if !rest.IsActive || !rest.IsOpen {
		return nil, apperr.New(apperr.KindBusinessRule, "restaurant is not accepting orders")
	}

	// Snapshot every line: name and price are frozen at placement.
	pricingItems := make([]pricing.Item, 0, len(in.Items))
	lines := make([]entity.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		m, err := s.Menus.GetItem(it.MenuItemID)
		if err != nil {
			return nil, notFoundOr(err, "menu item not found")
		}
		if m.RestaurantID != in.RestaurantID {
			return nil, apperr.New(apperr.KindValidation, "menu item does not belong to this restaurant")
		}
		if !m.IsAvailable {
			return nil, apperr.Newf(apperr.KindBusinessRule, "menu item %q is unavailable", m.Name)
		}

		optByID := make(map[uint]entity.MenuOption, len(m.Options))
		for _, op := range m.Options {
			optByID[op.ID] = op
		}

		pi := pricing.Item{UnitPrice: m.Price, Quantity: it.Quantity}
		line := entity.OrderItem{
			Name:       m.Name,
			Quantity:   it.Quantity,
			UnitPrice:  m.Price,
			MenuItemID: m.ID,
		}
		for _, optID := range it.OptionIDs {
			op, ok := optByID[optID]
			if !ok {
				return nil, apperr.Newf(apperr.KindValidation, "option %d not available for item %q", optID, m.Name)
			}
			pi.OptionPrices = append(pi.OptionPrices, op.Price)
			line.Selections = append(line.Selections, entity.OrderItemSelection{
				Name:         op.Name,
				Price:        op.Price,
				MenuOptionID: op.ID,
			})
		}
		line.Subtotal = pricing.ItemSubtotal(pi)

		pricingItems = append(pricingItems, pi)
		lines = append(lines, line)
	}

	now := time.Now()
	isSurge := s.IsSurgeTime(now)

	params := s.Pricing
	if rest.CommissionRate.IsPositive() {
		params.CommissionRate = rest.CommissionRate
	}
	snap := pricing.Compute(pricingItems, rest.DeliveryFee, isSurge, params)

	if snap.Subtotal.LessThan(rest.MinOrderAmount) {
		return nil, apperr.Newf(apperr.KindBusinessRule,
			"subtotal %s is below the restaurant minimum of %s",
			snap.Subtotal.StringFixed(2), rest.MinOrderAmount.StringFixed(2))
	}

	orderNumber := newOrderNumber(now)

	// Non-cash payments are reserved with the gateway before anything
	// is persisted; a declined authorization leaves no order behind.
	transactionID := ""
	if in.PaymentMethod != entity.PaymentMethodCash {
		transactionID, err = s.Gateway.Authorize(ctx, snap.Total, orderNumber)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindBusinessRule, "payment authorization failed", err)
		}
	}

	multiplier := decimal.NewFromInt(1)
	if isSurge {
		multiplier = params.SurgeMultiplier
	}

	order := entity.Order{
		OrderNumber:        orderNumber,
		UserID:             userID,
		RestaurantID:       rest.ID,
		Subtotal:           snap.Subtotal,
		DeliveryFee:        snap.DeliveryFee,
		ServiceFee:         snap.ServiceFee,
		Tax:                snap.Tax,
		Discount:           snap.Discount,
		Total:              snap.Total,
		PlatformCommission: snap.PlatformCommission,
		RestaurantEarnings: snap.RestaurantEarnings,
		DriverEarnings:     snap.DriverEarnings,
		SurgeApplied:       isSurge,
		SurgeMultiplier:    multiplier,
		Address:            in.Address,
		AddressLat:         in.Lat,
		AddressLng:         in.Lng,
		Status:             entity.StatusPending,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.Orders.CreateOrder(tx, &order); err != nil {
			return err
		}
		for i := range lines {
			lines[i].OrderID = order.ID
			if err := s.Orders.CreateOrderItem(tx, &lines[i]); err != nil {
				return err
			}
		}
		p := entity.Payment{
			Method:        in.PaymentMethod,
			Status:        entity.PaymentPending,
			Amount:        snap.Total,
			TransactionID: transactionID,
			OrderID:       order.ID,
		}
		if err := s.Orders.CreatePayment(tx, &p); err != nil {
			return err
		}
		return s.Orders.AppendHistory(tx, order.ID, entity.StatusPending, "order placed")
	})
	if err != nil {
		return nil, err
	}

	out, err := s.Orders.GetOrderDetail(order.ID)
	if err != nil {
		return nil, err
	}
	s.Coord.OrderPlaced(out, rest.UserID)
	return out, nil
}

// CanAccess reports whether the actor may read the order.
func (s *OrderService) CanAccess(userID uint, role string, o *entity.Order) (bool, error) {
	switch role {
	case entity.RoleAdmin:
		return true, nil
	case entity.RoleCustomer:
		return o.UserID == userID, nil
	case entity.RoleOwner:
		return s.Restaurants.IsOwnedBy(o.RestaurantID, userID)
	case entity.RoleDriver:
		d, err := s.Drivers.GetByUserID(userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, err
		}
		return o.DriverID != nil && *o.DriverID == d.ID, nil
	}
	return false, nil
}

// Detail returns the full order if the actor is allowed to see it.
func (s *OrderService) Detail(userID uint, role string, orderID uint) (*entity.Order, error) {
	o, err := s.Orders.GetOrderDetail(orderID)
	if err != nil {
		return nil, notFoundOr(err, "order not found")
	}
	ok, err := s.CanAccess(userID, role, o)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.New(apperr.KindForbidden, "you do not have access to this order")
	}
	return o, nil
}

// History returns the audit trail, guarded like Detail.
func (s *OrderService) History(userID uint, role string, orderID uint) ([]entity.StatusHistory, error) {
	o, err := s.Orders.GetOrder(orderID)
	if err != nil {
		return nil, notFoundOr(err, "order not found")
	}
	ok, err := s.CanAccess(userID, role, o)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.New(apperr.KindForbidden, "you do not have access to this order")
	}
	return s.Orders.GetHistory(orderID)
}

type OrderListOut struct {
	Items []entity.Order `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// List is role-scoped: customers see their own orders, owners their
// restaurant's, drivers their deliveries, admins everything.
func (s *OrderService) List(userID uint, role string, f repository.ListFilter) (*OrderListOut, error) {
	if f.Status != nil && !f.Status.Valid() {
		return nil, apperr.Newf(apperr.KindValidation, "unknown status %q", *f.Status)
	}

	var (
		items []entity.Order
		total int64
		err   error
	)
	switch role {
	case entity.RoleCustomer:
		items, total, err = s.Orders.ListForCustomer(userID, f)
	case entity.RoleOwner:
		rest, rerr := s.Restaurants.GetByOwner(userID)
		if rerr != nil {
			return nil, notFoundOr(rerr, "no restaurant registered for this account")
		}
		items, total, err = s.Orders.ListForRestaurant(rest.ID, f)
	case entity.RoleDriver:
		d, derr := s.Drivers.GetByUserID(userID)
		if derr != nil {
			return nil, notFoundOr(derr, "no driver profile for this account")
		}
		items, total, err = s.Orders.ListForDriver(d.ID, f)
	case entity.RoleAdmin:
		items, total, err = s.Orders.ListAll(f)
	default:
		return nil, apperr.New(apperr.KindForbidden, "unknown role")
	}
	if err != nil {
		return nil, err
	}

	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 20
	}
	return &OrderListOut{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// Refund is the explicit operator action against the payment gateway;
// it is never triggered automatically by cancellation.
func (s *OrderService) Refund(ctx context.Context, orderID uint, amount *decimal.Decimal) (string, error) {
	p, err := s.Orders.GetPayment(orderID)
	if err != nil {
		return "", notFoundOr(err, "no payment record for this order")
	}
	if p.Method == entity.PaymentMethodCash || p.TransactionID == "" {
		return "", apperr.New(apperr.KindBusinessRule, "order has no refundable gateway transaction")
	}
	if p.Status == entity.PaymentRefunded {
		return "", apperr.New(apperr.KindBusinessRule, "payment already refunded")
	}

	ref, err := s.Gateway.Refund(ctx, p.TransactionID, amount)
	if err != nil {
		return "", apperr.Wrap(apperr.KindBusinessRule, "gateway refund failed", err)
	}
	if err := s.Orders.MarkPaymentRefunded(orderID); err != nil {
		return "", err
	}
	return ref, nil
}
