package repository

import (
	"time"

	"github.com/Amm-ar/delivero-backend/entity"

	"gorm.io/gorm"
)

type OrderRepository struct {
	DB *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{DB: db}
}

// ---------------- Create ----------------

func (r *OrderRepository) CreateOrder(tx *gorm.DB, o *entity.Order) error {
	return tx.Create(o).Error
}

func (r *OrderRepository) CreateOrderItem(tx *gorm.DB, oi *entity.OrderItem) error {
	return tx.Create(oi).Error
}

func (r *OrderRepository) CreatePayment(tx *gorm.DB, p *entity.Payment) error {
	return tx.Create(p).Error
}

// AppendHistory writes one audit-trail row for an accepted transition.
func (r *OrderRepository) AppendHistory(tx *gorm.DB, orderID uint, status entity.OrderStatus, note string) error {
	return tx.Create(&entity.StatusHistory{OrderID: orderID, Status: status, Note: note}).Error
}

// ---------------- Read ----------------

func (r *OrderRepository) GetOrder(orderID uint) (*entity.Order, error) {
	var o entity.Order
	if err := r.DB.First(&o, orderID).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// GetOrderDetail loads the order with items, payment and history.
func (r *OrderRepository) GetOrderDetail(orderID uint) (*entity.Order, error) {
	var o entity.Order
	err := r.DB.
		Preload("OrderItems.Selections").
		Preload("Payment").
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&o, orderID).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetHistory(orderID uint) ([]entity.StatusHistory, error) {
	var rows []entity.StatusHistory
	err := r.DB.Where("order_id = ?", orderID).Order("id ASC").Find(&rows).Error
	return rows, err
}

// ---------------- Role-scoped listing ----------------

// ListFilter narrows a role-scoped order listing.
type ListFilter struct {
	Status *entity.OrderStatus
	Page   int
	Limit  int
}

func (f *ListFilter) normalize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 20
	}
}

func (r *OrderRepository) list(scope func(*gorm.DB) *gorm.DB, f ListFilter) ([]entity.Order, int64, error) {
	f.normalize()

	q := scope(r.DB.Model(&entity.Order{}))
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []entity.Order
	err := q.Order("id DESC").
		Limit(f.Limit).
		Offset((f.Page - 1) * f.Limit).
		Find(&orders).Error
	return orders, total, err
}

func (r *OrderRepository) ListForCustomer(userID uint, f ListFilter) ([]entity.Order, int64, error) {
	return r.list(func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}, f)
}

func (r *OrderRepository) ListForRestaurant(restaurantID uint, f ListFilter) ([]entity.Order, int64, error) {
	return r.list(func(db *gorm.DB) *gorm.DB {
		return db.Where("restaurant_id = ?", restaurantID)
	}, f)
}

func (r *OrderRepository) ListForDriver(driverID uint, f ListFilter) ([]entity.Order, int64, error) {
	return r.list(func(db *gorm.DB) *gorm.DB {
		return db.Where("driver_id = ?", driverID)
	}, f)
}

func (r *OrderRepository) ListAll(f ListFilter) ([]entity.Order, int64, error) {
	return r.list(func(db *gorm.DB) *gorm.DB { return db }, f)
}

// ---------------- Dispatch ----------------

// ListReadyUnassigned returns assignable orders with their restaurant
// preloaded, oldest first so equidistant candidates rank FIFO.
func (r *OrderRepository) ListReadyUnassigned(limit int) ([]entity.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var orders []entity.Order
	err := r.DB.Preload("Restaurant").
		Where("status = ? AND driver_id IS NULL", entity.StatusReady).
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// AssignDriverGuard performs the atomic check-and-set of dispatch: it
// succeeds only while the order is still ready and unassigned, so two
// racing drivers can never both win.
func (r *OrderRepository) AssignDriverGuard(tx *gorm.DB, orderID, driverID uint) (int64, error) {
	res := tx.Model(&entity.Order{}).
		Where("id = ? AND status = ? AND driver_id IS NULL", orderID, entity.StatusReady).
		Updates(map[string]any{
			"status":    entity.StatusAssigned,
			"driver_id": driverID,
		})
	return res.RowsAffected, res.Error
}

// ---------------- Transitions ----------------

// UpdateStatusGuard applies a status transition as a conditional update
// keyed on the current status. Zero rows affected means another writer
// got there first; the caller decides how to surface that.
func (r *OrderRepository) UpdateStatusGuard(tx *gorm.DB, orderID uint, from, to entity.OrderStatus, extra map[string]any) (int64, error) {
	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := tx.Model(&entity.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// CompletePayment marks the order's payment record completed.
func (r *OrderRepository) CompletePayment(tx *gorm.DB, orderID uint, paidAt time.Time) error {
	return tx.Model(&entity.Payment{}).
		Where("order_id = ?", orderID).
		Updates(map[string]any{"status": entity.PaymentCompleted, "paid_at": paidAt}).Error
}

func (r *OrderRepository) GetPayment(orderID uint) (*entity.Payment, error) {
	var p entity.Payment
	if err := r.DB.Where("order_id = ?", orderID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *OrderRepository) MarkPaymentRefunded(orderID uint) error {
	return r.DB.Model(&entity.Payment{}).
		Where("order_id = ?", orderID).
		Update("status", entity.PaymentRefunded).Error
}
