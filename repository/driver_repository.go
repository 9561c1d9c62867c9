package repository

import (
	"github.com/Amm-ar/delivero-backend/entity"

	"gorm.io/gorm"
)

type DriverRepository struct {
	DB *gorm.DB
}

func NewDriverRepository(db *gorm.DB) *DriverRepository {
	return &DriverRepository{DB: db}
}

func (r *DriverRepository) Create(d *entity.Driver) error {
	return r.DB.Create(d).Error
}

func (r *DriverRepository) GetByID(driverID uint) (*entity.Driver, error) {
	var d entity.Driver
	if err := r.DB.First(&d, driverID).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DriverRepository) GetByUserID(userID uint) (*entity.Driver, error) {
	var d entity.Driver
	if err := r.DB.Where("user_id = ?", userID).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// SetAvailability flips the availability flag unconditionally (driver
// going on or off shift).
func (r *DriverRepository) SetAvailability(tx *gorm.DB, driverID uint, available bool) error {
	return tx.Model(&entity.Driver{}).
		Where("id = ?", driverID).
		Update("is_available", available).Error
}

// ClaimAvailability atomically takes an available driver off the pool.
// Zero rows means the driver was already busy or offline.
func (r *DriverRepository) ClaimAvailability(tx *gorm.DB, driverID uint) (int64, error) {
	res := tx.Model(&entity.Driver{}).
		Where("id = ? AND is_available = ?", driverID, true).
		Update("is_available", false)
	return res.RowsAffected, res.Error
}

func (r *DriverRepository) UpdateLocation(driverID uint, lat, lng float64) error {
	return r.DB.Model(&entity.Driver{}).
		Where("id = ?", driverID).
		Updates(map[string]any{"lat": lat, "lng": lng}).Error
}

// HasActiveDelivery reports whether the driver currently holds an order
// that is not yet delivered or cancelled.
func (r *DriverRepository) HasActiveDelivery(driverID uint) (bool, error) {
	var cnt int64
	err := r.DB.Model(&entity.Order{}).
		Where("driver_id = ? AND status IN ?", driverID, []entity.OrderStatus{
			entity.StatusAssigned, entity.StatusPickedUp, entity.StatusOnTheWay,
		}).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *DriverRepository) ActiveDelivery(driverID uint) (*entity.Order, error) {
	var o entity.Order
	err := r.DB.Preload("Restaurant").
		Where("driver_id = ? AND status IN ?", driverID, []entity.OrderStatus{
			entity.StatusAssigned, entity.StatusPickedUp, entity.StatusOnTheWay,
		}).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// MarkDelivered records a completed delivery: bump the cumulative count
// and put the driver back in the available pool.
func (r *DriverRepository) MarkDelivered(tx *gorm.DB, driverID uint) error {
	return tx.Model(&entity.Driver{}).
		Where("id = ?", driverID).
		Updates(map[string]any{
			"total_deliveries": gorm.Expr("total_deliveries + 1"),
			"is_available":     true,
		}).Error
}
