package repository

import (
	"github.com/Amm-ar/delivero-backend/entity"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RestaurantRepository struct {
	DB *gorm.DB
}

func NewRestaurantRepository(db *gorm.DB) *RestaurantRepository {
	return &RestaurantRepository{DB: db}
}

func (r *RestaurantRepository) Get(id uint) (*entity.Restaurant, error) {
	var rest entity.Restaurant
	if err := r.DB.First(&rest, id).Error; err != nil {
		return nil, err
	}
	return &rest, nil
}

func (r *RestaurantRepository) GetByOwner(userID uint) (*entity.Restaurant, error) {
	var rest entity.Restaurant
	if err := r.DB.Where("user_id = ?", userID).First(&rest).Error; err != nil {
		return nil, err
	}
	return &rest, nil
}

// ListActive returns the restaurants shown to browsing customers.
func (r *RestaurantRepository) ListActive() ([]entity.Restaurant, error) {
	var rests []entity.Restaurant
	err := r.DB.Where("is_active = ?", true).Order("name ASC").Find(&rests).Error
	return rests, err
}

func (r *RestaurantRepository) IsOwnedBy(restaurantID, userID uint) (bool, error) {
	var cnt int64
	err := r.DB.Model(&entity.Restaurant{}).
		Where("id = ? AND user_id = ?", restaurantID, userID).
		Count(&cnt).Error
	return cnt > 0, err
}

// AddEarnings rolls delivered-order earnings into the cumulative stats.
func (r *RestaurantRepository) AddEarnings(tx *gorm.DB, restaurantID uint, amount decimal.Decimal) error {
	return tx.Model(&entity.Restaurant{}).
		Where("id = ?", restaurantID).
		Updates(map[string]any{
			"total_earnings": gorm.Expr("total_earnings + ?", amount),
			"total_orders":   gorm.Expr("total_orders + 1"),
		}).Error
}
