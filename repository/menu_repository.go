package repository

import (
	"github.com/Amm-ar/delivero-backend/entity"

	"gorm.io/gorm"
)

type MenuRepository struct {
	DB *gorm.DB
}

func NewMenuRepository(db *gorm.DB) *MenuRepository {
	return &MenuRepository{DB: db}
}

// GetItem loads a menu item with its customization options.
func (r *MenuRepository) GetItem(id uint) (*entity.MenuItem, error) {
	var m entity.MenuItem
	if err := r.DB.Preload("Options").First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MenuRepository) ListForRestaurant(restaurantID uint) ([]entity.MenuItem, error) {
	var items []entity.MenuItem
	err := r.DB.Preload("Options").
		Where("restaurant_id = ?", restaurantID).
		Find(&items).Error
	return items, err
}
