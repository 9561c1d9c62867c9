package entity

import (
	"gorm.io/gorm"
)

type Driver struct {
	gorm.Model
	VehiclePlate string `json:"vehiclePlate"`
	License      string `json:"license"`

	IsAvailable bool    `gorm:"default:false" json:"isAvailable"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`

	TotalDeliveries int64 `json:"totalDeliveries"`

	UserID uint `gorm:"uniqueIndex" json:"userId"`
	User   User `json:"-"`

	Orders []Order `gorm:"foreignKey:DriverID" json:"-"`
}
