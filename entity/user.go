package entity

import (
	"gorm.io/gorm"
)

const (
	RoleCustomer = "customer"
	RoleOwner    = "owner"
	RoleDriver   = "driver"
	RoleAdmin    = "admin"
)

type User struct {
	gorm.Model
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	Password    string `json:"-"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
	Role        string `gorm:"not null;default:customer" json:"role"`

	// Push-notification target; empty means no device registered.
	DeviceToken string `json:"-"`

	RestaurantsOwned []Restaurant `gorm:"foreignKey:UserID" json:"-"`
	Orders           []Order      `json:"-"`
	DriverProfile    *Driver      `gorm:"foreignKey:UserID" json:"-"`
}
