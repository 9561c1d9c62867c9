package configs

import (
	"github.com/Amm-ar/delivero-backend/entity"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// SeedAdmin creates the platform admin account if it does not exist.
// Admin cannot self-register, so this is the only way one appears.
func SeedAdmin() {
	var count int64
	db.Model(&entity.User{}).Where("role = ?", entity.RoleAdmin).Count(&count)
	if count > 0 {
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("admin1234"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	db.Create(&entity.User{
		Email:     "admin@delivero.local",
		Password:  string(hashed),
		FirstName: "Platform",
		LastName:  "Admin",
		Role:      entity.RoleAdmin,
	})
}

// SeedDemoData inserts a demo restaurant with a small menu and one
// driver so a fresh database is usable right away.
func SeedDemoData() {
	var count int64
	db.Model(&entity.Restaurant{}).Count(&count)
	if count > 0 {
		return
	}

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)

	owner := entity.User{
		Email:     "owner@delivero.local",
		Password:  string(hashed),
		FirstName: "Olive",
		LastName:  "Owner",
		Role:      entity.RoleOwner,
	}
	db.Create(&owner)

	restaurant := entity.Restaurant{
		Name:           "Napoli Slice",
		Address:        "12 Harbour St",
		Lat:            13.7563,
		Lng:            100.5018,
		DeliveryFee:    decimal.RequireFromString("2.50"),
		MinOrderAmount: decimal.RequireFromString("10.00"),
		CommissionRate: decimal.RequireFromString("0.20"),
		IsOpen:         true,
		IsActive:       true,
		UserID:         owner.ID,
	}
	db.Create(&restaurant)

	margherita := entity.MenuItem{
		Name:         "Margherita",
		Description:  "Tomato, mozzarella, basil",
		Price:        decimal.RequireFromString("9.50"),
		RestaurantID: restaurant.ID,
	}
	db.Create(&margherita)
	db.Create(&entity.MenuOption{Name: "Extra cheese", Price: decimal.RequireFromString("1.50"), MenuItemID: margherita.ID})
	db.Create(&entity.MenuOption{Name: "Gluten-free base", Price: decimal.RequireFromString("2.00"), MenuItemID: margherita.ID})

	db.Create(&entity.MenuItem{
		Name:         "Diavola",
		Description:  "Spicy salami, chilli oil",
		Price:        decimal.RequireFromString("11.00"),
		RestaurantID: restaurant.ID,
	})

	driverUser := entity.User{
		Email:     "driver@delivero.local",
		Password:  string(hashed),
		FirstName: "Dara",
		LastName:  "Driver",
		Role:      entity.RoleDriver,
	}
	db.Create(&driverUser)
	db.Create(&entity.Driver{
		UserID:       driverUser.ID,
		VehiclePlate: "1กข 2345",
		IsAvailable:  true,
		Lat:          13.7460,
		Lng:          100.5340,
	})
}
