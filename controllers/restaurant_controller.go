package controllers

import (
	"errors"

	"github.com/Amm-ar/delivero-backend/pkg/apperr"
	"github.com/Amm-ar/delivero-backend/pkg/resp"
	"github.com/Amm-ar/delivero-backend/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RestaurantController serves the public browse surface: what's open
// and what's on the menu. No mutation lives here.
type RestaurantController struct {
	Restaurants *repository.RestaurantRepository
	Menus       *repository.MenuRepository
}

func NewRestaurantController(restaurants *repository.RestaurantRepository, menus *repository.MenuRepository) *RestaurantController {
	return &RestaurantController{Restaurants: restaurants, Menus: menus}
}

func (rc *RestaurantController) List(c *gin.Context) {
	rests, err := rc.Restaurants.ListActive()
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, rests)
}

func (rc *RestaurantController) Detail(c *gin.Context) {
	id := paramID(c)
	if id == 0 {
		resp.BadRequest(c, "invalid restaurant id")
		return
	}

	rest, err := rc.Restaurants.Get(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			resp.Error(c, apperr.New(apperr.KindNotFound, "restaurant not found"))
			return
		}
		resp.Error(c, err)
		return
	}

	menu, err := rc.Menus.ListForRestaurant(rest.ID)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"restaurant": rest, "menu": menu})
}
