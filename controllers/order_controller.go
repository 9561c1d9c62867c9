package controllers

import (
	"strconv"

	"github.com/Amm-ar/delivero-backend/entity"
	"github.com/Amm-ar/delivero-backend/pkg/resp"
	"github.com/Amm-ar/delivero-backend/repository"
	"github.com/Amm-ar/delivero-backend/services"
	"github.com/Amm-ar/delivero-backend/utils"

	"github.com/gin-gonic/gin"
)

type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

// paramID parses the :id path segment; 0 means it was not a number.
func paramID(c *gin.Context) uint {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

// ===== Create =====

type orderItemIn struct {
	MenuItemID uint   `json:"menuItemId" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,min=1"`
	OptionIDs  []uint `json:"optionIds"`
}

type createOrderReq struct {
	RestaurantID  uint          `json:"restaurantId" binding:"required"`
	Items         []orderItemIn `json:"items" binding:"required,min=1"`
	Address       string        `json:"address" binding:"required"`
	Lat           float64       `json:"lat"`
	Lng           float64       `json:"lng"`
	PaymentMethod string        `json:"paymentMethod" binding:"required"`
}

func (oc *OrderController) Create(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	in := services.PlaceOrderInput{
		RestaurantID:  req.RestaurantID,
		Address:       req.Address,
		Lat:           req.Lat,
		Lng:           req.Lng,
		PaymentMethod: req.PaymentMethod,
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, services.PlaceOrderItem{
			MenuItemID: it.MenuItemID,
			Quantity:   it.Quantity,
			OptionIDs:  it.OptionIDs,
		})
	}

	order, err := oc.Orders.Place(c.Request.Context(), utils.CurrentUserID(c), in)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.Created(c, order)
}

// ===== Read =====

// List returns the caller's orders, scoped by role.
// Query: ?status=&page=&limit=
func (oc *OrderController) List(c *gin.Context) {
	var f repository.ListFilter
	if s := c.Query("status"); s != "" {
		st := entity.OrderStatus(s)
		f.Status = &st
	}
	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	out, err := oc.Orders.List(utils.CurrentUserID(c), utils.CurrentRole(c), f)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, out)
}

func (oc *OrderController) Detail(c *gin.Context) {
	id := paramID(c)
	if id == 0 {
		resp.BadRequest(c, "invalid order id")
		return
	}

	order, err := oc.Orders.Detail(utils.CurrentUserID(c), utils.CurrentRole(c), id)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, order)
}

func (oc *OrderController) History(c *gin.Context) {
	id := paramID(c)
	if id == 0 {
		resp.BadRequest(c, "invalid order id")
		return
	}

	rows, err := oc.Orders.History(utils.CurrentUserID(c), utils.CurrentRole(c), id)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, rows)
}

// ===== Transitions =====

type updateStatusReq struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// UpdateStatus handles the owner and driver lifecycle moves. Cancels go
// through their own endpoint so a reason can be required.
func (oc *OrderController) UpdateStatus(c *gin.Context) {
	id := paramID(c)
	if id == 0 {
		resp.BadRequest(c, "invalid order id")
		return
	}

	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	order, err := oc.Orders.UpdateStatus(id, entity.OrderStatus(req.Status), utils.CurrentRole(c), utils.CurrentUserID(c), req.Note)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, order)
}

type cancelReq struct {
	Reason string `json:"reason" binding:"required"`
}

func (oc *OrderController) Cancel(c *gin.Context) {
	id := paramID(c)
	if id == 0 {
		resp.BadRequest(c, "invalid order id")
		return
	}

	var req cancelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	order, err := oc.Orders.Cancel(id, utils.CurrentRole(c), utils.CurrentUserID(c), req.Reason)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, order)
}
