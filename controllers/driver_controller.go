package controllers

import (
	"strconv"

	"github.com/Amm-ar/delivero-backend/pkg/resp"
	"github.com/Amm-ar/delivero-backend/services"
	"github.com/Amm-ar/delivero-backend/utils"

	"github.com/gin-gonic/gin"
)

type DriverController struct {
	Dispatch  *services.DispatchService
	Analytics *services.AnalyticsService
}

func NewDriverController(dispatch *services.DispatchService, analytics *services.AnalyticsService) *DriverController {
	return &DriverController{Dispatch: dispatch, Analytics: analytics}
}

type availabilityReq struct {
	Available *bool `json:"available" binding:"required"`
}

func (dc *DriverController) SetAvailability(c *gin.Context) {
	var req availabilityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	if err := dc.Dispatch.SetAvailability(utils.CurrentUserID(c), *req.Available); err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"available": *req.Available})
}

type locationReq struct {
	Lat float64 `json:"lat" binding:"required"`
	Lng float64 `json:"lng" binding:"required"`
}

// UpdateLocation stores the driver's position; when a delivery is in
// flight the customer's live view gets the update too.
func (dc *DriverController) UpdateLocation(c *gin.Context) {
	var req locationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	if err := dc.Dispatch.UpdateLocation(utils.CurrentUserID(c), req.Lat, req.Lng); err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"updated": true})
}

// Candidates lists ready, unassigned orders near the driver, closest
// first. Query: ?radiusKm=
func (dc *DriverController) Candidates(c *gin.Context) {
	radius := 0.0
	if raw := c.Query("radiusKm"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r <= 0 {
			resp.BadRequest(c, "radiusKm must be a positive number")
			return
		}
		radius = r
	}

	candidates, err := dc.Dispatch.FindCandidates(utils.CurrentUserID(c), radius)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, candidates)
}

// Accept claims the order for this driver. Exactly one driver wins a
// given order; the rest get a conflict.
func (dc *DriverController) Accept(c *gin.Context) {
	id := paramID(c)
	if id == 0 {
		resp.BadRequest(c, "invalid order id")
		return
	}

	order, err := dc.Dispatch.Assign(id, utils.CurrentUserID(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, order)
}

// CurrentDelivery returns the delivery in flight, or null when idle.
func (dc *DriverController) CurrentDelivery(c *gin.Context) {
	order, err := dc.Dispatch.CurrentDelivery(utils.CurrentUserID(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, order)
}

// Earnings summarizes delivery fees earned over ?from=&to= (RFC 3339).
func (dc *DriverController) Earnings(c *gin.Context) {
	dr, err := parseDateRange(c)
	if err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	out, err := dc.Analytics.EarningsForDriver(utils.CurrentUserID(c), dr)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, out)
}
