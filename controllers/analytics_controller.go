package controllers

import (
	"fmt"
	"time"

	"github.com/Amm-ar/delivero-backend/pkg/resp"
	"github.com/Amm-ar/delivero-backend/repository"
	"github.com/Amm-ar/delivero-backend/services"
	"github.com/Amm-ar/delivero-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AnalyticsController struct {
	Analytics *services.AnalyticsService
	Orders    *services.OrderService
}

func NewAnalyticsController(analytics *services.AnalyticsService, orders *services.OrderService) *AnalyticsController {
	return &AnalyticsController{Analytics: analytics, Orders: orders}
}

// parseDateRange reads optional ?from= and ?to= query params (RFC 3339
// or plain dates). A zero bound means unbounded on that side.
func parseDateRange(c *gin.Context) (repository.DateRange, error) {
	var dr repository.DateRange
	parse := func(raw string) (time.Time, error) {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t, nil
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q, use RFC 3339 or YYYY-MM-DD", raw)
		}
		return t, nil
	}

	if raw := c.Query("from"); raw != "" {
		t, err := parse(raw)
		if err != nil {
			return dr, err
		}
		dr.From = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := parse(raw)
		if err != nil {
			return dr, err
		}
		dr.To = t
	}
	return dr, nil
}

func granularity(c *gin.Context) string {
	return c.DefaultQuery("granularity", "daily")
}

// ForRestaurant serves the owner dashboard. Query: ?from=&to=&granularity=
func (ac *AnalyticsController) ForRestaurant(c *gin.Context) {
	id := paramID(c)
	if id == 0 {
		resp.BadRequest(c, "invalid restaurant id")
		return
	}

	dr, err := parseDateRange(c)
	if err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	out, err := ac.Analytics.ForRestaurant(utils.CurrentUserID(c), utils.CurrentRole(c), id, dr, granularity(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, out)
}

// ForPlatform aggregates across every restaurant; admin only.
func (ac *AnalyticsController) ForPlatform(c *gin.Context) {
	dr, err := parseDateRange(c)
	if err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	out, err := ac.Analytics.ForPlatform(dr, granularity(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, out)
}

type refundReq struct {
	// Amount is optional; omitted means refund the full charge.
	Amount *decimal.Decimal `json:"amount"`
}

// Refund pushes a refund through the payment gateway. Admin only, and
// always an explicit action; cancelling an order never triggers one.
func (ac *AnalyticsController) Refund(c *gin.Context) {
	id := paramID(c)
	if id == 0 {
		resp.BadRequest(c, "invalid order id")
		return
	}

	var req refundReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	ref, err := ac.Orders.Refund(c.Request.Context(), id, req.Amount)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"refundId": ref})
}
