package controllers

import (
	"github.com/Amm-ar/delivero-backend/pkg/resp"
	"github.com/Amm-ar/delivero-backend/services"
	"github.com/Amm-ar/delivero-backend/utils"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	Auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{Auth: auth}
}

type registerReq struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
}

func (ac *AuthController) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	user, err := ac.Auth.Register(services.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      req.Role,
	})
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.Created(c, user)
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (ac *AuthController) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	token, user, err := ac.Auth.Login(req.Email, req.Password)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"token": token, "user": user})
}

func (ac *AuthController) Me(c *gin.Context) {
	user, err := ac.Auth.GetProfile(utils.CurrentUserID(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, user)
}

type registerDeviceReq struct {
	DeviceToken string `json:"deviceToken" binding:"required"`
}

// RegisterDevice stores the caller's push-notification token.
func (ac *AuthController) RegisterDevice(c *gin.Context) {
	var req registerDeviceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	if err := ac.Auth.RegisterDevice(utils.CurrentUserID(c), req.DeviceToken); err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"registered": true})
}
