package controllers

import (
	"net/http"

	"calorietrack/middlewares"
	"calorietrack/services"
	"calorietrack/utils"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	auth *services.AuthService
	resp *utils.Responder
}

func NewAuthController(auth *services.AuthService, resp *utils.Responder) *AuthController {
	return &AuthController{auth: auth, resp: resp}
}

// POST /api/auth/register
func (ac *AuthController) Register(c *gin.Context) {
	var input services.Registration
	if err := c.ShouldBindJSON(&input); err != nil {
		ac.resp.Fail(c, utils.InputError("auth.register", err), "invalid request body")
		return
	}

	user, err := ac.auth.Register(c.Request.Context(), input.Username, input.Email, input.Password)
	if err != nil {
		ac.resp.Fail(c, err, "registration failed")
		return
	}
	ac.resp.OK(c, http.StatusCreated, "Successfully registered", user)
}

// POST /api/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var input services.Credentials
	if err := c.ShouldBindJSON(&input); err != nil {
		ac.resp.Fail(c, utils.InputError("auth.login", err), "invalid request body")
		return
	}

	token, err := ac.auth.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		ac.resp.Fail(c, err, "login failed")
		return
	}
	ac.resp.OK(c, http.StatusOK, "Login successful", gin.H{"token": token})
}

// GET /api/auth/me
func (ac *AuthController) Me(c *gin.Context) {
	user, err := ac.auth.Me(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		ac.resp.Fail(c, err, "failed to load user")
		return
	}
	ac.resp.OK(c, http.StatusOK, "User retrieved successfully", user)
}
