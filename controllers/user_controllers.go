package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-platform/contracts"
	"github.com/yeremiapane/restaurant-platform/models"
	"github.com/yeremiapane/restaurant-platform/rpc"
	"github.com/yeremiapane/restaurant-platform/utils"
)

// UserController relays registration, sessions and profile calls to the
// identity service.
type UserController struct {
	Identity rpc.Client
}

func NewUserController(identity rpc.Client) *UserController {
	return &UserController{Identity: identity}
}

// Register user baru
func (uc *UserController) Register(c *gin.Context) {
	var req contracts.RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}

	var user models.User
	if err := send(c.Request.Context(), uc.Identity, contracts.CmdAuthRegister, &req, &user); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "User registered", user)
}

// CreateUser menambah akun manager/staff ke tenant pemilik
func (uc *UserController) CreateUser(c *gin.Context) {
	var req contracts.CreateUserRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}
	req.TenantID, _ = caller(c)

	var user models.User
	if err := send(c.Request.Context(), uc.Identity, contracts.CmdUsersCreate, &req, &user); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "User created", user)
}

func (uc *UserController) Login(c *gin.Context) {
	var req contracts.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}

	var pair contracts.TokenPair
	if err := send(c.Request.Context(), uc.Identity, contracts.CmdAuthLogin, &req, &pair); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Login successful", pair)
}

func (uc *UserController) Refresh(c *gin.Context) {
	var req contracts.RefreshRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}

	var pair contracts.TokenPair
	if err := send(c.Request.Context(), uc.Identity, contracts.CmdAuthRefresh, &req, &pair); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session refreshed", pair)
}

func (uc *UserController) Logout(c *gin.Context) {
	var req contracts.RefreshRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := send(c.Request.Context(), uc.Identity, contracts.CmdAuthLogout, &req, nil); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Logged out", nil)
}

func (uc *UserController) GetProfile(c *gin.Context) {
	tenantID, userID := caller(c)

	var user models.User
	req := contracts.ProfileRequest{TenantID: tenantID, UserID: userID}
	if err := send(c.Request.Context(), uc.Identity, contracts.CmdProfileGet, &req, &user); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Profile data retrieved successfully", user)
}

func (uc *UserController) UpdateProfile(c *gin.Context) {
	var req contracts.UpdateProfileRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}
	req.TenantID, req.UserID = caller(c)

	var user models.User
	if err := send(c.Request.Context(), uc.Identity, contracts.CmdProfileUpdate, &req, &user); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Profile updated", user)
}
