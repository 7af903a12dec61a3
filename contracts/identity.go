package contracts

import (
	"strings"
	"time"

	"github.com/yeremiapane/restaurant-platform/models"
)

const minPasswordLen = 8

// staffRoles are the roles an owner may hand out.
var staffRoles = map[string]bool{
	models.RoleManager: true,
	models.RoleStaff:   true,
}

// RegisterRequest is a public owner sign-up. The tenant is always minted by
// the identity service.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *RegisterRequest) Validate() error {
	var f fieldErrors
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))

	f.name("name", r.Name)
	f.email("email", r.Email)
	f.password("password", r.Password)
	return f.err()
}

// CreateUserRequest adds a manager or staff account to an existing tenant.
type CreateUserRequest struct {
	TenantID string `json:"tenantId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (r *CreateUserRequest) Validate() error {
	var f fieldErrors
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))

	f.tenant(r.TenantID)
	f.name("name", r.Name)
	f.email("email", r.Email)
	f.password("password", r.Password)
	f.check(staffRoles[r.Role], "role", "must be one of manager, staff")
	return f.err()
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	var f fieldErrors
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	f.check(r.Email != "", "email", "is required")
	f.check(r.Password != "", "password", "is required")
	return f.err()
}

type TokenPair struct {
	AccessToken      string      `json:"accessToken"`
	AccessExpiresAt  time.Time   `json:"accessExpiresAt"`
	RefreshToken     string      `json:"refreshToken"`
	RefreshExpiresAt time.Time   `json:"refreshExpiresAt"`
	User             models.User `json:"user"`
}

type ValidateTokenRequest struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

func (r *ValidateTokenRequest) Validate() error {
	var f fieldErrors
	f.check(r.AccessToken != "", "accessToken", "is required")
	return f.err()
}

// Identity is the caller identity the gateway attaches to a request.
type Identity struct {
	UserID   uint   `json:"userId"`
	TenantID string `json:"tenantId"`
	Role     string `json:"role"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

type ValidateTokenResult struct {
	Identity           Identity   `json:"identity"`
	NewAccessToken     string     `json:"newAccessToken,omitempty"`
	NewAccessExpiresAt *time.Time `json:"newAccessExpiresAt,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (r *RefreshRequest) Validate() error {
	var f fieldErrors
	f.check(r.RefreshToken != "", "refreshToken", "is required")
	return f.err()
}

type ProfileRequest struct {
	TenantID string `json:"tenantId"`
	UserID   uint   `json:"userId"`
}

func (r *ProfileRequest) Validate() error {
	var f fieldErrors
	f.tenant(r.TenantID)
	f.id("userId", r.UserID)
	return f.err()
}

type UpdateProfileRequest struct {
	TenantID        string  `json:"tenantId"`
	UserID          uint    `json:"userId"`
	Name            *string `json:"name,omitempty"`
	NewPassword     *string `json:"newPassword,omitempty"`
	CurrentPassword string  `json:"currentPassword,omitempty"`
}

func (r *UpdateProfileRequest) Validate() error {
	var f fieldErrors
	f.tenant(r.TenantID)
	f.id("userId", r.UserID)
	if r.Name != nil {
		f.name("name", *r.Name)
	}
	if r.NewPassword != nil {
		f.password("newPassword", *r.NewPassword)
		f.check(r.CurrentPassword != "", "currentPassword", "is required to change the password")
	}
	return f.err()
}
