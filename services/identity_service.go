package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/yeremiapane/restaurant-platform/contracts"
	"github.com/yeremiapane/restaurant-platform/models"
	"github.com/yeremiapane/restaurant-platform/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errInvalidCredentials = utils.Unauthorized("invalid credentials")
	errSessionInvalid     = utils.Unauthorized("invalid or expired session")
)

// IdentityService registers users and issues, validates, refreshes and revokes
// their session tokens.
type IdentityService struct {
	DB               *gorm.DB
	Tokens           *utils.TokenIssuer
	RefreshThreshold time.Duration
	BcryptCost       int
}

func NewIdentityService(db *gorm.DB, tokens *utils.TokenIssuer, refreshThreshold time.Duration) *IdentityService {
	return &IdentityService{
		DB:               db,
		Tokens:           tokens,
		RefreshThreshold: refreshThreshold,
		BcryptCost:       bcrypt.DefaultCost,
	}
}

// Register signs up a restaurant owner under a freshly minted tenant.
func (is *IdentityService) Register(ctx context.Context, req contracts.RegisterRequest) (*models.User, error) {
	return is.createUser(ctx, models.User{
		TenantID: uuid.NewString(),
		Name:     req.Name,
		Email:    req.Email,
		Role:     models.RoleOwner,
	}, req.Password)
}

// CreateUser adds a manager or staff account to the caller's tenant.
func (is *IdentityService) CreateUser(ctx context.Context, req contracts.CreateUserRequest) (*models.User, error) {
	return is.createUser(ctx, models.User{
		TenantID: req.TenantID,
		Name:     req.Name,
		Email:    req.Email,
		Role:     req.Role,
	}, req.Password)
}

func (is *IdentityService) createUser(ctx context.Context, user models.User, password string) (*models.User, error) {
	db := is.DB.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.Conflict("email is already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), is.BcryptCost)
	if err != nil {
		return nil, err
	}
	user.Password = string(hashed)

	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("New user registered: %s (tenant=%s role=%s)", user.Email, user.TenantID, user.Role)
	return &user, nil
}

func (is *IdentityService) Login(ctx context.Context, req contracts.LoginRequest) (*contracts.TokenPair, error) {
	var user models.User
	err := is.DB.WithContext(ctx).Where("email = ?", req.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errInvalidCredentials
	}

	pair, err := is.issuePair(&user)
	if err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Login successful for user: %s (tenant=%s)", user.Email, user.TenantID)
	return pair, nil
}

// ValidateToken resolves an access token to the caller identity. An access
// token close to expiry, or already expired, is replaced when a valid refresh
// token of the same user comes with it.
func (is *IdentityService) ValidateToken(ctx context.Context, req contracts.ValidateTokenRequest) (*contracts.ValidateTokenResult, error) {
	claims, err := is.Tokens.ParseToken(req.AccessToken, utils.TokenTypeAccess)
	expired := errors.Is(err, utils.ErrTokenExpired)
	if err != nil && !expired {
		return nil, errSessionInvalid
	}

	user, err := is.userFor(ctx, claims)
	if err != nil {
		return nil, err
	}
	result := &contracts.ValidateTokenResult{Identity: identityOf(user)}

	nearExpiry := claims.ExpiresAt != nil && claims.ExpiresAt.Time.Sub(is.Tokens.Now()) < is.RefreshThreshold
	if !expired && !nearExpiry {
		return result, nil
	}

	if req.RefreshToken == "" {
		if expired {
			return nil, errSessionInvalid
		}
		return result, nil
	}

	refresh, err := is.checkRefresh(ctx, req.RefreshToken)
	if err != nil || refresh.UserID != user.ID {
		if expired {
			return nil, errSessionInvalid
		}
		// a near-expiry access token is still good on its own
		return result, nil
	}

	token, expiresAt, err := is.Tokens.GenerateAccessToken(user.ID, user.TenantID, user.Role)
	if err != nil {
		return nil, err
	}
	result.NewAccessToken = token
	result.NewAccessExpiresAt = &expiresAt
	return result, nil
}

// Refresh rotates the refresh token: the presented one is revoked and a new
// pair is issued.
func (is *IdentityService) Refresh(ctx context.Context, req contracts.RefreshRequest) (*contracts.TokenPair, error) {
	claims, err := is.checkRefresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, err
	}
	user, err := is.userFor(ctx, claims)
	if err != nil {
		return nil, err
	}

	if err := is.revoke(ctx, claims); err != nil {
		return nil, err
	}
	return is.issuePair(user)
}

// Logout revokes the refresh token. Unknown or already expired tokens are
// accepted silently.
func (is *IdentityService) Logout(ctx context.Context, req contracts.RefreshRequest) error {
	claims, err := is.Tokens.ParseToken(req.RefreshToken, utils.TokenTypeRefresh)
	if err != nil {
		return nil
	}
	if err := is.revoke(ctx, claims); err != nil && !errors.Is(err, errSessionInvalid) {
		return err
	}
	utils.InfoLogger.Printf("User %d logged out", claims.UserID)
	return nil
}

func (is *IdentityService) GetProfile(ctx context.Context, req contracts.ProfileRequest) (*models.User, error) {
	var user models.User
	err := is.DB.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", req.UserID, req.TenantID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("user not found")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (is *IdentityService) UpdateProfile(ctx context.Context, req contracts.UpdateProfileRequest) (*models.User, error) {
	user, err := is.GetProfile(ctx, contracts.ProfileRequest{TenantID: req.TenantID, UserID: req.UserID})
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if req.Name != nil {
		changes["name"] = *req.Name
	}
	if req.NewPassword != nil {
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
			return nil, utils.Validation(utils.FieldError{Field: "currentPassword", Message: "is incorrect"})
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.NewPassword), is.BcryptCost)
		if err != nil {
			return nil, err
		}
		changes["password"] = string(hashed)
	}
	if len(changes) == 0 {
		return user, nil
	}

	if err := is.DB.WithContext(ctx).Model(user).Updates(changes).Error; err != nil {
		return nil, err
	}
	return is.GetProfile(ctx, contracts.ProfileRequest{TenantID: req.TenantID, UserID: req.UserID})
}

// PurgeRevoked drops revocation rows whose tokens would be rejected as
// expired anyway.
func (is *IdentityService) PurgeRevoked(ctx context.Context) (int64, error) {
	result := is.DB.WithContext(ctx).
		Where("expires_at < ?", is.Tokens.Now()).
		Delete(&models.RevokedToken{})
	return result.RowsAffected, result.Error
}

func (is *IdentityService) checkRefresh(ctx context.Context, token string) (*utils.CustomClaims, error) {
	claims, err := is.Tokens.ParseToken(token, utils.TokenTypeRefresh)
	if err != nil {
		return nil, errSessionInvalid
	}

	var count int64
	if err := is.DB.WithContext(ctx).Model(&models.RevokedToken{}).Where("jti = ?", claims.ID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errSessionInvalid
	}
	return claims, nil
}

func (is *IdentityService) revoke(ctx context.Context, claims *utils.CustomClaims) error {
	revoked := models.RevokedToken{JTI: claims.ID, UserID: claims.UserID}
	if claims.ExpiresAt != nil {
		revoked.ExpiresAt = claims.ExpiresAt.Time
	}

	// concurrent refreshes of one token: only the first may rotate it
	result := is.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&revoked)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errSessionInvalid
	}
	return nil
}

// userFor loads the user a token was issued to; deleted users and tenant
// mismatches end the session.
func (is *IdentityService) userFor(ctx context.Context, claims *utils.CustomClaims) (*models.User, error) {
	var user models.User
	err := is.DB.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", claims.UserID, claims.TenantID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errSessionInvalid
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (is *IdentityService) issuePair(user *models.User) (*contracts.TokenPair, error) {
	access, accessExp, err := is.Tokens.GenerateAccessToken(user.ID, user.TenantID, user.Role)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := is.Tokens.GenerateRefreshToken(user.ID, user.TenantID, user.Role)
	if err != nil {
		return nil, err
	}
	return &contracts.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
		User:             *user,
	}, nil
}

func identityOf(user *models.User) contracts.Identity {
	return contracts.Identity{
		UserID:   user.ID,
		TenantID: user.TenantID,
		Role:     user.Role,
		Email:    user.Email,
		Name:     user.Name,
	}
}
