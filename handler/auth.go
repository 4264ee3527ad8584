package handler

import (
	"errors"
	"net/http"

	"github.com/aumugisha-umu/seido-backend/config"
	"github.com/aumugisha-umu/seido-backend/middleware"
	"github.com/aumugisha-umu/seido-backend/model"
	"github.com/aumugisha-umu/seido-backend/pkg/logger"
	"github.com/aumugisha-umu/seido-backend/service"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const profileCacheKind = "user"

type AuthHandler struct {
	db     *gorm.DB
	cache  *service.ProfileCache
	config *config.Config
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		db:     db,
		cache:  service.GetProfileCache(),
		config: cfg,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt string     `json:"expires_at"`
	UserID    string     `json:"user_id"`
	Role      model.Role `json:"role"`
	TeamID    string     `json:"team_id,omitempty"`
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request")
		return
	}

	var user model.User
	err := h.db.WithContext(c.Request.Context()).
		First(&user, "email = ? AND active = ?", req.Email, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Login failed"})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid email or password"})
		return
	}

	token, expiresAt, err := middleware.GenerateToken(&user, "", &h.config.Auth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to generate token"})
		return
	}

	h.cache.Set(profileCacheKind, user.ID, &user)

	respond(c, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format("2006-01-02T15:04:05Z07:00"),
		UserID:    user.ID,
		Role:      user.Role,
		TeamID:    user.TeamID,
	})
}

// GetCurrentUser returns the current user profile
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID := middleware.GetUserID(c)

	user, err := h.resolveUser(c, userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unknown user"})
		return
	}

	respond(c, gin.H{
		"user_id":         user.ID,
		"email":           user.Email,
		"name":            user.Name,
		"role":            user.Role,
		"team_id":         user.TeamID,
		"impersonated_by": middleware.GetImpersonator(c),
	})
}

type ImpersonateRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// Impersonate lets an admin obtain a token acting as another user. The
// issued token records the impersonator.
func (h *AuthHandler) Impersonate(c *gin.Context) {
	adminID := middleware.GetUserID(c)
	if model.Role(c.GetString("role")) != model.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Only admins may impersonate"})
		return
	}

	var req ImpersonateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request")
		return
	}

	// Re-verify against the database: impersonation is destructive enough
	// that the cache is not trusted here.
	var target model.User
	err := h.db.WithContext(c.Request.Context()).
		First(&target, "id = ? AND active = ?", req.UserID, true).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "User not found"})
		return
	}

	token, expiresAt, err := middleware.GenerateToken(&target, adminID, &h.config.Auth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to generate token"})
		return
	}

	logger.Info(c.Request.Context(), "admin impersonation",
		"admin_id", adminID,
		"target_id", target.ID,
	)

	respond(c, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format("2006-01-02T15:04:05Z07:00"),
		UserID:    target.ID,
		Role:      target.Role,
		TeamID:    target.TeamID,
	})
}

func (h *AuthHandler) resolveUser(c *gin.Context, userID string) (*model.User, error) {
	if cached, ok := h.cache.Get(profileCacheKind, userID); ok {
		if user, ok := cached.(*model.User); ok {
			return user, nil
		}
	}

	var user model.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	h.cache.Set(profileCacheKind, user.ID, &user)
	return &user, nil
}
