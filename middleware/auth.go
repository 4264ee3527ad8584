package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aumugisha-umu/seido-backend/config"
	"github.com/aumugisha-umu/seido-backend/model"
	"github.com/aumugisha-umu/seido-backend/pkg/logger"
	"github.com/aumugisha-umu/seido-backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the JWT claims: the resolved (user, role, team) triple
// the lifecycle consumes, plus the impersonator when an admin acts as
// someone else.
type Claims struct {
	UserID         string     `json:"user_id"`
	Role           model.Role `json:"role"`
	TeamID         string     `json:"team_id,omitempty"`
	ImpersonatedBy string     `json:"impersonated_by,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken generates a new JWT token for a user
func GenerateToken(user *model.User, impersonatedBy string, cfg *config.AuthConfig) (string, time.Time, error) {
	expiresAt := time.Now().Add(time.Duration(cfg.TokenExpireHours) * time.Hour)

	claims := Claims{
		UserID:         user.ID,
		Role:           user.Role,
		TeamID:         user.TeamID,
		ImpersonatedBy: impersonatedBy,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// AuthMiddleware validates JWT token and extracts the acting identity
func AuthMiddleware(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Authorization header required"})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		tokenString := parts[1]

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(cfg.JWTSecret), nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid or expired token"})
			c.Abort()
			return
		}

		// Store identity in context
		c.Set("user_id", claims.UserID)
		c.Set("role", string(claims.Role))
		c.Set("team_id", claims.TeamID)
		if claims.ImpersonatedBy != "" {
			c.Set("impersonated_by", claims.ImpersonatedBy)
		}

		// Add to request context for logger
		ctx := context.WithValue(c.Request.Context(), logger.UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, logger.RoleKey, string(claims.Role))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetActor builds the acting identity from the gin context.
func GetActor(c *gin.Context) workflow.Actor {
	return workflow.Actor{
		UserID: c.GetString("user_id"),
		Role:   model.Role(c.GetString("role")),
		TeamID: c.GetString("team_id"),
	}
}

// GetUserID gets the authenticated user id from context
func GetUserID(c *gin.Context) string {
	return c.GetString("user_id")
}

// GetImpersonator returns the admin acting as the current user, if any.
func GetImpersonator(c *gin.Context) string {
	return c.GetString("impersonated_by")
}

// RequireRole aborts with 403 unless the authenticated role is one of the
// allowed ones. Admins pass everywhere.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := model.Role(c.GetString("role"))
		if role == model.RoleAdmin {
			c.Next()
			return
		}
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   "Insufficient permissions",
		})
	}
}
