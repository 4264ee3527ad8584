package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aumugisha-umu/seido-backend/config"
	"github.com/aumugisha-umu/seido-backend/database"
	"github.com/aumugisha-umu/seido-backend/middleware"
	"github.com/aumugisha-umu/seido-backend/model"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:        "test-secret",
			TokenExpireHours: 1,
		},
	}
}

func setupAuthRouter(t *testing.T) (*gin.Engine, *gorm.DB, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to access database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	users := []model.User{
		{ID: "mgr-1", Email: "manager@seido.fr", PasswordHash: string(hash), Role: model.RoleManager, TeamID: "team-1", Active: true},
		{ID: "adm-1", Email: "admin@seido.fr", PasswordHash: string(hash), Role: model.RoleAdmin, Active: true},
		{ID: "off-1", Email: "gone@seido.fr", PasswordHash: string(hash), Role: model.RoleTenant, Active: false},
	}
	if err := db.Create(&users).Error; err != nil {
		t.Fatalf("Failed to seed users: %v", err)
	}

	cfg := testConfig()
	h := NewAuthHandler(db, cfg)

	router := gin.New()
	router.POST("/api/auth/login", h.Login)
	protected := router.Group("/api", middleware.AuthMiddleware(&cfg.Auth))
	protected.GET("/auth/me", h.GetCurrentUser)
	protected.POST("/auth/impersonate", middleware.RequireRole(), h.Impersonate)
	return router, db, cfg
}

func postJSON(t *testing.T, router *gin.Engine, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLogin(t *testing.T) {
	router, _, _ := setupAuthRouter(t)

	w := postJSON(t, router, "/api/auth/login", "", gin.H{
		"email":    "manager@seido.fr",
		"password": "correct-password",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Success bool          `json:"success"`
		Data    LoginResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !body.Success {
		t.Error("Expected success to be true")
	}
	if body.Data.Token == "" {
		t.Error("Expected a token")
	}
	if body.Data.UserID != "mgr-1" {
		t.Errorf("Expected user_id 'mgr-1', got '%s'", body.Data.UserID)
	}
	if body.Data.Role != model.RoleManager {
		t.Errorf("Expected role 'manager', got '%s'", body.Data.Role)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	router, _, _ := setupAuthRouter(t)

	w := postJSON(t, router, "/api/auth/login", "", gin.H{
		"email":    "manager@seido.fr",
		"password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

func TestLoginUnknownOrInactiveUser(t *testing.T) {
	router, _, _ := setupAuthRouter(t)

	for _, email := range []string{"nobody@seido.fr", "gone@seido.fr"} {
		w := postJSON(t, router, "/api/auth/login", "", gin.H{
			"email":    email,
			"password": "correct-password",
		})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("Email %q: expected status 401, got %d", email, w.Code)
		}
	}
}

func TestLoginMissingFields(t *testing.T) {
	router, _, _ := setupAuthRouter(t)

	w := postJSON(t, router, "/api/auth/login", "", gin.H{"email": "manager@seido.fr"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestGetCurrentUser(t *testing.T) {
	router, _, cfg := setupAuthRouter(t)

	user := &model.User{ID: "mgr-1", Role: model.RoleManager, TeamID: "team-1"}
	token, _, err := middleware.GenerateToken(user, "", &cfg.Auth)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if body.Data["email"] != "manager@seido.fr" {
		t.Errorf("Expected email 'manager@seido.fr', got '%v'", body.Data["email"])
	}
}

func TestImpersonate(t *testing.T) {
	router, _, cfg := setupAuthRouter(t)

	adminToken, _, err := middleware.GenerateToken(
		&model.User{ID: "adm-1", Role: model.RoleAdmin}, "", &cfg.Auth)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	w := postJSON(t, router, "/api/auth/impersonate", adminToken, gin.H{"user_id": "mgr-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Data LoginResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if body.Data.UserID != "mgr-1" {
		t.Errorf("Expected impersonated user_id 'mgr-1', got '%s'", body.Data.UserID)
	}

	// The issued token must record the impersonator.
	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+body.Data.Token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var me struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &me); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if me.Data["impersonated_by"] != "adm-1" {
		t.Errorf("Expected impersonated_by 'adm-1', got '%v'", me.Data["impersonated_by"])
	}
}

func TestImpersonateRequiresAdmin(t *testing.T) {
	router, _, cfg := setupAuthRouter(t)

	managerToken, _, err := middleware.GenerateToken(
		&model.User{ID: "mgr-1", Role: model.RoleManager, TeamID: "team-1"}, "", &cfg.Auth)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	w := postJSON(t, router, "/api/auth/impersonate", managerToken, gin.H{"user_id": "adm-1"})
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}
}

func TestImpersonateUnknownTarget(t *testing.T) {
	router, _, cfg := setupAuthRouter(t)

	adminToken, _, err := middleware.GenerateToken(
		&model.User{ID: "adm-1", Role: model.RoleAdmin}, "", &cfg.Auth)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	w := postJSON(t, router, "/api/auth/impersonate", adminToken, gin.H{"user_id": "ghost"})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}
