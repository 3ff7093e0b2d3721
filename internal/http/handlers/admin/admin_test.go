package admin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redactor-pro/license-api/internal/config"
	"github.com/redactor-pro/license-api/internal/models"
	"github.com/redactor-pro/license-api/internal/provider"
	"github.com/redactor-pro/license-api/internal/repository"
	"github.com/redactor-pro/license-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupAdminHandlerTest(t *testing.T) (*Handler, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:admin_handler_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Admin{}, &models.RedeemCode{}, &models.DonationEvent{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{
		JWT: config.JWTConfig{SecretKey: "admin-handler-test-secret", ExpireHours: 24},
	}
	adminRepo := repository.NewAdminRepository(db)
	redeemRepo := repository.NewRedeemCodeRepository(db)

	h := &Handler{Container: &provider.Container{
		Config:            cfg,
		AdminRepo:         adminRepo,
		RedeemCodeRepo:    redeemRepo,
		AuthService:       service.NewAuthService(cfg, adminRepo),
		RedeemCodeService: service.NewRedeemCodeService(redeemRepo, "pro"),
	}}
	return h, db
}

func seedAdminAccount(t *testing.T, db *gorm.DB, username, password string) uint {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	admin := models.Admin{Username: username, PasswordHash: string(hash)}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	return admin.ID
}

func performAdminJSON(t *testing.T, handler gin.HandlerFunc, method, target, body string, adminID uint) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	if adminID != 0 {
		c.Set("admin_id", adminID)
	}
	handler(c)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) (int, map[string]interface{}) {
	t.Helper()
	var resp struct {
		StatusCode int         `json:"status_code"`
		Data       interface{} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v (%s)", err, w.Body.String())
	}
	data, _ := resp.Data.(map[string]interface{})
	return resp.StatusCode, data
}

func TestAdminLoginSuccess(t *testing.T) {
	h, db := setupAdminHandlerTest(t)
	seedAdminAccount(t, db, "admin", "correct-password")

	w := performAdminJSON(t, h.AdminLogin, http.MethodPost, "/api/v1/admin/login",
		`{"username":"admin","password":"correct-password"}`, 0)
	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d (%s)", w.Code, w.Body.String())
	}

	statusCode, data := decodeEnvelope(t, w)
	if statusCode != 200 {
		t.Fatalf("status_code want 200 got %d", statusCode)
	}
	if token, _ := data["token"].(string); token == "" {
		t.Fatal("expected token in login response")
	}
}

func TestAdminLoginWrongPassword(t *testing.T) {
	h, db := setupAdminHandlerTest(t)
	seedAdminAccount(t, db, "admin", "correct-password")

	w := performAdminJSON(t, h.AdminLogin, http.MethodPost, "/api/v1/admin/login",
		`{"username":"admin","password":"wrong"}`, 0)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status want 401 got %d (%s)", w.Code, w.Body.String())
	}
	statusCode, _ := decodeEnvelope(t, w)
	if statusCode != 401 {
		t.Fatalf("status_code want 401 got %d", statusCode)
	}
}

func TestUpdateAdminPasswordWrongOldPassword(t *testing.T) {
	h, db := setupAdminHandlerTest(t)
	adminID := seedAdminAccount(t, db, "admin", "correct-password")

	w := performAdminJSON(t, h.UpdateAdminPassword, http.MethodPut, "/api/v1/admin/password",
		`{"old_password":"wrong","new_password":"new-password"}`, adminID)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status want 400 got %d (%s)", w.Code, w.Body.String())
	}
}

func TestAdminIssueRedeemCode(t *testing.T) {
	h, db := setupAdminHandlerTest(t)
	adminID := seedAdminAccount(t, db, "admin", "correct-password")

	w := performAdminJSON(t, h.IssueRedeemCode, http.MethodPost, "/api/v1/admin/redeem-codes",
		`{"email":"backfill@example.com"}`, adminID)
	if w.Code != http.StatusCreated {
		t.Fatalf("status want 201 got %d (%s)", w.Code, w.Body.String())
	}

	var count int64
	if err := db.Model(&models.RedeemCode{}).Where("email = ?", "backfill@example.com").Count(&count).Error; err != nil {
		t.Fatalf("count codes failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("codes for email want 1 got %d", count)
	}
}
