package public

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redactor-pro/license-api/internal/config"
	"github.com/redactor-pro/license-api/internal/constants"
	"github.com/redactor-pro/license-api/internal/models"
	"github.com/redactor-pro/license-api/internal/provider"
	"github.com/redactor-pro/license-api/internal/repository"
	"github.com/redactor-pro/license-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupPublicHandlerTest(t *testing.T) (*Handler, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:public_handler_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.RedeemCode{}, &models.DonationEvent{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	redeemRepo := repository.NewRedeemCodeRepository(db)
	donationRepo := repository.NewDonationEventRepository(db)
	redeemSvc := service.NewRedeemCodeService(redeemRepo, "pro")
	tokenSvc := service.NewLicenseTokenService("public-handler-test-secret", redeemRepo)
	kofiSvc := service.NewKofiService(
		config.KofiConfig{VerificationToken: "kofi-test-token"},
		redeemSvc,
		donationRepo,
		service.NewEmailService(&config.EmailConfig{Enabled: false}),
		service.NewSlackService(config.SlackConfig{}),
		nil,
	)

	container := &provider.Container{
		RedeemCodeRepo:      redeemRepo,
		DonationEventRepo:   donationRepo,
		RedeemCodeService:   redeemSvc,
		LicenseTokenService: tokenSvc,
		KofiService:         kofiSvc,
	}
	return New(container), db
}

func performJSON(t *testing.T, handler gin.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	handler(c)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var data map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &data); err != nil {
		t.Fatalf("decode response body failed: %v (%s)", err, w.Body.String())
	}
	return data
}

func TestIssueRedeemCodeCreatesNewCode(t *testing.T) {
	h, db := setupPublicHandlerTest(t)

	w := performJSON(t, h.IssueRedeemCode, http.MethodPost, "/api/v1/redeem/issue",
		`{"email":"buyer@example.com"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d (%s)", http.StatusCreated, w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	if body["email"] != "buyer@example.com" {
		t.Fatalf("unexpected email in response: %v", body["email"])
	}
	if body["is_new"] != true {
		t.Fatalf("expected is_new=true, got: %v", body["is_new"])
	}
	code, _ := body["code"].(string)
	if len(code) != constants.RedeemCodeLength {
		t.Fatalf("unexpected code in response: %v", body["code"])
	}

	var stored models.RedeemCode
	if err := db.Where("code = ?", code).First(&stored).Error; err != nil {
		t.Fatalf("query stored code failed: %v", err)
	}
	if stored.Status != constants.RedeemCodeStatusUnused {
		t.Fatalf("expected stored status unused, got: %s", stored.Status)
	}
}

func TestIssueRedeemCodeRejectsBadRequests(t *testing.T) {
	h, _ := setupPublicHandlerTest(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing email", `{}`},
		{"invalid email", `{"email":"not-an-email"}`},
		{"malformed json", `{`},
	}
	for _, tc := range cases {
		w := performJSON(t, h.IssueRedeemCode, http.MethodPost, "/api/v1/redeem/issue", tc.body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected status %d, got %d (%s)", tc.name, http.StatusBadRequest, w.Code, w.Body.String())
		}
	}
}

func TestValidateRedeemCodeReturnsToken(t *testing.T) {
	h, _ := setupPublicHandlerTest(t)
	record, err := h.RedeemCodeService.IssueRedeemCode(service.IssueRedeemCodeInput{Email: "desk@example.com"})
	if err != nil {
		t.Fatalf("issue code failed: %v", err)
	}

	w := performJSON(t, h.ValidateRedeemCode, http.MethodPost, "/api/v1/redeem/validate",
		fmt.Sprintf(`{"email":"desk@example.com","code":"%s","device_id":"device-uuid-123"}`, record.Code))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d (%s)", http.StatusOK, w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	if body["is_valid"] != true {
		t.Fatalf("expected is_valid=true, got: %v", body["is_valid"])
	}
	token, _ := body["jwt_token"].(string)
	if token == "" {
		t.Fatal("expected jwt_token in response")
	}

	claims, verified, err := h.LicenseTokenService.VerifyAuthorization(token)
	if err != nil {
		t.Fatalf("returned token failed verification: %v", err)
	}
	if claims.DeviceID != "deviceuuid123" {
		t.Fatalf("expected normalized device in claims, got: %s", claims.DeviceID)
	}
	if verified.Code != record.Code {
		t.Fatalf("token bound to wrong code: %s", verified.Code)
	}
}

func TestValidateRedeemCodeTransferMessage(t *testing.T) {
	h, _ := setupPublicHandlerTest(t)
	record, err := h.RedeemCodeService.IssueRedeemCode(service.IssueRedeemCodeInput{Email: "swap@example.com"})
	if err != nil {
		t.Fatalf("issue code failed: %v", err)
	}
	if _, err := h.RedeemCodeService.ValidateRedeemCode(service.ValidateRedeemCodeInput{
		Email:    "swap@example.com",
		Code:     record.Code,
		DeviceID: "old-device",
	}); err != nil {
		t.Fatalf("first validate failed: %v", err)
	}

	w := performJSON(t, h.ValidateRedeemCode, http.MethodPost, "/api/v1/redeem/validate",
		fmt.Sprintf(`{"email":"swap@example.com","code":"%s","device_id":"new-device"}`, record.Code))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d (%s)", http.StatusOK, w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	message, _ := body["message"].(string)
	if !strings.Contains(message, "previous device") {
		t.Fatalf("expected transfer message mentioning previous device, got: %q", message)
	}
}

func TestValidateRedeemCodeUnknownPair(t *testing.T) {
	h, _ := setupPublicHandlerTest(t)
	record, err := h.RedeemCodeService.IssueRedeemCode(service.IssueRedeemCodeInput{Email: "owner@example.com"})
	if err != nil {
		t.Fatalf("issue code failed: %v", err)
	}

	w := performJSON(t, h.ValidateRedeemCode, http.MethodPost, "/api/v1/redeem/validate",
		fmt.Sprintf(`{"email":"stranger@example.com","code":"%s","device_id":"device-1"}`, record.Code))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d (%s)", http.StatusNotFound, w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	if body["is_valid"] != false {
		t.Fatalf("expected is_valid=false, got: %v", body["is_valid"])
	}
}
