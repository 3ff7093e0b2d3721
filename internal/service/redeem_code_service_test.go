package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/redactor-pro/license-api/internal/constants"
	"github.com/redactor-pro/license-api/internal/models"
	"github.com/redactor-pro/license-api/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupRedeemCodeServiceTest(t *testing.T) (*RedeemCodeService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:redeem_code_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.RedeemCode{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	svc := NewRedeemCodeService(repository.NewRedeemCodeRepository(db), "pro")
	return svc, db
}

func TestRedeemCodeServiceGenerateCodeFormat(t *testing.T) {
	svc, _ := setupRedeemCodeServiceTest(t)
	code, err := svc.GenerateCode()
	if err != nil {
		t.Fatalf("generate code failed: %v", err)
	}
	if len(code) != constants.RedeemCodeLength {
		t.Fatalf("expected code length %d, got: %d (%s)", constants.RedeemCodeLength, len(code), code)
	}
	for _, r := range code {
		if !strings.ContainsRune(constants.RedeemCodeAlphabet, r) {
			t.Fatalf("code contains character outside alphabet: %q in %s", r, code)
		}
	}
}

func TestRedeemCodeServiceIssueIsAdditive(t *testing.T) {
	svc, db := setupRedeemCodeServiceTest(t)

	first, err := svc.IssueRedeemCode(IssueRedeemCodeInput{Email: "User@Example.com"})
	if err != nil {
		t.Fatalf("issue first code failed: %v", err)
	}
	second, err := svc.IssueRedeemCode(IssueRedeemCodeInput{Email: "user@example.com"})
	if err != nil {
		t.Fatalf("issue second code failed: %v", err)
	}

	if first.Email != "user@example.com" {
		t.Fatalf("expected lowercased email, got: %s", first.Email)
	}
	if first.Code == second.Code {
		t.Fatalf("expected distinct codes, both are: %s", first.Code)
	}
	if first.Status != constants.RedeemCodeStatusUnused || second.Status != constants.RedeemCodeStatusUnused {
		t.Fatalf("expected unused status, got: %s / %s", first.Status, second.Status)
	}
	if first.Plan != "pro" {
		t.Fatalf("expected default plan pro, got: %s", first.Plan)
	}

	var count int64
	if err := db.Model(&models.RedeemCode{}).Where("email = ?", "user@example.com").Count(&count).Error; err != nil {
		t.Fatalf("count codes failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 codes for the same email, got: %d", count)
	}
}

func TestRedeemCodeServiceIssueRejectsInvalidEmail(t *testing.T) {
	svc, _ := setupRedeemCodeServiceTest(t)
	for _, email := range []string{"", "not-an-email", "user@", "@example.com"} {
		if _, err := svc.IssueRedeemCode(IssueRedeemCodeInput{Email: email}); !errors.Is(err, ErrInvalidEmail) {
			t.Fatalf("expected ErrInvalidEmail for %q, got: %v", email, err)
		}
	}
}

func TestRedeemCodeServiceValidateBindsDevice(t *testing.T) {
	svc, db := setupRedeemCodeServiceTest(t)
	record, err := svc.IssueRedeemCode(IssueRedeemCodeInput{Email: "bind@example.com"})
	if err != nil {
		t.Fatalf("issue code failed: %v", err)
	}

	outcome, err := svc.ValidateRedeemCode(ValidateRedeemCodeInput{
		Email:    "bind@example.com",
		Code:     record.Code,
		DeviceID: "device-uuid-123",
	})
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if outcome.Result != constants.ValidationResultValidated {
		t.Fatalf("expected validated, got: %s", outcome.Result)
	}
	// 设备标识去连字符后存储
	if outcome.Record.BoundDevice() != "deviceuuid123" {
		t.Fatalf("expected normalized device id, got: %s", outcome.Record.BoundDevice())
	}

	var stored models.RedeemCode
	if err := db.First(&stored, record.ID).Error; err != nil {
		t.Fatalf("query stored record failed: %v", err)
	}
	if stored.Status != constants.RedeemCodeStatusUsed {
		t.Fatalf("expected status used, got: %s", stored.Status)
	}
	if stored.UsedAt == nil {
		t.Fatal("expected used_at to be set")
	}
}

func TestRedeemCodeServiceValidateIdempotentForSameDevice(t *testing.T) {
	svc, _ := setupRedeemCodeServiceTest(t)
	record, err := svc.IssueRedeemCode(IssueRedeemCodeInput{Email: "same@example.com"})
	if err != nil {
		t.Fatalf("issue code failed: %v", err)
	}

	first, err := svc.ValidateRedeemCode(ValidateRedeemCodeInput{
		Email:    "same@example.com",
		Code:     record.Code,
		DeviceID: "aaaa-bbbb-cccc",
	})
	if err != nil {
		t.Fatalf("first validate failed: %v", err)
	}
	second, err := svc.ValidateRedeemCode(ValidateRedeemCodeInput{
		Email:    "same@example.com",
		Code:     record.Code,
		DeviceID: "aaaabbbbcccc",
	})
	if err != nil {
		t.Fatalf("repeat validate failed: %v", err)
	}
	if second.Result != constants.ValidationResultValidated {
		t.Fatalf("expected validated on repeat, got: %s", second.Result)
	}
	if second.Record.BoundDevice() != first.Record.BoundDevice() {
		t.Fatalf("device binding changed on repeat validate: %s -> %s",
			first.Record.BoundDevice(), second.Record.BoundDevice())
	}
	if first.Record.UsedAt == nil || second.Record.UsedAt == nil ||
		!first.Record.UsedAt.Equal(*second.Record.UsedAt) {
		t.Fatalf("used_at changed on repeat validate: %v -> %v", first.Record.UsedAt, second.Record.UsedAt)
	}
}

func TestRedeemCodeServiceValidateTransfersDevice(t *testing.T) {
	svc, db := setupRedeemCodeServiceTest(t)
	record, err := svc.IssueRedeemCode(IssueRedeemCodeInput{Email: "move@example.com"})
	if err != nil {
		t.Fatalf("issue code failed: %v", err)
	}

	if _, err := svc.ValidateRedeemCode(ValidateRedeemCodeInput{
		Email:    "move@example.com",
		Code:     record.Code,
		DeviceID: "old-device-1",
	}); err != nil {
		t.Fatalf("first validate failed: %v", err)
	}

	outcome, err := svc.ValidateRedeemCode(ValidateRedeemCodeInput{
		Email:    "move@example.com",
		Code:     record.Code,
		DeviceID: "new-device-2",
	})
	if err != nil {
		t.Fatalf("transfer validate failed: %v", err)
	}
	if outcome.Result != constants.ValidationResultTransferred {
		t.Fatalf("expected transferred, got: %s", outcome.Result)
	}
	if outcome.PreviousDevice != "olddevice1" {
		t.Fatalf("expected previous device olddevice1, got: %s", outcome.PreviousDevice)
	}
	if outcome.Record.BoundDevice() != "newdevice2" {
		t.Fatalf("expected new device binding, got: %s", outcome.Record.BoundDevice())
	}

	var stored models.RedeemCode
	if err := db.First(&stored, record.ID).Error; err != nil {
		t.Fatalf("query stored record failed: %v", err)
	}
	if stored.BoundDevice() != "newdevice2" {
		t.Fatalf("expected stored binding newdevice2, got: %s", stored.BoundDevice())
	}
	if stored.Status != constants.RedeemCodeStatusUsed {
		t.Fatalf("expected status used after transfer, got: %s", stored.Status)
	}
}

func TestRedeemCodeServiceValidateUnknownPair(t *testing.T) {
	svc, _ := setupRedeemCodeServiceTest(t)
	record, err := svc.IssueRedeemCode(IssueRedeemCodeInput{Email: "owner@example.com"})
	if err != nil {
		t.Fatalf("issue code failed: %v", err)
	}

	// 码存在但邮箱不匹配，等同不存在
	if _, err := svc.ValidateRedeemCode(ValidateRedeemCodeInput{
		Email:    "other@example.com",
		Code:     record.Code,
		DeviceID: "device-1",
	}); !errors.Is(err, ErrRedeemCodeNotFound) {
		t.Fatalf("expected ErrRedeemCodeNotFound for wrong email, got: %v", err)
	}

	if _, err := svc.ValidateRedeemCode(ValidateRedeemCodeInput{
		Email:    "owner@example.com",
		Code:     "NOPE0000",
		DeviceID: "device-1",
	}); !errors.Is(err, ErrRedeemCodeNotFound) {
		t.Fatalf("expected ErrRedeemCodeNotFound for unknown code, got: %v", err)
	}
}

func TestRedeemCodeServiceValidateDeletedCode(t *testing.T) {
	svc, _ := setupRedeemCodeServiceTest(t)
	record, err := svc.IssueRedeemCode(IssueRedeemCodeInput{Email: "gone@example.com"})
	if err != nil {
		t.Fatalf("issue code failed: %v", err)
	}
	if err := svc.SoftDeleteRedeemCode(record.ID); err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}

	if _, err := svc.ValidateRedeemCode(ValidateRedeemCodeInput{
		Email:    "gone@example.com",
		Code:     record.Code,
		DeviceID: "device-1",
	}); !errors.Is(err, ErrRedeemCodeNotFound) {
		t.Fatalf("expected ErrRedeemCodeNotFound for deleted code, got: %v", err)
	}
}

func TestRedeemCodeServiceValidateRequiresDevice(t *testing.T) {
	svc, _ := setupRedeemCodeServiceTest(t)
	record, err := svc.IssueRedeemCode(IssueRedeemCodeInput{Email: "nodev@example.com"})
	if err != nil {
		t.Fatalf("issue code failed: %v", err)
	}

	for _, device := range []string{"", "   ", "---"} {
		if _, err := svc.ValidateRedeemCode(ValidateRedeemCodeInput{
			Email:    "nodev@example.com",
			Code:     record.Code,
			DeviceID: device,
		}); !errors.Is(err, ErrInvalidDeviceID) {
			t.Fatalf("expected ErrInvalidDeviceID for %q, got: %v", device, err)
		}
	}
}

func TestRedeemCodeServiceValidateAcceptsLowercaseCode(t *testing.T) {
	svc, _ := setupRedeemCodeServiceTest(t)
	record, err := svc.IssueRedeemCode(IssueRedeemCodeInput{Email: "case@example.com"})
	if err != nil {
		t.Fatalf("issue code failed: %v", err)
	}

	outcome, err := svc.ValidateRedeemCode(ValidateRedeemCodeInput{
		Email:    "CASE@example.com",
		Code:     strings.ToLower(record.Code),
		DeviceID: "device-1",
	})
	if err != nil {
		t.Fatalf("validate with lowercase code failed: %v", err)
	}
	if outcome.Record.ID != record.ID {
		t.Fatalf("validated wrong record: %d != %d", outcome.Record.ID, record.ID)
	}
}

func TestRedeemCodeServiceSoftDeleteTwice(t *testing.T) {
	svc, _ := setupRedeemCodeServiceTest(t)
	record, err := svc.IssueRedeemCode(IssueRedeemCodeInput{Email: "del@example.com"})
	if err != nil {
		t.Fatalf("issue code failed: %v", err)
	}

	if err := svc.SoftDeleteRedeemCode(record.ID); err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}
	if err := svc.SoftDeleteRedeemCode(record.ID); !errors.Is(err, ErrRedeemCodeNotFound) {
		t.Fatalf("expected ErrRedeemCodeNotFound on repeat delete, got: %v", err)
	}
}

func TestRedeemCodeServiceCountByStatus(t *testing.T) {
	svc, _ := setupRedeemCodeServiceTest(t)
	first, err := svc.IssueRedeemCode(IssueRedeemCodeInput{Email: "count@example.com"})
	if err != nil {
		t.Fatalf("issue code failed: %v", err)
	}
	if _, err := svc.IssueRedeemCode(IssueRedeemCodeInput{Email: "count@example.com"}); err != nil {
		t.Fatalf("issue second code failed: %v", err)
	}
	if _, err := svc.ValidateRedeemCode(ValidateRedeemCodeInput{
		Email:    "count@example.com",
		Code:     first.Code,
		DeviceID: "device-1",
	}); err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	counts, err := svc.CountByStatus()
	if err != nil {
		t.Fatalf("count by status failed: %v", err)
	}
	if counts[constants.RedeemCodeStatusUnused] != 1 {
		t.Fatalf("expected 1 unused, got: %d", counts[constants.RedeemCodeStatusUnused])
	}
	if counts[constants.RedeemCodeStatusUsed] != 1 {
		t.Fatalf("expected 1 used, got: %d", counts[constants.RedeemCodeStatusUsed])
	}
}

func TestNormalizeDeviceID(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"device-uuid-123", "deviceuuid123"},
		{"  device-1  ", "device1"},
		{"nodashes", "nodashes"},
		{"--", ""},
		{"a-b-c-d-e", "abcde"},
		{"ABCD-1234-EF56", "ABCD1234EF56"},
		{"", ""},
		{"device_underscore", "device_underscore"},
	}
	for _, tc := range cases {
		if got := NormalizeDeviceID(tc.input); got != tc.want {
			t.Fatalf("NormalizeDeviceID(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
