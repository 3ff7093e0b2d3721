package main

import (
	"fmt"
	"time"

	"github.com/redactor-pro/license-api/internal/config"
	"github.com/redactor-pro/license-api/internal/constants"
	"github.com/redactor-pro/license-api/internal/logger"
	"github.com/redactor-pro/license-api/internal/models"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 默认管理员
	if err := models.InitDefaultAdmin("", ""); err != nil {
		stdLog.Printf("Failed to init default admin: %v", err)
	}

	now := time.Now()
	usedAt := now.Add(-48 * time.Hour)
	boundDevice := "deviceseed0001"

	// 演示兑换码（覆盖三种状态）
	codes := []models.RedeemCode{
		{
			Email:  "alice@example.com",
			Code:   "SEEDA001",
			Status: constants.RedeemCodeStatusUnused,
			Plan:   constants.RedeemCodeDefaultPlan,
		},
		{
			Email:    "bob@example.com",
			Code:     "SEEDB002",
			Status:   constants.RedeemCodeStatusUsed,
			DeviceID: &boundDevice,
			Plan:     constants.RedeemCodeDefaultPlan,
			UsedAt:   &usedAt,
		},
		{
			Email:  "carol@example.com",
			Code:   "SEEDC003",
			Status: constants.RedeemCodeStatusDeleted,
			Plan:   constants.RedeemCodeDefaultPlan,
		},
	}

	for _, code := range codes {
		var existing models.RedeemCode
		if err := models.DB.Where("code = ?", code.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&code).Error; err != nil {
				stdLog.Printf("Failed to create redeem code %s: %v", code.Code, err)
			} else {
				stdLog.Printf("Created redeem code: %s (%s)", code.Code, code.Status)
			}
		} else {
			stdLog.Printf("Redeem code already exists: %s", code.Code)
		}
	}

	// 演示捐赠事件
	amount, err := models.NewMoneyFromString("5.00")
	if err != nil {
		stdLog.Fatalf("Failed to parse seed amount: %v", err)
	}
	events := []models.DonationEvent{
		{
			TransactionID: "seed-kofi-tx-0001",
			FromName:      "Alice",
			Amount:        amount,
			Currency:      "USD",
			Message:       "Thanks for the great tool! alice@example.com",
			Email:         "alice@example.com",
			Outcome:       constants.DonationOutcomeIssued,
		},
		{
			TransactionID: "seed-kofi-tx-0002",
			FromName:      "Anonymous",
			Amount:        amount,
			Currency:      "USD",
			Message:       "Keep up the good work!",
			Outcome:       constants.DonationOutcomeNoEmail,
		},
	}

	for _, event := range events {
		var existing models.DonationEvent
		if err := models.DB.Where("transaction_id = ?", event.TransactionID).First(&existing).Error; err != nil {
			if err := models.DB.Create(&event).Error; err != nil {
				stdLog.Printf("Failed to create donation event %s: %v", event.TransactionID, err)
			} else {
				stdLog.Printf("Created donation event: %s (%s)", event.TransactionID, event.Outcome)
			}
		} else {
			stdLog.Printf("Donation event already exists: %s", event.TransactionID)
		}
	}

	fmt.Println("\n✅ Seed data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 1 Default admin (admin / admin123)")
	fmt.Println("- 3 Redeem codes (unused / used / deleted)")
	fmt.Println("- 2 Donation events (issued / no_email)")
}
