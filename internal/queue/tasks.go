package queue

import (
	"encoding/json"

	"github.com/redactor-pro/license-api/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskRedeemCodeEmail 兑换码邮件投递任务
	TaskRedeemCodeEmail = constants.TaskRedeemCodeEmail
	// TaskDonationNotify 捐赠 Slack 通知任务
	TaskDonationNotify = constants.TaskDonationNotify
)

// RedeemCodeEmailPayload 兑换码邮件任务载荷
type RedeemCodeEmailPayload struct {
	RedeemCodeID uint `json:"redeem_code_id"`
}

// DonationNotifyPayload 捐赠通知任务载荷
type DonationNotifyPayload struct {
	DonationEventID uint `json:"donation_event_id"`
}

// NewRedeemCodeEmailTask 创建兑换码邮件任务
func NewRedeemCodeEmailTask(payload RedeemCodeEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRedeemCodeEmail, body), nil
}

// NewDonationNotifyTask 创建捐赠通知任务
func NewDonationNotifyTask(payload DonationNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDonationNotify, body), nil
}
