package worker

import (
	"context"
	"encoding/json"

	"github.com/redactor-pro/license-api/internal/logger"
	"github.com/redactor-pro/license-api/internal/provider"
	"github.com/redactor-pro/license-api/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskRedeemCodeEmail, c.handleRedeemCodeEmail)
	mux.HandleFunc(queue.TaskDonationNotify, c.handleDonationNotify)
}

func (c *Consumer) handleRedeemCodeEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_redeem_code_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.RedeemCodeEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_redeem_code_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.RedeemCodeID == 0 {
		logger.Debugw("worker_redeem_code_email_skip_invalid_payload", "code_id", payload.RedeemCodeID)
		return nil
	}
	if c.KofiService == nil {
		logger.Warnw("worker_redeem_code_email_skip_service_nil", "code_id", payload.RedeemCodeID)
		return nil
	}
	// 任务不重试，失败只记录
	if err := c.KofiService.SendRedeemCodeEmail(payload.RedeemCodeID); err != nil {
		logger.Warnw("worker_redeem_code_email_send_failed", "code_id", payload.RedeemCodeID, "error", err)
	}
	return nil
}

func (c *Consumer) handleDonationNotify(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_donation_notify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.DonationNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_donation_notify_unmarshal_failed", "error", err)
		return err
	}
	if payload.DonationEventID == 0 {
		logger.Debugw("worker_donation_notify_skip_invalid_payload", "event_id", payload.DonationEventID)
		return nil
	}
	if c.KofiService == nil {
		logger.Warnw("worker_donation_notify_skip_service_nil", "event_id", payload.DonationEventID)
		return nil
	}
	if err := c.KofiService.NotifyDonation(ctx, payload.DonationEventID); err != nil {
		logger.Warnw("worker_donation_notify_send_failed", "event_id", payload.DonationEventID, "error", err)
	}
	return nil
}
