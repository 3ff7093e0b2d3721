package worker

import (
	"context"
	"testing"

	"github.com/redactor-pro/license-api/internal/provider"
	"github.com/redactor-pro/license-api/internal/queue"

	"github.com/hibiken/asynq"
)

func TestConsumerHandleRedeemCodeEmailMalformedPayload(t *testing.T) {
	c := NewConsumer(&provider.Container{})

	task := asynq.NewTask(queue.TaskRedeemCodeEmail, []byte("{not json"))
	if err := c.handleRedeemCodeEmail(context.Background(), task); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestConsumerHandleRedeemCodeEmailSkipsInvalidPayload(t *testing.T) {
	c := NewConsumer(&provider.Container{})

	// 无效 ID 不算失败，直接丢弃避免无意义重试
	task := asynq.NewTask(queue.TaskRedeemCodeEmail, []byte(`{"redeem_code_id":0}`))
	if err := c.handleRedeemCodeEmail(context.Background(), task); err != nil {
		t.Fatalf("expected nil for invalid payload, got: %v", err)
	}
}

func TestConsumerHandleDonationNotifyWithoutService(t *testing.T) {
	c := NewConsumer(&provider.Container{})

	task := asynq.NewTask(queue.TaskDonationNotify, []byte(`{"donation_event_id":7}`))
	if err := c.handleDonationNotify(context.Background(), task); err != nil {
		t.Fatalf("expected nil when service is missing, got: %v", err)
	}
}

func TestConsumerRegisterNilSafe(t *testing.T) {
	var nilConsumer *Consumer
	nilConsumer.Register(asynq.NewServeMux())

	c := NewConsumer(&provider.Container{})
	c.Register(nil)

	mux := asynq.NewServeMux()
	c.Register(mux)
}
