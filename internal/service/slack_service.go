package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redactor-pro/license-api/internal/config"
)

// SlackService Slack Incoming Webhook 通知服务
type SlackService struct {
	webhookURL string
	httpClient *http.Client
}

// NewSlackService 创建 Slack 通知服务
func NewSlackService(cfg config.SlackConfig) *SlackService {
	timeout := cfg.TimeoutMS
	if timeout < 500 || timeout > 10000 {
		timeout = 3000
	}
	return &SlackService{
		webhookURL: strings.TrimSpace(cfg.WebhookURL),
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Millisecond,
		},
	}
}

// Enabled 判断是否配置了 Webhook 地址
func (s *SlackService) Enabled() bool {
	return s != nil && s.webhookURL != ""
}

// Notify 发送一条文本通知
func (s *SlackService) Notify(ctx context.Context, text string) error {
	if !s.Enabled() {
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook status %d", resp.StatusCode)
	}
	return nil
}

// DonationNotifyInput 捐赠通知输入
type DonationNotifyInput struct {
	FromName string
	Amount   string
	Currency string
	Email    string
	Code     string
	Outcome  string
}

// NotifyDonation 发送捐赠处理结果通知
func (s *SlackService) NotifyDonation(ctx context.Context, input DonationNotifyInput) error {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Ko-fi donation from %s (%s %s)", input.FromName, input.Amount, input.Currency))
	if input.Email != "" {
		builder.WriteString(fmt.Sprintf("\nEmail: %s", input.Email))
	}
	if input.Code != "" {
		builder.WriteString(fmt.Sprintf("\nRedeem code issued: %s", input.Code))
	}
	builder.WriteString(fmt.Sprintf("\nOutcome: %s", input.Outcome))
	return s.Notify(ctx, builder.String())
}
