package service

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/redactor-pro/license-api/internal/config"
	"github.com/redactor-pro/license-api/internal/constants"
	"github.com/redactor-pro/license-api/internal/logger"
	"github.com/redactor-pro/license-api/internal/models"
	"github.com/redactor-pro/license-api/internal/queue"
	"github.com/redactor-pro/license-api/internal/repository"
)

// 捐赠留言中的邮箱识别（取第一个匹配）
var kofiEmailScanPattern = regexp.MustCompile(`[\w\.-]+@[\w\.-]+\.\w+`)

// KofiPayload Ko-fi 回调数据
type KofiPayload struct {
	VerificationToken string `json:"verification_token"`
	MessageID         string `json:"message_id"`
	Timestamp         string `json:"timestamp"`
	Type              string `json:"type"`
	FromName          string `json:"from_name"`
	Message           string `json:"message"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	KofiTransactionID string `json:"kofi_transaction_id"`
}

// KofiService Ko-fi 捐赠回调处理服务
type KofiService struct {
	verificationToken string
	redeemSvc         *RedeemCodeService
	donationRepo      repository.DonationEventRepository
	emailSvc          *EmailService
	slackSvc          *SlackService
	queueClient       *queue.Client
}

// NewKofiService 创建 Ko-fi 回调服务
func NewKofiService(
	cfg config.KofiConfig,
	redeemSvc *RedeemCodeService,
	donationRepo repository.DonationEventRepository,
	emailSvc *EmailService,
	slackSvc *SlackService,
	queueClient *queue.Client,
) *KofiService {
	return &KofiService{
		verificationToken: strings.TrimSpace(cfg.VerificationToken),
		redeemSvc:         redeemSvc,
		donationRepo:      donationRepo,
		emailSvc:          emailSvc,
		slackSvc:          slackSvc,
		queueClient:       queueClient,
	}
}

// ParsePayload 解析回调 JSON 数据
func ParsePayload(raw []byte) (*KofiPayload, error) {
	if len(raw) == 0 {
		return nil, ErrKofiMalformedPayload
	}
	var payload KofiPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, ErrKofiMalformedPayload
	}
	return &payload, nil
}

// ProcessWebhook 处理一次通过解析的 Ko-fi 回调
//
// 校验令牌不匹配返回 ErrKofiTokenMismatch；其余情况一律落库并返回事件，
// 发码或旁路通知失败不向上传递（回调方只关心已接收）。
func (s *KofiService) ProcessWebhook(ctx context.Context, payload *KofiPayload) (*models.DonationEvent, error) {
	if s == nil || s.donationRepo == nil || payload == nil {
		return nil, ErrKofiMalformedPayload
	}
	if s.verificationToken == "" || payload.VerificationToken != s.verificationToken {
		return nil, ErrKofiTokenMismatch
	}

	amount, err := models.NewMoneyFromString(strings.TrimSpace(payload.Amount))
	if err != nil {
		amount = models.Money{}
	}
	currency := strings.TrimSpace(payload.Currency)
	if currency == "" {
		currency = constants.DonationCurrencyUnknown
	}

	event := &models.DonationEvent{
		TransactionID: strings.TrimSpace(payload.KofiTransactionID),
		FromName:      strings.TrimSpace(payload.FromName),
		Amount:        amount,
		Currency:      currency,
		Message:       payload.Message,
	}

	email := scanEmail(payload.Message)
	if email == "" {
		event.Outcome = constants.DonationOutcomeNoEmail
		logger.Infow("kofi_donation_without_email", "transaction_id", event.TransactionID)
	} else {
		event.Email = email
		record, issueErr := s.redeemSvc.IssueRedeemCode(IssueRedeemCodeInput{Email: email})
		if issueErr != nil {
			event.Outcome = constants.DonationOutcomeFailed
			logger.Errorw("kofi_code_issue_failed",
				"transaction_id", event.TransactionID,
				"email", email,
				"error", issueErr,
			)
		} else {
			event.Outcome = constants.DonationOutcomeIssued
			event.RedeemCodeID = &record.ID
		}
	}

	if err := s.donationRepo.Create(event); err != nil {
		logger.Errorw("donation_event_persist_failed",
			"transaction_id", event.TransactionID,
			"error", err,
		)
		return nil, ErrDonationEventFetchFailed
	}

	s.dispatchSideChannels(ctx, event)
	return event, nil
}

// dispatchSideChannels 分发邮件与 Slack 旁路通知（尽力而为，不重试）
func (s *KofiService) dispatchSideChannels(ctx context.Context, event *models.DonationEvent) {
	if s.queueClient.Enabled() {
		if event.Outcome == constants.DonationOutcomeIssued && event.RedeemCodeID != nil {
			if err := s.queueClient.EnqueueRedeemCodeEmail(queue.RedeemCodeEmailPayload{RedeemCodeID: *event.RedeemCodeID}); err != nil {
				logger.Warnw("redeem_code_email_enqueue_failed", "code_id", *event.RedeemCodeID, "error", err)
			}
		}
		if err := s.queueClient.EnqueueDonationNotify(queue.DonationNotifyPayload{DonationEventID: event.ID}); err != nil {
			logger.Warnw("donation_notify_enqueue_failed", "event_id", event.ID, "error", err)
		}
		return
	}

	// 队列未启用时同步发送
	if event.Outcome == constants.DonationOutcomeIssued && event.RedeemCodeID != nil {
		if err := s.SendRedeemCodeEmail(*event.RedeemCodeID); err != nil {
			logger.Warnw("redeem_code_email_send_failed", "code_id", *event.RedeemCodeID, "error", err)
		}
	}
	if err := s.NotifyDonation(ctx, event.ID); err != nil {
		logger.Warnw("donation_notify_send_failed", "event_id", event.ID, "error", err)
	}
}

// SendRedeemCodeEmail 发送兑换码邮件（worker 与同步路径共用）
func (s *KofiService) SendRedeemCodeEmail(codeID uint) error {
	if s == nil || s.emailSvc == nil {
		return ErrEmailServiceDisabled
	}
	record, err := s.redeemSvc.repo.GetByID(codeID)
	if err != nil {
		return ErrRedeemCodeFetchFailed
	}
	if record == nil {
		return ErrRedeemCodeNotFound
	}
	return s.emailSvc.SendRedeemCodeEmail(record.Email, RedeemCodeEmailInput{
		Code: record.Code,
		Plan: record.Plan,
	})
}

// NotifyDonation 发送捐赠 Slack 通知（worker 与同步路径共用）
func (s *KofiService) NotifyDonation(ctx context.Context, eventID uint) error {
	if s == nil || s.slackSvc == nil || !s.slackSvc.Enabled() {
		return nil
	}
	event, err := s.donationRepo.GetByID(eventID)
	if err != nil {
		return ErrDonationEventFetchFailed
	}
	if event == nil {
		return ErrNotFound
	}
	code := ""
	if event.RedeemCode != nil {
		code = event.RedeemCode.Code
	}
	return s.slackSvc.NotifyDonation(ctx, DonationNotifyInput{
		FromName: event.FromName,
		Amount:   event.Amount.String(),
		Currency: event.Currency,
		Email:    event.Email,
		Code:     code,
		Outcome:  event.Outcome,
	})
}

// ListDonationEvents 获取捐赠事件列表
func (s *KofiService) ListDonationEvents(input repository.DonationEventListFilter) ([]models.DonationEvent, int64, error) {
	if s == nil || s.donationRepo == nil {
		return nil, 0, ErrDonationEventFetchFailed
	}
	events, total, err := s.donationRepo.List(input)
	if err != nil {
		return nil, 0, ErrDonationEventFetchFailed
	}
	return events, total, nil
}

// CountByOutcome 按处理结果统计捐赠事件
func (s *KofiService) CountByOutcome() (map[string]int64, error) {
	if s == nil || s.donationRepo == nil {
		return nil, ErrDonationEventFetchFailed
	}
	counts, err := s.donationRepo.CountByOutcome()
	if err != nil {
		return nil, ErrDonationEventFetchFailed
	}
	return counts, nil
}

func scanEmail(message string) string {
	return kofiEmailScanPattern.FindString(message)
}
