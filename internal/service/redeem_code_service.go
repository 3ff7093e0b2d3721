package service

import (
	"regexp"
	"strings"
	"time"

	"github.com/redactor-pro/license-api/internal/constants"
	"github.com/redactor-pro/license-api/internal/logger"
	"github.com/redactor-pro/license-api/internal/models"
	"github.com/redactor-pro/license-api/internal/repository"

	gonanoid "github.com/matoous/go-nanoid"
	"gorm.io/gorm"
)

// 邮箱格式校验（发放与验证入口统一使用）
var emailPattern = regexp.MustCompile(`^[\w\.-]+@[\w\.-]+\.\w+$`)

// RedeemCodeService 兑换码服务
type RedeemCodeService struct {
	repo        repository.RedeemCodeRepository
	defaultPlan string
}

// IssueRedeemCodeInput 发放兑换码输入
type IssueRedeemCodeInput struct {
	Email string
	Plan  string
}

// ValidateRedeemCodeInput 验证兑换码输入
type ValidateRedeemCodeInput struct {
	Email    string
	Code     string
	DeviceID string
}

// ValidationOutcome 验证结果
type ValidationOutcome struct {
	Record         *models.RedeemCode
	Result         string // validated / transferred
	PreviousDevice string // 转移时被解绑的设备
}

// RedeemCodeListInput 兑换码列表输入
type RedeemCodeListInput struct {
	Email       string
	Code        string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// NewRedeemCodeService 创建兑换码服务
func NewRedeemCodeService(repo repository.RedeemCodeRepository, defaultPlan string) *RedeemCodeService {
	plan := strings.TrimSpace(defaultPlan)
	if plan == "" {
		plan = constants.RedeemCodeDefaultPlan
	}
	return &RedeemCodeService{
		repo:        repo,
		defaultPlan: plan,
	}
}

// GenerateCode 生成全局唯一兑换码（碰撞时重抽，次数封顶）
func (s *RedeemCodeService) GenerateCode() (string, error) {
	if s == nil || s.repo == nil {
		return "", ErrRedeemCodeCreateFailed
	}
	for attempt := 0; attempt < constants.RedeemCodeMaxGenRetries; attempt++ {
		code, err := gonanoid.Generate(constants.RedeemCodeAlphabet, constants.RedeemCodeLength)
		if err != nil {
			return "", ErrRedeemCodeCreateFailed
		}
		exists, err := s.repo.ExistsByCode(code)
		if err != nil {
			return "", ErrRedeemCodeFetchFailed
		}
		if !exists {
			return code, nil
		}
		logger.Warnw("redeem_code_collision_redraw", "attempt", attempt+1)
	}
	return "", ErrCodeGenerationExhausted
}

// IssueRedeemCode 发放兑换码（无条件追加，同一邮箱可持有多个码）
func (s *RedeemCodeService) IssueRedeemCode(input IssueRedeemCodeInput) (*models.RedeemCode, error) {
	if s == nil || s.repo == nil {
		return nil, ErrRedeemCodeCreateFailed
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	plan := strings.TrimSpace(input.Plan)
	if plan == "" {
		plan = s.defaultPlan
	}

	code, err := s.GenerateCode()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	record := &models.RedeemCode{
		Email:     email,
		Code:      code,
		Status:    constants.RedeemCodeStatusUnused,
		Plan:      plan,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(record); err != nil {
		return nil, ErrRedeemCodeCreateFailed
	}

	logger.Infow("redeem_code_issued", "email", email, "code_id", record.ID)
	return record, nil
}

// ValidateRedeemCode 验证兑换码并执行设备绑定状态机
//
// 未使用 → 绑定设备并置为已使用；已使用且设备一致 → 幂等成功；
// 已使用且设备不一致 → 改绑新设备（转移，旧设备失效）。
func (s *RedeemCodeService) ValidateRedeemCode(input ValidateRedeemCodeInput) (*ValidationOutcome, error) {
	if s == nil || s.repo == nil {
		return nil, ErrRedeemCodeFetchFailed
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	code := strings.TrimSpace(strings.ToUpper(input.Code))
	device := NormalizeDeviceID(input.DeviceID)
	if email == "" || code == "" {
		return nil, ErrRedeemCodeInvalid
	}
	if device == "" {
		return nil, ErrInvalidDeviceID
	}

	var outcome *ValidationOutcome
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.GetByEmailAndCodeForUpdate(email, code)
		if err != nil {
			return ErrRedeemCodeFetchFailed
		}
		// 邮箱+兑换码联合查找，已删除的码等同不存在
		if record == nil || record.Status == constants.RedeemCodeStatusDeleted {
			return ErrRedeemCodeNotFound
		}

		now := time.Now()
		switch record.Status {
		case constants.RedeemCodeStatusUnused:
			record.Status = constants.RedeemCodeStatusUsed
			record.DeviceID = &device
			record.UsedAt = &now
			record.UpdatedAt = now
			if err := repo.Update(record); err != nil {
				return ErrRedeemCodeUpdateFailed
			}
			outcome = &ValidationOutcome{Record: record, Result: constants.ValidationResultValidated}
			return nil
		case constants.RedeemCodeStatusUsed:
			if record.BoundDevice() == device {
				outcome = &ValidationOutcome{Record: record, Result: constants.ValidationResultValidated}
				return nil
			}
			previous := record.BoundDevice()
			record.DeviceID = &device
			record.UpdatedAt = now
			if err := repo.Update(record); err != nil {
				return ErrRedeemCodeUpdateFailed
			}
			outcome = &ValidationOutcome{
				Record:         record,
				Result:         constants.ValidationResultTransferred,
				PreviousDevice: previous,
			}
			return nil
		default:
			return ErrRedeemCodeNotFound
		}
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("redeem_code_validated",
		"code_id", outcome.Record.ID,
		"result", outcome.Result,
	)
	return outcome, nil
}

// ListRedeemCodes 获取兑换码列表
func (s *RedeemCodeService) ListRedeemCodes(input RedeemCodeListInput) ([]models.RedeemCode, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrRedeemCodeFetchFailed
	}
	filter := repository.RedeemCodeListFilter{
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		Code:        strings.TrimSpace(strings.ToUpper(input.Code)),
		Status:      strings.TrimSpace(strings.ToLower(input.Status)),
		CreatedFrom: input.CreatedFrom,
		CreatedTo:   input.CreatedTo,
		Page:        input.Page,
		PageSize:    input.PageSize,
	}
	records, total, err := s.repo.List(filter)
	if err != nil {
		return nil, 0, ErrRedeemCodeFetchFailed
	}
	return records, total, nil
}

// SoftDeleteRedeemCode 软删除兑换码（记录保留，验证时视为不存在）
func (s *RedeemCodeService) SoftDeleteRedeemCode(id uint) error {
	if s == nil || s.repo == nil || id == 0 {
		return ErrRedeemCodeInvalid
	}
	record, err := s.repo.GetByID(id)
	if err != nil {
		return ErrRedeemCodeFetchFailed
	}
	if record == nil || record.Status == constants.RedeemCodeStatusDeleted {
		return ErrRedeemCodeNotFound
	}
	record.Status = constants.RedeemCodeStatusDeleted
	record.UpdatedAt = time.Now()
	if err := s.repo.Update(record); err != nil {
		return ErrRedeemCodeUpdateFailed
	}
	logger.Infow("redeem_code_soft_deleted", "code_id", id)
	return nil
}

// CountByStatus 按状态统计兑换码数量
func (s *RedeemCodeService) CountByStatus() (map[string]int64, error) {
	if s == nil || s.repo == nil {
		return nil, ErrRedeemCodeFetchFailed
	}
	counts, err := s.repo.CountByStatus()
	if err != nil {
		return nil, ErrRedeemCodeFetchFailed
	}
	return counts, nil
}

// NormalizeDeviceID 规范化设备标识（去除连字符后比较与存储）
func NormalizeDeviceID(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), "-", "")
}

// IsValidEmail 判断邮箱格式是否合法
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}
