package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/redactor-pro/license-api/internal/models"

	"gorm.io/gorm"
)

// DonationEventListFilter 捐赠事件列表筛选
type DonationEventListFilter struct {
	Email       string
	Outcome     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// DonationEventRepository 捐赠事件仓储接口
type DonationEventRepository interface {
	Create(event *models.DonationEvent) error
	GetByID(id uint) (*models.DonationEvent, error)
	List(filter DonationEventListFilter) ([]models.DonationEvent, int64, error)
	CountByOutcome() (map[string]int64, error)
	WithTx(tx *gorm.DB) *GormDonationEventRepository
}

// GormDonationEventRepository GORM 捐赠事件仓储实现
type GormDonationEventRepository struct {
	db *gorm.DB
}

// NewDonationEventRepository 创建捐赠事件仓储
func NewDonationEventRepository(db *gorm.DB) *GormDonationEventRepository {
	return &GormDonationEventRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDonationEventRepository) WithTx(tx *gorm.DB) *GormDonationEventRepository {
	if tx == nil {
		return r
	}
	return &GormDonationEventRepository{db: tx}
}

// Create 创建捐赠事件记录
func (r *GormDonationEventRepository) Create(event *models.DonationEvent) error {
	if event == nil {
		return errors.New("invalid donation event")
	}
	return r.db.Create(event).Error
}

// GetByID 根据 ID 查询捐赠事件
func (r *GormDonationEventRepository) GetByID(id uint) (*models.DonationEvent, error) {
	if id == 0 {
		return nil, nil
	}
	var event models.DonationEvent
	if err := r.db.Preload("RedeemCode").First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// List 查询捐赠事件列表
func (r *GormDonationEventRepository) List(filter DonationEventListFilter) ([]models.DonationEvent, int64, error) {
	query := r.db.Model(&models.DonationEvent{}).Preload("RedeemCode")
	if email := strings.ToLower(strings.TrimSpace(filter.Email)); email != "" {
		query = query.Where("email LIKE ?", "%"+email+"%")
	}
	if outcome := strings.TrimSpace(filter.Outcome); outcome != "" {
		query = query.Where("outcome = ?", outcome)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Limit(filter.PageSize).Offset(offset)
	}

	var events []models.DonationEvent
	if err := query.Order("id desc").Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// CountByOutcome 按处理结果统计捐赠事件数量
func (r *GormDonationEventRepository) CountByOutcome() (map[string]int64, error) {
	type outcomeCount struct {
		Outcome string
		Count   int64
	}
	var rows []outcomeCount
	if err := r.db.Model(&models.DonationEvent{}).
		Select("outcome, count(*) as count").
		Group("outcome").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Outcome] = row.Count
	}
	return counts, nil
}
