package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/redactor-pro/license-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RedeemCodeListFilter 兑换码列表筛选
type RedeemCodeListFilter struct {
	Email       string
	Code        string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// RedeemCodeRepository 兑换码仓储接口
type RedeemCodeRepository interface {
	Create(code *models.RedeemCode) error
	GetByID(id uint) (*models.RedeemCode, error)
	GetByCode(code string) (*models.RedeemCode, error)
	GetByEmailAndCodeForUpdate(email, code string) (*models.RedeemCode, error)
	ExistsByCode(code string) (bool, error)
	List(filter RedeemCodeListFilter) ([]models.RedeemCode, int64, error)
	Update(code *models.RedeemCode) error
	CountByStatus() (map[string]int64, error)
	WithTx(tx *gorm.DB) *GormRedeemCodeRepository
}

// GormRedeemCodeRepository GORM 兑换码仓储实现
type GormRedeemCodeRepository struct {
	db *gorm.DB
}

// NewRedeemCodeRepository 创建兑换码仓储
func NewRedeemCodeRepository(db *gorm.DB) *GormRedeemCodeRepository {
	return &GormRedeemCodeRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRedeemCodeRepository) WithTx(tx *gorm.DB) *GormRedeemCodeRepository {
	if tx == nil {
		return r
	}
	return &GormRedeemCodeRepository{db: tx}
}

// Create 创建兑换码记录
func (r *GormRedeemCodeRepository) Create(code *models.RedeemCode) error {
	if code == nil {
		return errors.New("invalid redeem code")
	}
	return r.db.Create(code).Error
}

// GetByID 根据 ID 查询兑换码
func (r *GormRedeemCodeRepository) GetByID(id uint) (*models.RedeemCode, error) {
	if id == 0 {
		return nil, nil
	}
	var record models.RedeemCode
	if err := r.db.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetByCode 根据兑换码查询记录
func (r *GormRedeemCodeRepository) GetByCode(code string) (*models.RedeemCode, error) {
	code = strings.TrimSpace(strings.ToUpper(code))
	if code == "" {
		return nil, nil
	}
	var record models.RedeemCode
	if err := r.db.Where("code = ?", code).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetByEmailAndCodeForUpdate 按邮箱+兑换码加锁查询（验证路径的联合主键）
func (r *GormRedeemCodeRepository) GetByEmailAndCodeForUpdate(email, code string) (*models.RedeemCode, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	code = strings.TrimSpace(strings.ToUpper(code))
	if email == "" || code == "" {
		return nil, nil
	}
	var record models.RedeemCode
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("email = ? AND code = ?", email, code).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// ExistsByCode 判断兑换码是否已存在
func (r *GormRedeemCodeRepository) ExistsByCode(code string) (bool, error) {
	code = strings.TrimSpace(strings.ToUpper(code))
	if code == "" {
		return false, nil
	}
	var count int64
	if err := r.db.Model(&models.RedeemCode{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List 查询兑换码列表
func (r *GormRedeemCodeRepository) List(filter RedeemCodeListFilter) ([]models.RedeemCode, int64, error) {
	query := r.db.Model(&models.RedeemCode{})
	if email := strings.ToLower(strings.TrimSpace(filter.Email)); email != "" {
		query = query.Where("email LIKE ?", "%"+email+"%")
	}
	if code := strings.TrimSpace(strings.ToUpper(filter.Code)); code != "" {
		query = query.Where("code LIKE ?", "%"+code+"%")
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
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

	var records []models.RedeemCode
	if err := query.Order("id desc").Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Update 更新兑换码
func (r *GormRedeemCodeRepository) Update(code *models.RedeemCode) error {
	if code == nil {
		return errors.New("invalid redeem code")
	}
	return r.db.Save(code).Error
}

// CountByStatus 按状态统计兑换码数量
func (r *GormRedeemCodeRepository) CountByStatus() (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var rows []statusCount
	if err := r.db.Model(&models.RedeemCode{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
