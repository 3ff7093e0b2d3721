package models

import (
	"time"
)

// RedeemCode 兑换码表
type RedeemCode struct {
	ID        uint       `gorm:"primarykey" json:"id"`                    // 主键
	Email     string     `gorm:"index;not null" json:"email"`             // 购买者邮箱（允许重复）
	Code      string     `gorm:"uniqueIndex;size:8;not null" json:"code"` // 兑换码（8位 A-Z0-9，全局唯一）
	Status    string     `gorm:"index;not null" json:"status"`            // 状态（unused/used/deleted）
	DeviceID  *string    `gorm:"index" json:"device_id,omitempty"`        // 绑定设备ID（去连字符后存储）
	Plan      string     `gorm:"not null" json:"plan"`                    // 许可套餐
	UsedAt    *time.Time `gorm:"index" json:"used_at"`                    // 首次激活时间
	CreatedAt time.Time  `gorm:"index" json:"created_at"`                 // 创建时间
	UpdatedAt time.Time  `gorm:"index" json:"updated_at"`                 // 更新时间
}

// TableName 指定表名
func (RedeemCode) TableName() string {
	return "redeem_codes"
}

// BoundDevice 返回当前绑定的设备ID（未绑定返回空串）
func (r *RedeemCode) BoundDevice() string {
	if r.DeviceID == nil {
		return ""
	}
	return *r.DeviceID
}
