package models

import (
	"time"
)

// DonationEvent 捐赠事件表（每次通过校验的 Ko-fi 回调一条记录）
type DonationEvent struct {
	ID            uint      `gorm:"primarykey" json:"id"`                  // 主键
	TransactionID string    `gorm:"index" json:"transaction_id"`           // Ko-fi 交易ID
	FromName      string    `json:"from_name"`                             // 捐赠者昵称
	Amount        Money     `gorm:"type:decimal(10,2)" json:"amount"`      // 捐赠金额
	Currency      string    `json:"currency"`                              // 币种
	Message       string    `gorm:"type:text" json:"message"`              // 留言原文
	Email         string    `gorm:"index" json:"email"`                    // 从留言中识别出的邮箱
	RedeemCodeID  *uint     `gorm:"index" json:"redeem_code_id,omitempty"` // 关联发放的兑换码ID
	Outcome       string    `gorm:"index;not null" json:"outcome"`         // 处理结果（issued/no_email/failed）
	CreatedAt     time.Time `gorm:"index" json:"created_at"`               // 创建时间

	RedeemCode *RedeemCode `gorm:"foreignKey:RedeemCodeID" json:"redeem_code,omitempty"` // 发放的兑换码
}

// TableName 指定表名
func (DonationEvent) TableName() string {
	return "donation_events"
}
