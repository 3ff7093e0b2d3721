package constants

// 兑换码状态常量
const (
	RedeemCodeStatusUnused  = "unused"
	RedeemCodeStatusUsed    = "used"
	RedeemCodeStatusDeleted = "deleted"
)

// 兑换码生成常量
const (
	RedeemCodeAlphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	RedeemCodeLength        = 8
	RedeemCodeMaxGenRetries = 10
	RedeemCodeDefaultPlan   = "pro"
	RedeemCodeAPIKeyHeader  = "X-Redeem-Api-Key"
)

// 验证结果常量
const (
	ValidationResultValidated   = "validated"
	ValidationResultTransferred = "transferred"
)

// 捐赠事件处理结果常量
const (
	DonationOutcomeIssued  = "issued"
	DonationOutcomeNoEmail = "no_email"
	DonationOutcomeFailed  = "failed"
)

// 队列常量
const (
	QueueDefault        = "default"
	TaskRedeemCodeEmail = "redeem:code_email"
	TaskDonationNotify  = "donation:notify"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "rp"
)

// 币种占位常量（Ko-fi 未携带币种时使用）
const (
	DonationCurrencyUnknown = "N/A"
)
