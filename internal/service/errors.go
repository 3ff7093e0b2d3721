package service

import "errors"

// 兑换码相关错误
var (
	ErrRedeemCodeInvalid       = errors.New("兑换码参数无效")
	ErrRedeemCodeNotFound      = errors.New("兑换码不存在")
	ErrRedeemCodeCreateFailed  = errors.New("兑换码创建失败")
	ErrRedeemCodeFetchFailed   = errors.New("兑换码查询失败")
	ErrRedeemCodeUpdateFailed  = errors.New("兑换码更新失败")
	ErrCodeGenerationExhausted = errors.New("兑换码生成重试次数耗尽")
	ErrInvalidEmail            = errors.New("邮箱格式无效")
	ErrInvalidDeviceID         = errors.New("设备标识无效")
)

// 许可令牌相关错误
var (
	ErrLicenseTokenInvalid = errors.New("许可令牌无效")
	ErrLicenseRevoked      = errors.New("许可授权已撤销")
)

// 管理员认证相关错误
var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrInvalidPassword    = errors.New("密码错误")
	ErrNotFound           = errors.New("记录不存在")
)

// 邮件相关错误
var (
	ErrEmailServiceDisabled      = errors.New("邮件服务未启用")
	ErrEmailServiceNotConfigured = errors.New("邮件服务未配置")
	ErrEmailRecipientRejected    = errors.New("收件人地址被拒收")
)

// Ko-fi 回调相关错误
var (
	ErrKofiTokenMismatch    = errors.New("Ko-fi 校验令牌不匹配")
	ErrKofiMalformedPayload = errors.New("Ko-fi 回调数据格式错误")
)

// 捐赠事件相关错误
var (
	ErrDonationEventFetchFailed = errors.New("捐赠事件查询失败")
)
