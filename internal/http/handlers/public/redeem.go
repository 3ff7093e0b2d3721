package public

import (
	"errors"
	"net/http"

	"github.com/redactor-pro/license-api/internal/constants"
	handlershared "github.com/redactor-pro/license-api/internal/http/handlers/shared"
	"github.com/redactor-pro/license-api/internal/service"

	"github.com/gin-gonic/gin"
)

// 桌面客户端依赖的扁平响应结构，这组接口不使用统一响应包装。

// IssueRedeemCodeRequest 发放兑换码请求
type IssueRedeemCodeRequest struct {
	Email string `json:"email" binding:"required"`
}

// ValidateRedeemCodeRequest 验证兑换码请求
type ValidateRedeemCodeRequest struct {
	Email    string `json:"email" binding:"required"`
	Code     string `json:"code" binding:"required"`
	DeviceID string `json:"device_id" binding:"required"`
}

// IssueRedeemCode 发放兑换码（服务间调用，共享密钥鉴权）
func (h *Handler) IssueRedeemCode(c *gin.Context) {
	var req IssueRedeemCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email is required."})
		return
	}

	record, err := h.RedeemCodeService.IssueRedeemCode(service.IssueRedeemCodeInput{Email: req.Email})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Enter a valid email address."})
		default:
			handlershared.RequestLog(c).Errorw("redeem_code_issue_failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to issue a redeem code."})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"email":   record.Email,
		"code":    record.Code,
		"is_new":  true,
		"message": "A new redeem code has been issued.",
	})
}

// ValidateRedeemCode 验证兑换码并绑定设备
func (h *Handler) ValidateRedeemCode(c *gin.Context) {
	var req ValidateRedeemCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email, code and device_id are required."})
		return
	}

	outcome, err := h.RedeemCodeService.ValidateRedeemCode(service.ValidateRedeemCodeInput{
		Email:    req.Email,
		Code:     req.Code,
		DeviceID: req.DeviceID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRedeemCodeNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"is_valid": false,
				"message":  "Invalid email or redeem code.",
			})
		case errors.Is(err, service.ErrRedeemCodeInvalid), errors.Is(err, service.ErrInvalidDeviceID):
			c.JSON(http.StatusBadRequest, gin.H{
				"is_valid": false,
				"message":  "Invalid request parameters.",
			})
		default:
			handlershared.RequestLog(c).Errorw("redeem_code_validate_failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"is_valid": false,
				"message":  "Failed to validate the redeem code.",
			})
		}
		return
	}

	token, err := h.LicenseTokenService.IssueToken(outcome.Record)
	if err != nil {
		handlershared.RequestLog(c).Errorw("license_token_issue_failed", "code_id", outcome.Record.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"is_valid": false,
			"message":  "Failed to issue a license token.",
		})
		return
	}

	message := "Redeem code validated successfully."
	if outcome.Result == constants.ValidationResultTransferred {
		message = "Redeem code registered on a new device. Pro features on the previous device have been deactivated."
	}

	c.JSON(http.StatusOK, gin.H{
		"is_valid":  true,
		"message":   message,
		"jwt_token": token,
	})
}
