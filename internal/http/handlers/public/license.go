package public

import (
	"errors"
	"net/http"
	"strings"

	handlershared "github.com/redactor-pro/license-api/internal/http/handlers/shared"
	"github.com/redactor-pro/license-api/internal/service"

	"github.com/gin-gonic/gin"
)

// VerifyLicense 下游服务校验许可令牌
//
// 签名非法回 401；签名合法但授权已撤销（设备改绑、兑换码删除）回 403，
// 调用方据此区分"令牌坏了"与"授权没了"。
func (h *Handler) VerifyLicense(c *gin.Context) {
	token := extractBearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"is_valid": false,
			"message":  "Missing license token.",
		})
		return
	}

	claims, record, err := h.LicenseTokenService.VerifyAuthorization(token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLicenseTokenInvalid):
			c.JSON(http.StatusUnauthorized, gin.H{
				"is_valid": false,
				"message":  "Invalid license token.",
			})
		case errors.Is(err, service.ErrLicenseRevoked):
			c.JSON(http.StatusForbidden, gin.H{
				"is_valid": false,
				"message":  "License authorization has been revoked.",
			})
		default:
			handlershared.RequestLog(c).Errorw("license_verify_failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"is_valid": false,
				"message":  "Failed to verify the license token.",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"is_valid":  true,
		"code":      record.Code,
		"device_id": claims.DeviceID,
		"plan":      claims.Plan,
	})
}

func extractBearerToken(c *gin.Context) string {
	auth := strings.TrimSpace(c.GetHeader("Authorization"))
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
