package public

import (
	"errors"
	"io"
	"net/http"
	"strings"

	handlershared "github.com/redactor-pro/license-api/internal/http/handlers/shared"
	"github.com/redactor-pro/license-api/internal/service"

	"github.com/gin-gonic/gin"
)

// KofiWebhook 接收 Ko-fi 捐赠回调
//
// Ko-fi 以 form-encoded 的 data 字段投递 JSON，也兼容直接的 JSON 请求体。
// 令牌通过后无论后续处理结果如何都回 200，避免回调方重发。
func (h *Handler) KofiWebhook(c *gin.Context) {
	raw := extractKofiPayload(c)

	payload, err := service.ParsePayload(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed payload"})
		return
	}

	if _, err := h.KofiService.ProcessWebhook(c.Request.Context(), payload); err != nil {
		switch {
		case errors.Is(err, service.ErrKofiTokenMismatch):
			handlershared.RequestLog(c).Warnw("kofi_webhook_invalid_token", "client_ip", c.ClientIP())
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid token"})
		default:
			handlershared.RequestLog(c).Errorw("kofi_webhook_process_failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Processing Error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

func extractKofiPayload(c *gin.Context) []byte {
	contentType := c.GetHeader("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(contentType, "multipart/form-data") {
		if data := c.PostForm("data"); data != "" {
			return []byte(data)
		}
		return nil
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil
	}
	return body
}
