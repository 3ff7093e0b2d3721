package admin

import (
	"strconv"
	"strings"
	"time"

	"github.com/redactor-pro/license-api/internal/cache"
	"github.com/redactor-pro/license-api/internal/http/response"

	"github.com/gin-gonic/gin"
)

const (
	statsCacheKey = "admin:stats"
	statsCacheTTL = 60 * time.Second
)

// StatsResponse 后台统计响应
type StatsResponse struct {
	RedeemCodes    map[string]int64 `json:"redeem_codes"`
	DonationEvents map[string]int64 `json:"donation_events"`
	GeneratedAt    string           `json:"generated_at"`
}

// GetStats 获取后台统计（兑换码按状态、捐赠事件按处理结果）
func (h *Handler) GetStats(c *gin.Context) {
	forceRefresh := false
	if raw := strings.TrimSpace(c.Query("force_refresh")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "请求参数错误", err)
			return
		}
		forceRefresh = parsed
	}

	ctx := c.Request.Context()
	if !forceRefresh {
		var cached StatsResponse
		if hit, err := cache.GetJSON(ctx, statsCacheKey, &cached); err == nil && hit {
			response.Success(c, cached)
			return
		}
	}

	codeCounts, err := h.RedeemCodeService.CountByStatus()
	if err != nil {
		respondError(c, response.CodeInternal, "获取统计数据失败", err)
		return
	}
	donationCounts, err := h.KofiService.CountByOutcome()
	if err != nil {
		respondError(c, response.CodeInternal, "获取统计数据失败", err)
		return
	}

	stats := StatsResponse{
		RedeemCodes:    codeCounts,
		DonationEvents: donationCounts,
		GeneratedAt:    time.Now().Format(time.RFC3339),
	}
	if err := cache.SetJSON(ctx, statsCacheKey, stats, statsCacheTTL); err != nil {
		requestLog(c).Warnw("admin_stats_cache_write_failed", "error", err)
	}

	response.Success(c, stats)
}
