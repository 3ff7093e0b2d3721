package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redactor-pro/license-api/internal/http/response"
	"github.com/redactor-pro/license-api/internal/service"

	"github.com/gin-gonic/gin"
)

// GetRedeemCodes 获取兑换码列表 (Admin)
func (h *Handler) GetRedeemCodes(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	email := strings.TrimSpace(c.Query("email"))
	code := strings.TrimSpace(c.Query("code"))
	status := strings.TrimSpace(c.Query("status"))

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	records, total, err := h.RedeemCodeService.ListRedeemCodes(service.RedeemCodeListInput{
		Email:       email,
		Code:        code,
		Status:      status,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取兑换码列表失败", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, records, pagination)
}

// IssueRedeemCodeRequest 后台发放兑换码请求
type IssueRedeemCodeRequest struct {
	Email string `json:"email" binding:"required"`
	Plan  string `json:"plan"`
}

// IssueRedeemCode 后台发放兑换码
func (h *Handler) IssueRedeemCode(c *gin.Context) {
	var req IssueRedeemCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	record, err := h.RedeemCodeService.IssueRedeemCode(service.IssueRedeemCodeInput{
		Email: req.Email,
		Plan:  req.Plan,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidEmail) {
			respondError(c, response.CodeBadRequest, "邮箱格式不正确", nil)
			return
		}
		respondError(c, response.CodeInternal, "发放兑换码失败", err)
		return
	}

	requestLog(c).Infow("admin_redeem_code_issued", "code_id", record.ID, "email", record.Email)
	response.Created(c, record)
}

// DeleteRedeemCode 删除兑换码（软删除，验证时视为不存在）
func (h *Handler) DeleteRedeemCode(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	if err := h.RedeemCodeService.SoftDeleteRedeemCode(uint(id)); err != nil {
		if errors.Is(err, service.ErrRedeemCodeNotFound) {
			respondError(c, response.CodeNotFound, "兑换码不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "删除兑换码失败", err)
		return
	}

	response.Success(c, nil)
}

func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
