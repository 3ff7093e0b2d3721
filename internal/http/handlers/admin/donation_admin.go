package admin

import (
	"strconv"
	"strings"

	"github.com/redactor-pro/license-api/internal/http/response"
	"github.com/redactor-pro/license-api/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetDonationEvents 获取捐赠事件列表 (Admin)
func (h *Handler) GetDonationEvents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	email := strings.TrimSpace(c.Query("email"))
	outcome := strings.TrimSpace(c.Query("outcome"))

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

	events, total, err := h.KofiService.ListDonationEvents(repository.DonationEventListFilter{
		Email:       email,
		Outcome:     outcome,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取捐赠事件列表失败", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, events, pagination)
}
