package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kidario/kidario-api/internal/service"
	"github.com/kidario/kidario-api/pkg/response"
)

// MarketplaceHandler exposes the public, unauthenticated marketplace reads.
type MarketplaceHandler struct {
	marketplace *service.MarketplaceService
}

// NewMarketplaceHandler constructs MarketplaceHandler.
func NewMarketplaceHandler(marketplace *service.MarketplaceService) *MarketplaceHandler {
	return &MarketplaceHandler{marketplace: marketplace}
}

// ListTeachers godoc
// @Summary List active teachers
// @Tags Marketplace
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /marketplace/teachers [get]
func (h *MarketplaceHandler) ListTeachers(c *gin.Context) {
	listing, err := h.marketplace.ListTeachers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, listing)
}

// TeacherDetail godoc
// @Summary Public detail of an active teacher
// @Tags Marketplace
// @Produce json
// @Param id path string true "Teacher profile ID"
// @Success 200 {object} response.Envelope
// @Router /marketplace/teachers/{id} [get]
func (h *MarketplaceHandler) TeacherDetail(c *gin.Context) {
	detail, err := h.marketplace.TeacherDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}
