package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kidario/kidario-api/internal/service"
	appErrors "github.com/kidario/kidario-api/pkg/errors"
	"github.com/kidario/kidario-api/pkg/response"
)

type teacherActivationRequest struct {
	IsActiveTeacher *bool `json:"is_active_teacher" binding:"required"`
}

// AdminHandler exposes endpoints restricted to platform administrators.
type AdminHandler struct {
	profiles *service.ProfileService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(profiles *service.ProfileService) *AdminHandler {
	return &AdminHandler{profiles: profiles}
}

// SetTeacherActivation godoc
// @Summary Toggle a teacher's marketplace visibility
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher profile ID"
// @Param payload body teacherActivationRequest true "Activation toggle"
// @Success 200 {object} response.Envelope
// @Router /admin/teachers/{id}/activation [patch]
func (h *AdminHandler) SetTeacherActivation(c *gin.Context) {
	var req teacherActivationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "is_active_teacher is required"))
		return
	}

	result, err := h.profiles.SetTeacherActivation(c.Request.Context(), c.Param("id"), *req.IsActiveTeacher)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
