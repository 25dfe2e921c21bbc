package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kidario/kidario-api/internal/middleware"
	"github.com/kidario/kidario-api/internal/service"
	appErrors "github.com/kidario/kidario-api/pkg/errors"
	"github.com/kidario/kidario-api/pkg/response"
)

// ProfileHandler exposes profile endpoints.
type ProfileHandler struct {
	profiles *service.ProfileService
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Me godoc
// @Summary Current user's profile with extension flags
// @Tags Profiles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /profiles/me [get]
func (h *ProfileHandler) Me(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	me, err := h.profiles.Me(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, me)
}

// PatchParent godoc
// @Summary Patch the parent profile and its children
// @Tags Profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.ParentProfilePatch true "Parent patch"
// @Success 200 {object} response.Envelope
// @Router /profiles/parent [patch]
func (h *ProfileHandler) PatchParent(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var patch service.ParentProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload"))
		return
	}

	result, err := h.profiles.PatchParent(c.Request.Context(), claims, patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// PatchTeacher godoc
// @Summary Patch the teacher profile and its collections
// @Tags Profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.TeacherProfilePatch true "Teacher patch"
// @Success 200 {object} response.Envelope
// @Router /profiles/teacher [patch]
func (h *ProfileHandler) PatchTeacher(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var patch service.TeacherProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload"))
		return
	}

	result, err := h.profiles.PatchTeacher(c.Request.Context(), claims, patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
