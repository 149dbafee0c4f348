package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sangkips/bookshop-pos/internal/application/service"
	"github.com/sangkips/bookshop-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/bookshop-pos/internal/presentation/http/dto/response"
)

// SettingsHandler handles system configuration HTTP requests
type SettingsHandler struct {
	settingsService *service.SettingsService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// List returns every setting
func (h *SettingsHandler) List(c *gin.Context) {
	settings, err := h.settingsService.ListSettings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Settings retrieved successfully", settings)
}

// Get returns one setting by key
func (h *SettingsHandler) Get(c *gin.Context) {
	setting, err := h.settingsService.GetSetting(c.Request.Context(), c.Param("key"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Setting retrieved successfully", setting)
}

// Update changes one setting. Pricing keys are checked before they are stored.
// @Summary Update Setting
// @Tags settings
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param key path string true "Setting key"
// @Param request body request.UpdateSettingRequest true "New value"
// @Success 200 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Router /settings/{key} [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	actor, ok := CurrentActor(c)
	if !ok {
		return
	}
	var req request.UpdateSettingRequest
	if !bindJSON(c, &req) {
		return
	}

	setting, err := h.settingsService.UpdateSetting(c.Request.Context(), &service.UpdateSettingInput{
		Key:         c.Param("key"),
		Value:       req.Value,
		Description: req.Description,
		UpdatedBy:   actor.ID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Setting updated successfully", setting)
}
