package request

// UpdateSettingRequest sets one system configuration value
type UpdateSettingRequest struct {
	Value       string  `json:"value" binding:"required"`
	Description *string `json:"description"`
}
