package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"orderdash/internal/config"
)

// ConfigResponse 前端渲染所需配置
type ConfigResponse struct {
	ReferenceYear int                  `json:"referenceYear"`
	MaxUploadMB   int                  `json:"maxUploadMB"`
	Palette       config.PaletteConfig `json:"palette"`
}

// GetConfig 获取配置
// GET /api/config
func (h *Handler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, ConfigResponse{
		ReferenceYear: h.cfg.Dashboard.ReferenceYear,
		MaxUploadMB:   h.cfg.Dashboard.MaxUploadMB,
		Palette:       h.cfg.Palette,
	})
}
