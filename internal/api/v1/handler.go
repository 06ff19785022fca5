package v1

import (
	"github.com/gin-gonic/gin"

	"orderdash/internal/config"
	"orderdash/internal/exporter"
	"orderdash/internal/importer"
	"orderdash/internal/logger"
	"orderdash/internal/store"
)

// Handler V1 API 处理器
type Handler struct {
	cfg         *config.AppConfig
	store       *store.DatasetStore
	coordinator *importer.Coordinator
	exporter    *exporter.Exporter
	downloads   *exportDownloadStore
	exportDir   string
	log         *logger.Logger
}

// NewHandler 创建 V1 API 处理器
// exportDir 为导出文件的落地目录
func NewHandler(cfg *config.AppConfig, st *store.DatasetStore, exportDir string, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		cfg:         cfg,
		store:       st,
		coordinator: importer.NewCoordinator(st, log),
		exporter:    exporter.NewExporter(),
		downloads:   newExportDownloadStore(),
		exportDir:   exportDir,
		log:         log,
	}
}

// RegisterRoutes 注册 V1 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)
	// 配置（参考年份、配色）
	router.GET("/config", h.GetConfig)

	// 数据导入
	router.POST("/import", h.Import)

	// 看板数据
	router.GET("/dashboard", h.GetDashboard)
	router.GET("/datasets", h.ListDatasets)
	router.GET("/datasets/:id", h.GetDataset)
	router.GET("/datasets/:id/tables/:table", h.GetTable)
	router.DELETE("/datasets/:id", h.DeleteDataset)

	// 数据导出
	router.POST("/datasets/:id/export", h.Export)
	router.GET("/export/download/:token", h.DownloadExport)
}
