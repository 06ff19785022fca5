package v1

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"orderdash/internal/exporter"
)

const exportTTL = 10 * time.Minute

// Export 导出数据集为 Excel，返回一次性下载链接
// POST /api/datasets/:id/export
func (h *Handler) Export(c *gin.Context) {
	ds, err := h.store.Get(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := os.MkdirAll(h.exportDir, 0755); err != nil {
		h.respondError(c, fmt.Errorf("创建导出目录失败: %w", err))
		return
	}

	name := fmt.Sprintf("orders_dashboard_%d_%s.xlsx", ds.Result.Summary.ReferenceYear, ds.ID[:8])
	path := filepath.Join(h.exportDir, name)
	if err := h.exporter.WriteFile(ds.Result, exporter.ExportOptions{
		DatasetID:      ds.ID,
		SourceFilename: ds.Filename,
		GeneratedAt:    time.Now(),
	}, path); err != nil {
		h.respondError(c, err)
		return
	}

	token := h.downloads.put(path, name, exportTTL)
	h.log.Info("export ready", "dataset_id", ds.ID, "file", name)

	c.JSON(http.StatusOK, gin.H{
		"token":       token,
		"filename":    name,
		"downloadUrl": "/api/export/download/" + token,
	})
}

// DownloadExport 下载导出文件，链接使用一次后失效
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	item, ok := h.downloads.get(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "下载链接不存在或已过期"})
		return
	}
	h.downloads.delete(token)

	c.FileAttachment(item.filePath, item.filename)
	_ = os.Remove(item.filePath)
}
