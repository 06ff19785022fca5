package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Initialized   bool       `json:"initialized"` // 是否已有上传数据
	Message       string     `json:"message,omitempty"`
	DatasetID     string     `json:"datasetId,omitempty"`
	Filename      string     `json:"filename,omitempty"`
	UploadedAt    *time.Time `json:"uploadedAt,omitempty"`
	ReferenceYear int        `json:"referenceYear"`
	TotalRows     int        `json:"totalRows"`
	DatasetCount  int        `json:"datasetCount"`
}

// GetStatus 获取系统状态；尚未上传时返回 initialized=false
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	ds, err := h.store.Latest()
	if err != nil {
		c.JSON(http.StatusOK, StatusResponse{
			Initialized:   false,
			Message:       "请上传 CSV 文件以生成看板",
			ReferenceYear: h.cfg.Dashboard.ReferenceYear,
		})
		return
	}

	uploadedAt := ds.UploadedAt
	c.JSON(http.StatusOK, StatusResponse{
		Initialized:   true,
		DatasetID:     ds.ID,
		Filename:      ds.Filename,
		UploadedAt:    &uploadedAt,
		ReferenceYear: ds.Result.Summary.ReferenceYear,
		TotalRows:     ds.Result.Summary.TotalRows,
		DatasetCount:  h.store.Count(),
	})
}
