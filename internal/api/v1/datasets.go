package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"orderdash/internal/store"
)

// DatasetResponse 数据集详情
type DatasetResponse struct {
	Dataset *store.Dataset `json:"dataset"`
	Tables  []string       `json:"tables"`
	Result  any            `json:"result"`
}

// GetDashboard 最新数据集的全部派生表；尚无数据时返回 404
// GET /api/dashboard
func (h *Handler) GetDashboard(c *gin.Context) {
	ds, err := h.store.Latest()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "暂无数据，请先上传文件"})
		return
	}
	c.JSON(http.StatusOK, datasetResponse(ds))
}

// ListDatasets 列出会话内的数据集
// GET /api/datasets
func (h *Handler) ListDatasets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.store.List()})
}

// GetDataset 获取单个数据集
// GET /api/datasets/:id
func (h *Handler) GetDataset(c *gin.Context) {
	ds, err := h.store.Get(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, datasetResponse(ds))
}

// GetTable 获取单个派生表
// GET /api/datasets/:id/tables/:table
func (h *Handler) GetTable(c *gin.Context) {
	ds, err := h.store.Get(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	name := c.Param("table")
	table, ok := ds.Result.Table(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":  "派生表不存在: " + name,
			"tables": ds.Result.TableNames(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "table": table})
}

// DeleteDataset 删除数据集
// DELETE /api/datasets/:id
func (h *Handler) DeleteDataset(c *gin.Context) {
	if err := h.store.Delete(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func datasetResponse(ds *store.Dataset) DatasetResponse {
	return DatasetResponse{
		Dataset: ds,
		Tables:  ds.Result.TableNames(),
		Result:  ds.Result,
	}
}
