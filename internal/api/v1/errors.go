package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"orderdash/internal/parser"
	"orderdash/internal/pipeline"
	"orderdash/internal/store"
)

// respondError 将领域错误映射为 HTTP 状态码
func (h *Handler) respondError(c *gin.Context, err error) {
	var schemaErr *pipeline.SchemaError
	var loadErr *parser.LoadError

	switch {
	case errors.As(err, &schemaErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":          "缺少必需列: " + schemaErr.Error(),
			"missingColumns": schemaErr.Missing,
		})
	case errors.As(err, &loadErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "文件无法解析: " + loadErr.Err.Error()})
	case errors.Is(err, store.ErrDatasetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "数据集不存在或已过期"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
