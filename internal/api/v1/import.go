package v1

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"orderdash/internal/importer"
	"orderdash/internal/model"
)

// ImportResponse 导入响应
type ImportResponse struct {
	Report *importer.ImportReport `json:"report"`
	Result *model.PipelineResult  `json:"result"`
}

// Import 上传订单文件并生成看板数据
// POST /api/import  (multipart: file, 可选 referenceYear)
func (h *Handler) Import(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		// 未声明 Content-Length 的超大请求在解析表单时才触发上限
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("文件过大，上限 %d MB", tooLarge.Limit>>20),
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传文件"})
		return
	}

	year := h.cfg.Dashboard.ReferenceYear
	if v := strings.TrimSpace(c.PostForm("referenceYear")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "非法年份"})
			return
		}
		year = y
	}

	file, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "读取上传文件失败"})
		return
	}
	defer file.Close()

	report, err := h.coordinator.Import(c.Request.Context(), importer.ImportOptions{
		Filename:      fh.Filename,
		Reader:        file,
		ReferenceYear: year,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ImportResponse{
		Report: report,
		Result: report.Result,
	})
}
