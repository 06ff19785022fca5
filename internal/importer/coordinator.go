package importer

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"orderdash/internal/logger"
	"orderdash/internal/model"
	"orderdash/internal/parser"
	"orderdash/internal/pipeline"
	"orderdash/internal/store"
)

// Coordinator 导入协调器：读取文件 → 聚合 → 保存数据集
type Coordinator struct {
	store *store.DatasetStore
	log   *logger.Logger
}

// NewCoordinator 创建导入协调器
func NewCoordinator(st *store.DatasetStore, log *logger.Logger) *Coordinator {
	if log == nil {
		log = logger.Nop()
	}
	return &Coordinator{store: st, log: log}
}

// ImportOptions 导入选项
type ImportOptions struct {
	Filename      string
	Reader        io.Reader
	ReferenceYear int
}

// ImportReport 导入报告
type ImportReport struct {
	DatasetID      string                `json:"datasetId"`
	Filename       string                `json:"filename"`
	Load           parser.LoadInfo       `json:"load"`
	Columns        []string              `json:"columns"`
	ReferenceYear  int                   `json:"referenceYear"`
	TotalRows      int                   `json:"totalRows"`
	YearScopedRows int                   `json:"yearScopedRows"`
	UndatedRows    int                   `json:"undatedRows"`
	IdentityColumn string                `json:"identityColumn,omitempty"`
	Tables         []string              `json:"tables"`
	Duration       time.Duration         `json:"duration"`
	UploadedAt     time.Time             `json:"uploadedAt"`
	Result         *model.PipelineResult `json:"-"`
}

// Import 执行导入
// 文件无法解析时返回 *parser.LoadError；缺少必需列时返回 *pipeline.SchemaError，此时不保存任何数据
func (c *Coordinator) Import(ctx context.Context, opts ImportOptions) (*ImportReport, error) {
	startTime := time.Now()
	filename := filepath.Base(opts.Filename)
	log := c.log.With("filename", filename, "reference_year", opts.ReferenceYear)

	if opts.ReferenceYear <= 0 {
		return nil, fmt.Errorf("invalid reference year: %d", opts.ReferenceYear)
	}

	log.Info("import started")

	table, info, err := parser.Load(filename, opts.Reader)
	if err != nil {
		log.Warn("load failed", "error", err)
		return nil, err
	}
	log.Debug("file loaded", "format", info.Format, "rows", table.Len(), "columns", len(table.Columns))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := pipeline.Run(table, opts.ReferenceYear)
	if err != nil {
		log.Warn("aggregation rejected input", "error", err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ds := c.store.Put(filename, result)

	report := &ImportReport{
		DatasetID:      ds.ID,
		Filename:       filename,
		Load:           info,
		Columns:        table.Columns,
		ReferenceYear:  result.Summary.ReferenceYear,
		TotalRows:      result.Summary.TotalRows,
		YearScopedRows: result.Summary.YearScopedRows,
		UndatedRows:    result.Summary.UndatedRows,
		IdentityColumn: result.Summary.IdentityColumn,
		Tables:         result.TableNames(),
		Duration:       time.Since(startTime),
		UploadedAt:     ds.UploadedAt,
		Result:         result,
	}

	log.Info("import finished",
		"dataset_id", ds.ID,
		"rows", report.TotalRows,
		"year_rows", report.YearScopedRows,
		"undated_rows", report.UndatedRows,
		"identity_column", report.IdentityColumn,
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}
