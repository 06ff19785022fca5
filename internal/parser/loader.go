// Package parser 将上传的订单文件（CSV/TSV/XLSX）读成按列名取值的原始表格。
package parser

import (
	"fmt"
	"io"

	"orderdash/internal/model"
)

// LoadInfo 读取过程的元信息
type LoadInfo struct {
	Format FileFormat   `json:"format"`
	Sheet  *SheetChoice `json:"sheet,omitempty"` // 仅 xlsx
}

// Load 按扩展名选择读取方式
func Load(filename string, r io.Reader) (*model.RawTable, LoadInfo, error) {
	info := LoadInfo{Format: DetectFormat(filename)}

	switch info.Format {
	case FormatCSV:
		t, err := ReadCSV(filename, r, ',')
		return t, info, err
	case FormatTSV:
		t, err := ReadCSV(filename, r, '\t')
		return t, info, err
	case FormatXLSX:
		t, sheet, err := ReadXLSX(filename, r)
		info.Sheet = &sheet
		return t, info, err
	}

	return nil, info, loadErr(filename, fmt.Errorf("unsupported file type"))
}
