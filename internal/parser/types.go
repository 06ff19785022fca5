package parser

import (
	"errors"
	"fmt"
)

// FileFormat 上传文件格式
type FileFormat string

const (
	FormatCSV     FileFormat = "csv"
	FormatTSV     FileFormat = "tsv"
	FormatXLSX    FileFormat = "xlsx"
	FormatUnknown FileFormat = "unknown"
)

// ErrEmptyFile 文件中没有表头
var ErrEmptyFile = errors.New("file has no header row")

// LoadError 文件无法解析为表格（格式、编码、表头问题），在聚合之前发生
type LoadError struct {
	Filename string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %q: %v", e.Filename, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func loadErr(filename string, err error) error {
	return &LoadError{Filename: filename, Err: err}
}

// SheetChoice xlsx 读取时选中的工作表
type SheetChoice struct {
	SheetName string `json:"sheetName"`
	Matched   bool   `json:"matched"` // 表头是否包含必需列
}
