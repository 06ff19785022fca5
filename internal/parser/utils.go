package parser

import (
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// naTokens 视为缺失值的单元格内容，与 pandas read_csv 的默认 na_values 相同
var naTokens = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None", "n/a", "nan", "null",
}

// CleanHeader 规范化表头单元格：去除 BOM、换行、制表符和首尾空白
func CleanHeader(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	name = strings.ReplaceAll(name, "\n", " ")
	name = strings.ReplaceAll(name, "\r", "")
	name = strings.ReplaceAll(name, "\t", " ")
	return strings.TrimSpace(name)
}

// IsNA 单元格是否视为缺失；精确匹配，不去除空白（" NA " 不是缺失值）
func IsNA(v string) bool {
	return lo.Contains(naTokens, v)
}

// DetectFormat 按扩展名判断文件格式
func DetectFormat(filename string) FileFormat {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return FormatCSV
	case ".tsv":
		return FormatTSV
	case ".xlsx", ".xlsm":
		return FormatXLSX
	}
	return FormatUnknown
}
