package pipeline

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// 必需列
const (
	ColumnCustomerType = "CustomerType"
	ColumnDate         = "Date"
)

// IdentityCandidates 客户标识列的候选名称，按优先级排列
var IdentityCandidates = []string{"CustomerID", "Customer_Id", "CustomerName", "Customer"}

// SchemaError 输入缺少必需列
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required column(s): %s", strings.Join(e.Missing, ", "))
}

// IdentityColumn 客户标识列的识别结果
type IdentityColumn struct {
	Name  string // 表头中的实际列名
	Found bool
}

// Schema 在运行开始时解析出的列名映射
type Schema struct {
	CustomerType string
	Date         string
	Identity     IdentityColumn
}

// ColumnKey 列名比较用的规范化键：小写并去掉空白、下划线和连字符
// "Customer Type" / "customer_type" / "CustomerType" 得到相同的键
func ColumnKey(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		switch r {
		case ' ', '\t', '\n', '\r', '_', '-', '\u00a0':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ResolveColumn 在表头中查找列，先精确匹配，再按 ColumnKey 匹配
func ResolveColumn(columns []string, name string) (string, bool) {
	if lo.Contains(columns, name) {
		return name, true
	}
	key := ColumnKey(name)
	if key == "" {
		return "", false
	}
	return lo.Find(columns, func(c string) bool {
		return ColumnKey(c) == key
	})
}

// DetectIdentityColumn 按 IdentityCandidates 的顺序返回第一个存在的标识列
func DetectIdentityColumn(columns []string) IdentityColumn {
	for _, candidate := range IdentityCandidates {
		if name, ok := ResolveColumn(columns, candidate); ok {
			return IdentityColumn{Name: name, Found: true}
		}
	}
	return IdentityColumn{}
}

// ResolveSchema 解析必需列和可选标识列；必需列缺失时返回 *SchemaError
func ResolveSchema(columns []string) (Schema, error) {
	var s Schema
	var missing []string

	if name, ok := ResolveColumn(columns, ColumnCustomerType); ok {
		s.CustomerType = name
	} else {
		missing = append(missing, ColumnCustomerType)
	}
	if name, ok := ResolveColumn(columns, ColumnDate); ok {
		s.Date = name
	} else {
		missing = append(missing, ColumnDate)
	}
	if len(missing) > 0 {
		return Schema{}, &SchemaError{Missing: missing}
	}

	s.Identity = DetectIdentityColumn(columns)
	return s, nil
}
