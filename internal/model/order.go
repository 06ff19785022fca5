package model

// Record 一行原始订单数据，按列名取值
// 缺失的单元格不出现在 map 中
type Record map[string]string

// Cell 按列名取值，第二个返回值表示单元格是否存在
func (r Record) Cell(column string) (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r[column]
	return v, ok
}

// RawTable 上传文件解析后的原始表格
type RawTable struct {
	Columns []string `json:"columns"` // 表头（保持文件中的顺序）
	Records []Record `json:"-"`
}

// Len 行数
func (t *RawTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}
