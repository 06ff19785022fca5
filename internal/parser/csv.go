package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"orderdash/internal/model"
)

// ReadCSV 读取带表头的分隔文本，所有列按字符串读入
// 缺失值（见 naTokens）不写入 Record；字段数少于表头的行在末尾补缺失值，多于表头的行视为格式错误
func ReadCSV(filename string, r io.Reader, delimiter rune) (*model.RawTable, error) {
	if delimiter == 0 {
		delimiter = ','
	}

	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, loadErr(filename, fmt.Errorf("read csv: %w", err))
	}
	if len(records) == 0 {
		return nil, loadErr(filename, ErrEmptyFile)
	}

	headers := make([]string, len(records[0]))
	for i, name := range records[0] {
		headers[i] = CleanHeader(name)
		if headers[i] == "" {
			return nil, loadErr(filename, fmt.Errorf("column %d has an empty header", i+1))
		}
	}

	// 只有表头：空表，交给聚合阶段做列校验
	if len(records) == 1 {
		return &model.RawTable{Columns: headers, Records: []model.Record{}}, nil
	}

	for i, row := range records[1:] {
		switch {
		case len(row) > len(headers):
			return nil, loadErr(filename, fmt.Errorf("record on line %d: expected %d fields, got %d", i+2, len(headers), len(row)))
		case len(row) < len(headers):
			padded := make([]string, len(headers))
			copy(padded, row)
			records[i+1] = padded
		}
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(naTokens),
	)
	if df.Err != nil {
		return nil, loadErr(filename, fmt.Errorf("read csv: %w", df.Err))
	}

	// gota 会改写重复或空的列名，按位置取列
	names := df.Names()
	if len(names) != len(headers) {
		return nil, loadErr(filename, fmt.Errorf("read csv: expected %d columns, got %d", len(headers), len(names)))
	}
	cols := make([]series.Series, len(names))
	for i, name := range names {
		cols[i] = df.Col(name)
	}

	n := df.Nrow()
	out := make([]model.Record, 0, n)
	for i := 0; i < n; i++ {
		rec := make(model.Record, len(headers))
		for j, col := range cols {
			elem := col.Elem(i)
			if elem.IsNA() {
				continue
			}
			v := elem.String()
			if IsNA(v) {
				continue
			}
			rec[headers[j]] = v
		}
		out = append(out, rec)
	}

	return &model.RawTable{Columns: headers, Records: out}, nil
}
