package parser

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"orderdash/internal/model"
	"orderdash/internal/pipeline"
)

// ReadXLSX 读取工作簿，选择第一个包含必需列的工作表（没有则取第一个工作表）
// 第一行为表头；行尾被省略的单元格视为缺失
func ReadXLSX(filename string, r io.Reader) (*model.RawTable, SheetChoice, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, SheetChoice{}, loadErr(filename, fmt.Errorf("open xlsx: %w", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, SheetChoice{}, loadErr(filename, ErrEmptyFile)
	}

	choice := SheetChoice{SheetName: sheets[0]}
	var chosenRows [][]string
	for i, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, SheetChoice{}, loadErr(filename, fmt.Errorf("read sheet %q: %w", name, err))
		}
		if i == 0 {
			chosenRows = rows
		}
		if len(rows) == 0 {
			continue
		}
		if _, err := pipeline.ResolveSchema(cleanHeaders(rows[0])); err == nil {
			choice = SheetChoice{SheetName: name, Matched: true}
			chosenRows = rows
			break
		}
	}

	if len(chosenRows) == 0 {
		return nil, choice, loadErr(filename, ErrEmptyFile)
	}

	headers := cleanHeaders(chosenRows[0])
	for i, h := range headers {
		if h == "" {
			return nil, choice, loadErr(filename, fmt.Errorf("column %d has an empty header", i+1))
		}
	}

	records := make([]model.Record, 0, len(chosenRows)-1)
	for _, row := range chosenRows[1:] {
		if isBlankRow(row) {
			continue
		}
		rec := make(model.Record, len(headers))
		for j, h := range headers {
			if j >= len(row) || IsNA(row[j]) {
				continue
			}
			rec[h] = row[j]
		}
		records = append(records, rec)
	}

	return &model.RawTable{Columns: headers, Records: records}, choice, nil
}

func cleanHeaders(row []string) []string {
	// 去掉表头行尾部的空单元格
	end := len(row)
	for end > 0 && CleanHeader(row[end-1]) == "" {
		end--
	}
	out := make([]string, end)
	for i := 0; i < end; i++ {
		out[i] = CleanHeader(row[i])
	}
	return out
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if CleanHeader(v) != "" {
			return false
		}
	}
	return true
}
