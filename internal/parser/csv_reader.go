package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Table 解码后的二维表：表头 + 以原始表头为键的行
type Table struct {
	Headers []string
	Rows    []map[string]string

	// StructureIssues 列数不齐、引号错误等结构问题数
	StructureIssues int
}

// ReadTable 读取分隔文本；第一行为表头，limit > 0 时最多读取 limit 行数据
//
// 空表头命名为 "Column N"，重复表头追加 _1、_2 后缀（跳过已占用的名字），全空行跳过。
func ReadTable(text string, delimiter rune, limit int) (*Table, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyFile
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delimiter
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	t := &Table{Headers: uniqueHeaders(header)}
	if len(t.Headers) == 0 {
		return nil, ErrNoHeader
	}

	for limit <= 0 || len(t.Rows) < limit {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				t.StructureIssues++
				continue
			}
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		if isBlankRecord(rec) {
			continue
		}
		if len(rec) != len(t.Headers) {
			t.StructureIssues++
		}
		row := make(map[string]string, len(t.Headers))
		for i, h := range t.Headers {
			if i < len(rec) {
				row[h] = rec[i]
			} else {
				row[h] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func uniqueHeaders(raw []string) []string {
	if isBlankRecord(raw) {
		return nil
	}
	names := make([]string, len(raw))
	taken := make(map[string]bool, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Column %d", i+1)
		}
		names[i] = name
		taken[name] = true
	}

	// 后缀跳过文件中已存在的表头，避免改名后与真实列同名
	out := make([]string, 0, len(raw))
	used := make(map[string]bool, len(raw))
	next := make(map[string]int, len(raw))
	for _, name := range names {
		if used[name] {
			base := name
			for {
				next[base]++
				name = fmt.Sprintf("%s_%d", base, next[base])
				if !taken[name] && !used[name] {
					break
				}
			}
		}
		used[name] = true
		out = append(out, name)
	}
	return out
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
