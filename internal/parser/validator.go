package parser

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/NovobRom/new-delivery-dashboard/internal/model"
)

// DefaultStrictRequired strict 模式下默认必填的文本字段
var DefaultStrictRequired = []model.CanonicalField{model.FieldDate, model.FieldStatus}

// FieldIssue 单个字段的校验问题
type FieldIssue struct {
	Field  model.CanonicalField `json:"field"`
	Reason string               `json:"reason"`
}

// RowError 单行校验失败
type RowError struct {
	Row    int          `json:"row"` // 从 1 开始的数据行号
	Issues []FieldIssue `json:"issues"`
}

func (e *RowError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", is.Field, is.Reason))
	}
	return fmt.Sprintf("Row %d: validation failed: %s", e.Row, strings.Join(parts, ", "))
}

// Validator 行校验/转换器
type Validator struct {
	mode     CoercionMode
	required []model.CanonicalField
}

// NewValidator 创建校验器；required 为空时 strict 模式使用默认必填字段
func NewValidator(mode CoercionMode, required ...model.CanonicalField) *Validator {
	if mode != CoercionStrict {
		mode = CoercionPermissive
	}
	if len(required) == 0 {
		required = DefaultStrictRequired
	}
	return &Validator{mode: mode, required: append([]model.CanonicalField(nil), required...)}
}

// Mode 当前校验模式
func (v *Validator) Mode() CoercionMode {
	return v.mode
}

// ParseNumber 解析数值：首个小数逗号替换为小数点，读取开头最长的数字前缀
//
// "12,5 kg" 得到 12.5；没有数字前缀、空值或非有限值返回 ok=false。
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	s = numericPrefix(strings.Replace(s, ",", ".", 1))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// numericPrefix 返回 [+-]digits[.digits][e[+-]digits] 形式的最长前缀；至少需要一位数字
func numericPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if digits > 0 || frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return ""
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			i = k
		}
	}
	return s[:i]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// Coerce 按映射将原始行转换为统一口径记录
//
// headers 决定应用顺序：多个表头映射到同一字段时，靠后的表头覆盖靠前的。
// headers 为空时按映射键的字典序处理。
func (v *Validator) Coerce(row map[string]string, headers []string, mapping model.HeaderMapping) (model.CanonicalRecord, *RowError) {
	var rec model.CanonicalRecord
	var issues []FieldIssue

	if len(headers) == 0 {
		headers = sortedKeys(mapping)
	}

	for _, h := range headers {
		field, ok := mapping[h]
		if !ok || field == model.Unmapped {
			continue
		}
		raw, present := row[h]
		if field.IsNumeric() {
			n, ok := ParseNumber(raw)
			if !ok && present && strings.TrimSpace(raw) != "" && v.mode == CoercionStrict {
				issues = append(issues, FieldIssue{Field: field, Reason: fmt.Sprintf("invalid number %q", raw)})
			}
			rec.SetNumber(field, n)
			continue
		}
		rec.SetText(field, raw)
	}

	if v.mode == CoercionStrict {
		for _, f := range v.required {
			if strings.TrimSpace(rec.Get(f)) == "" {
				issues = append(issues, FieldIssue{Field: f, Reason: "required"})
			}
		}
	}

	if len(issues) > 0 {
		return model.CanonicalRecord{}, &RowError{Issues: issues}
	}
	return rec, nil
}

// ValidateBatch 校验全部行，保持输入顺序；失败行计入告警而不中断
func (v *Validator) ValidateBatch(rows []map[string]string, headers []string, mapping model.HeaderMapping) model.ParseResult {
	res := model.ParseResult{
		Records:  make([]model.CanonicalRecord, 0, len(rows)),
		Warnings: []string{},
	}

	for i, row := range rows {
		rec, rowErr := v.Coerce(row, headers, mapping)
		if rowErr != nil {
			rowErr.Row = i + 1
			res.SkippedCount++
			if res.SkippedCount <= maxDetailedRowErrors {
				res.Warnings = append(res.Warnings, rowErr.Error())
			}
			continue
		}
		res.Records = append(res.Records, rec)
	}

	if res.SkippedCount > maxDetailedRowErrors {
		res.Warnings = append(res.Warnings, fmt.Sprintf("...and %d more rows skipped", res.SkippedCount-maxDetailedRowErrors))
	}
	if res.SkippedCount > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("Total: %d row(s) skipped due to validation errors", res.SkippedCount))
	}

	if len(res.Records) > 0 {
		first := res.Records[0]
		if strings.TrimSpace(first.Status) == "" && strings.TrimSpace(first.Date) == "" {
			res.Warnings = append(res.Warnings, `Warning: "status" and "date" columns appear empty - check column mapping`)
		}
	}
	return res
}

func sortedKeys(m model.HeaderMapping) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
