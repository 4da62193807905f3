package analytics

import (
	"strings"
	"time"
)

const dayFirstLayout = "02.01.2006"

var dateSeparatorReplacer = strings.NewReplacer("/", ".", "-", ".")

// ParseDate 解析日期（dd.MM.yyyy，兼容 / 与 - 分隔），空值或非法值返回 ok=false
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	parts := strings.Split(dateSeparatorReplacer.Replace(s), ".")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	// 单位数日/月补零
	for i := 0; i < 2; i++ {
		if len(parts[i]) == 1 {
			parts[i] = "0" + parts[i]
		}
	}
	t, err := time.Parse(dayFirstLayout, strings.Join(parts, "."))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsSameDay 两个日期字符串是否为同一天，任一无法解析时返回 false
func IsSameDay(a, b string) bool {
	ta, okA := ParseDate(a)
	tb, okB := ParseDate(b)
	return okA && okB && ta.Equal(tb)
}

// CompareDates 日期排序比较，无法解析的排在最后
func CompareDates(a, b string) int {
	ta, okA := ParseDate(a)
	tb, okB := ParseDate(b)
	switch {
	case okA && okB:
		return ta.Compare(tb)
	case okA:
		return -1
	case okB:
		return 1
	}
	return strings.Compare(a, b)
}

// FormatDate 以 dd.MM.yyyy 输出
func FormatDate(t time.Time) string {
	return t.Format(dayFirstLayout)
}
