package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// 排版撇号统一为 ASCII 撇号（乌克兰语表头中 ’ ʼ ' 混用）
var apostropheReplacer = strings.NewReplacer("’", "'", "ʼ", "'", "`", "'")

// NormalizeColumnName 规范化表头：去首尾空白、去换行，压缩连续空白
func NormalizeColumnName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// normalizeMatchText 模糊匹配用的规范化：规范化表头 + 小写 + 撇号统一
func normalizeMatchText(s string) string {
	return apostropheReplacer.Replace(strings.ToLower(NormalizeColumnName(s)))
}

// normalizedDistance 归一化编辑距离，0 为完全一致，1 为完全不同
func normalizedDistance(a, b string) float64 {
	la := utf8.RuneCountInString(a)
	lb := utf8.RuneCountInString(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 0
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(longest)
}

// firstLine 取文本首行（兼容 \r\n）
func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSuffix(text, "\r")
}
