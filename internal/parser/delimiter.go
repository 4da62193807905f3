package parser

import (
	"fmt"
	"strings"
)

// 候选分隔符，顺序即平局时的优先级
var delimiterCandidates = []rune{'\t', ';', ',', '|'}

// DetectDelimiter 统计首行各候选分隔符出现次数，取最多者；全为 0 时返回逗号
func DetectDelimiter(firstLine string) rune {
	best := ','
	bestCount := 0
	for _, c := range delimiterCandidates {
		n := strings.Count(firstLine, string(c))
		if n > bestCount {
			best = c
			bestCount = n
		}
	}
	return best
}

// DelimiterLabel 分隔符的展示字符串
func DelimiterLabel(d rune) string {
	return string(d)
}

// ParseDelimiter 解析用户指定的分隔符（支持 "tab" 与 "\t" 写法）
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "\t", `\t`, "tab":
		return '\t', nil
	}
	for _, c := range delimiterCandidates {
		if s == string(c) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unsupported delimiter: %q", s)
}
