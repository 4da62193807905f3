package parser

import "errors"

// Encoding 文本编码标签（封闭集合）
type Encoding string

const (
	EncodingUTF8        Encoding = "UTF-8"
	EncodingUTF16LE     Encoding = "UTF-16LE"
	EncodingUTF16BE     Encoding = "UTF-16BE"
	EncodingWindows1251 Encoding = "Windows-1251"
)

// DetectorMode 编码探测方式
type DetectorMode string

const (
	DetectorHeuristic   DetectorMode = "heuristic"   // BOM + 高位字节启发式
	DetectorStatistical DetectorMode = "statistical" // BOM + chardet 统计探测
)

// CoercionMode 行校验严格程度
type CoercionMode string

const (
	CoercionPermissive CoercionMode = "permissive" // 缺失/非法值降级为 "" 或 0
	CoercionStrict     CoercionMode = "strict"     // 必填文本为空或数值非法时拒绝该行
)

// ParseCoercionMode 校验配置值
func ParseCoercionMode(s string) (CoercionMode, error) {
	switch CoercionMode(s) {
	case "", CoercionPermissive:
		return CoercionPermissive, nil
	case CoercionStrict:
		return CoercionStrict, nil
	}
	return "", errors.New("unknown coercion mode: " + s)
}

const (
	// encodingSampleSize 编码探测读取的前缀字节数
	encodingSampleSize = 512
	// statisticalSampleSize chardet 探测读取的前缀字节数
	statisticalSampleSize = 2048
	// PreviewRowLimit 预览样例行数上限
	PreviewRowLimit = 5
	// maxDetailedRowErrors 逐条列出的校验失败行数上限
	maxDetailedRowErrors = 3
	// DefaultFuzzyThreshold 模糊匹配接受阈值（0 为完全一致）
	DefaultFuzzyThreshold = 0.40
	// minFuzzyPatternLength 参与模糊匹配的最短表头长度（字符）
	minFuzzyPatternLength = 2
)

var (
	ErrEmptyFile = errors.New("file is empty")
	ErrNoHeader  = errors.New("header row is missing")
)
