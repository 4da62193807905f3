package model

import "fmt"

// DatasetTarget 导入目标数据集
type DatasetTarget string

const (
	TargetDeliveries DatasetTarget = "deliveries"
	TargetPickups    DatasetTarget = "pickups"
)

// Targets 全部数据集
func Targets() []DatasetTarget {
	return []DatasetTarget{TargetDeliveries, TargetPickups}
}

// ParseTarget 校验数据集名称
func ParseTarget(s string) (DatasetTarget, error) {
	switch DatasetTarget(s) {
	case TargetDeliveries, TargetPickups:
		return DatasetTarget(s), nil
	}
	return "", fmt.Errorf("unknown dataset target: %q", s)
}

// HeaderMapping 原始表头 -> 统一口径字段（Unmapped 表示不导入）
//
// 不要求单射：自动建议会避免重复，用户手动映射允许重复。
type HeaderMapping map[string]CanonicalField

// Clone 复制映射
func (m HeaderMapping) Clone() HeaderMapping {
	out := make(HeaderMapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// CSVPreview 预览阶段产物：表头、样例行、建议映射与探测结果
type CSVPreview struct {
	Headers           []string            `json:"headers"`
	SampleRows        []map[string]string `json:"sampleRows"`
	SuggestedMapping  HeaderMapping       `json:"suggestedMapping"`
	DetectedEncoding  string              `json:"detectedEncoding"`
	DetectedDelimiter string              `json:"detectedDelimiter"`
}

// ParseResult 全量解析结果
type ParseResult struct {
	Records  []CanonicalRecord `json:"records"`
	Warnings []string          `json:"warnings"`

	SkippedCount    int `json:"skippedCount"`    // 校验失败被跳过的行数
	StructureIssues int `json:"structureIssues"` // CSV 结构问题数（列数不齐等）
}
