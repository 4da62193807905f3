package parser

import (
	"fmt"

	"github.com/NovobRom/new-delivery-dashboard/internal/model"
)

// Options 指定编码/分隔符；零值表示自动探测
type Options struct {
	Encoding  Encoding
	Delimiter rune
}

// Pipeline 解析流水线：探测 -> 读表 -> 映射建议 / 校验
type Pipeline struct {
	detector  *EncodingDetector
	mapper    *FieldMapper
	validator *Validator
}

// NewPipeline 创建流水线；nil 组件使用默认实现
func NewPipeline(detector *EncodingDetector, mapper *FieldMapper, validator *Validator) *Pipeline {
	if detector == nil {
		detector = NewEncodingDetector(DetectorHeuristic)
	}
	if mapper == nil {
		mapper = NewFieldMapper(DefaultFuzzyThreshold)
	}
	if validator == nil {
		validator = NewValidator(CoercionPermissive)
	}
	return &Pipeline{detector: detector, mapper: mapper, validator: validator}
}

// Mapper 表头匹配器
func (p *Pipeline) Mapper() *FieldMapper {
	return p.mapper
}

// Validator 行校验器
func (p *Pipeline) Validator() *Validator {
	return p.validator
}

// Resolve 补全未指定的编码与分隔符，返回解码后的文本
func (p *Pipeline) Resolve(data []byte, opts Options) (string, Options, error) {
	if len(data) == 0 {
		return "", opts, ErrEmptyFile
	}
	if opts.Encoding == "" {
		opts.Encoding = p.detector.Detect(data)
	}
	text, err := Decode(data, opts.Encoding)
	if err != nil {
		return "", opts, err
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = DetectDelimiter(firstLine(text))
	}
	return text, opts, nil
}

// Preview 生成预览：表头、至多 5 行样例、建议映射与探测结果
func (p *Pipeline) Preview(data []byte, opts Options) (*model.CSVPreview, Options, error) {
	text, opts, err := p.Resolve(data, opts)
	if err != nil {
		return nil, opts, err
	}
	table, err := ReadTable(text, opts.Delimiter, PreviewRowLimit)
	if err != nil {
		return nil, opts, err
	}

	samples := table.Rows
	if samples == nil {
		samples = []map[string]string{}
	}
	return &model.CSVPreview{
		Headers:           table.Headers,
		SampleRows:        samples,
		SuggestedMapping:  p.mapper.SuggestMapping(table.Headers),
		DetectedEncoding:  string(opts.Encoding),
		DetectedDelimiter: DelimiterLabel(opts.Delimiter),
	}, opts, nil
}

// Parse 使用确认后的映射全量解析
//
// opts 应为预览阶段确定的编码与分隔符，保证预览与全量解析一致。
func (p *Pipeline) Parse(data []byte, opts Options, mapping model.HeaderMapping) (*model.ParseResult, error) {
	text, opts, err := p.Resolve(data, opts)
	if err != nil {
		return nil, err
	}
	table, err := ReadTable(text, opts.Delimiter, 0)
	if err != nil {
		return nil, err
	}

	res := p.validator.ValidateBatch(table.Rows, table.Headers, mapping)
	res.StructureIssues = table.StructureIssues
	if table.StructureIssues > 0 {
		w := fmt.Sprintf("CSV parse warnings: %d issue(s) detected", table.StructureIssues)
		res.Warnings = append([]string{w}, res.Warnings...)
	}
	return &res, nil
}
