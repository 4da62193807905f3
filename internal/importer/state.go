package importer

import (
	"errors"
	"fmt"

	"github.com/NovobRom/new-delivery-dashboard/internal/model"
)

// Step 向导步骤
type Step string

const (
	StepUpload     Step = "UPLOAD"
	StepMapping    Step = "MAPPING"
	StepProcessing Step = "PROCESSING"
)

// Phase PROCESSING 的子状态
type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseError   Phase = "error"
)

// Operation 正在进行的操作
type Operation string

const (
	OpPreview Operation = "preview"
	OpParse   Operation = "parse"
)

// ErrInvalidTransition 当前状态不接受该事件
var ErrInvalidTransition = errors.New("invalid wizard transition")

// State 单个导入会话的向导状态
type State struct {
	Step    Step      `json:"step"`
	Phase   Phase     `json:"phase,omitempty"`
	Pending Operation `json:"pending,omitempty"`

	Target   model.DatasetTarget `json:"target,omitempty"`
	FileName string              `json:"fileName,omitempty"`

	Preview   *model.CSVPreview `json:"preview,omitempty"`
	Encoding  string            `json:"encoding,omitempty"`
	Delimiter string            `json:"delimiter,omitempty"`

	RecordCount  int      `json:"recordCount"`
	DroppedCount int      `json:"droppedCount"` // 排除名单过滤掉的记录
	SkippedCount int      `json:"skippedCount"` // 校验失败跳过的行
	Warnings     []string `json:"warnings,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// InitialState 初始状态（UPLOAD）
func InitialState() State {
	return State{Step: StepUpload}
}

// IsLoading 是否处于 PROCESSING(loading)
func (s State) IsLoading() bool {
	return s.Step == StepProcessing && s.Phase == PhaseLoading
}

// Event 向导事件
type Event interface {
	eventName() string
}

// FileSelected 用户选择文件
type FileSelected struct {
	Target   model.DatasetTarget
	FileName string
}

// PreviewReady 预览完成
type PreviewReady struct {
	Preview *model.CSVPreview
}

// PreviewFailed 读取或预览失败
type PreviewFailed struct {
	Err error
}

// MappingConfirmed 用户确认映射
type MappingConfirmed struct {
	Mapping model.HeaderMapping
}

// ParseCompleted 全量解析并过滤完成
type ParseCompleted struct {
	RecordCount  int
	DroppedCount int
	SkippedCount int
	Warnings     []string
}

// ParseFailed 全量解析失败
type ParseFailed struct {
	Err error
}

// Reset 重新开始
type Reset struct{}

func (FileSelected) eventName() string     { return "file_selected" }
func (PreviewReady) eventName() string     { return "preview_ready" }
func (PreviewFailed) eventName() string    { return "preview_failed" }
func (MappingConfirmed) eventName() string { return "mapping_confirmed" }
func (ParseCompleted) eventName() string   { return "parse_completed" }
func (ParseFailed) eventName() string      { return "parse_failed" }
func (Reset) eventName() string            { return "reset" }

// Transition 纯状态转移函数；非法转移返回 ErrInvalidTransition，状态不变
func Transition(s State, e Event) (State, error) {
	switch ev := e.(type) {
	case Reset:
		return InitialState(), nil

	case FileSelected:
		if s.Step != StepUpload {
			break
		}
		if _, err := model.ParseTarget(string(ev.Target)); err != nil {
			return s, err
		}
		return State{
			Step:     StepProcessing,
			Phase:    PhaseLoading,
			Pending:  OpPreview,
			Target:   ev.Target,
			FileName: ev.FileName,
		}, nil

	case PreviewReady:
		if !s.IsLoading() || s.Pending != OpPreview || ev.Preview == nil {
			break
		}
		next := s
		next.Step = StepMapping
		next.Phase = ""
		next.Pending = ""
		next.Preview = ev.Preview
		next.Encoding = ev.Preview.DetectedEncoding
		next.Delimiter = ev.Preview.DetectedDelimiter
		return next, nil

	case PreviewFailed:
		if !s.IsLoading() || s.Pending != OpPreview {
			break
		}
		return failed(s, ev.Err), nil

	case MappingConfirmed:
		if s.Step != StepMapping {
			break
		}
		next := s
		next.Step = StepProcessing
		next.Phase = PhaseLoading
		next.Pending = OpParse
		next.Preview = nil
		return next, nil

	case ParseCompleted:
		if !s.IsLoading() || s.Pending != OpParse {
			break
		}
		next := s
		next.Phase = PhaseSuccess
		next.Pending = ""
		next.RecordCount = ev.RecordCount
		next.DroppedCount = ev.DroppedCount
		next.SkippedCount = ev.SkippedCount
		next.Warnings = append([]string(nil), ev.Warnings...)
		return next, nil

	case ParseFailed:
		if !s.IsLoading() || s.Pending != OpParse {
			break
		}
		return failed(s, ev.Err), nil
	}

	name := "unknown"
	if e != nil {
		name = e.eventName()
	}
	return s, fmt.Errorf("%w: %s in %s", ErrInvalidTransition, name, describe(s))
}

func failed(s State, err error) State {
	next := s
	next.Phase = PhaseError
	next.Pending = ""
	next.Preview = nil
	next.Error = "unknown error"
	if err != nil {
		next.Error = err.Error()
	}
	return next
}

func describe(s State) string {
	if s.Step == StepProcessing {
		return fmt.Sprintf("%s(%s)", s.Step, s.Phase)
	}
	return string(s.Step)
}
