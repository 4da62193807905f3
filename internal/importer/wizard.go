package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/NovobRom/new-delivery-dashboard/internal/model"
	"github.com/NovobRom/new-delivery-dashboard/internal/parser"
)

// DatasetWriter 数据集写入方（整体替换）
type DatasetWriter interface {
	SetRecords(target model.DatasetTarget, records []model.CanonicalRecord)
}

// CommitInfo 一次成功提交的摘要
type CommitInfo struct {
	SessionID    string              `json:"sessionId"`
	Target       model.DatasetTarget `json:"target"`
	FileName     string              `json:"fileName"`
	Encoding     string              `json:"encoding"`
	Delimiter    string              `json:"delimiter"`
	RecordCount  int                 `json:"recordCount"`
	DroppedCount int                 `json:"droppedCount"`
	SkippedCount int                 `json:"skippedCount"`
	Warnings     []string            `json:"warnings"`
	Duration     time.Duration       `json:"duration"`
	CommittedAt  time.Time           `json:"committedAt"`
}

// Options 向导配置
type Options struct {
	Pipeline *parser.Pipeline
	Store    DatasetWriter
	Logger   zerolog.Logger

	// PaintDelay 全量解析前的等待，给前端留出渲染 loading 的时间
	PaintDelay time.Duration

	// OnCommit 提交成功后回调（导入日志、通知等），在锁外执行
	OnCommit func(ctx context.Context, info CommitInfo)
}

// Wizard 单个导入会话的向导驱动
type Wizard struct {
	id   string
	opts Options

	mu         sync.Mutex
	state      State
	data       []byte
	parseOpts  parser.Options
	generation uint64
	updatedAt  time.Time
}

// NewWizard 创建向导
func NewWizard(id string, opts Options) *Wizard {
	if opts.Pipeline == nil {
		opts.Pipeline = parser.NewPipeline(nil, nil, nil)
	}
	return &Wizard{
		id:        id,
		opts:      opts,
		state:     InitialState(),
		updatedAt: time.Now(),
	}
}

// ID 会话 ID
func (w *Wizard) ID() string {
	return w.id
}

// State 当前状态（副本）
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// UpdatedAt 最近一次状态变化时间
func (w *Wizard) UpdatedAt() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.updatedAt
}

func (w *Wizard) applyLocked(e Event) error {
	next, err := Transition(w.state, e)
	if err != nil {
		return err
	}
	w.state = next
	w.updatedAt = time.Now()
	return nil
}

// SelectFile 读取文件并生成预览
//
// 只有非法转移返回 error；读取或预览失败会进入 PROCESSING(error)，通过 State.Error 体现。
// opts 中非零的编码/分隔符会跳过自动探测。
func (w *Wizard) SelectFile(ctx context.Context, target model.DatasetTarget, fileName string, r io.Reader, opts parser.Options) (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.applyLocked(FileSelected{Target: target, FileName: fileName}); err != nil {
		return w.state, err
	}
	w.generation++
	w.data = nil

	log := w.opts.Logger.With().Str("session", w.id).Str("file", fileName).Logger()

	data, err := readAll(ctx, r)
	if err != nil {
		log.Error().Err(err).Msg("read upload failed")
		_ = w.applyLocked(PreviewFailed{Err: fmt.Errorf("failed to read file: %w", err)})
		return w.state, nil
	}

	preview, resolved, err := w.safePreview(data, opts)
	if err != nil {
		log.Warn().Err(err).Msg("preview failed")
		_ = w.applyLocked(PreviewFailed{Err: err})
		return w.state, nil
	}

	w.data = data
	w.parseOpts = resolved
	_ = w.applyLocked(PreviewReady{Preview: preview})
	log.Info().
		Str("encoding", preview.DetectedEncoding).
		Str("delimiter", preview.DetectedDelimiter).
		Int("headers", len(preview.Headers)).
		Msg("preview ready")
	return w.state, nil
}

func (w *Wizard) safePreview(data []byte, opts parser.Options) (preview *model.CSVPreview, resolved parser.Options, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("preview panic: %v", r)
		}
	}()
	return w.opts.Pipeline.Preview(data, opts)
}

// ConfirmMapping 确认映射并在后台执行全量解析
//
// 返回的通道依次收到 PROCESSING(loading) 与最终状态后关闭。解析一旦开始不可取消；
// 期间若会话被重置，结果会被丢弃且不提交。
func (w *Wizard) ConfirmMapping(ctx context.Context, mapping model.HeaderMapping, exclusions ExclusionList) (<-chan State, error) {
	w.mu.Lock()
	if err := w.applyLocked(MappingConfirmed{Mapping: mapping}); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	w.generation++
	gen := w.generation
	data := w.data
	parseOpts := w.parseOpts
	loading := w.state
	w.mu.Unlock()

	mapping = mapping.Clone()
	ch := make(chan State, 2)
	ch <- loading

	go func() {
		defer close(ch)
		ch <- w.runParse(ctx, gen, data, parseOpts, mapping, exclusions)
	}()
	return ch, nil
}

func (w *Wizard) runParse(ctx context.Context, gen uint64, data []byte, parseOpts parser.Options, mapping model.HeaderMapping, exclusions ExclusionList) State {
	start := time.Now()
	if w.opts.PaintDelay > 0 {
		time.Sleep(w.opts.PaintDelay)
	}

	log := w.opts.Logger.With().Str("session", w.id).Logger()
	res, err := w.safeParse(data, parseOpts, mapping)

	var kept []model.CanonicalRecord
	var dropped int
	if err == nil {
		kept, dropped = exclusions.Filter(res.Records)
	}

	w.mu.Lock()
	if w.generation != gen {
		state := w.state
		w.mu.Unlock()
		log.Info().Msg("session changed during parse, result discarded")
		return state
	}

	if err != nil {
		_ = w.applyLocked(ParseFailed{Err: err})
		state := w.state
		w.mu.Unlock()
		log.Error().Err(err).Msg("parse failed")
		return state
	}

	_ = w.applyLocked(ParseCompleted{
		RecordCount:  len(kept),
		DroppedCount: dropped,
		SkippedCount: res.SkippedCount,
		Warnings:     res.Warnings,
	})
	state := w.state
	if w.opts.Store != nil {
		w.opts.Store.SetRecords(state.Target, kept)
	}
	w.data = nil
	w.mu.Unlock()

	log.Info().
		Str("target", string(state.Target)).
		Int("records", state.RecordCount).
		Int("dropped", state.DroppedCount).
		Int("skipped", state.SkippedCount).
		Int("warnings", len(state.Warnings)).
		Dur("elapsed", time.Since(start)).
		Msg("dataset committed")

	if w.opts.OnCommit != nil {
		w.opts.OnCommit(ctx, CommitInfo{
			SessionID:    w.id,
			Target:       state.Target,
			FileName:     state.FileName,
			Encoding:     state.Encoding,
			Delimiter:    state.Delimiter,
			RecordCount:  state.RecordCount,
			DroppedCount: state.DroppedCount,
			SkippedCount: state.SkippedCount,
			Warnings:     state.Warnings,
			Duration:     time.Since(start),
			CommittedAt:  time.Now(),
		})
	}
	return state
}

func (w *Wizard) safeParse(data []byte, opts parser.Options, mapping model.HeaderMapping) (res *model.ParseResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse panic: %v", r)
		}
	}()
	return w.opts.Pipeline.Parse(data, opts, mapping)
}

// Reset 回到 UPLOAD，丢弃文件内容；进行中的解析结果将被丢弃
func (w *Wizard) Reset() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.applyLocked(Reset{})
	w.generation++
	w.data = nil
	w.parseOpts = parser.Options{}
	return w.state
}

// Await 读取通道直到关闭，返回最终状态
func Await(ch <-chan State) State {
	var last State
	for s := range ch {
		last = s
	}
	return last
}

func readAll(ctx context.Context, r io.Reader) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, errors.New("no file content")
	}
	return io.ReadAll(r)
}
