package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NovobRom/new-delivery-dashboard/internal/importer"
	"github.com/NovobRom/new-delivery-dashboard/internal/model"
	"github.com/NovobRom/new-delivery-dashboard/internal/notify"
	"github.com/NovobRom/new-delivery-dashboard/internal/parser"
	"github.com/NovobRom/new-delivery-dashboard/internal/store"
)

var allowedExtensions = map[string]bool{".csv": true, ".txt": true, ".tsv": true}

// SessionResponse 导入会话状态
type SessionResponse struct {
	SessionID string         `json:"sessionId"`
	State     importer.State `json:"state"`
}

// Upload 上传文件并生成预览
// POST /api/import  (multipart: file, target, encoding?, delimiter?)
func (h *Handler) Upload(c *gin.Context) {
	// 表单其余字段预留 1MB
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes+(1<<20))

	target, err := model.ParseTarget(c.DefaultPostForm("target", string(model.TargetDeliveries)))
	if err != nil {
		errorResponse(c, codeUnknownTarget, err.Error())
		return
	}

	var opts parser.Options
	if v := strings.TrimSpace(c.PostForm("encoding")); v != "" {
		enc, err := parser.LookupEncoding(v)
		if err != nil {
			errorResponse(c, codeBadRequest, err.Error())
			return
		}
		opts.Encoding = enc
	}
	if v := c.PostForm("delimiter"); v != "" {
		d, err := parser.ParseDelimiter(v)
		if err != nil {
			errorResponse(c, codeBadRequest, err.Error())
			return
		}
		opts.Delimiter = d
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorResponse(c, codeFileTooLarge, fmt.Sprintf("文件过大，最大支持%dMB", h.opts.MaxUploadBytes>>20))
			return
		}
		errorResponse(c, codeBadRequest, "请上传文件")
		return
	}
	defer file.Close()

	if header.Size > h.opts.MaxUploadBytes {
		errorResponse(c, codeFileTooLarge, fmt.Sprintf("文件过大，最大支持%dMB", h.opts.MaxUploadBytes>>20))
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		errorResponse(c, codeUnsupportedFile, "仅支持 .csv、.txt 和 .tsv 格式")
		return
	}

	w := h.sessions.create(h.newWizard)
	state, err := w.SelectFile(c.Request.Context(), target, header.Filename, file, opts)
	if err != nil {
		errorResponse(c, codeInvalidTransition, err.Error())
		return
	}

	resp := SessionResponse{SessionID: w.ID(), State: state}
	if state.Error != "" {
		errorWithData(c, codeImportFailed, state.Error, resp)
		return
	}
	success(c, resp)
}

// GetSession 查询会话状态
// GET /api/import/:sessionId
func (h *Handler) GetSession(c *gin.Context) {
	w, ok := h.sessions.get(c.Param("sessionId"))
	if !ok {
		errorResponse(c, codeSessionNotFound, "导入会话不存在或已过期")
		return
	}
	success(c, SessionResponse{SessionID: w.ID(), State: w.State()})
}

// ConfirmRequest 确认映射请求
type ConfirmRequest struct {
	Mapping map[string]string `json:"mapping"`
	// Async 为 true 时以 SSE 推送 loading 与最终状态
	Async bool `json:"async"`
}

// ConfirmMapping 确认映射并执行全量解析
// POST /api/import/:sessionId/confirm
func (h *Handler) ConfirmMapping(c *gin.Context) {
	w, ok := h.sessions.get(c.Param("sessionId"))
	if !ok {
		errorResponse(c, codeSessionNotFound, "导入会话不存在或已过期")
		return
	}

	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, codeBadRequest, "参数错误")
		return
	}
	mapping := make(model.HeaderMapping, len(req.Mapping))
	for header, name := range req.Mapping {
		f, err := model.ParseField(name)
		if err != nil {
			errorResponse(c, codeBadRequest, err.Error())
			return
		}
		mapping[header] = f
	}

	exclusions, err := h.exclusions(c.Request.Context())
	if err != nil {
		errorResponse(c, codeSettingsFailed, err.Error())
		return
	}

	ch, err := w.ConfirmMapping(c.Request.Context(), mapping, exclusions)
	if err != nil {
		if errors.Is(err, importer.ErrInvalidTransition) {
			errorResponse(c, codeInvalidTransition, err.Error())
			return
		}
		errorResponse(c, codeImportFailed, err.Error())
		return
	}

	if req.Async {
		h.streamStates(c, w.ID(), ch)
		return
	}

	state := importer.Await(ch)
	resp := SessionResponse{SessionID: w.ID(), State: state}
	if state.Error != "" {
		errorWithData(c, codeImportFailed, state.Error, resp)
		return
	}
	success(c, resp)
}

// streamStates 以 SSE 推送状态: data: {json}\n\n
func (h *Handler) streamStates(c *gin.Context, sessionID string, ch <-chan importer.State) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, _ := c.Writer.(http.Flusher)
	for state := range ch {
		data, err := json.Marshal(SessionResponse{SessionID: sessionID, State: state})
		if err != nil {
			continue
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", data)
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// ResetSession 回到上传步骤
// POST /api/import/:sessionId/reset
func (h *Handler) ResetSession(c *gin.Context) {
	w, ok := h.sessions.get(c.Param("sessionId"))
	if !ok {
		errorResponse(c, codeSessionNotFound, "导入会话不存在或已过期")
		return
	}
	success(c, SessionResponse{SessionID: w.ID(), State: w.Reset()})
}

// DeleteSession 删除会话；进行中的解析结果将被丢弃
// DELETE /api/import/:sessionId
func (h *Handler) DeleteSession(c *gin.Context) {
	id := c.Param("sessionId")
	w, ok := h.sessions.get(id)
	if !ok {
		errorResponse(c, codeSessionNotFound, "导入会话不存在或已过期")
		return
	}
	w.Reset()
	h.sessions.delete(id)
	success(c, nil)
}

func (h *Handler) newWizard(id string) *importer.Wizard {
	return importer.NewWizard(id, importer.Options{
		Pipeline:   h.opts.Pipeline,
		Store:      h.opts.Datasets,
		Logger:     h.opts.Logger,
		PaintDelay: h.opts.PaintDelay,
		OnCommit:   h.onCommit,
	})
}

func (h *Handler) exclusions(ctx context.Context) (importer.ExclusionList, error) {
	if h.opts.Settings == nil {
		return importer.NewExclusionList(), nil
	}
	names, err := h.opts.Settings.ExcludedCouriers(ctx)
	if err != nil {
		return importer.ExclusionList{}, err
	}
	return importer.NewExclusionList(names...), nil
}

// onCommit 写入导入日志并发送提交通知；失败只记录日志
func (h *Handler) onCommit(ctx context.Context, info importer.CommitInfo) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	log := h.opts.Logger.With().Str("session", info.SessionID).Logger()

	if h.opts.Settings != nil {
		_, err := h.opts.Settings.CreateImportLog(ctx, store.ImportLog{
			SessionID:    info.SessionID,
			Target:       string(info.Target),
			Filename:     info.FileName,
			Encoding:     info.Encoding,
			Delimiter:    info.Delimiter,
			RecordCount:  info.RecordCount,
			DroppedCount: info.DroppedCount,
			SkippedCount: info.SkippedCount,
			Warnings:     info.Warnings,
			DurationMs:   info.Duration.Milliseconds(),
			CreatedAt:    info.CommittedAt,
		})
		if err != nil {
			log.Error().Err(err).Msg("write import log failed")
		}
	}

	err := h.opts.Notifier.Publish(ctx, notify.CommitEvent{
		SessionID:    info.SessionID,
		Target:       string(info.Target),
		FileName:     info.FileName,
		RecordCount:  info.RecordCount,
		DroppedCount: info.DroppedCount,
		SkippedCount: info.SkippedCount,
		Warnings:     info.Warnings,
		CommittedAt:  info.CommittedAt,
	})
	if err != nil {
		log.Warn().Err(err).Msg("publish commit event failed")
	}
}
