package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/NovobRom/new-delivery-dashboard/internal/model"
	"github.com/NovobRom/new-delivery-dashboard/internal/parser"
	"github.com/NovobRom/new-delivery-dashboard/internal/service/store"
)

type recordingHook struct {
	mu    sync.Mutex
	infos []CommitInfo
}

func (h *recordingHook) onCommit(_ context.Context, info CommitInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.infos = append(h.infos, info)
}

func (h *recordingHook) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.infos)
}

func newTestWizard(st DatasetWriter, hook *recordingHook) *Wizard {
	opts := Options{Store: st, Logger: zerolog.Nop()}
	if hook != nil {
		opts.OnCommit = hook.onCommit
	}
	return NewWizard("test-session", opts)
}

func tenRowCSV() string {
	var b strings.Builder
	b.WriteString("ПІБ кур'єра;Дата відомості;Статус доставки на дату відомості\n")
	couriers := []string{"Іваненко", "Петренко", "EXCLUDED", "Коваль", "excluded", "Бойко", "Ткач", " Excluded ", "Мельник", "Шевчук"}
	for i, c := range couriers {
		fmt.Fprintf(&b, "%s;%02d.02.2025;доставлено\n", c, i+1)
	}
	return b.String()
}

// TestWizard_ExclusionScenario 10 条记录、3 条命中排除名单：提交 7 条，droppedCount=3
func TestWizard_ExclusionScenario(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	hook := &recordingHook{}
	w := newTestWizard(st, hook)
	ctx := context.Background()

	state, err := w.SelectFile(ctx, model.TargetDeliveries, "report.csv", strings.NewReader(tenRowCSV()), parser.Options{Encoding: parser.EncodingUTF8})
	if err != nil {
		t.Fatalf("SelectFile: %v", err)
	}
	if state.Step != StepMapping {
		t.Fatalf("want MAPPING got=%+v", state)
	}
	if len(state.Preview.SampleRows) != parser.PreviewRowLimit {
		t.Fatalf("preview rows want=%d got=%d", parser.PreviewRowLimit, len(state.Preview.SampleRows))
	}

	ch, err := w.ConfirmMapping(ctx, state.Preview.SuggestedMapping, NewExclusionList("excluded"))
	if err != nil {
		t.Fatalf("ConfirmMapping: %v", err)
	}
	first := <-ch
	if !first.IsLoading() {
		t.Fatalf("first state should be loading, got=%+v", first)
	}
	final := Await(ch)
	if final.Phase != PhaseSuccess {
		t.Fatalf("want success got=%+v", final)
	}
	if final.RecordCount != 7 || final.DroppedCount != 3 || final.SkippedCount != 0 {
		t.Fatalf("counts got records=%d dropped=%d skipped=%d", final.RecordCount, final.DroppedCount, final.SkippedCount)
	}
	if st.Count(model.TargetDeliveries) != 7 || st.Count(model.TargetPickups) != 0 {
		t.Fatalf("store should hold 7 deliveries, got=%d", st.Count(model.TargetDeliveries))
	}
	if hook.count() != 1 || hook.infos[0].DroppedCount != 3 || hook.infos[0].SessionID != "test-session" {
		t.Fatalf("commit hook got=%+v", hook.infos)
	}
	if got := w.State(); got.Phase != PhaseSuccess {
		t.Fatalf("wizard state got=%+v", got)
	}
}

// TestWizard_ReimportReplaces 再次导入同一数据集整体替换
func TestWizard_ReimportReplaces(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	st.SetRecords(model.TargetPickups, []model.CanonicalRecord{{CourierID: "kept"}})
	w := newTestWizard(st, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		w.Reset()
		state, _ := w.SelectFile(ctx, model.TargetDeliveries, "a.csv", strings.NewReader(tenRowCSV()), parser.Options{Encoding: parser.EncodingUTF8})
		ch, err := w.ConfirmMapping(ctx, state.Preview.SuggestedMapping, ExclusionList{})
		if err != nil {
			t.Fatalf("ConfirmMapping: %v", err)
		}
		if final := Await(ch); final.RecordCount != 10 {
			t.Fatalf("round %d records want=10 got=%d", i, final.RecordCount)
		}
	}
	if st.Count(model.TargetDeliveries) != 10 {
		t.Fatalf("deliveries should be replaced not merged, got=%d", st.Count(model.TargetDeliveries))
	}
	if st.Count(model.TargetPickups) != 1 {
		t.Fatalf("pickups should be untouched")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk unplugged") }

func TestWizard_FileReadFailure(t *testing.T) {
	t.Parallel()

	w := newTestWizard(store.NewMemoryStore(), nil)
	state, err := w.SelectFile(context.Background(), model.TargetDeliveries, "a.csv", failingReader{}, parser.Options{})
	if err != nil {
		t.Fatalf("read failure should not be a transition error: %v", err)
	}
	if state.Phase != PhaseError || !strings.Contains(state.Error, "disk unplugged") {
		t.Fatalf("want error state got=%+v", state)
	}
	if got := w.Reset(); got.Step != StepUpload {
		t.Fatalf("reset got=%+v", got)
	}
}

func TestWizard_EmptyFilePreviewError(t *testing.T) {
	t.Parallel()

	w := newTestWizard(store.NewMemoryStore(), nil)
	state, _ := w.SelectFile(context.Background(), model.TargetPickups, "empty.csv", bytes.NewReader(nil), parser.Options{})
	if state.Phase != PhaseError || state.Error != parser.ErrEmptyFile.Error() {
		t.Fatalf("want empty file error got=%+v", state)
	}
}

func TestWizard_InvalidOrder(t *testing.T) {
	t.Parallel()

	w := newTestWizard(store.NewMemoryStore(), nil)
	if _, err := w.ConfirmMapping(context.Background(), model.HeaderMapping{}, ExclusionList{}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("confirm before upload want ErrInvalidTransition got=%v", err)
	}

	if _, err := w.SelectFile(context.Background(), model.TargetDeliveries, "a.csv", strings.NewReader("a,b\n1,2\n"), parser.Options{}); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}
	if _, err := w.SelectFile(context.Background(), model.TargetDeliveries, "b.csv", strings.NewReader("a,b\n1,2\n"), parser.Options{}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second upload without reset want ErrInvalidTransition got=%v", err)
	}
}

type countingStore struct {
	calls int
	mu    sync.Mutex
}

func (s *countingStore) SetRecords(model.DatasetTarget, []model.CanonicalRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
}

// TestWizard_ResetDuringParseDiscards 解析期间重置，结果丢弃且不提交
func TestWizard_ResetDuringParseDiscards(t *testing.T) {
	t.Parallel()

	st := &countingStore{}
	w := NewWizard("s", Options{Store: st, Logger: zerolog.Nop(), PaintDelay: 50 * time.Millisecond})
	ctx := context.Background()

	state, _ := w.SelectFile(ctx, model.TargetDeliveries, "a.csv", strings.NewReader(tenRowCSV()), parser.Options{Encoding: parser.EncodingUTF8})
	ch, err := w.ConfirmMapping(ctx, state.Preview.SuggestedMapping, ExclusionList{})
	if err != nil {
		t.Fatalf("ConfirmMapping: %v", err)
	}
	<-ch
	w.Reset()

	final := Await(ch)
	if final.Step != StepUpload {
		t.Fatalf("discarded parse should report current state, got=%+v", final)
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.calls != 0 {
		t.Fatalf("store should not be written after reset, calls=%d", st.calls)
	}
}

// TestWizard_ManualDuplicateMapping 手动映射重复字段被接受，靠后的列覆盖
func TestWizard_ManualDuplicateMapping(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	w := newTestWizard(st, nil)
	ctx := context.Background()

	state, _ := w.SelectFile(ctx, model.TargetPickups, "a.csv", strings.NewReader("first,second\nx,y\n"), parser.Options{})
	mapping := model.HeaderMapping{"first": model.FieldCourierID, "second": model.FieldCourierID}
	ch, err := w.ConfirmMapping(ctx, mapping, ExclusionList{})
	if err != nil {
		t.Fatalf("ConfirmMapping: %v", err)
	}
	if final := Await(ch); final.Phase != PhaseSuccess {
		t.Fatalf("want success got=%+v", final)
	}
	if state.Step != StepMapping {
		t.Fatalf("unexpected preview state %+v", state)
	}
	if got := st.Records(model.TargetPickups)[0].CourierID; got != "y" {
		t.Fatalf("later header should win, got=%q", got)
	}
}
