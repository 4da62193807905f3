package importer

import (
	"errors"
	"testing"

	"github.com/NovobRom/new-delivery-dashboard/internal/model"
)

func mustTransition(t *testing.T, s State, e Event) State {
	t.Helper()
	next, err := Transition(s, e)
	if err != nil {
		t.Fatalf("Transition(%s, %T): %v", describe(s), e, err)
	}
	return next
}

func samplePreview() *model.CSVPreview {
	return &model.CSVPreview{
		Headers:           []string{"№"},
		SampleRows:        []map[string]string{{"№": "1"}},
		SuggestedMapping:  model.HeaderMapping{"№": model.FieldID},
		DetectedEncoding:  "UTF-16LE",
		DetectedDelimiter: "\t",
	}
}

// TestTransition_HappyPath UPLOAD -> PROCESSING(loading) -> MAPPING -> PROCESSING(loading) -> PROCESSING(success)
func TestTransition_HappyPath(t *testing.T) {
	t.Parallel()

	s := InitialState()
	if s.Step != StepUpload {
		t.Fatalf("initial step want=%s got=%s", StepUpload, s.Step)
	}

	s = mustTransition(t, s, FileSelected{Target: model.TargetPickups, FileName: "a.csv"})
	if !s.IsLoading() || s.Pending != OpPreview || s.Target != model.TargetPickups {
		t.Fatalf("after file selection got=%+v", s)
	}

	s = mustTransition(t, s, PreviewReady{Preview: samplePreview()})
	if s.Step != StepMapping || s.Preview == nil || s.Encoding != "UTF-16LE" || s.Delimiter != "\t" {
		t.Fatalf("after preview got=%+v", s)
	}

	s = mustTransition(t, s, MappingConfirmed{Mapping: model.HeaderMapping{"№": model.FieldID}})
	if !s.IsLoading() || s.Pending != OpParse {
		t.Fatalf("after confirm got=%+v", s)
	}
	if s.Preview != nil {
		t.Fatalf("preview should be discarded once parsing starts")
	}
	if s.Encoding != "UTF-16LE" || s.Delimiter != "\t" {
		t.Fatalf("encoding/delimiter should be retained, got=%q %q", s.Encoding, s.Delimiter)
	}

	s = mustTransition(t, s, ParseCompleted{RecordCount: 7, DroppedCount: 3, SkippedCount: 1, Warnings: []string{"w"}})
	if s.Step != StepProcessing || s.Phase != PhaseSuccess {
		t.Fatalf("after parse got=%+v", s)
	}
	if s.RecordCount != 7 || s.DroppedCount != 3 || s.SkippedCount != 1 || len(s.Warnings) != 1 {
		t.Fatalf("result fields got=%+v", s)
	}

	s = mustTransition(t, s, Reset{})
	if s.Step != StepUpload || s.Target != "" || s.RecordCount != 0 {
		t.Fatalf("reset should return a fresh initial state, got=%+v", s)
	}
}

func TestTransition_Failures(t *testing.T) {
	t.Parallel()

	s := mustTransition(t, InitialState(), FileSelected{Target: model.TargetDeliveries})
	failed := mustTransition(t, s, PreviewFailed{Err: errors.New("boom")})
	if failed.Phase != PhaseError || failed.Error != "boom" {
		t.Fatalf("preview failure got=%+v", failed)
	}
	if got := mustTransition(t, failed, Reset{}); got.Step != StepUpload {
		t.Fatalf("reset from error got=%+v", got)
	}

	s = mustTransition(t, s, PreviewReady{Preview: samplePreview()})
	s = mustTransition(t, s, MappingConfirmed{})
	failed = mustTransition(t, s, ParseFailed{Err: errors.New("bad file")})
	if failed.Phase != PhaseError || failed.Error != "bad file" {
		t.Fatalf("parse failure got=%+v", failed)
	}
}

func TestTransition_Invalid(t *testing.T) {
	t.Parallel()

	mapping := mustTransition(t, mustTransition(t, InitialState(), FileSelected{Target: model.TargetDeliveries}), PreviewReady{Preview: samplePreview()})
	parsing := mustTransition(t, mapping, MappingConfirmed{})

	cases := []struct {
		name  string
		state State
		event Event
	}{
		{"confirm in upload", InitialState(), MappingConfirmed{}},
		{"parse result in upload", InitialState(), ParseCompleted{}},
		{"file in mapping", mapping, FileSelected{Target: model.TargetDeliveries}},
		{"preview while parsing", parsing, PreviewReady{Preview: samplePreview()}},
		{"parse result while previewing", mustTransition(t, InitialState(), FileSelected{Target: model.TargetPickups}), ParseCompleted{}},
		{"nil preview", mustTransition(t, InitialState(), FileSelected{Target: model.TargetPickups}), PreviewReady{}},
		{"nil event", mapping, nil},
	}
	for _, tc := range cases {
		got, err := Transition(tc.state, tc.event)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%s: want ErrInvalidTransition got=%v", tc.name, err)
		}
		if got.Step != tc.state.Step || got.Phase != tc.state.Phase {
			t.Fatalf("%s: state should be unchanged", tc.name)
		}
	}

	if _, err := Transition(InitialState(), FileSelected{Target: "archive"}); err == nil {
		t.Fatalf("unknown target should be rejected")
	}
}
