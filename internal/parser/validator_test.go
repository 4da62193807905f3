package parser

import (
	"strings"
	"testing"

	"github.com/NovobRom/new-delivery-dashboard/internal/model"
)

func TestParseNumber(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12,5", 12.5, true},
		{"12.5", 12.5, true},
		{" 3 ", 3, true},
		{"0,75", 0.75, true},
		{"", 0, false},
		{"abc", 0, false},
		{"1,2,3", 1.2, true},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"Infinity", 0, false},
		{"12,5 kg", 12.5, true},
		{"0.5 kg", 0.5, true},
		{"12abc", 12, true},
		{"-3,25", -3.25, true},
		{".5", 0.5, true},
		{"5.", 5, true},
		{"1e3x", 1000, true},
		{"2e", 2, true},
		{"-", 0, false},
		{"kg 12", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseNumber(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseNumber(%q) want=%v,%v got=%v,%v", tc.in, tc.want, tc.ok, got, ok)
		}
	}
}

// TestCoerce_CommaDotEquivalence 逗号小数与点小数解析一致
func TestCoerce_CommaDotEquivalence(t *testing.T) {
	t.Parallel()

	v := NewValidator(CoercionPermissive)
	mapping := model.HeaderMapping{"Вага": model.FieldWeight, "К-сть": model.FieldQty}
	headers := []string{"Вага", "К-сть"}
	for _, pair := range [][2]string{{"12,5", "12.5"}, {"0,1", "0.1"}, {"1000,25", "1000.25"}} {
		a, errA := v.Coerce(map[string]string{"Вага": pair[0], "К-сть": pair[0]}, headers, mapping)
		b, errB := v.Coerce(map[string]string{"Вага": pair[1], "К-сть": pair[1]}, headers, mapping)
		if errA != nil || errB != nil {
			t.Fatalf("unexpected errors: %v %v", errA, errB)
		}
		if a.Weight != b.Weight || a.Qty != b.Qty {
			t.Fatalf("%q vs %q: %v/%v vs %v/%v", pair[0], pair[1], a.Weight, a.Qty, b.Weight, b.Qty)
		}
	}
}

func TestCoerce_PermissiveDefaults(t *testing.T) {
	t.Parallel()

	v := NewValidator(CoercionPermissive)
	mapping := model.HeaderMapping{
		"qty":     model.FieldQty,
		"weight":  model.FieldWeight,
		"status":  model.FieldStatus,
		"missing": model.FieldCity,
		"skip":    model.Unmapped,
	}
	headers := []string{"qty", "weight", "status", "missing", "skip"}
	rec, rowErr := v.Coerce(map[string]string{"qty": "garbage", "weight": "", "skip": "x"}, headers, mapping)
	if rowErr != nil {
		t.Fatalf("permissive mode should not fail: %v", rowErr)
	}
	if rec.Qty != 0 || rec.Weight != 0 || rec.VolumetricWeight != 0 {
		t.Fatalf("numeric defaults want=0 got=%v %v %v", rec.Qty, rec.Weight, rec.VolumetricWeight)
	}
	if rec.Status != "" || rec.City != "" || rec.Comment != "" {
		t.Fatalf("text defaults want empty got=%q %q %q", rec.Status, rec.City, rec.Comment)
	}
}

// TestCoerce_DuplicateMappingLastWins 手动映射重复时，靠后的表头覆盖
func TestCoerce_DuplicateMappingLastWins(t *testing.T) {
	t.Parallel()

	v := NewValidator(CoercionPermissive)
	mapping := model.HeaderMapping{"Кур'єр": model.FieldCourierID, "Courier": model.FieldCourierID}
	row := map[string]string{"Кур'єр": "Іваненко", "Courier": "Petrenko"}

	rec, _ := v.Coerce(row, []string{"Кур'єр", "Courier"}, mapping)
	if rec.CourierID != "Petrenko" {
		t.Fatalf("want later header value got=%q", rec.CourierID)
	}
	rec, _ = v.Coerce(row, []string{"Courier", "Кур'єр"}, mapping)
	if rec.CourierID != "Іваненко" {
		t.Fatalf("want later header value got=%q", rec.CourierID)
	}
}

func TestCoerce_Strict(t *testing.T) {
	t.Parallel()

	v := NewValidator(CoercionStrict)
	mapping := model.HeaderMapping{"d": model.FieldDate, "s": model.FieldStatus, "q": model.FieldQty}
	headers := []string{"d", "s", "q"}

	if _, rowErr := v.Coerce(map[string]string{"d": "01.02.2025", "s": "доставлено", "q": ""}, headers, mapping); rowErr != nil {
		t.Fatalf("valid row failed: %v", rowErr)
	}
	_, rowErr := v.Coerce(map[string]string{"d": "", "s": "доставлено", "q": "x"}, headers, mapping)
	if rowErr == nil {
		t.Fatalf("expected strict failure")
	}
	if len(rowErr.Issues) != 2 {
		t.Fatalf("issues want=2 got=%v", rowErr.Issues)
	}

	custom := NewValidator(CoercionStrict, model.FieldCourierID)
	if _, rowErr := custom.Coerce(map[string]string{"d": "", "s": ""}, headers, mapping); rowErr == nil {
		t.Fatalf("courierId is required but unmapped, expected failure")
	}
}

func TestValidateBatch_WarningCap(t *testing.T) {
	t.Parallel()

	v := NewValidator(CoercionStrict)
	mapping := model.HeaderMapping{"d": model.FieldDate, "s": model.FieldStatus}
	headers := []string{"d", "s"}
	rows := []map[string]string{{"d": "01.02.2025", "s": "доставлено"}}
	for i := 0; i < 5; i++ {
		rows = append(rows, map[string]string{"d": "", "s": "доставлено"})
	}

	res := v.ValidateBatch(rows, headers, mapping)
	if len(res.Records) != 1 || res.SkippedCount != 5 {
		t.Fatalf("records=%d skipped=%d", len(res.Records), res.SkippedCount)
	}
	want := []string{
		"Row 2: validation failed: date: required",
		"Row 3: validation failed: date: required",
		"Row 4: validation failed: date: required",
		"...and 2 more rows skipped",
		"Total: 5 row(s) skipped due to validation errors",
	}
	if len(res.Warnings) != len(want) {
		t.Fatalf("warnings want=%v got=%v", want, res.Warnings)
	}
	for i := range want {
		if res.Warnings[i] != want[i] {
			t.Fatalf("warning %d want=%q got=%q", i, want[i], res.Warnings[i])
		}
	}
}

func TestValidateBatch_MappingQualityWarning(t *testing.T) {
	t.Parallel()

	v := NewValidator(CoercionPermissive)
	mapping := model.HeaderMapping{"a": model.FieldCity}
	res := v.ValidateBatch([]map[string]string{{"a": "Київ"}, {"a": "Львів"}}, []string{"a"}, mapping)
	if len(res.Records) != 2 {
		t.Fatalf("records want=2 got=%d", len(res.Records))
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "check column mapping") {
		t.Fatalf("expected mapping warning, got=%v", res.Warnings)
	}

	empty := v.ValidateBatch(nil, nil, mapping)
	if len(empty.Records) != 0 || len(empty.Warnings) != 0 {
		t.Fatalf("empty batch should have no warnings, got=%v", empty.Warnings)
	}
}
