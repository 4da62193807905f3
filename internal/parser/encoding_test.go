package parser

import (
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func TestDetectEncoding_BOM(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   []byte
		want Encoding
	}{
		{"utf16le", []byte{0xFF, 0xFE, 'a', 0x00}, EncodingUTF16LE},
		{"utf16be", []byte{0xFE, 0xFF, 0x00, 'a'}, EncodingUTF16BE},
		{"utf8 bom", []byte{0xEF, 0xBB, 0xBF, 'a', ';', 'b'}, EncodingUTF8},
		{"ascii", []byte("id;date;status\n1;01.02.2025;ok"), EncodingUTF8},
		{"empty", nil, EncodingUTF8},
	}
	for _, tc := range cases {
		if got := DetectEncoding(tc.in); got != tc.want {
			t.Fatalf("%s want=%s got=%s", tc.name, tc.want, got)
		}
	}
}

func TestDetectEncoding_LegacyHeuristic(t *testing.T) {
	t.Parallel()

	cp1251, err := charmap.Windows1251.NewEncoder().String("Дата;Статус")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got := DetectEncoding([]byte(cp1251)); got != EncodingWindows1251 {
		t.Fatalf("cp1251 want=%s got=%s", EncodingWindows1251, got)
	}

	// 无 BOM 的 UTF-8 西里尔文本同样命中高位字节启发式
	if got := DetectEncoding([]byte("Дата;Статус")); got != EncodingWindows1251 {
		t.Fatalf("utf8 without bom want=%s got=%s", EncodingWindows1251, got)
	}
}

func TestDetectEncoding_OnlyFirst512Bytes(t *testing.T) {
	t.Parallel()

	data := append([]byte(strings.Repeat("a", 600)), 0xD0, 0x94)
	if got := DetectEncoding(data); got != EncodingUTF8 {
		t.Fatalf("high byte past sample want=%s got=%s", EncodingUTF8, got)
	}
}

func TestEncodingDetector_Statistical(t *testing.T) {
	t.Parallel()

	d := NewEncodingDetector(DetectorStatistical)
	if d.Mode() != DetectorStatistical {
		t.Fatalf("mode want=%s got=%s", DetectorStatistical, d.Mode())
	}
	text := strings.Repeat("Дата відомості;Статус доставки на дату відомості;ПІБ кур'єра\n", 8)
	if got := d.Detect([]byte(text)); got != EncodingUTF8 {
		t.Fatalf("utf8 cyrillic want=%s got=%s", EncodingUTF8, got)
	}
	if got := d.Detect([]byte{0xFF, 0xFE, 'a', 0x00}); got != EncodingUTF16LE {
		t.Fatalf("bom wins want=%s got=%s", EncodingUTF16LE, got)
	}

	if got := NewEncodingDetector("unknown").Mode(); got != DetectorHeuristic {
		t.Fatalf("fallback mode want=%s got=%s", DetectorHeuristic, got)
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String("№\tДата")
	if err != nil {
		t.Fatalf("encode utf16: %v", err)
	}
	got, err := Decode([]byte(utf16), EncodingUTF16LE)
	if err != nil {
		t.Fatalf("decode utf16: %v", err)
	}
	if got != "№\tДата" {
		t.Fatalf("utf16 want=%q got=%q", "№\tДата", got)
	}

	cp1251, _ := charmap.Windows1251.NewEncoder().String("Кур'єр")
	got, err = Decode([]byte(cp1251), EncodingWindows1251)
	if err != nil {
		t.Fatalf("decode cp1251: %v", err)
	}
	if got != "Кур'єр" {
		t.Fatalf("cp1251 want=%q got=%q", "Кур'єр", got)
	}

	got, err = Decode([]byte("\xEF\xBB\xBFid"), EncodingUTF8)
	if err != nil {
		t.Fatalf("decode utf8: %v", err)
	}
	if got != "id" {
		t.Fatalf("utf8 bom should be stripped, got=%q", got)
	}

	if _, err := Decode([]byte("x"), Encoding("KOI8-U")); err == nil {
		t.Fatalf("expected error for unsupported encoding")
	}
}

func TestLookupEncoding(t *testing.T) {
	t.Parallel()

	cases := map[string]Encoding{
		"cp1251":       EncodingWindows1251,
		"windows-1251": EncodingWindows1251,
		"utf-8":        EncodingUTF8,
		"UTF-16LE":     EncodingUTF16LE,
		"utf-16be":     EncodingUTF16BE,
	}
	for label, want := range cases {
		got, err := LookupEncoding(label)
		if err != nil {
			t.Fatalf("LookupEncoding(%q): %v", label, err)
		}
		if got != want {
			t.Fatalf("LookupEncoding(%q) want=%s got=%s", label, want, got)
		}
	}
	if _, err := LookupEncoding("no-such-charset"); err == nil {
		t.Fatalf("expected error for unknown label")
	}
	if _, err := LookupEncoding("shift_jis"); err == nil {
		t.Fatalf("expected error for unsupported charset")
	}
}
