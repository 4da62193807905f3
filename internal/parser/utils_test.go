package parser

import "testing"

func TestNormalizeColumnName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want string
	}{
		{"  Дата відомості ", "Дата відомості"},
		{"Статус\nдоставки", "Статус доставки"},
		{"Номер   ШК", "Номер ШК"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeColumnName(tc.in); got != tc.want {
			t.Fatalf("NormalizeColumnName(%q) want=%q got=%q", tc.in, tc.want, got)
		}
	}
}

func TestNormalizeMatchText_Apostrophes(t *testing.T) {
	t.Parallel()

	a := normalizeMatchText("ПІБ кур’єра")
	b := normalizeMatchText("піб кур'єра")
	if a != b {
		t.Fatalf("apostrophe variants should normalize equally: %q vs %q", a, b)
	}
}

func TestNormalizedDistance(t *testing.T) {
	t.Parallel()

	if got := normalizedDistance("abc", "abc"); got != 0 {
		t.Fatalf("identical want=0 got=%v", got)
	}
	if got := normalizedDistance("abcd", "abcf"); got != 0.25 {
		t.Fatalf("one substitution want=0.25 got=%v", got)
	}
	if got := normalizedDistance("", ""); got != 0 {
		t.Fatalf("empty want=0 got=%v", got)
	}
}

func TestFirstLine(t *testing.T) {
	t.Parallel()

	if got := firstLine("a;b\r\nc;d"); got != "a;b" {
		t.Fatalf("crlf want=%q got=%q", "a;b", got)
	}
	if got := firstLine("single"); got != "single" {
		t.Fatalf("single want=%q got=%q", "single", got)
	}
}
