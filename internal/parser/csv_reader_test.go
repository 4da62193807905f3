package parser

import (
	"errors"
	"testing"
)

func TestReadTable_Basic(t *testing.T) {
	t.Parallel()

	text := "id;date;status\r\n1;01.02.2025;доставлено\r\n\r\n2;02.02.2025;не доставлено\r\n"
	tbl, err := ReadTable(text, ';', 0)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(tbl.Headers) != 3 || tbl.Headers[2] != "status" {
		t.Fatalf("unexpected headers: %v", tbl.Headers)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("rows want=2 got=%d", len(tbl.Rows))
	}
	if tbl.Rows[1]["status"] != "не доставлено" {
		t.Fatalf("row 2 status got=%q", tbl.Rows[1]["status"])
	}
	if tbl.StructureIssues != 0 {
		t.Fatalf("structure issues want=0 got=%d", tbl.StructureIssues)
	}
}

func TestReadTable_RaggedRows(t *testing.T) {
	t.Parallel()

	text := "a,b,c\n1,2\n3,4,5,6\n7,8,9\n"
	tbl, err := ReadTable(text, ',', 0)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(tbl.Rows) != 3 {
		t.Fatalf("rows want=3 got=%d", len(tbl.Rows))
	}
	if tbl.StructureIssues != 2 {
		t.Fatalf("structure issues want=2 got=%d", tbl.StructureIssues)
	}
	if v, ok := tbl.Rows[0]["c"]; !ok || v != "" {
		t.Fatalf("short row should be padded, got=%q ok=%v", v, ok)
	}
}

func TestReadTable_HeaderCleanup(t *testing.T) {
	t.Parallel()

	tbl, err := ReadTable(" Дата ,,Дата,Дата\nx,y,z,w\n", ',', 0)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	want := []string{"Дата", "Column 2", "Дата_1", "Дата_2"}
	for i, h := range want {
		if tbl.Headers[i] != h {
			t.Fatalf("header %d want=%q got=%q", i, h, tbl.Headers[i])
		}
	}
	if tbl.Rows[0]["Дата_1"] != "z" {
		t.Fatalf("duplicate header value got=%q", tbl.Rows[0]["Дата_1"])
	}
}

// TestReadTable_SuffixSkipsExistingHeader 重复表头的后缀不能与文件中已有的列同名
func TestReadTable_SuffixSkipsExistingHeader(t *testing.T) {
	t.Parallel()

	tbl, err := ReadTable("X,X,X_1\na,b,c\n", ',', 0)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	want := []string{"X", "X_2", "X_1"}
	for i, h := range want {
		if tbl.Headers[i] != h {
			t.Fatalf("header %d want=%q got=%q", i, h, tbl.Headers[i])
		}
	}
	row := tbl.Rows[0]
	if len(row) != 3 || row["X"] != "a" || row["X_2"] != "b" || row["X_1"] != "c" {
		t.Fatalf("every column value should survive, got=%v", row)
	}
}

func TestReadTable_Limit(t *testing.T) {
	t.Parallel()

	text := "n\n1\n2\n3\n4\n5\n6\n7\n"
	tbl, err := ReadTable(text, ',', PreviewRowLimit)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(tbl.Rows) != PreviewRowLimit {
		t.Fatalf("rows want=%d got=%d", PreviewRowLimit, len(tbl.Rows))
	}
}

func TestReadTable_Empty(t *testing.T) {
	t.Parallel()

	if _, err := ReadTable("  \n ", ',', 0); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("want ErrEmptyFile got=%v", err)
	}
	if _, err := ReadTable(",,\n1,2,3\n", ',', 0); !errors.Is(err, ErrNoHeader) {
		t.Fatalf("want ErrNoHeader got=%v", err)
	}
}
