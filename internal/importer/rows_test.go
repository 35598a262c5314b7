package importer

import (
	"strings"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{`a,b,c`, []string{"a", "b", "c"}},
		{`"Xcaret, Tulum",850`, []string{"Xcaret, Tulum", "850"}},
		{`"she said ""hi""",x`, []string{`she said "hi"`, "x"}},
		{``, []string{}},
	}
	for _, tt := range tests {
		got, err := ParseLine(tt.raw)
		if err != nil {
			t.Errorf("ParseLine(%q) unexpected error: %v", tt.raw, err)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("ParseLine(%q) = %v, want %v", tt.raw, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ParseLine(%q)[%d] = %q, want %q", tt.raw, i, got[i], tt.want[i])
			}
		}
	}
}

func TestReadTableCSV(t *testing.T) {
	input := "Producto,Total,Nombre\nTulum,850,Ana\n\n,,\nXcaret,1700,Luis\n"
	table, err := ReadTable(strings.NewReader(input), "export.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(table.Headers) != 3 || table.Headers[0] != "Producto" {
		t.Errorf("headers = %v", table.Headers)
	}
	// Blank and all-empty rows are dropped but keep their numbering.
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 data rows, got %d", len(table.Rows))
	}
	if table.Rows[0].Number != 2 {
		t.Errorf("first data row number = %d, want 2", table.Rows[0].Number)
	}
	if table.Rows[1].Number != 4 {
		t.Errorf("second data row number = %d, want 4", table.Rows[1].Number)
	}
	if table.Rows[1].Cells[0] != "Xcaret" {
		t.Errorf("second row first cell = %q", table.Rows[1].Cells[0])
	}
}

func TestReadTableCSVRaggedRows(t *testing.T) {
	input := "Producto,Total\nTulum,850,extra\nXcaret\n"
	table, err := ReadTable(strings.NewReader(input), "export.csv")
	if err != nil {
		t.Fatalf("ragged rows should be tolerated: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
}

func TestReadTableEmptyFile(t *testing.T) {
	if _, err := ReadTable(strings.NewReader(""), "export.csv"); err == nil {
		t.Error("expected error for empty file")
	}
}

func TestReadTableBadXLSX(t *testing.T) {
	if _, err := ReadTable(strings.NewReader("not a zip archive"), "export.xlsx"); err == nil {
		t.Error("expected error for invalid XLSX content")
	}
}
