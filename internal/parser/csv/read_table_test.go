package csv

import (
	"context"
	"strings"
	"testing"

	"darem/internal/config"
)

// TestReadTable_HeaderAndRows covers the default path: comma delimiter,
// edge-space trimming, ragged rows preserved as-is.
func TestReadTable_HeaderAndRows(t *testing.T) {
	t.Parallel()

	src := strings.NewReader("A, B ,C\n1,2,3\nx,y\n")

	tab, err := ReadTable(context.Background(), src, nil)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}

	if len(tab.Header) != 3 || tab.Header[1] != "B" {
		t.Fatalf("header = %v, want [A B C]", tab.Header)
	}
	if len(tab.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(tab.Rows))
	}
	if len(tab.Rows[1]) != 2 {
		t.Fatalf("ragged row widened to %d cells", len(tab.Rows[1]))
	}
	if got := tab.At(1, 2); got != "" {
		t.Fatalf("At past ragged row end = %q, want empty", got)
	}
}

// TestReadTable_BOMStripped: Excel CSV exports lead with a UTF-8 BOM;
// the first header cell must still match its contract text exactly.
func TestReadTable_BOMStripped(t *testing.T) {
	t.Parallel()

	src := strings.NewReader("\uFEFFMunicipality,Production\nDaet,1\n")

	tab, err := ReadTable(context.Background(), src, nil)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if tab.Header[0] != "Municipality" {
		t.Fatalf("header[0] = %q, want BOM stripped", tab.Header[0])
	}
	if tab.ColumnIndex("Municipality") != 0 {
		t.Fatalf("ColumnIndex misses the BOM-led header")
	}
}

// TestReadTable_Windows1252 decodes a legacy single-byte export. 0xF1 is
// n-tilde in cp1252, common in the source municipality names.
func TestReadTable_Windows1252(t *testing.T) {
	t.Parallel()

	src := strings.NewReader("Name\nPe\xf1a\n")
	opt := config.Options{"encoding": "windows-1252"}

	tab, err := ReadTable(context.Background(), src, opt)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if got := tab.At(0, 0); got != "Peña" {
		t.Fatalf("decoded cell = %q, want Peña", got)
	}
}

// TestReadTable_UnsupportedEncoding rejects unknown encoding names up
// front rather than producing mojibake.
func TestReadTable_UnsupportedEncoding(t *testing.T) {
	t.Parallel()

	_, err := ReadTable(context.Background(), strings.NewReader("A\n"), config.Options{"encoding": "koi8-r"})
	if err == nil {
		t.Fatalf("expected error for unsupported encoding")
	}
}

// TestReadTable_CustomComma reads a semicolon-delimited export.
func TestReadTable_CustomComma(t *testing.T) {
	t.Parallel()

	src := strings.NewReader("A;B\n1;2\n")
	opt := config.Options{"comma": ";"}

	tab, err := ReadTable(context.Background(), src, opt)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(tab.Header) != 2 || tab.At(0, 1) != "2" {
		t.Fatalf("semicolon split failed: header=%v rows=%v", tab.Header, tab.Rows)
	}
}

// TestReadTable_ContextCanceled stops between rows.
func TestReadTable_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadTable(ctx, strings.NewReader("A\n1\n"), nil)
	if err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

// TestReadTable_TrimDisabled keeps cell whitespace when asked.
func TestReadTable_TrimDisabled(t *testing.T) {
	t.Parallel()

	src := strings.NewReader("A\n x \n")
	opt := config.Options{"trim_space": false}

	tab, err := ReadTable(context.Background(), src, opt)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if got := tab.At(0, 0); got != " x " {
		t.Fatalf("cell = %q, want whitespace preserved", got)
	}
}
