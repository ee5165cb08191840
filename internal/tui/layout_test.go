package tui

import (
	"strings"
	"testing"

	"github.com/muesli/reflow/ansi"

	"github.com/csheth/dailyfeed/internal/browse"
)

func TestPageLayoutColumns(t *testing.T) {
	cases := []struct {
		name      string
		width     int
		wantCols  int
		wantWidth int
	}{
		{name: "narrow", width: 40, wantCols: 1, wantWidth: 40},
		{name: "two up", width: 80, wantCols: 2, wantWidth: 40},
		{name: "wide caps card width", width: 240, wantCols: 7, wantWidth: 34},
		{name: "tiny clamps", width: 10, wantCols: 1, wantWidth: minCardWidth},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var l pageLayout
			l.Update(tc.width, 40)
			if got := l.gridColumns(browse.Grid); got != tc.wantCols {
				t.Fatalf("columns = %d, want %d", got, tc.wantCols)
			}
			if got := l.cardWidthFor(browse.Grid); got != tc.wantWidth {
				t.Fatalf("card width = %d, want %d", got, tc.wantWidth)
			}
			if got := l.gridColumns(browse.List); got != 1 {
				t.Fatalf("list mode should use one column, got %d", got)
			}
		})
	}
}

func TestRowsVisible(t *testing.T) {
	var l pageLayout
	l.Update(100, 40)
	if got, want := l.rowsVisible(browse.Grid), (40-headerLines-footerLines)/(gridCardLines+2); got != want {
		t.Fatalf("grid rows = %d, want %d", got, want)
	}
	if got, want := l.rowsVisible(browse.List), (40-headerLines-footerLines)/(listCardLines+2); got != want {
		t.Fatalf("list rows = %d, want %d", got, want)
	}
}

func TestEnsureVisibleScrollsWithCursor(t *testing.T) {
	m := loaded(t, Config{})
	m.Update(keyRunes("v"))
	m.layout.Update(120, headerLines+footerLines+listCardLines+2)
	m.Update(keyRunes("G"))
	if m.ctl.Index() != 2 {
		t.Fatalf("expected cursor on last paper, got %d", m.ctl.Index())
	}
	if m.scrollRow != 2 {
		t.Fatalf("expected scroll to follow the cursor, got row %d", m.scrollRow)
	}
	m.Update(keyRunes("g"))
	if m.scrollRow != 0 {
		t.Fatalf("expected scroll back to the top, got row %d", m.scrollRow)
	}
}

func TestFitLines(t *testing.T) {
	lines := fitLines("one two three four five six seven eight nine ten", 10, 2)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), lines)
	}
	if !strings.HasSuffix(lines[1], "…") {
		t.Fatalf("expected clipped marker on last line, got %q", lines[1])
	}
	for _, line := range lines {
		if w := ansi.PrintableRuneWidth(line); w > 10 {
			t.Fatalf("line %q is %d wide", line, w)
		}
	}

	short := fitLines("short", 10, 2)
	if len(short) != 1 || short[0] != "short" {
		t.Fatalf("unexpected %q", short)
	}
}

func TestParseRange(t *testing.T) {
	cases := []struct {
		input   string
		want    browse.Selection
		wantErr bool
	}{
		{input: "2024-01-03", want: browse.Single("2024-01-03")},
		{input: " 2024-01-01 .. 2024-01-07 ", want: browse.Range("2024-01-01", "2024-01-07")},
		{input: "2024-01-07..2024-01-01", want: browse.Range("2024-01-07", "2024-01-01")},
		{input: "2024-01-02..2024-01-02", want: browse.Single("2024-01-02")},
		{input: "", wantErr: true},
		{input: "2024-13-01", wantErr: true},
		{input: "2024-01-01..soon", wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseRange(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tc.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%q: got %+v, want %+v", tc.input, got, tc.want)
		}
	}
}

func TestPreviewText(t *testing.T) {
	if got := previewText("  abcdef  ", 3); got != "abc…" {
		t.Fatalf("unexpected %q", got)
	}
	if got := previewText("abc", 0); got != "abc" {
		t.Fatalf("unexpected %q", got)
	}
}
