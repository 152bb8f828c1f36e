package table

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/Fmazzesi/zefixtools/pkg/models"
)

func sampleRows() []models.Row {
	return []models.Row{
		models.Firm{Name: "Root AG", EHRAID: 1, Status: "Active", Hops: models.IntPtr(0)},
		models.Firm{Name: "Lost AG", EHRAID: 2, Hops: models.IntPtr(1), FetchError: "registry: 500 Internal Server Error"},
		models.Firm{Name: "Child AG", EHRAID: 3, Status: "Deleted", LegalForm: "Corporation", Hops: models.IntPtr(1), Cancelled: true},
	}
}

func TestFromRowsUnionOfKeysInFirstSeenOrder(t *testing.T) {
	tbl := FromRows(sampleRows())
	want := []string{"name", "ehraid", "status", "cancelled", "hops", "fetchError", "legalForm"}
	if strings.Join(tbl.Columns, ",") != strings.Join(want, ",") {
		t.Fatalf("columns = %v, want %v", tbl.Columns, want)
	}
	if tbl.Len() != 3 {
		t.Fatalf("rows = %d", tbl.Len())
	}
	if got := tbl.Column("legalForm"); got[0] != "" || got[2] != "Corporation" {
		t.Errorf("legalForm column = %q", got)
	}
	if got := tbl.Column("cancelled"); got[2] != "true" || got[0] != "false" {
		t.Errorf("cancelled column = %q", got)
	}
	if tbl.Column("nope") != nil {
		t.Error("unknown column should be nil")
	}
}

func TestFromRowsEmpty(t *testing.T) {
	tbl := FromRows(nil)
	if len(tbl.Columns) != 0 || tbl.Len() != 0 {
		t.Errorf("expected empty table, got %+v", tbl)
	}
}

func TestRenderAlignsAndClips(t *testing.T) {
	tbl := Firms([]models.Firm{
		{Name: "Muster AG", EHRAID: 110662, Purpose: "Handel mit\nWaren aller Art und Beteiligungen"},
	})
	var buf bytes.Buffer
	if err := tbl.Render(&buf, RenderOptions{MaxCellWidth: 12, Index: true}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %q", buf.String())
	}
	if !strings.Contains(lines[0], "name") || !strings.Contains(lines[0], "purpose") {
		t.Errorf("header: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "0 ") || !strings.Contains(lines[1], "Handel mit …") {
		t.Errorf("row: %q", lines[1])
	}
	if strings.Index(lines[0], "ehraid") != strings.Index(lines[1], "110662") {
		t.Errorf("columns not aligned:\n%s", buf.String())
	}
}

func TestClip(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"Zürich", 0, "Zürich"},
		{"Zürich", 6, "Zürich"},
		{"Zürich", 4, "Zür…"},
		{"abc", 1, "…"},
	}
	for _, tc := range cases {
		if got := clip(tc.in, tc.max); got != tc.want {
			t.Errorf("clip(%q,%d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "takeovers.xlsx")
	tbl := FromRows(sampleRows())
	if err := tbl.WriteXLSX(path, "Takeovers"); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != "Takeovers" {
		t.Errorf("sheets = %v", sheets)
	}
	rows, err := f.GetRows("Takeovers")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "name" || rows[3][0] != "Child AG" {
		t.Errorf("unexpected content: %v", rows)
	}
	if rows[2][5] != "registry: 500 Internal Server Error" {
		t.Errorf("fetchError cell = %q", rows[2][5])
	}
}
