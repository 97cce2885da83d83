package layout

import (
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/caffeinsmuggler/timesheet-ai/internal/models"
)

func token(text string, x, y float64) models.Token {
	return models.Token{Text: text, Box: models.QuadFromRect(x, y, x+30, y+30)}
}

func TestGroupRowsAlignment(t *testing.T) {
	tokens := []models.Token{
		token("김", 10, 100),
		token("철수", 50, 108), // within 14px of row center
		token("이영희", 10, 200),
	}
	rows := GroupRows(tokens, DefaultAlignPx)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if len(rows[0].Tokens) != 2 {
		t.Errorf("first row tokens = %d, want 2", len(rows[0].Tokens))
	}
	if rows[0].Tokens[0].Text != "김" || rows[0].Tokens[1].Text != "철수" {
		t.Errorf("row not sorted by left edge: %+v", rows[0].Tokens)
	}
}

func TestGroupRowsDropsNonHangul(t *testing.T) {
	tokens := []models.Token{
		token("123", 10, 100),
		token("-", 50, 100),
		token("김철수", 90, 100),
	}
	rows := GroupRows(tokens, DefaultAlignPx)
	if len(rows) != 1 || len(rows[0].Tokens) != 1 {
		t.Fatalf("rows = %+v, want single row with one token", rows)
	}
}

func TestGroupRowsOrderInsensitive(t *testing.T) {
	tokens := []models.Token{
		token("김", 10, 100),
		token("철", 50, 104),
		token("수", 90, 97),
		token("이", 10, 300),
		token("영희", 50, 305),
	}
	want := rowSignatures(GroupRows(tokens, DefaultAlignPx))

	for trial := 0; trial < 10; trial++ {
		shuffled := append([]models.Token(nil), tokens...)
		rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := rowSignatures(GroupRows(shuffled, DefaultAlignPx))
		if len(got) != len(want) {
			t.Fatalf("trial %d: row count %d, want %d", trial, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("trial %d: row %d = %q, want %q", trial, i, got[i], want[i])
			}
		}
	}
}

// rowSignatures renders each row as its sorted token texts, rows sorted,
// so comparisons ignore discovery order.
func rowSignatures(rows []Row) []string {
	sigs := make([]string, 0, len(rows))
	for _, r := range rows {
		texts := make([]string, 0, len(r.Tokens))
		for _, tk := range r.Tokens {
			texts = append(texts, tk.Text)
		}
		sort.Strings(texts)
		sigs = append(sigs, strings.Join(texts, "|"))
	}
	sort.Strings(sigs)
	return sigs
}

func TestFilterHeaders(t *testing.T) {
	block := func(text string, y float64) models.Block {
		return models.Block{Text: text, Box: models.QuadFromRect(10, y, 100, y+30)}
	}
	blocks := []models.Block{
		block("2025년 1월", 20),   // header band
		block("요일", 200),        // keyword
		block("김철수", 200),
		block("보안일근", 300),     // keyword
		block("이영희", 300),
	}
	got := FilterHeaders(blocks, DefaultHeaderMaxY)
	if len(got) != 2 {
		t.Fatalf("filtered = %d blocks, want 2: %+v", len(got), got)
	}
	if got[0].Text != "김철수" || got[1].Text != "이영희" {
		t.Errorf("wrong blocks kept: %+v", got)
	}
}

func TestColumnForX(t *testing.T) {
	tests := []struct {
		x    float64
		want int
	}{
		{0, 1}, {199, 1}, {200, 2}, {399, 2}, {400, 3},
		{600, 4}, {800, 5}, {1000, 6}, {1200, 7}, {5000, 7},
	}
	for _, tt := range tests {
		if got := ColumnForX(tt.x); got != tt.want {
			t.Errorf("ColumnForX(%v) = %d, want %d", tt.x, got, tt.want)
		}
	}
}

func TestParseSections(t *testing.T) {
	cell := func(text string, col int) Cell {
		return Cell{Block: models.Block{Text: text}, Column: col}
	}
	cells := []Cell{
		cell("연가", 1),
		cell("김철수", 2),
		cell("이영희", 3),
		cell("병가", 1),
		cell("박민준", 4),
		cell("비고란", 1), // not a leave label; section continues
		cell("최서연", 5),
	}
	sections := ParseSections(cells)
	if len(sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(sections))
	}
	if sections[0].LeaveType != models.LeaveAnnual || len(sections[0].Cells) != 2 {
		t.Errorf("first section = %+v", sections[0])
	}
	if sections[1].LeaveType != models.LeaveSick || len(sections[1].Cells) != 2 {
		t.Errorf("second section = %+v", sections[1])
	}
}

func TestParseSectionsIgnoresNamesBeforeFirstLabel(t *testing.T) {
	cells := []Cell{
		{Block: models.Block{Text: "김철수"}, Column: 2},
		{Block: models.Block{Text: "교육"}, Column: 1},
		{Block: models.Block{Text: "이영희"}, Column: 2},
	}
	sections := ParseSections(cells)
	if len(sections) != 1 || len(sections[0].Cells) != 1 {
		t.Fatalf("sections = %+v", sections)
	}
}
