// Package layout turns raw OCR geometry into the fixed timesheet template:
// spatial token rows, semantic table columns, and leave-type sections.
//
// The template is static by design. The service assumes one known document
// layout rather than running general table detection.
package layout

import (
	"math"
	"sort"
	"strings"

	"github.com/caffeinsmuggler/timesheet-ai/internal/hangul"
	"github.com/caffeinsmuggler/timesheet-ai/internal/models"
)

// Defaults for the template constants.
const (
	DefaultAlignPx    = 14.0
	DefaultHeaderMaxY = 150.0
)

// headerKeywords mark non-data rows of the template (captions, weekday row,
// column group titles, date fields).
var headerKeywords = []string{"비고", "요일", "보안일근", "부()", "년", "월", "일"}

// Row is an ordered group of tokens whose vertical centers align.
type Row struct {
	CenterY float64
	Tokens  []models.Token
}

// GroupRows groups tokens into horizontal rows using a greedy first-fit pass:
// a token joins the first row whose anchor center is within alignPx of its own
// center, otherwise it opens a new row. Tokens are cleaned first; tokens with
// no Hangul content are dropped. Within each row tokens are ordered by the
// left edge of their box.
func GroupRows(tokens []models.Token, alignPx float64) []Row {
	if alignPx <= 0 {
		alignPx = DefaultAlignPx
	}
	var rows []Row
	for _, tk := range tokens {
		text := hangul.Clean(tk.Text)
		if text == "" {
			continue
		}
		y := tk.Box.CenterY()
		cleaned := models.Token{Text: text, Box: tk.Box}
		placed := false
		for i := range rows {
			if math.Abs(rows[i].CenterY-y) <= alignPx {
				rows[i].Tokens = append(rows[i].Tokens, cleaned)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, Row{CenterY: y, Tokens: []models.Token{cleaned}})
		}
	}
	for i := range rows {
		sort.SliceStable(rows[i].Tokens, func(a, b int) bool {
			return rows[i].Tokens[a].Box.Left() < rows[i].Tokens[b].Box.Left()
		})
	}
	return rows
}

// FilterHeaders drops template header blocks: anything in the top header band
// (top-left y below maxHeaderY) or containing a header keyword.
func FilterHeaders(blocks []models.Block, maxHeaderY float64) []models.Block {
	if maxHeaderY <= 0 {
		maxHeaderY = DefaultHeaderMaxY
	}
	var out []models.Block
	for _, b := range blocks {
		if b.Box[0].Y < maxHeaderY {
			continue
		}
		text := strings.TrimSpace(b.Text)
		header := false
		for _, kw := range headerKeywords {
			if strings.Contains(text, kw) {
				header = true
				break
			}
		}
		if !header {
			out = append(out, b)
		}
	}
	return out
}

// ColumnForX buckets a horizontal position into one of the seven semantic
// columns of the template: 1 is the leave-type label column, 2-3 the
// day-shift name columns, 4-7 the night-shift name columns.
func ColumnForX(x float64) int {
	switch {
	case x < 200:
		return 1
	case x < 400:
		return 2
	case x < 600:
		return 3
	case x < 800:
		return 4
	case x < 1000:
		return 5
	case x < 1200:
		return 6
	default:
		return 7
	}
}

// Cell is a block annotated with its table column.
type Cell struct {
	models.Block
	Column int
}

// AssignColumns annotates each block with the column derived from its
// top-left x coordinate.
func AssignColumns(blocks []models.Block) []Cell {
	cells := make([]Cell, 0, len(blocks))
	for _, b := range blocks {
		cells = append(cells, Cell{Block: b, Column: ColumnForX(b.Box[0].X)})
	}
	return cells
}

// Section groups name cells under the leave-type label that precedes them.
type Section struct {
	LeaveType string
	Cells     []Cell
}

// ParseSections scans cells sequentially. A column-1 cell whose text contains
// a leave-type label opens a new section; every following name cell (column 2
// and up) belongs to the current section until the next label appears.
func ParseSections(cells []Cell) []Section {
	var sections []Section
	var current *Section
	for _, c := range cells {
		if c.Column == models.ColumnLabel {
			for _, lt := range models.LeaveTypes {
				if strings.Contains(c.Text, lt) {
					if current != nil {
						sections = append(sections, *current)
					}
					current = &Section{LeaveType: lt}
					break
				}
			}
			continue
		}
		if c.Column >= models.ColumnMin && current != nil {
			current.Cells = append(current.Cells, c)
		}
	}
	if current != nil {
		sections = append(sections, *current)
	}
	return sections
}
