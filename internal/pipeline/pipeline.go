// Package pipeline assembles raw OCR blocks into matched timesheet entries.
// It is a pure composition of the layout, extract, and match stages; all I/O
// (OCR, persistence) stays with the callers.
package pipeline

import (
	"sort"

	"github.com/caffeinsmuggler/timesheet-ai/internal/extract"
	"github.com/caffeinsmuggler/timesheet-ai/internal/layout"
	"github.com/caffeinsmuggler/timesheet-ai/internal/match"
	"github.com/caffeinsmuggler/timesheet-ai/internal/models"
)

// Config carries the geometric tolerances and matcher thresholds.
type Config struct {
	AlignPx    float64
	GapPx      float64
	HeaderMaxY float64
	Matcher    match.Config
}

// DefaultConfig returns the template defaults.
func DefaultConfig() Config {
	return Config{
		AlignPx:    layout.DefaultAlignPx,
		GapPx:      extract.DefaultGapPx,
		HeaderMaxY: layout.DefaultHeaderMaxY,
		Matcher:    match.DefaultConfig(),
	}
}

// Assemble turns OCR blocks into matched entries: header blocks are dropped,
// the rest are bucketed into columns and scanned into leave-type sections,
// then every candidate name extracted from a section cell becomes one entry
// matched against the roster. Row numbers restart at 1 inside each section.
func Assemble(blocks []models.Block, roster match.Roster, cfg Config) []models.Entry {
	data := layout.FilterHeaders(blocks, cfg.HeaderMaxY)

	// Scan order: top to bottom, then left to right. Section parsing depends
	// on label cells preceding the names they govern.
	sort.SliceStable(data, func(i, j int) bool {
		if data[i].Box[0].Y != data[j].Box[0].Y {
			return data[i].Box[0].Y < data[j].Box[0].Y
		}
		return data[i].Box[0].X < data[j].Box[0].X
	})

	sections := layout.ParseSections(layout.AssignColumns(data))

	var entries []models.Entry
	for _, sec := range sections {
		row := 0
		for _, cell := range sec.Cells {
			names := extract.FromTokens(cell.Tokens, cell.Text, cfg.AlignPx, cfg.GapPx)
			for _, name := range names {
				row++
				res := cfg.Matcher.Match(name, cell.Column, roster)
				entries = append(entries, models.Entry{
					Row:        row,
					Column:     cell.Column,
					RawName:    name,
					Candidates: res.Candidates,
					Selected:   res.Selected,
					Reasoning:  res.Reasoning,
					LeaveType:  sec.LeaveType,
					Box:        cell.Box,
				})
			}
		}
	}
	return entries
}
