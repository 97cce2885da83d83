// Package models defines the domain types for the timesheet review service.
package models

import "time"

// Token is the atomic OCR output unit: one recognized word with its box.
type Token struct {
	Text string `json:"text"`
	Box  Quad   `json:"bounding_box"`
}

// Block is one OCR paragraph: joined text plus the tokens it was built from.
type Block struct {
	Text   string  `json:"text"`
	Tokens []Token `json:"tokens"`
	Box    Quad    `json:"bounding_box"`
}

// Shift identifies which half of the roster a table column maps to.
type Shift string

const (
	ShiftDay   Shift = "DAY"
	ShiftNight Shift = "NIGHT"
)

// Table columns of the fixed timesheet template.
const (
	ColumnLabel = 1 // leave-type label column
	ColumnMin   = 2 // first name-bearing column
	ColumnMax   = 7 // last night-shift column
	nightFrom   = 4
)

// ShiftForColumn derives the shift from the table column. Columns 2-3 hold
// day-shift names, 4-7 night-shift names. Shift is never stored independently.
func ShiftForColumn(column int) Shift {
	if column >= nightFrom {
		return ShiftNight
	}
	return ShiftDay
}

// ValidColumn reports whether column is a name-bearing table column.
func ValidColumn(column int) bool {
	return column >= ColumnMin && column <= ColumnMax
}

// Known leave types found in the label column, plus the fallback.
const (
	LeaveAnnual     = "연가"
	LeaveEarly      = "조퇴"
	LeaveSick       = "병가"
	LeaveSpecial    = "특휴"
	LeaveTraining   = "교육"
	LeaveUnknown    = "Unknown"
)

// LeaveTypes lists the label vocabulary in scan order.
var LeaveTypes = []string{LeaveAnnual, LeaveEarly, LeaveSick, LeaveSpecial, LeaveTraining}

// Candidate is one roster name proposed for an extracted raw name.
// Confidence is an ordinal ranking signal in [1,95], not a probability.
type Candidate struct {
	Name       string `json:"name"`
	Confidence int    `json:"confidence"`
}

// Entry is one extracted (row, column, name) observation before it is placed
// under review-session lifecycle management.
type Entry struct {
	Row        int         `json:"row"`
	Column     int         `json:"column"`
	RawName    string      `json:"raw_name"`
	Candidates []Candidate `json:"candidates"`
	Selected   *string     `json:"selected"`
	Reasoning  []string    `json:"reasoning"`
	LeaveType  string      `json:"leave_type"`
	Box        Quad        `json:"bounding_box"`
}

// Review item status values.
const (
	StatusResolved   = "resolved"
	StatusUnresolved = "unresolved"
)

// Review item flags.
const (
	FlagMaybeNonName  = "maybe_non_name"
	FlagLowConfidence = "low_confidence"
)

// ReviewItem is the persisted, mutable unit of review. Rev increases on every
// mutation and is surfaced to clients so cached artifacts (crop thumbnails)
// can be invalidated by version rather than id.
type ReviewItem struct {
	ID         string      `json:"id"`
	Row        int         `json:"row"`
	Column     int         `json:"column"`
	Shift      Shift       `json:"shift"`
	LeaveType  string      `json:"leave_type"`
	RawName    string      `json:"raw_name"`
	Candidates []Candidate `json:"candidates"`
	Selected   *string     `json:"selected"`
	Status     string      `json:"status"`
	Flags      []string    `json:"flags"`
	Box        *Quad       `json:"bbox,omitempty"`
	Rev        int         `json:"rev"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	ResolvedAt *time.Time  `json:"resolved_at,omitempty"`
}

// Resolved reports whether the item carries a confirmed name.
func (it *ReviewItem) Resolved() bool {
	return it.Status == StatusResolved
}

// ReviewSession owns every item created from one source image. It is the unit
// of persistence and of the finalize invariant (all items resolved).
type ReviewSession struct {
	ID           string       `json:"id"`
	SourceFileID string       `json:"source_file_id"`
	ImagePath    string       `json:"image_path"`
	Width        int          `json:"width"`
	Height       int          `json:"height"`
	Items        []ReviewItem `json:"items"`
	CreatedAt    time.Time    `json:"created_at"`
	FinalizedAt  *time.Time   `json:"finalized_at,omitempty"`
}

// Item returns a pointer to the item with the given id, or nil.
func (s *ReviewSession) Item(id string) *ReviewItem {
	for i := range s.Items {
		if s.Items[i].ID == id {
			return &s.Items[i]
		}
	}
	return nil
}

// UnresolvedIDs returns the ids of all items not yet resolved.
func (s *ReviewSession) UnresolvedIDs() []string {
	var ids []string
	for i := range s.Items {
		if !s.Items[i].Resolved() {
			ids = append(ids, s.Items[i].ID)
		}
	}
	return ids
}

// ExportRow is one line of the immutable finalize snapshot.
type ExportRow struct {
	Row       int    `json:"row"`
	Column    int    `json:"column"`
	Name      string `json:"name"`
	Shift     Shift  `json:"shift"`
	LeaveType string `json:"leave_type"`
}

// Export is the immutable snapshot emitted by a successful finalize.
type Export struct {
	SessionID    string      `json:"session_id"`
	SourceFileID string      `json:"source_file_id"`
	FinalizedAt  time.Time   `json:"finalized_at"`
	Rows         []ExportRow `json:"rows"`
}
