package api

import (
	"time"

	"github.com/caffeinsmuggler/timesheet-ai/internal/index"
	"github.com/caffeinsmuggler/timesheet-ai/internal/models"
	"github.com/caffeinsmuggler/timesheet-ai/internal/review"
)

// SessionDetail is the full session response type (aliased from the domain
// layer).
type SessionDetail = models.ReviewSession

// ItemDetail is the full item response type.
type ItemDetail = models.ReviewItem

// SessionSummary is one row of a session listing.
type SessionSummary struct {
	ID              string     `json:"id"`
	SourceFileID    string     `json:"source_file_id"`
	ItemCount       int        `json:"item_count"`
	UnresolvedCount int        `json:"unresolved_count"`
	CreatedAt       time.Time  `json:"created_at"`
	FinalizedAt     *time.Time `json:"finalized_at,omitempty"`
}

func summaryFromRow(r index.SessionRow) SessionSummary {
	return SessionSummary{
		ID:              r.ID,
		SourceFileID:    r.SourceFileID,
		ItemCount:       r.ItemCount,
		UnresolvedCount: r.UnresolvedCount,
		CreatedAt:       r.CreatedAt,
		FinalizedAt:     r.FinalizedAt,
	}
}

// SessionListResponse wraps paginated session listings.
type SessionListResponse struct {
	Sessions []SessionSummary `json:"sessions"`
	Total    int              `json:"total"`
}

// PatchItemRequest is the request body for PATCH item. All fields optional;
// at least one must be present.
type PatchItemRequest struct {
	SelectedName *string `json:"selected_name,omitempty"`
	RawName      *string `json:"raw_name,omitempty"`
	LeaveType    *string `json:"leave_type,omitempty"`
	Column       *int    `json:"column,omitempty"`
}

// AddItemRequest is the request body for adding an item. RawName skips
// region recognition; without it a box is required.
type AddItemRequest struct {
	Column    int              `json:"column"`
	RawName   string           `json:"raw_name,omitempty"`
	Box       *review.BoxInput `json:"box,omitempty"`
	LeaveType string           `json:"leave_type,omitempty"`
}

// ReocrRequest is the optional request body for re-running recognition.
// A box replaces the item's bounding region before recognition.
type ReocrRequest struct {
	Box *review.BoxInput `json:"box,omitempty"`
}

// EmployeesResponse wraps roster autocomplete results.
type EmployeesResponse struct {
	Names []string `json:"names"`
}

// LLMFillResponse wraps the items added by a model fill.
type LLMFillResponse struct {
	Added []ItemDetail `json:"added"`
}
