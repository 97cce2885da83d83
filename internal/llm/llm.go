// Package llm provides the model-assisted table reconstruction used by the
// llm-fill operation: a vision-capable model inspects the sheet image and
// proposes entries the geometric pipeline missed.
package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/caffeinsmuggler/timesheet-ai/internal/apperr"
	"github.com/caffeinsmuggler/timesheet-ai/internal/models"
)

// BoxHint is an approximate pixel rectangle for a proposed entry.
type BoxHint struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Proposal is one model-suggested entry.
type Proposal struct {
	Name      string   `json:"name"`
	Column    int      `json:"column"`
	LeaveType string   `json:"leave_type"`
	Box       *BoxHint `json:"box,omitempty"`
	Reasoning string   `json:"reasoning,omitempty"`
}

// Known summarizes an already-captured entry so the model does not propose
// duplicates.
type Known struct {
	Name   string `json:"name"`
	Column int    `json:"column"`
}

// Assist is the model-assist contract.
type Assist interface {
	Name() string
	ProposeEntries(ctx context.Context, image []byte, known []Known) ([]Proposal, error)
}

// parseProposals decodes the model's JSON response. Markdown code fences are
// stripped first since models occasionally wrap JSON despite the forced MIME
// type. Proposals with no name or an out-of-range column are dropped;
// unrecognized leave types are normalized to Unknown.
func parseProposals(raw string) ([]Proposal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, apperr.Collaboratorf("model returned an empty response")
	}

	var proposals []Proposal
	if err := json.Unmarshal([]byte(s), &proposals); err != nil {
		return nil, apperr.Collaboratorf("model returned malformed JSON: %v", err)
	}

	out := make([]Proposal, 0, len(proposals))
	for _, p := range proposals {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" || !models.ValidColumn(p.Column) {
			continue
		}
		if !validLeaveType(p.LeaveType) {
			p.LeaveType = models.LeaveUnknown
		}
		out = append(out, p)
	}
	return out, nil
}

func validLeaveType(lt string) bool {
	for _, known := range models.LeaveTypes {
		if lt == known {
			return true
		}
	}
	return false
}
