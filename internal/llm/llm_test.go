package llm

import (
	"errors"
	"testing"

	"github.com/caffeinsmuggler/timesheet-ai/internal/apperr"
)

func TestParseProposalsPlain(t *testing.T) {
	raw := `[{"name":"김철수","column":2,"leave_type":"연가"}]`
	got, err := parseProposals(raw)
	if err != nil {
		t.Fatalf("parseProposals: %v", err)
	}
	if len(got) != 1 || got[0].Name != "김철수" || got[0].Column != 2 {
		t.Fatalf("got %+v", got)
	}
}

func TestParseProposalsFenced(t *testing.T) {
	raw := "```json\n[{\"name\":\"이영희\",\"column\":5,\"leave_type\":\"병가\"}]\n```"
	got, err := parseProposals(raw)
	if err != nil {
		t.Fatalf("parseProposals: %v", err)
	}
	if len(got) != 1 || got[0].Name != "이영희" {
		t.Fatalf("got %+v", got)
	}
}

func TestParseProposalsEmptyArray(t *testing.T) {
	got, err := parseProposals("[]")
	if err != nil {
		t.Fatalf("parseProposals: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d proposals, want 0", len(got))
	}
}

func TestParseProposalsMalformed(t *testing.T) {
	_, err := parseProposals("sure, here is the JSON you asked for")
	if !errors.Is(err, apperr.ErrCollaborator) {
		t.Fatalf("err = %v, want collaborator error", err)
	}
}

func TestParseProposalsEmptyResponse(t *testing.T) {
	_, err := parseProposals("   ")
	if !errors.Is(err, apperr.ErrCollaborator) {
		t.Fatalf("err = %v, want collaborator error", err)
	}
}

func TestParseProposalsFiltersInvalid(t *testing.T) {
	raw := `[
		{"name":"","column":2,"leave_type":"연가"},
		{"name":"박민준","column":1,"leave_type":"연가"},
		{"name":"박민준","column":9,"leave_type":"연가"},
		{"name":"최지우","column":4,"leave_type":"휴가아님"}
	]`
	got, err := parseProposals(raw)
	if err != nil {
		t.Fatalf("parseProposals: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d proposals, want 1: %+v", len(got), got)
	}
	if got[0].Name != "최지우" || got[0].LeaveType != "Unknown" {
		t.Fatalf("got %+v", got[0])
	}
}
