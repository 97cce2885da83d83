package match

import (
	"reflect"
	"testing"
)

var testRoster = Roster{
	DayShift:   []string{"김철수", "이영희"},
	NightShift: []string{"박민준", "최서연"},
}

func TestScoreNeverNegative(t *testing.T) {
	cfg := DefaultConfig()
	// Identical name with surname agreement: 0 - 0.4 floors at 0.
	if s := cfg.Score("김철수", "김철수"); s != 0 {
		t.Errorf("Score(identical) = %v, want 0", s)
	}
	// One trailing-character difference plus surname bonus.
	if s := cfg.Score("김철수", "김철쑤"); s < 0 || s > 0.2+1e-9 {
		t.Errorf("Score(김철수, 김철쑤) = %v, want ≤0.2", s)
	}
}

func TestShouldAutoSelectLengthGated(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		queryLen int
		score    float64
		want     bool
	}{
		{3, 0.9, true},
		{3, 0.91, false},
		{2, 0.7, true},
		{2, 0.71, false},
		{1, 0.0, false},
		{0, 0.0, false},
	}
	for _, tt := range tests {
		if got := cfg.ShouldAutoSelect(tt.queryLen, tt.score); got != tt.want {
			t.Errorf("ShouldAutoSelect(%d, %v) = %v, want %v", tt.queryLen, tt.score, got, tt.want)
		}
	}
}

func TestMatchAutoSelectsCloseName(t *testing.T) {
	cfg := DefaultConfig()
	res := cfg.Match("김철쑤", 2, testRoster)
	if len(res.Candidates) == 0 || res.Candidates[0].Name != "김철수" {
		t.Fatalf("candidates = %+v, want 김철수 first", res.Candidates)
	}
	if res.BestScore > 0.9 {
		t.Errorf("best score = %v, want ≤0.9", res.BestScore)
	}
	if res.Selected == nil || *res.Selected != "김철수" {
		t.Errorf("selected = %v, want 김철수", res.Selected)
	}
}

func TestMatchShortQueryNeverAutoSelects(t *testing.T) {
	cfg := DefaultConfig()
	res := cfg.Match("훈", 2, testRoster)
	if res.Selected != nil {
		t.Errorf("selected = %q, want nil for single-syllable query", *res.Selected)
	}
}

func TestMatchUsesColumnShift(t *testing.T) {
	cfg := DefaultConfig()
	res := cfg.Match("박민준", 5, testRoster)
	if res.Selected == nil || *res.Selected != "박민준" {
		t.Fatalf("selected = %v, want 박민준 from night shift", res.Selected)
	}
	day := cfg.Match("박민준", 2, testRoster)
	if day.Selected != nil && *day.Selected == "박민준" {
		t.Error("day-shift query must not see night-shift names")
	}
}

func TestMatchDeterministicReasoning(t *testing.T) {
	cfg := DefaultConfig()
	a := cfg.Match("김철쑤", 2, testRoster)
	b := cfg.Match("김철쑤", 2, testRoster)
	if !reflect.DeepEqual(a.Reasoning, b.Reasoning) {
		t.Errorf("reasoning not reproducible: %v vs %v", a.Reasoning, b.Reasoning)
	}
	if len(a.Reasoning) != 4 {
		t.Errorf("reasoning length = %d, want 4", len(a.Reasoning))
	}
}

func TestMatchEmptyRoster(t *testing.T) {
	cfg := DefaultConfig()
	res := cfg.Match("김철수", 2, Roster{})
	if len(res.Candidates) != 0 || res.Selected != nil {
		t.Errorf("empty roster: candidates=%v selected=%v", res.Candidates, res.Selected)
	}
}

func TestConfidenceOrderingConsistent(t *testing.T) {
	cfg := DefaultConfig()
	res := cfg.Match("김철수", 2, Roster{DayShift: []string{"김철수", "김철호", "이영희"}})
	for i := 1; i < len(res.Candidates); i++ {
		if res.Candidates[i].Confidence > res.Candidates[i-1].Confidence {
			t.Errorf("confidence not monotone with rank: %+v", res.Candidates)
		}
	}
}
