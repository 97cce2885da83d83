// Package match ranks extracted raw names against the employee roster using
// jamo-weighted distance with a surname bias, and decides auto-selection.
package match

import (
	"fmt"
	"sort"

	"github.com/caffeinsmuggler/timesheet-ai/internal/hangul"
	"github.com/caffeinsmuggler/timesheet-ai/internal/models"
)

// Config carries the matcher thresholds. The literal values come from tuning
// on production sheets; they are exposed as configuration rather than
// re-derived.
type Config struct {
	// SurnameBonus is subtracted from the raw distance when query and
	// candidate agree on a plausible surname initial.
	SurnameBonus float64
	// SurnamePenalty is added when they do not.
	SurnamePenalty float64
	// AutoSelectLen3 is the maximum score that auto-selects a query of three
	// or more syllables.
	AutoSelectLen3 float64
	// AutoSelectLen2 is the stricter bar for two-syllable queries.
	AutoSelectLen2 float64
	// MaxCandidates caps the ranked candidate list.
	MaxCandidates int
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		SurnameBonus:   0.4,
		SurnamePenalty: 0.6,
		AutoSelectLen3: 0.9,
		AutoSelectLen2: 0.7,
		MaxCandidates:  3,
	}
}

// Score returns the bias-adjusted distance between a query and one roster
// name. Surname agreement is a strong independent signal beyond character
// similarity, so it shifts the raw jamo distance; the result never goes
// below zero.
func (c Config) Score(query, candidate string) float64 {
	dist := hangul.Distance(query, candidate)
	qr, cr := []rune(query), []rune(candidate)
	if len(qr) > 0 && len(cr) > 0 && qr[0] == cr[0] && hangul.IsSurname(qr[0]) {
		dist -= c.SurnameBonus
	} else {
		dist += c.SurnamePenalty
	}
	if dist < 0 {
		dist = 0
	}
	return dist
}

// ShouldAutoSelect applies the length-gated threshold: shorter queries carry
// less disambiguating information and must clear a stricter bar; queries of
// fewer than two syllables never auto-select.
func (c Config) ShouldAutoSelect(queryLen int, bestScore float64) bool {
	switch {
	case queryLen >= 3:
		return bestScore <= c.AutoSelectLen3
	case queryLen == 2:
		return bestScore <= c.AutoSelectLen2
	default:
		return false
	}
}

type scored struct {
	name  string
	score float64
}

// rank scores the pool and returns it ascending by score, ties broken by
// lexicographic name order so results are deterministic.
func (c Config) rank(query string, pool []string) []scored {
	rows := make([]scored, 0, len(pool))
	for _, name := range pool {
		rows = append(rows, scored{name: name, score: c.Score(query, name)})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].score != rows[j].score {
			return rows[i].score < rows[j].score
		}
		return rows[i].name < rows[j].name
	})
	return rows
}

// confidence maps a score and rank onto the fixed step function. The value is
// an ordinal ranking signal for reviewers, not a probability; auto-select
// decisions use the score directly.
func confidence(score float64, rank int) int {
	var conf int
	switch {
	case score <= 0.2:
		conf = 95
	case score <= 0.5:
		conf = 85
	case score <= 0.9:
		conf = 70
	case score <= 1.3:
		conf = 50
	default:
		conf = 30 - rank*5
	}
	if conf < 1 {
		conf = 1
	}
	if conf > 95 {
		conf = 95
	}
	return conf
}

// Result is the matcher verdict for one entry. Reasoning is a user-facing
// audit trail, reproducible from the same inputs.
type Result struct {
	Candidates []models.Candidate
	Selected   *string
	BestScore  float64
	Reasoning  []string
}

// Roster holds the two shift name lists searched by the matcher.
type Roster struct {
	DayShift   []string `json:"day_shift"`
	NightShift []string `json:"night_shift"`
}

// PoolFor returns the list for the given shift.
func (r Roster) PoolFor(shift models.Shift) []string {
	if shift == models.ShiftNight {
		return r.NightShift
	}
	return r.DayShift
}

// Match scores rawName against the roster half selected by column. The pool
// is first gated to names sharing the query's first syllable; an empty gate
// result falls back to the full pool, keeping the common case cheap without
// losing totality.
func (c Config) Match(rawName string, column int, roster Roster) Result {
	shift := models.ShiftForColumn(column)
	pool := roster.PoolFor(shift)

	query := []rune(rawName)
	gated := pool
	if len(query) > 0 {
		var same []string
		for _, name := range pool {
			if nr := []rune(name); len(nr) > 0 && nr[0] == query[0] {
				same = append(same, name)
			}
		}
		if len(same) > 0 {
			gated = same
		}
	}

	ranked := c.rank(rawName, gated)
	if len(ranked) > c.MaxCandidates {
		ranked = ranked[:c.MaxCandidates]
	}

	candidates := make([]models.Candidate, 0, len(ranked))
	for i, r := range ranked {
		candidates = append(candidates, models.Candidate{Name: r.name, Confidence: confidence(r.score, i)})
	}

	bestScore := 9.0
	if len(ranked) > 0 {
		bestScore = ranked[0].score
	}

	var selected *string
	if len(ranked) > 0 && c.ShouldAutoSelect(len(query), bestScore) {
		name := ranked[0].name
		selected = &name
	}

	gate := "not available"
	if len(gated) != len(pool) {
		gate = "applied"
	}
	decision := "Below confidence threshold: left unresolved."
	if selected != nil {
		decision = "Auto-selected within threshold."
	}
	reasoning := []string{
		fmt.Sprintf("Column %d → %s_SHIFT.", column, shift),
		fmt.Sprintf("Surname gate: %s.", gate),
		fmt.Sprintf("Jamo distance-based scoring. Best score=%.2f.", bestScore),
		decision,
	}

	return Result{Candidates: candidates, Selected: selected, BestScore: bestScore, Reasoning: reasoning}
}
