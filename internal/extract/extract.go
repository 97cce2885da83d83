// Package extract recombines fragmented OCR syllable tokens into candidate
// Korean name strings.
//
// OCR frequently splits one handwritten name into several one- and
// two-syllable tokens. Each rule below is a pure, independent candidate
// generator over a token row; rule outputs are unioned into one set rather
// than short-circuiting on the first match.
package extract

import (
	"sort"

	"github.com/caffeinsmuggler/timesheet-ai/internal/hangul"
	"github.com/caffeinsmuggler/timesheet-ai/internal/layout"
	"github.com/caffeinsmuggler/timesheet-ai/internal/models"
)

// Horizontal gap tolerance between adjoining tokens. Slight negative overlap
// is allowed because OCR boxes of touching handwriting often intersect.
const (
	DefaultGapPx  = 40.0
	gapOverlapMin = -4.0
)

type candidateSet map[string]struct{}

func (s candidateSet) add(name string) {
	n := []rune(name)
	if len(n) >= 2 && len(n) <= 3 {
		s[name] = struct{}{}
	}
}

func (s candidateSet) sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// withinGap reports whether b starts within the gap tolerance after a ends.
func withinGap(a, b models.Token, gapPx float64) bool {
	gap := b.Box.Left() - a.Box.Right()
	return gap >= gapOverlapMin && gap <= gapPx
}

type rule func(row layout.Row, gapPx float64, out candidateSet)

// whole keeps any single token that already looks like a full name.
func whole(row layout.Row, _ float64, out candidateSet) {
	for _, tk := range row.Tokens {
		n := []rune(tk.Text)
		if len(n) >= 2 && len(n) <= 3 && hangul.IsSurname(n[0]) {
			out.add(tk.Text)
		}
	}
}

// surnameLed joins a one-syllable surname token with the following one or two
// tokens: 성+이름 and 성+중간+끝 chains.
func surnameLed(row layout.Row, gapPx float64, out candidateSet) {
	items := row.Tokens
	for i, a := range items {
		ra := []rune(a.Text)
		if len(ra) != 1 || !hangul.IsSurname(ra[0]) {
			continue
		}
		if i+1 >= len(items) {
			continue
		}
		b := items[i+1]
		rb := []rune(b.Text)
		if withinGap(a, b, gapPx) && len(rb) >= 1 && len(rb) <= 2 {
			out.add(a.Text + b.Text)
		}
		if i+2 < len(items) {
			c := items[i+2]
			rc := []rune(c.Text)
			if withinGap(a, b, gapPx) && withinGap(b, c, gapPx) && len(rb) == 1 && len(rc) == 1 {
				out.add(a.Text + b.Text + c.Text)
			}
		}
	}
}

// prefixRepair prepends a one-syllable surname neighbor to a two-syllable
// token: 황 + 장훈 becomes 황장훈.
func prefixRepair(row layout.Row, gapPx float64, out candidateSet) {
	items := row.Tokens
	for i, a := range items {
		if len([]rune(a.Text)) != 2 || i == 0 {
			continue
		}
		left := items[i-1]
		rl := []rune(left.Text)
		if len(rl) == 1 && hangul.IsSurname(rl[0]) && withinGap(left, a, gapPx) {
			out.add(left.Text + a.Text)
		}
	}
}

// suffixRepair appends a trailing one-syllable token to a two-syllable token:
// 홍선 + 자 becomes 홍선자.
func suffixRepair(row layout.Row, gapPx float64, out candidateSet) {
	items := row.Tokens
	for i, a := range items {
		if len([]rune(a.Text)) != 2 || i+1 >= len(items) {
			continue
		}
		right := items[i+1]
		if len([]rune(right.Text)) == 1 && withinGap(a, right, gapPx) {
			out.add(a.Text + right.Text)
		}
	}
}

var rowRules = []rule{whole, surnameLed, prefixRepair, suffixRepair}

// FromRow applies every candidate rule to one token row and returns the
// deduplicated union, sorted for determinism.
func FromRow(row layout.Row, gapPx float64) []string {
	if gapPx <= 0 {
		gapPx = DefaultGapPx
	}
	out := make(candidateSet)
	for _, r := range rowRules {
		r(row, gapPx, out)
	}
	return out.sorted()
}

// FromTokens extracts candidate names from a token list. Tokens are grouped
// into rows first; if no row yields a candidate, a sliding window over the
// cleaned fallback text keeps every 2-3 syllable substring that opens with a
// plausible surname.
func FromTokens(tokens []models.Token, fallbackText string, alignPx, gapPx float64) []string {
	out := make(candidateSet)
	for _, row := range layout.GroupRows(tokens, alignPx) {
		for _, name := range FromRow(row, gapPx) {
			out.add(name)
		}
	}
	if len(out) == 0 && fallbackText != "" {
		slidingWindow(hangul.Clean(fallbackText), out)
	}
	return out.sorted()
}

func slidingWindow(cleaned string, out candidateSet) {
	runes := []rune(cleaned)
	for i := range runes {
		if !hangul.IsSurname(runes[i]) {
			continue
		}
		for length := 2; length <= 3; length++ {
			if i+length <= len(runes) {
				out.add(string(runes[i : i+length]))
			}
		}
	}
}
