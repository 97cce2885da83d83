// Package hangul provides sub-syllable (jamo) decomposition, a jamo-weighted
// edit distance, and Korean name-shape heuristics.
package hangul

const (
	syllableBase = rune(0xAC00)
	syllableLast = rune(0xD7A3)
	vowelCount   = 21
	trailCount   = 28
)

var (
	leads  = []rune("ㄱㄲㄴㄷㄸㄹㅁㅂㅃㅅㅆㅇㅈㅉㅊㅋㅌㅍㅎ")
	vowels = []rune("ㅏㅐㅑㅒㅓㅔㅕㅖㅗㅘㅙㅚㅛㅜㅝㅞㅟㅠㅡㅢㅣ")
	// Index 0 is the "no trailing consonant" sentinel.
	trails = []rune("-ㄱㄲㄳㄴㄵㄶㄷㄹㄺㄻㄼㄽㄾㄿㅀㅁㅂㅄㅅㅆㅇㅈㅊㅋㅌㅍㅎ")
)

// Jamo holds the three components of one syllable block. For runes outside the
// Hangul syllable range, Lead is the rune itself, Vowel is zero, and Trail is
// the sentinel, so equality comparisons still behave.
type Jamo struct {
	Lead  rune
	Vowel rune
	Trail rune
}

// Decompose splits a rune into leading consonant, vowel, and trailing
// consonant using the Unicode syllable-block arithmetic rooted at U+AC00.
func Decompose(r rune) Jamo {
	if r < syllableBase || r > syllableLast {
		return Jamo{Lead: r, Trail: trails[0]}
	}
	idx := r - syllableBase
	return Jamo{
		Lead:  leads[idx/(vowelCount*trailCount)],
		Vowel: vowels[(idx%(vowelCount*trailCount))/trailCount],
		Trail: trails[idx%trailCount],
	}
}

// Substitution component weights. A substitution sharing most sub-syllable
// components is closer than a flat edit-distance model would credit.
const (
	leadWeight  = 0.6
	vowelWeight = 0.3
	trailWeight = 0.1
)

// subCost returns the weighted substitution cost between two runes, capped at 1.
func subCost(a, b rune) float64 {
	if a == b {
		return 0
	}
	ja, jb := Decompose(a), Decompose(b)
	cost := 0.0
	if ja.Lead != jb.Lead {
		cost += leadWeight
	}
	if ja.Vowel != jb.Vowel {
		cost += vowelWeight
	}
	if ja.Trail != jb.Trail {
		cost += trailWeight
	}
	if cost > 1 {
		cost = 1
	}
	return cost
}

// Distance computes the edit distance between a and b with unit
// insertion/deletion cost and jamo-weighted substitution cost.
// It is zero iff the strings are rune-identical.
func Distance(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	m, n := len(ra), len(rb)
	prev := make([]float64, n+1)
	curr := make([]float64, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = float64(j)
	}
	for i := 1; i <= m; i++ {
		curr[0] = float64(i)
		for j := 1; j <= n; j++ {
			rep := prev[j-1] + subCost(ra[i-1], rb[j-1])
			del := prev[j] + 1
			ins := curr[j-1] + 1
			curr[j] = rep
			if del < curr[j] {
				curr[j] = del
			}
			if ins < curr[j] {
				curr[j] = ins
			}
		}
		prev, curr = curr, prev
	}
	return prev[n]
}

// IsSyllable reports whether r is a composed Hangul syllable block.
func IsSyllable(r rune) bool {
	return r >= syllableBase && r <= syllableLast
}
