package hangul

import "strings"

// surnameChars lists syllables that plausibly open a Korean personal name.
// The membership test is deliberately imprecise (many of these are also common
// word-initial syllables); downstream confidence gating compensates.
const surnameChars = "김이박최정강조윤장임한오서신권황안송전홍유고문양손배백허남심노하곽성차주우구민류나진지엄채원천방공현함변염여추도소석선설마길연위표명기반왕금옥육인맹제모탁국은편용예경봉사부가복태목형피두감음빈동온호범좌팽승간상시갈단견"

var surnameSet = func() map[rune]struct{} {
	set := make(map[rune]struct{})
	for _, r := range surnameChars {
		set[r] = struct{}{}
	}
	return set
}()

// IsSurname reports whether r is a plausible Korean surname syllable.
func IsSurname(r rune) bool {
	_, ok := surnameSet[r]
	return ok
}

// HasSurnameInitial reports whether the first rune of s is a plausible surname.
func HasSurnameInitial(s string) bool {
	for _, r := range s {
		return IsSurname(r)
	}
	return false
}

// Clean strips everything but composed Hangul syllables: digits, punctuation,
// Latin characters, and whitespace all disappear before any matching.
func Clean(s string) string {
	var b strings.Builder
	for _, r := range s {
		if IsSyllable(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsProbableName reports whether s is structurally shaped like a Korean
// personal name: 2-3 Hangul syllables opening with a plausible surname.
func IsProbableName(s string) bool {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) < 2 || len(runes) > 3 {
		return false
	}
	for _, r := range runes {
		if !IsSyllable(r) {
			return false
		}
	}
	return IsSurname(runes[0])
}
