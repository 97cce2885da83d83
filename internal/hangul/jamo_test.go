package hangul

import "testing"

func TestDecompose(t *testing.T) {
	tests := []struct {
		r                 rune
		lead, vowel, trail rune
	}{
		{'가', 'ㄱ', 'ㅏ', '-'},
		{'김', 'ㄱ', 'ㅣ', 'ㅁ'},
		{'수', 'ㅅ', 'ㅜ', '-'},
		{'쑤', 'ㅆ', 'ㅜ', '-'},
		{'힣', 'ㅎ', 'ㅣ', 'ㅎ'},
	}
	for _, tt := range tests {
		j := Decompose(tt.r)
		if j.Lead != tt.lead || j.Vowel != tt.vowel || j.Trail != tt.trail {
			t.Errorf("Decompose(%c) = %c/%c/%c, want %c/%c/%c",
				tt.r, j.Lead, j.Vowel, j.Trail, tt.lead, tt.vowel, tt.trail)
		}
	}
}

func TestDecomposeNonSyllable(t *testing.T) {
	j := Decompose('A')
	if j.Lead != 'A' || j.Vowel != 0 || j.Trail != '-' {
		t.Errorf("Decompose('A') = %+v", j)
	}
}

func TestDistanceZeroIffIdentical(t *testing.T) {
	names := []string{"", "김", "김철수", "이영희"}
	for _, n := range names {
		if d := Distance(n, n); d != 0 {
			t.Errorf("Distance(%q, %q) = %v, want 0", n, n, d)
		}
	}
	if d := Distance("김철수", "김철호"); d == 0 {
		t.Error("distance between distinct strings must be positive")
	}
}

func TestDistanceWeighted(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		// 수 vs 쑤: only the leading consonant differs.
		{"김철수", "김철쑤", 0.6},
		// 수 vs 소: only the vowel differs.
		{"수", "소", 0.3},
		// 간 vs 가: only the trailing consonant differs.
		{"간", "가", 0.1},
		// Pure insertion.
		{"김철", "김철수", 1.0},
	}
	for _, tt := range tests {
		got := Distance(tt.a, tt.b)
		if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("Distance(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"김철수", "김철수"},
		{"김 철 수", "김철수"},
		{"(1) 김철수.", "김철수"},
		{"abc123", ""},
		{"홍길동 hr-27", "홍길동"},
	}
	for _, tt := range tests {
		if got := Clean(tt.in); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsProbableName(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"김철수", true},
		{"이영희", true},
		{"김수", true},
		{"훈", false},       // too short
		{"김철수호", false},  // too long
		{"abc", false},
		{"뷁철수", false},    // not a surname initial
	}
	for _, tt := range tests {
		if got := IsProbableName(tt.in); got != tt.want {
			t.Errorf("IsProbableName(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
