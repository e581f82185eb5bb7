package intent

// Ratio returns the normalised indel similarity of a and b in [0,100]:
// 2*LCS / (len(a)+len(b)) * 100, computed over runes.
func Ratio(a, b string) float64 {
	return ratioRunes([]rune(a), []rune(b))
}

// PartialRatio returns the best Ratio between the shorter string and any
// same-length window of the longer one. Windows that overhang either end are
// also scored, so a short needle can match a prefix or suffix.
func PartialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 100
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}

	n := len(ra)
	best := 0.0
	score := func(window []rune) bool {
		if s := ratioRunes(ra, window); s > best {
			best = s
		}
		return best == 100
	}

	for i := 1; i < n; i++ {
		if score(rb[:i]) {
			return best
		}
	}
	for i := 0; i+n <= len(rb); i++ {
		if score(rb[i : i+n]) {
			return best
		}
	}
	for i := len(rb) - n + 1; i < len(rb); i++ {
		if score(rb[i:]) {
			return best
		}
	}
	return best
}

// MatchPhrase returns the first phrase whose PartialRatio against text is at
// least threshold.
func MatchPhrase(text string, phrases []string, threshold float64) (string, float64, bool) {
	if text == "" {
		return "", 0, false
	}
	for _, p := range phrases {
		if s := PartialRatio(p, text); s >= threshold {
			return p, s, true
		}
	}
	return "", 0, false
}

func ratioRunes(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	return 200 * float64(lcsLength(a, b)) / float64(total)
}

// lcsLength is the classic two-row dynamic programme.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
