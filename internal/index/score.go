package index

import (
	"strings"
	"unicode"
)

// titleScoreLength is how many leading characters feed the title rank score.
// Nine base-38 digits stay below 2^53, so the score survives the float64
// round-trip through the sorted set exactly.
const titleScoreLength = 9

// titleAlphabet ranks characters for title ordering: digits before letters,
// anything else sorts first.
const titleAlphabetSize = 38

func titleCharRank(r rune) float64 {
	switch {
	case r >= '0' && r <= '9':
		return float64(r-'0') + 1
	case r >= 'a' && r <= 'z':
		return float64(r-'a') + 11
	default:
		return 0
	}
}

// TitleScore encodes the leading characters of a title as a sortable numeric
// score. Titles that agree on the first nine normalized characters tie and
// fall back to member order in the sorted set.
func TitleScore(title string) float64 {
	normalized := make([]rune, 0, titleScoreLength)
	for _, r := range strings.ToLower(title) {
		if unicode.IsSpace(r) {
			continue
		}
		normalized = append(normalized, r)
		if len(normalized) == titleScoreLength {
			break
		}
	}

	var score float64
	for i := 0; i < titleScoreLength; i++ {
		var rank float64
		if i < len(normalized) {
			rank = titleCharRank(normalized[i])
		}
		score = score*titleAlphabetSize + rank
	}
	return score
}
