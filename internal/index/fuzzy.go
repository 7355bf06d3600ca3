package index

// levenshtein computes the edit distance between two terms with a two-row DP
// over byte strings. Terms are lowercase ASCII after tokenization, so byte
// distance is adequate.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// maxEditDistance is the fuzzy-match tolerance for vocabulary expansion.
const maxEditDistance = 2

// fuzzyMatches reports whether candidate is close enough to term to count as
// a fuzzy match: within edit distance 2, or the term is a prefix of the
// candidate and long enough not to match half the vocabulary.
func fuzzyMatches(term, candidate string) bool {
	if len(term) >= 3 && len(candidate) > len(term) && candidate[:len(term)] == term {
		return true
	}
	return levenshtein(term, candidate) <= maxEditDistance
}
