package ontology

// MatchingStrategy decides which candidate, if any, a free-text name
// resolves to. Implementations must be safe for concurrent use; the
// resolver calls them from parallel walks.
//
// Alternative algorithms (edit distance, embedding similarity) can be
// substituted without touching the resolver.
type MatchingStrategy interface {
	FindMatch(name string, candidates []string) (string, bool)
}

// RatioStrategy is the default strategy: Ratcliff/Obershelp sequence
// similarity with a cutoff. Candidates below the cutoff are misses.
type RatioStrategy struct {
	Cutoff float64
}

// DefaultCutoff matches the reference behavior of the source system.
const DefaultCutoff = 0.8

func (s RatioStrategy) FindMatch(name string, candidates []string) (string, bool) {
	cutoff := s.Cutoff
	if cutoff <= 0 {
		cutoff = DefaultCutoff
	}

	best := ""
	bestRatio := 0.0
	for _, candidate := range candidates {
		ratio := sequenceRatio(name, candidate)
		if ratio > bestRatio {
			best = candidate
			bestRatio = ratio
		}
	}

	if bestRatio < cutoff {
		return "", false
	}
	return best, true
}

// sequenceRatio computes the Ratcliff/Obershelp similarity of two
// strings: twice the total length of matching blocks over the combined
// length. 1.0 means identical, 0.0 means nothing in common.
func sequenceRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	matched := matchingLength([]byte(a), []byte(b))
	return 2.0 * float64(matched) / float64(len(a)+len(b))
}

// matchingLength sums the longest common substring and, recursively,
// the matches in the unmatched regions on either side of it.
func matchingLength(a, b []byte) int {
	aStart, bStart, size := longestCommonBlock(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingLength(a[:aStart], b[:bStart])
	total += matchingLength(a[aStart+size:], b[bStart+size:])
	return total
}

func longestCommonBlock(a, b []byte) (int, int, int) {
	bestA, bestB, bestSize := 0, 0, 0

	// Rolling row of match lengths ending at (i, j).
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > bestSize {
					bestSize = curr[j]
					bestA = i - curr[j]
					bestB = j - curr[j]
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}

	return bestA, bestB, bestSize
}
