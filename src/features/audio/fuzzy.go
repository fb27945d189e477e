package audio

import "strings"

// fuzzyRatio is a Go port of Python's difflib.SequenceMatcher(None, a, b).ratio():
// twice the number of matching characters (found by the longest matching
// block recursion) divided by the combined length of both strings.
func fuzzyRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	matches := matchingBlockLength(a, b)
	return 2.0 * float64(matches) / float64(len(a)+len(b))
}

// matchingBlockLength recursively sums the lengths of non-overlapping
// matching blocks between a and b, mirroring SequenceMatcher's approach.
func matchingBlockLength(a, b string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	ai, bi, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}

	total := size
	total += matchingBlockLength(a[:ai], b[:bi])
	total += matchingBlockLength(a[ai+size:], b[bi+size:])
	return total
}

// longestMatch finds the longest common substring of a and b, returning its
// start index in each and its length. Ties prefer the earliest match in a,
// then in b, matching SequenceMatcher's behavior closely enough for scoring.
func longestMatch(a, b string) (aStart, bStart, size int) {
	bIndex := make(map[byte][]int, len(b))
	for i := 0; i < len(b); i++ {
		bIndex[b[i]] = append(bIndex[b[i]], i)
	}

	prev := make(map[int]int)
	for i := 0; i < len(a); i++ {
		cur := make(map[int]int)
		for _, j := range bIndex[a[i]] {
			run := prev[j-1] + 1
			cur[j] = run
			if run > size {
				size = run
				aStart = i - run + 1
				bStart = j - run + 1
			}
		}
		prev = cur
	}
	return aStart, bStart, size
}

// fuzzyContains checks whether needle's words are each fuzzily present
// among haystack's words, requiring at least a 70% hit rate.
func fuzzyContains(haystack, needle string, threshold float64) bool {
	haystack = strings.ToLower(haystack)
	needle = strings.ToLower(needle)

	if strings.Contains(haystack, needle) {
		return true
	}

	needleWords := strings.Fields(needle)
	if len(needleWords) == 0 {
		return false
	}
	haystackWords := strings.Fields(haystack)

	matched := 0
	for _, nw := range needleWords {
		for _, hw := range haystackWords {
			if fuzzyRatio(nw, hw) > threshold {
				matched++
				break
			}
		}
	}

	return float64(matched)/float64(len(needleWords)) >= 0.7
}
