package match

// Levenshtein computes the edit distance between two strings.
//
// Time complexity: O(len(a) * len(b)); space: O(min(len(a), len(b))).
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}

	if len(a) == 0 {
		return len(b)
	}

	if len(b) == 0 {
		return len(a)
	}

	if len(a) > len(b) {
		a, b = b, a
	}

	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)

	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(b); j++ {
		curr[0] = j

		for i := 1; i <= len(a); i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			curr[i] = min(prev[i]+1, curr[i-1]+1, prev[i-1]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(a)]
}

// NearMatch reports whether two names differ only slightly once normalized,
// e.g. "pet" and "Pets" or "order_item" and "orderItems". Exact matches are
// not near matches.
func NearMatch(a, b string, maxDistance int) bool {
	na, nb := NormalizeIdent(a), NormalizeIdent(b)
	if na == nb || na == "" || nb == "" {
		return false
	}

	d := Levenshtein(na, nb)

	// Short names would match almost anything.
	return d <= maxDistance && d < min(len(na), len(nb))
}
