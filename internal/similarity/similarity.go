// Package similarity implements Ratcliff/Obershelp string similarity: twice
// the number of matching characters over the combined length. Matching
// characters are counted by recursively splitting both strings around their
// longest common substring.
package similarity

// Ratio returns the similarity of a and b in [0,1]. Two empty strings are
// identical by definition.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(matchingChars(ra, rb)) / float64(total)
}

func matchingChars(a, b []rune) int {
	ai, bi, size := longestBlock(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingChars(a[:ai], b[:bi]) +
		matchingChars(a[ai+size:], b[bi+size:])
}

// longestBlock finds the longest common substring, preferring the earliest
// position in a, then in b, so results are deterministic.
func longestBlock(a, b []rune) (ai, bi, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	// lengths[j] is the length of the common suffix ending at a[i], b[j]
	// for the current row i.
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			if a[i] == b[j] {
				cur[j+1] = prev[j] + 1
				if cur[j+1] > size {
					size = cur[j+1]
					ai = i - size + 1
					bi = j - size + 1
				}
			} else {
				cur[j+1] = 0
			}
		}
		prev, cur = cur, prev
	}
	return ai, bi, size
}

// Closest returns the candidate most similar to target, or false when no
// candidate reaches the cutoff. On ties the earliest candidate wins.
func Closest(target string, candidates []string, cutoff float64) (string, bool) {
	best := ""
	bestRatio := 0.0
	found := false
	for _, c := range candidates {
		r := Ratio(target, c)
		if r < cutoff {
			continue
		}
		if !found || r > bestRatio {
			best = c
			bestRatio = r
			found = true
		}
	}
	return best, found
}
