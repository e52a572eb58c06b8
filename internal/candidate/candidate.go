// Package candidate holds the shared candidate model used by every
// extractor: a detected value with its source tag and a confidence in
// [0,1], plus the ranking helpers the extraction pipelines share.
package candidate

import "sort"

// Candidate is one detected value. AlsoDetected lists the additional source
// tags that found the same value after deduplication.
type Candidate struct {
	Value        string   `json:"value"`
	Source       string   `json:"source"`
	Confidence   float64  `json:"confidence"`
	AlsoDetected []string `json:"alsoDetected,omitempty"`
}

// MethodCount is the number of distinct detection methods that produced
// this candidate.
func (c Candidate) MethodCount() int {
	return 1 + len(c.AlsoDetected)
}

// Result is one field's extraction outcome: the selected candidate, if any
// cleared selection, plus the full ranked candidate list for audit.
type Result struct {
	Selected   *Candidate  `json:"selected,omitempty"`
	Candidates []Candidate `json:"candidates"`
}

// Dedupe collapses candidates sharing a value. The earliest occurrence
// keeps its source and confidence; later sources are folded into
// AlsoDetected. Input priority order decides ties, so callers append
// candidates from highest-priority detectors first.
func Dedupe(cands []Candidate) []Candidate {
	out := make([]Candidate, 0, len(cands))
	index := make(map[string]int, len(cands))
	for _, c := range cands {
		i, seen := index[c.Value]
		if !seen {
			index[c.Value] = len(out)
			out = append(out, c)
			continue
		}
		kept := &out[i]
		if c.Confidence > kept.Confidence {
			kept.Confidence = c.Confidence
		}
		if c.Source != kept.Source {
			dup := false
			for _, s := range kept.AlsoDetected {
				if s == c.Source {
					dup = true
					break
				}
			}
			if !dup {
				kept.AlsoDetected = append(kept.AlsoDetected, c.Source)
			}
		}
	}
	return out
}

// SortByConfidence orders candidates highest first. The sort is stable, so
// equal confidences keep their detector priority order.
func SortByConfidence(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Confidence > cands[j].Confidence
	})
}

// Top returns the first candidate of a sorted slice, or nil when empty.
func Top(cands []Candidate) *Candidate {
	if len(cands) == 0 {
		return nil
	}
	return &cands[0]
}
