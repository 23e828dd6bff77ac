package protocol

// ChallengeResponse couples a segment with the segment that answered it.
type ChallengeResponse struct {
	Challenge *TCPSegment
	Response  *TCPSegment
}

// ChallengeResponses is an ordered pair collection, in discovery order.
type ChallengeResponses []ChallengeResponse

// FindChallengeResponsePairs partitions the segments into matched
// challenge/response pairs and leftover unmatched segments. Matching is a
// greedy quadratic scan: each challenge takes the first remaining segment
// that answers it, both leave the pool, and no further disambiguation
// happens when several candidates would match. The two outputs partition the
// input; unmatched segments keep their relative input order.
//
// The pool is an index-stable slot array with tombstones, so removing a
// matched pair cannot shift indices under the running scan.
func FindChallengeResponsePairs(segments TCPSegments) (ChallengeResponses, TCPSegments) {
	pool := make([]*TCPSegment, len(segments))
	for i, s := range segments {
		pool[i] = s.Clone()
	}

	var matched ChallengeResponses
	i := 0
	for i < len(pool) {
		challenge := pool[i]
		if challenge == nil {
			i++
			continue
		}
		found := false
		for j := range pool {
			if j == i || pool[j] == nil {
				continue
			}
			if challenge.IsAnsweredBy(pool[j]) {
				matched = append(matched, ChallengeResponse{Challenge: challenge, Response: pool[j]})
				pool[j] = nil
				pool[i] = nil
				found = true
				break
			}
		}
		if !found {
			i++
		}
	}

	unmatched := make(TCPSegments, 0, len(pool)-2*len(matched))
	for _, s := range pool {
		if s != nil {
			unmatched = append(unmatched, s)
		}
	}
	return matched, unmatched
}
