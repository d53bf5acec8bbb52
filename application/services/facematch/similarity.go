package facematch

import "math"

// Cosine returns the cosine similarity of a and b, 0 when either is a zero vector.
func Cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// NormalisedDistance is ||a-b|| / (||a|| + ||b||), which lies in [0, 1]
// for any pair of vectors. Two zero vectors are treated as maximally apart.
func NormalisedDistance(a, b []float64) float64 {
	var diff, na, nb float64
	for i := range a {
		d := a[i] - b[i]
		diff += d * d
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	denom := math.Sqrt(na) + math.Sqrt(nb)
	if denom == 0 {
		return 1
	}
	return math.Sqrt(diff) / denom
}

// Decide combines both metrics under policy.
func (p MatchPolicy) Decide(stored, probe []float64) (accepted bool, similarity, distance, score float64) {
	similarity = Cosine(stored, probe)
	distance = NormalisedDistance(stored, probe)
	w := p.CosineWeight
	if w <= 0 || w > 1 {
		w = 0.7
	}
	score = w*similarity + (1-w)*(1-distance)
	accepted = score >= p.AcceptThreshold && distance <= p.MaxDistance
	return accepted, similarity, distance, score
}
