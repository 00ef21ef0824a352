package pos

// Rules holds the pair, triplet and quadruplet label adjustments. A
// negative value favors the sequence, a positive one penalizes it. Rules
// are built once and never mutated afterwards.
type Rules struct {
	pairs       map[[2]string]int
	triplets    map[[3]string]int
	quadruplets map[[4]string]int
}

// NewRules returns an empty rule set.
func NewRules() *Rules {
	return &Rules{
		pairs:       make(map[[2]string]int),
		triplets:    make(map[[3]string]int),
		quadruplets: make(map[[4]string]int),
	}
}

// SetPair registers a pair adjustment. The first label may be coarse.
func (r *Rules) SetPair(prev, next string, bias int) *Rules {
	r.pairs[[2]string{prev, next}] = bias
	return r
}

// SetTriplet registers a triplet adjustment. The first label may be coarse.
func (r *Rules) SetTriplet(a, b, c string, bias int) *Rules {
	r.triplets[[3]string{a, b, c}] = bias
	return r
}

// SetQuadruplet registers a quadruplet adjustment. The first label may be coarse.
func (r *Rules) SetQuadruplet(a, b, c, d string, bias int) *Rules {
	r.quadruplets[[4]string{a, b, c, d}] = bias
	return r
}

// Pair looks up (prev, next), then (coarse(prev), next).
func (r *Rules) Pair(prev, next string) int {
	if v, ok := r.pairs[[2]string{prev, next}]; ok {
		return v
	}
	if c := Coarse(prev); c != prev {
		return r.pairs[[2]string{c, next}]
	}
	return 0
}

// Triplet looks up (a, b, c), then (coarse(a), b, c).
func (r *Rules) Triplet(a, b, c string) int {
	if v, ok := r.triplets[[3]string{a, b, c}]; ok {
		return v
	}
	if ca := Coarse(a); ca != a {
		return r.triplets[[3]string{ca, b, c}]
	}
	return 0
}

// Quadruplet looks up (a, b, c, d), then (coarse(a), b, c, d).
func (r *Rules) Quadruplet(a, b, c, d string) int {
	if v, ok := r.quadruplets[[4]string{a, b, c, d}]; ok {
		return v
	}
	if ca := Coarse(a); ca != a {
		return r.quadruplets[[4]string{ca, b, c, d}]
	}
	return 0
}

// DefaultRules returns the built-in adjustment tables.
func DefaultRules() *Rules {
	r := NewRules()

	// sentence start
	r.SetPair(BOS, "名詞-副詞可能", -500).
		SetPair(BOS, "名詞-一般", -200).
		SetPair(BOS, "名詞-固有名詞", -200).
		SetPair(BOS, "副詞-一般", -300).
		SetPair(BOS, "名詞-サ変接続", 0).
		SetPair(BOS, "名詞-接尾", 5000)

	// after particles
	r.SetPair("助詞", "名詞-副詞可能", -300).
		SetPair("助詞", "名詞-一般", -100).
		SetPair("助詞", "名詞-固有名詞", -100).
		SetPair("助詞-格助詞", "名詞-形容動詞語幹", 200)

	// nouns and counters
	r.SetPair("名詞-接尾", "助詞-連体化", 3000).
		SetPair("名詞-副詞可能", "名詞-一般", 400).
		SetPair("名詞-数", "名詞-接尾", -800).
		SetPair("名詞-数", "名詞-一般", 800).
		SetPair("名詞-数", "名詞-固有名詞", 1500).
		SetPair("名詞-数", "名詞-固有名詞-人名", 4000).
		SetPair("名詞-数", "名詞-接尾-助数詞", -2000)

	r.SetTriplet(BOS, "名詞-副詞可能", "助詞-連体化", -300).
		SetTriplet("名詞-数", "名詞-接尾", "名詞-接尾", 500).
		SetTriplet("名詞-数", "名詞-接尾", "助詞-連体化", -200).
		SetTriplet("名詞-副詞可能", "助詞-連体化", "名詞-サ変接続", -200).
		SetTriplet("名詞-サ変接続", "助詞-格助詞", "名詞-サ変接続", -200).
		SetTriplet("助詞-格助詞", "名詞-サ変接続", "動詞-自立", -300).
		SetTriplet("助詞", "助詞", "助詞", 800)

	r.SetQuadruplet(BOS, "名詞-副詞可能", "助詞-連体化", "名詞-サ変接続", -300).
		SetQuadruplet("名詞-サ変接続", "助詞-格助詞", "名詞-サ変接続", "動詞-自立", -200).
		SetQuadruplet("名詞-数", "名詞-接尾", "名詞-数", "名詞-接尾", -100)

	return r
}
