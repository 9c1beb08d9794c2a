package affinity

// PairCache holds precomputed two-way scores keyed by (from, to).
// Only pairs with a non-zero score are stored; Score returns 0 for
// everything else, matching the dense expansion's zero-fill rules.
type PairCache map[[2]int]int

// Score returns the cached two-way score, or 0 when none was stored.
func (c PairCache) Score(a, b int) int {
	return c[[2]int{a, b}]
}

// TripleCache holds precomputed three-way scores keyed by (a, b, c).
// Entries exist only where a != b and the a,b relation sets overlap;
// within that space the stored value may legitimately be 0.
type TripleCache map[[3]int]int

// Score returns the cached three-way score, or 0 when none was stored.
func (c TripleCache) Score(a, b, c3 int) int {
	return c[[3]int{a, b, c3}]
}

// BuildPairCache computes the two-way score for every ordered pair of
// distinct characters. The cache is complete for the model's character
// set: an absent key means the score is 0.
func BuildPairCache(m *Model) PairCache {
	charas := m.Charas()
	cache := make(PairCache)
	for _, a := range charas {
		relA := m.rel[a]
		for _, b := range charas {
			if a == b {
				continue
			}
			score := 0
			for rt := range relA {
				if _, shared := m.rel[b][rt]; shared {
					score += m.points[rt]
				}
			}
			if score != 0 {
				cache[[2]int{a, b}] = score
			}
		}
	}
	return cache
}

// BuildTripleCache computes the three-way score for every (a, b, c)
// where a != b, the a,b relation sets overlap, and c != b. Pairs whose
// sets do not overlap are skipped entirely; the c == a entries are
// stored as 0 rather than skipped so lookups stay uniform.
func BuildTripleCache(m *Model) TripleCache {
	charas := m.Charas()
	cache := make(TripleCache)
	for _, a := range charas {
		relA := m.rel[a]
		for _, b := range charas {
			if a == b {
				continue
			}
			relB := m.rel[b]
			common := make([]int, 0, len(relA))
			for rt := range relA {
				if _, shared := relB[rt]; shared {
					common = append(common, rt)
				}
			}
			if len(common) == 0 {
				continue
			}
			for _, c := range charas {
				if c == b {
					continue
				}
				score := 0
				if a != c {
					relC := m.rel[c]
					for _, rt := range common {
						if _, in := relC[rt]; in {
							score += m.points[rt]
						}
					}
				}
				cache[[3]int{a, b, c}] = score
			}
		}
	}
	return cache
}
