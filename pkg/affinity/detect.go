package affinity

import (
	"fmt"
	"sort"
)

// Verdict is the change detector's answer: whether the relation data
// underlying a previous run differs from the current master data, and
// why. Any difference forces a full re-index downstream.
type Verdict struct {
	Changed bool
	Reasons []string
}

// DetectChanges compares the previous snapshot's relation data against
// the current master data. It flags changed point values, characters
// that disappeared, and characters whose relation set changed. Newly
// added characters do not count as a change; growth is handled by the
// recompute planner through the maximum id.
func DetectChanges(prevPoints map[int]int, prevRel map[int]RelationSet, points map[int]int, rel map[int]RelationSet) Verdict {
	v := Verdict{}

	if !equalPoints(prevPoints, points) {
		v.Changed = true
		v.Reasons = append(v.Reasons, "relation point values have changed")
	}

	prevIDs := make([]int, 0, len(prevRel))
	for id := range prevRel {
		prevIDs = append(prevIDs, id)
	}
	sort.Ints(prevIDs)

	for _, id := range prevIDs {
		cur, ok := rel[id]
		if !ok {
			v.Changed = true
			v.Reasons = append(v.Reasons, fmt.Sprintf("character %d was removed", id))
			continue
		}
		if !equalSets(prevRel[id], cur) {
			v.Changed = true
			v.Reasons = append(v.Reasons, fmt.Sprintf("relations changed for character %d", id))
		}
	}

	return v
}

func equalPoints(a, b map[int]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		if bv, ok := b[k]; !ok || bv != av {
			return false
		}
	}
	return true
}

func equalSets(a, b RelationSet) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
