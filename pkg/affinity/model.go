package affinity

import (
	"errors"
	"fmt"
	"sort"
)

// BaseCharaID is the lowest character id tracked by the master data.
// Position 0 of every affinity score array corresponds to this id.
const BaseCharaID = 1001

// ErrUnknownChara is returned when a score is requested for a character
// id that has no relation data. The batch builder never triggers this;
// it signals a caller bug or a bad id passed to an on-demand lookup.
var ErrUnknownChara = errors.New("unknown character id")

// IntegrityError reports master data that would silently corrupt scores
// if it were tolerated, such as a relation type without a point value.
type IntegrityError struct {
	Detail string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("master data integrity: %s", e.Detail)
}

// RelationSet holds the relation types a character belongs to.
type RelationSet map[int]struct{}

// Model answers pairwise and triple-wise relation overlap queries for a
// fixed set of characters. It is immutable after construction and safe
// for concurrent use.
type Model struct {
	points map[int]int
	rel    map[int]RelationSet
	charas []int
}

// NewModel validates the relation data and builds a score model.
// Every relation type referenced by a character must have a point value;
// a missing value is an IntegrityError and the run must not continue.
func NewModel(points map[int]int, rel map[int]RelationSet) (*Model, error) {
	for id, set := range rel {
		if set == nil {
			return nil, &IntegrityError{Detail: fmt.Sprintf("character %d has no relation set", id)}
		}
		for rt := range set {
			if _, ok := points[rt]; !ok {
				return nil, &IntegrityError{Detail: fmt.Sprintf("relation type %d (character %d) has no point value", rt, id)}
			}
		}
	}

	charas := make([]int, 0, len(rel))
	for id := range rel {
		charas = append(charas, id)
	}
	sort.Ints(charas)

	return &Model{points: points, rel: rel, charas: charas}, nil
}

// Charas returns the known character ids in ascending order.
// The returned slice is shared and must not be modified.
func (m *Model) Charas() []int {
	return m.charas
}

// MaxCharaID returns the highest known character id, or 0 when the
// model is empty.
func (m *Model) MaxCharaID() int {
	if len(m.charas) == 0 {
		return 0
	}
	return m.charas[len(m.charas)-1]
}

// Knows reports whether the model has relation data for the id.
func (m *Model) Knows(id int) bool {
	_, ok := m.rel[id]
	return ok
}

// Pair returns the two-way affinity between a and b: the sum of points
// over the relation types they share. It is 0 when a == b or when the
// sets do not overlap, and symmetric in its arguments.
func (m *Model) Pair(a, b int) (int, error) {
	relA, ok := m.rel[a]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownChara, a)
	}
	relB, ok := m.rel[b]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownChara, b)
	}
	if a == b {
		return 0, nil
	}

	score := 0
	for rt := range relA {
		if _, shared := relB[rt]; shared {
			score += m.points[rt]
		}
	}
	return score, nil
}

// Triple returns the three-way affinity between a, b and c: the sum of
// points over the relation types common to all three. It is 0 when
// a == b, and short-circuits to 0 when a and b share no relation type
// before c is consulted at all. The a == c exclusion is applied after
// the intersection is formed, not before; the two exclusion rules are
// deliberately evaluated at different points and must stay that way.
func (m *Model) Triple(a, b, c int) (int, error) {
	relA, ok := m.rel[a]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownChara, a)
	}
	relB, ok := m.rel[b]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownChara, b)
	}
	relC, ok := m.rel[c]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownChara, c)
	}
	if a == b {
		return 0, nil
	}

	shared := false
	score := 0
	for rt := range relA {
		if _, inB := relB[rt]; !inB {
			continue
		}
		shared = true
		if _, inC := relC[rt]; inC {
			score += m.points[rt]
		}
	}
	if !shared {
		return 0, nil
	}
	if a == c {
		return 0, nil
	}
	return score, nil
}
