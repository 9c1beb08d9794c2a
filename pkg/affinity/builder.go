package affinity

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// TripleKey identifies one inheritance combination: the character being
// trained and its two parents. All three ids are pairwise distinct.
type TripleKey struct {
	Main  int
	Left  int
	Right int
}

// Entry holds the precomputed affinity data for one combination.
// Scores has one slot per character id from BaseCharaID up to the run's
// maximum id; ids without relation data, and the main id itself, are 0.
type Entry struct {
	BaseAffinity int
	Scores       []int
}

// Table maps every valid combination to its entry. Iteration order is
// unspecified; consumers needing a stable order must sort the keys.
type Table map[TripleKey]Entry

// Builder expands the pairwise and triple-wise caches into the full
// combination table. It is read-only after construction and safe to
// share across goroutines.
type Builder struct {
	pairs   PairCache
	triples TripleCache
	model   *Model
	maxID   int
}

// NewBuilder precomputes both score caches from the model. Cache
// construction happens once here so the triple enumeration below is
// pure map lookups.
func NewBuilder(m *Model) *Builder {
	return &Builder{
		pairs:   BuildPairCache(m),
		triples: BuildTripleCache(m),
		model:   m,
		maxID:   m.MaxCharaID(),
	}
}

// Combinations returns the number of entries a full build will produce.
func (b *Builder) Combinations() int {
	n := len(b.model.Charas())
	if n < 3 {
		return 0
	}
	return n * (n - 1) * (n - 2)
}

// ArrayLength returns the dense score vector length for this run.
func (b *Builder) ArrayLength() int {
	if b.maxID < BaseCharaID {
		return 0
	}
	return b.maxID - BaseCharaID + 1
}

type tripleRow struct {
	key   TripleKey
	entry Entry
}

// buildMain produces the entries for every combination with the given
// main character, in ascending (left, right) enumeration order.
func (b *Builder) buildMain(main int) []tripleRow {
	charas := b.model.Charas()
	rows := make([]tripleRow, 0, (len(charas)-1)*(len(charas)-2))

	for _, left := range charas {
		if left == main {
			continue
		}
		for _, right := range charas {
			if right == main || right == left {
				continue
			}

			base := b.pairs.Score(main, left) + b.triples.Score(main, left, right)

			scores := make([]int, 0, b.ArrayLength())
			for cid := BaseCharaID; cid <= b.maxID; cid++ {
				if cid == main || !b.model.Knows(cid) {
					scores = append(scores, 0)
					continue
				}
				scores = append(scores,
					b.pairs.Score(cid, main)+
						b.triples.Score(cid, main, left)+
						b.triples.Score(cid, main, right))
			}

			rows = append(rows, tripleRow{
				key:   TripleKey{Main: main, Left: left, Right: right},
				entry: Entry{BaseAffinity: base, Scores: scores},
			})
		}
	}
	return rows
}

// Stream computes the full table and feeds each entry to emit in
// deterministic enumeration order (ascending main, then left, then
// right). The main dimension is partitioned across workers; each worker
// only reads the shared caches and fills its own slot, so results are
// identical to a serial run. At most workers mains are buffered at a
// time, which bounds memory to O(workers * E^2) entries instead of the
// full O(E^3) table.
func (b *Builder) Stream(ctx context.Context, workers int, emit func(TripleKey, Entry) error) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	charas := b.model.Charas()
	if len(charas) < 3 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	slots := make([]chan []tripleRow, len(charas))
	for i := range slots {
		slots[i] = make(chan []tripleRow, 1)
	}

	// The spawner must finish submitting before eg.Wait runs, so it is
	// tracked separately; eg.Go blocks on the worker limit and an early
	// consumer exit would otherwise race the group's own wait counter.
	var spawner sync.WaitGroup
	spawner.Add(1)
	go func() {
		defer spawner.Done()
		for i, main := range charas {
			i, main := i, main
			if gctx.Err() != nil {
				return
			}
			eg.Go(func() error {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				rows := b.buildMain(main)
				select {
				case slots[i] <- rows:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
	}()

	var emitErr error
consume:
	for i := range charas {
		select {
		case rows := <-slots[i]:
			for _, r := range rows {
				if err := emit(r.key, r.entry); err != nil {
					emitErr = err
					cancel()
					break consume
				}
			}
		case <-gctx.Done():
			break consume
		}
	}

	spawner.Wait()
	if err := eg.Wait(); emitErr == nil && err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if emitErr != nil {
		return emitErr
	}
	return context.Cause(ctx)
}

// Build computes the complete table in memory. Prefer Stream when the
// output is written straight to the migration script; Build exists for
// small data sets and verification.
func (b *Builder) Build(ctx context.Context, workers int) (Table, error) {
	table := make(Table, b.Combinations())
	err := b.Stream(ctx, workers, func(k TripleKey, e Entry) error {
		table[k] = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}
