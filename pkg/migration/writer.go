// Package migration generates the affinity SQL script applied to the
// production database, and reads back the bookkeeping trailer that links
// one run to the next.
package migration

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/umadb/affinity/pkg/affinity"
)

// Params describes the script being generated.
type Params struct {
	Decision     affinity.Decision
	MaxCharaID   int
	Charas       []int // present character ids, ascending
	Combinations int
	Source       string
	GeneratedAt  time.Time
}

// Writer emits the migration script incrementally: header, one UPDATE
// per combination in the order they are streamed in, then the index
// maintenance block and the trailer. The update section is wrapped in a
// single transaction; the indexes are created CONCURRENTLY outside it.
type Writer struct {
	bw    *bufio.Writer
	p     Params
	count int
}

func NewWriter(w io.Writer, p Params) *Writer {
	return &Writer{bw: bufio.NewWriterSize(w, 1<<20), p: p}
}

func (w *Writer) arrayLength() int {
	return w.p.MaxCharaID - affinity.BaseCharaID + 1
}

// WriteHeader writes the script preamble and opens the transaction.
func (w *Writer) WriteHeader() error {
	p := w.p
	fmt.Fprintf(w.bw, "-- Migration: Update Affinity Data\n")
	fmt.Fprintf(w.bw, "-- Generated: %s\n", p.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w.bw, "-- Source: %s\n", p.Source)
	fmt.Fprintf(w.bw, "--\n")

	if p.Decision.Mode == affinity.ModeIncremental {
		fmt.Fprintf(w.bw, "-- Type: INCREMENTAL\n")
		fmt.Fprintf(w.bw, "-- Previous array length: %d (chara %d-%d)\n",
			p.Decision.PrevMax-affinity.BaseCharaID+1, affinity.BaseCharaID, p.Decision.PrevMax)
		fmt.Fprintf(w.bw, "-- New array length: %d (chara %d-%d)\n",
			w.arrayLength(), affinity.BaseCharaID, p.MaxCharaID)
		fmt.Fprintf(w.bw, "-- Adding positions for: %d to %d\n", p.Decision.PrevMax+1, p.MaxCharaID)
	} else {
		fmt.Fprintf(w.bw, "-- Type: FULL INITIALIZATION\n")
		fmt.Fprintf(w.bw, "-- Array length: %d (chara %d-%d)\n",
			w.arrayLength(), affinity.BaseCharaID, p.MaxCharaID)
		fmt.Fprintf(w.bw, "-- Array mapping: chara_id 1001 = array[1], 1040 = array[40], 1061 = array[61], etc.\n")
		fmt.Fprintf(w.bw, "-- Missing characters are filled with 0\n")
	}

	fmt.Fprintf(w.bw, "\nBEGIN;\n\n")
	_, err := fmt.Fprintf(w.bw, "-- Update all %d inheritance combinations\n\n", p.Combinations)
	return err
}

// WriteEntry appends the UPDATE statement for one combination. A blank
// line is inserted every 100 statements to keep the script diffable.
func (w *Writer) WriteEntry(k affinity.TripleKey, e affinity.Entry) error {
	var sb strings.Builder
	sb.Grow(len(e.Scores)*4 + 160)
	sb.WriteString("UPDATE inheritance SET affinity_scores = ARRAY[")
	for i, s := range e.Scores {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(s))
	}
	sb.WriteString("]::int[], base_affinity = ")
	sb.WriteString(strconv.Itoa(e.BaseAffinity))
	sb.WriteString(" WHERE main_chara_id = ")
	sb.WriteString(strconv.Itoa(k.Main))
	sb.WriteString(" AND left_chara_id = ")
	sb.WriteString(strconv.Itoa(k.Left))
	sb.WriteString(" AND right_chara_id = ")
	sb.WriteString(strconv.Itoa(k.Right))
	sb.WriteString(";\n")

	if _, err := w.bw.WriteString(sb.String()); err != nil {
		return err
	}

	w.count++
	if w.count%100 == 0 {
		if _, err := w.bw.WriteString("\n"); err != nil {
			return err
		}
	}
	return nil
}

// Finish closes the transaction, writes the index maintenance block and
// the trailer, and flushes.
func (w *Writer) Finish() error {
	p := w.p

	fmt.Fprintf(w.bw, "COMMIT;\n\n")
	fmt.Fprintf(w.bw, "-- Expression indexes for affinity sorting\n")
	fmt.Fprintf(w.bw, "-- Note: DROP old indexes first, then CREATE new ones\n\n")

	for _, id := range w.indexCharas() {
		pos := id - affinity.BaseCharaID + 1 // PostgreSQL arrays are 1-based
		fmt.Fprintf(w.bw, "DROP INDEX IF EXISTS idx_inheritance_total_affinity_%d;\n", id)
		fmt.Fprintf(w.bw, "CREATE INDEX CONCURRENTLY idx_inheritance_total_affinity_%d \n", id)
		fmt.Fprintf(w.bw, "    ON inheritance ((COALESCE(affinity_scores[%d], 0)) DESC);\n\n", pos)
	}

	if p.Decision.Mode != affinity.ModeIncremental {
		fmt.Fprintf(w.bw, "-- Default affinity index (base_affinity)\n")
		fmt.Fprintf(w.bw, "DROP INDEX IF EXISTS idx_inheritance_default_affinity;\n")
		fmt.Fprintf(w.bw, "CREATE INDEX CONCURRENTLY idx_inheritance_default_affinity \n")
		fmt.Fprintf(w.bw, "    ON inheritance ((COALESCE(base_affinity, 0)) DESC);\n\n")
	}

	fmt.Fprintf(w.bw, "-- Verify:\n")
	fmt.Fprintf(w.bw, "-- SELECT array_length(affinity_scores, 1) FROM inheritance LIMIT 1;  -- Should be %d\n", w.arrayLength())
	fmt.Fprintf(w.bw, "-- Last character: %d\n", p.MaxCharaID)

	return w.bw.Flush()
}

// indexCharas returns the character ids whose expression index must be
// (re)created by this script. Incremental runs touch only the newly
// eligible positions unless the relation data changed, in which case
// every present character is re-indexed.
func (w *Writer) indexCharas() []int {
	d := w.p.Decision
	if d.Mode != affinity.ModeIncremental || d.ReindexAll {
		return w.p.Charas
	}

	present := make(map[int]struct{}, len(w.p.Charas))
	for _, id := range w.p.Charas {
		present[id] = struct{}{}
	}

	ids := make([]int, 0, len(d.NewCharaIDs))
	for _, id := range d.NewCharaIDs {
		if _, ok := present[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
