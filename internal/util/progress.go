package util

import "fmt"

// Progress tracks how far a long-running batch has come, for periodic
// log lines. Total may be 0 when the size is unknown; the percentage is
// omitted in that case.
type Progress struct {
	Total int
	done  int
}

// Add records n completed items and returns the new completion count.
func (p *Progress) Add(n int) int {
	p.done += n
	return p.done
}

// Done returns the completed item count.
func (p *Progress) Done() int {
	return p.done
}

// String formats the progress as "done/total (pct%)", or just the count
// when no total is known.
func (p *Progress) String() string {
	if p.Total <= 0 {
		return fmt.Sprintf("%d", p.done)
	}
	return fmt.Sprintf("%d/%d (%d%%)", p.done, p.Total, p.done*100/p.Total)
}
