package affinity

// Mode classifies how a run's output should be framed. The combination
// table itself is always recomputed in full; the mode only selects which
// index maintenance statements accompany it and how the run is reported.
type Mode int

const (
	// ModeFullInit is the first run, or a run without a usable
	// baseline: every index is rebuilt, including the default
	// base_affinity index.
	ModeFullInit Mode = iota
	// ModeNoop means the previous script already covers the current
	// data and nothing needs to be written.
	ModeNoop
	// ModeIncremental grows the score arrays: index maintenance is
	// limited to the newly eligible character positions unless
	// ReindexAll is set on the decision.
	ModeIncremental
)

func (m Mode) String() string {
	switch m {
	case ModeFullInit:
		return "full initialization"
	case ModeNoop:
		return "no-op"
	case ModeIncremental:
		return "incremental"
	default:
		return "unknown"
	}
}

// Decision is the recompute planner's output for one run.
type Decision struct {
	Mode    Mode
	PrevMax int
	// NewCharaIDs covers every id in (PrevMax, max], including gaps;
	// the emitter skips ids without relation data.
	NewCharaIDs []int
	// ReindexAll forces the incremental framing to rebuild the
	// per-character indexes for the whole character set, used when the
	// underlying relation data changed.
	ReindexAll bool
}

// PlanRecompute decides the output framing from the previous script's
// trailer, the snapshot baseline, the change detector's verdict and the
// current maximum character id.
//
// A trailer without a readable snapshot means change detection has no
// baseline; the only safe answer is a full initialization.
func PlanRecompute(prevMax int, havePrev bool, haveBaseline bool, verdict Verdict, maxID int) Decision {
	if !havePrev {
		return Decision{Mode: ModeFullInit}
	}
	if !haveBaseline {
		return Decision{Mode: ModeFullInit, PrevMax: prevMax}
	}
	if !verdict.Changed && prevMax >= maxID {
		return Decision{Mode: ModeNoop, PrevMax: prevMax}
	}

	newIDs := make([]int, 0)
	for id := prevMax + 1; id <= maxID; id++ {
		newIDs = append(newIDs, id)
	}
	return Decision{
		Mode:        ModeIncremental,
		PrevMax:     prevMax,
		NewCharaIDs: newIDs,
		ReindexAll:  verdict.Changed,
	}
}
