package affinity

import (
	"reflect"
	"testing"
)

func TestPlanRecompute(t *testing.T) {
	tests := []struct {
		name         string
		prevMax      int
		havePrev     bool
		haveBaseline bool
		verdict      Verdict
		maxID        int
		want         Decision
	}{
		{
			name:  "first run",
			maxID: 1050,
			want:  Decision{Mode: ModeFullInit},
		},
		{
			name:     "trailer without baseline",
			prevMax:  1040,
			havePrev: true,
			maxID:    1050,
			want:     Decision{Mode: ModeFullInit, PrevMax: 1040},
		},
		{
			name:         "up to date",
			prevMax:      1050,
			havePrev:     true,
			haveBaseline: true,
			maxID:        1050,
			want:         Decision{Mode: ModeNoop, PrevMax: 1050},
		},
		{
			name:         "trailer ahead of current data",
			prevMax:      1052,
			havePrev:     true,
			haveBaseline: true,
			maxID:        1050,
			want:         Decision{Mode: ModeNoop, PrevMax: 1052},
		},
		{
			name:         "new characters",
			prevMax:      1048,
			havePrev:     true,
			haveBaseline: true,
			maxID:        1050,
			want: Decision{
				Mode:        ModeIncremental,
				PrevMax:     1048,
				NewCharaIDs: []int{1049, 1050},
			},
		},
		{
			name:         "data changed without growth",
			prevMax:      1050,
			havePrev:     true,
			haveBaseline: true,
			verdict:      Verdict{Changed: true},
			maxID:        1050,
			want: Decision{
				Mode:        ModeIncremental,
				PrevMax:     1050,
				NewCharaIDs: []int{},
				ReindexAll:  true,
			},
		},
		{
			name:         "data changed with growth",
			prevMax:      1049,
			havePrev:     true,
			haveBaseline: true,
			verdict:      Verdict{Changed: true},
			maxID:        1050,
			want: Decision{
				Mode:        ModeIncremental,
				PrevMax:     1049,
				NewCharaIDs: []int{1050},
				ReindexAll:  true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlanRecompute(tt.prevMax, tt.havePrev, tt.haveBaseline, tt.verdict, tt.maxID)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("unexpected decision: got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestModeString(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{ModeFullInit, "full initialization"},
		{ModeNoop, "no-op"},
		{ModeIncremental, "incremental"},
		{Mode(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Fatalf("unexpected mode string: got %q, want %q", got, tt.want)
		}
	}
}
