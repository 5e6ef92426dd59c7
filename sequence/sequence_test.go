package sequence

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"sly/models"
)

func stills(durations ...float64) []*models.Clip {
	clips := make([]*models.Clip, len(durations))
	for i, d := range durations {
		clips[i] = &models.Clip{
			Index:      i,
			SourcePath: fmt.Sprintf("/tmp/frame_%03d.png", i),
			Kind:       models.KindImage,
			Duration:   d,
		}
	}
	return clips
}

func titleClip(d float64) *models.Clip {
	return &models.Clip{SourcePath: "/tmp/title.png", Kind: models.KindTitle, Duration: d}
}

func TestClampTransition(t *testing.T) {
	tests := []struct {
		name          string
		td, prev, cur float64
		want          float64
	}{
		{"unclamped", 1, 3, 3, 1},
		{"short current", 1, 3, 1, 0.5},
		{"short previous", 1, 0.8, 3, 0.4},
		{"both short", 2, 1, 1.5, 0.5},
		{"zero transition", 0, 3, 3, 0},
		{"negative transition", -1, 3, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampTransition(tt.td, tt.prev, tt.cur); got != tt.want {
				t.Errorf("ClampTransition(%v, %v, %v) = %v, want %v", tt.td, tt.prev, tt.cur, got, tt.want)
			}
		})
	}
}

func TestTimeline_FiveImages(t *testing.T) {
	plan, err := BuildPlan(nil, stills(3, 3, 3, 3, 3), 1)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}

	tl := plan.Timeline()
	if tl.Total != 11 {
		t.Errorf("Expected total 11s (15 - 4x1), got %.3f", tl.Total)
	}

	wantStarts := []float64{0, 2, 4, 6, 8}
	for i, iv := range tl.Intervals {
		if iv.Start != wantStarts[i] {
			t.Errorf("interval %d: expected start %.1f, got %.3f", i, wantStarts[i], iv.Start)
		}
		if iv.Duration() != 3 {
			t.Errorf("interval %d: expected length 3, got %.3f", i, iv.Duration())
		}
	}

	if err := tl.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestTimeline_TotalIsSumMinusOverlaps(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for run := 0; run < 200; run++ {
		n := 1 + rng.IntN(12)
		durations := make([]float64, n)
		for i := range durations {
			durations[i] = 0.1 + rng.Float64()*6
		}
		td := rng.Float64() * 4

		plan, err := BuildPlan(nil, stills(durations...), td)
		if err != nil {
			t.Fatalf("BuildPlan: %v", err)
		}
		tl := plan.Timeline()

		want := tl.SumDurations() - tl.SumOverlaps()
		if math.Abs(tl.Total-want) > 1e-9 {
			t.Fatalf("run %d: total %.6f != sum %.6f - overlaps %.6f", run, tl.Total, tl.SumDurations(), tl.SumOverlaps())
		}

		entries := plan.Entries()
		for i := 1; i < len(entries); i++ {
			tr := entries[i].TransitionIn
			if tr > entries[i].Duration/2 || tr > entries[i-1].Duration/2 {
				t.Fatalf("run %d: transition %.4f exceeds half of a neighbour (%.4f, %.4f)",
					run, tr, entries[i-1].Duration, entries[i].Duration)
			}
			if tr > td {
				t.Fatalf("run %d: transition %.4f exceeds configured %.4f", run, tr, td)
			}
		}

		if err := tl.Validate(); err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
	}
}

func TestBuildPlan_Title(t *testing.T) {
	plan, err := BuildPlan(titleClip(3), stills(3, 3), 1)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}

	if plan.Len() != 3 || !plan.HasTitle() {
		t.Fatalf("Expected title plus two clips, got %d entries", plan.Len())
	}

	entries := plan.Entries()
	if entries[0].TransitionIn != 0 {
		t.Errorf("Title must not overlap on its leading edge, got %.2f", entries[0].TransitionIn)
	}
	if entries[1].TransitionIn != 1 {
		t.Errorf("Clip after the title should cross over for 1s, got %.2f", entries[1].TransitionIn)
	}

	tl := plan.Timeline()
	if tl.Total != 7 {
		t.Errorf("Expected total 7s, got %.2f", tl.Total)
	}
}

func TestBuildPlan_ZeroTransitionIsHardCut(t *testing.T) {
	plan, err := BuildPlan(nil, stills(2, 2, 2), 0)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	if tl := plan.Timeline(); tl.Total != 6 || tl.SumOverlaps() != 0 {
		t.Errorf("Expected 6s with no overlap, got %.2f / %.2f", tl.Total, tl.SumOverlaps())
	}
}

func TestBuildPlan_Errors(t *testing.T) {
	if _, err := BuildPlan(nil, nil, 1); err == nil {
		t.Error("Expected error for empty plan")
	}

	var cfgErr *models.ConfigError
	if _, err := BuildPlan(nil, stills(3), -1); !errors.As(err, &cfgErr) {
		t.Errorf("Expected *models.ConfigError for negative transition, got %v", err)
	}

	if _, err := BuildPlan(nil, stills(3, 0), 1); err == nil {
		t.Error("Expected error for zero-length clip")
	}

	if _, err := BuildPlan(nil, []*models.Clip{nil}, 1); err == nil {
		t.Error("Expected error for nil clip")
	}

	for _, td := range []float64{math.NaN(), math.Inf(1)} {
		if _, err := BuildPlan(nil, stills(3, 3), td); !errors.As(err, &cfgErr) {
			t.Errorf("Expected *models.ConfigError for transition %v, got %v", td, err)
		}
	}

	for _, d := range []float64{math.NaN(), math.Inf(1)} {
		if _, err := BuildPlan(titleClip(d), stills(3), 1); err == nil {
			t.Errorf("Expected error for title duration %v", d)
		}
	}
}

func TestTimeline_ValidateRejectsNonFinite(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
	}{
		{"NaN length", []Entry{{Duration: math.NaN()}, {Duration: 3, TransitionIn: 1}}},
		{"infinite length", []Entry{{Duration: 3}, {Duration: math.Inf(1), TransitionIn: 1}}},
		{"NaN overlap", []Entry{{Duration: 3}, {Duration: 3, TransitionIn: math.NaN()}}},
		{"negative overlap", []Entry{{Duration: 3}, {Duration: 3, TransitionIn: -1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := NewTimeline(tt.entries).Validate(); err == nil {
				t.Errorf("Expected Validate to reject %s", tt.name)
			}
		})
	}
}

func TestPlan_EntriesIsACopy(t *testing.T) {
	plan, err := BuildPlan(nil, stills(3, 3), 1)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}

	entries := plan.Entries()
	entries[1].TransitionIn = 99

	if plan.Entries()[1].TransitionIn != 1 {
		t.Error("Plan must not be mutable through Entries()")
	}
	if len(plan.Clips()) != 2 {
		t.Errorf("Expected 2 clips, got %d", len(plan.Clips()))
	}
}

func TestTimeline_ValidateRejectsBadOverlap(t *testing.T) {
	tl := NewTimeline([]Entry{
		{Duration: 2},
		{Duration: 2, TransitionIn: 1.5},
	})
	if err := tl.Validate(); err == nil {
		t.Error("Expected Validate to reject an overlap longer than half a clip")
	}
}
