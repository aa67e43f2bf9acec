// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package damage

import (
	"math/rand"
	"sync"
	"testing"
)

func TestTracker_Expand(t *testing.T) {
	tests := []struct {
		name      string
		rects     []Rect
		want      Rect
		wantValid bool
	}{
		{
			name:      "single",
			rects:     []Rect{{10, 20, 50, 40}},
			want:      Rect{10, 20, 50, 40},
			wantValid: true,
		},
		{
			name:      "union of two",
			rects:     []Rect{{10, 10, 5, 5}, {30, 40, 10, 2}},
			want:      Rect{10, 10, 30, 32},
			wantValid: true,
		},
		{
			name:      "clipped to frame",
			rects:     []Rect{{-5, -5, 10, 10}, {120, 150, 50, 50}},
			want:      Rect{0, 0, 128, 160},
			wantValid: true,
		},
		{
			name:      "zero size ignored",
			rects:     []Rect{{5, 5, 0, 10}, {5, 5, 10, 0}},
			wantValid: false,
		},
		{
			name:      "fully outside ignored",
			rects:     []Rect{{200, 5, 10, 10}, {5, -20, 10, 10}},
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker(128, 160)
			for _, r := range tt.rects {
				tr.Expand(r.X, r.Y, r.W, r.H)
			}
			got, valid := tr.Region()
			if valid != tt.wantValid {
				t.Fatalf("valid = %v, want %v", valid, tt.wantValid)
			}
			if valid && got != tt.want {
				t.Errorf("Region() = %v, want %v", got, tt.want)
			}
		})
	}
}

// After N expansions the region equals the clipped union bounding box.
func TestTracker_ExpandEqualsBoundingBox(t *testing.T) {
	const w, h = 128, 160
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 200; iter++ {
		tr := NewTracker(w, h)
		var want Rect
		valid := false

		n := 1 + rng.Intn(20)
		for i := 0; i < n; i++ {
			r := Rect{
				X: rng.Intn(2*w) - w/2,
				Y: rng.Intn(2*h) - h/2,
				W: rng.Intn(w),
				H: rng.Intn(h),
			}
			tr.Expand(r.X, r.Y, r.W, r.H)

			c := r.Clip(w, h)
			if c.Empty() {
				continue
			}
			if valid {
				want = want.Union(c)
			} else {
				want, valid = c, true
			}
		}

		got, gotValid := tr.Region()
		if gotValid != valid || (valid && got != want) {
			t.Fatalf("iteration %d: Region() = %v,%v want %v,%v", iter, got, gotValid, want, valid)
		}
	}
}

func TestTracker_Disabled(t *testing.T) {
	tr := NewTracker(64, 64)
	tr.SetEnabled(false)
	tr.Expand(0, 0, 10, 10)

	if _, valid := tr.Region(); valid {
		t.Error("Expand recorded a region while disabled")
	}
	if tr.Snapshot().Enabled {
		t.Error("Snapshot().Enabled = true after SetEnabled(false)")
	}

	tr.SetEnabled(true)
	tr.Expand(0, 0, 10, 10)
	if _, valid := tr.Region(); !valid {
		t.Error("Expand ignored after re-enabling")
	}
}

func TestTracker_EnableResetsRegion(t *testing.T) {
	tr := NewTracker(64, 64)
	tr.Expand(1, 1, 1, 1)
	tr.SetEnabled(true)
	if _, valid := tr.Region(); valid {
		t.Error("SetEnabled(true) should reset the region")
	}
}

func TestTracker_ForceFullAndClear(t *testing.T) {
	tr := NewTracker(64, 64)
	tr.Expand(1, 1, 4, 4)
	tr.ForceFull()

	s := tr.Snapshot()
	if s.Valid || !s.Full {
		t.Fatalf("after ForceFull: Valid=%v Full=%v, want false true", s.Valid, s.Full)
	}

	// An explicit clear keeps the pending override.
	tr.Clear()
	if s := tr.Snapshot(); !s.Full {
		t.Error("Clear dropped the full-frame override")
	}

	if !tr.Settle(tr.Snapshot().Gen) {
		t.Fatal("Settle with current generation did not clear")
	}
	if s := tr.Snapshot(); s.Full || s.Valid {
		t.Errorf("after Settle: Valid=%v Full=%v, want both false", s.Valid, s.Full)
	}
}

func TestTracker_SettleKeepsNewerChanges(t *testing.T) {
	tr := NewTracker(64, 64)
	tr.Expand(0, 0, 8, 8)
	snap := tr.Snapshot()

	// Render-ahead draw made while the snapshot is being transferred.
	tr.Expand(40, 40, 8, 8)

	if tr.Settle(snap.Gen) {
		t.Fatal("Settle cleared a region that changed after the snapshot")
	}
	got, valid := tr.Region()
	if !valid || got != (Rect{0, 0, 48, 48}) {
		t.Errorf("Region() = %v,%v want (0,0) 48x48", got, valid)
	}
}

func TestTracker_Concurrent(t *testing.T) {
	tr := NewTracker(100, 100)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				tr.Expand(g*10, i%90, 5, 5)
				tr.Settle(tr.Snapshot().Gen - 1)
			}
		}(g)
	}
	wg.Wait()

	got, valid := tr.Region()
	if !valid || got.X != 0 || got.Y != 0 || got.X+got.W != 35 || got.Y+got.H != 94 {
		t.Errorf("Region() = %v, want (0,0) 35x94", got)
	}
}

func TestRect_Clip(t *testing.T) {
	tests := []struct {
		name string
		r    Rect
		want Rect
	}{
		{"inside", Rect{1, 2, 3, 4}, Rect{1, 2, 3, 4}},
		{"left overhang", Rect{-2, 0, 4, 4}, Rect{0, 0, 2, 4}},
		{"bottom overhang", Rect{0, 8, 4, 4}, Rect{0, 8, 4, 2}},
		{"outside", Rect{20, 20, 4, 4}, Rect{}},
		{"negative size", Rect{2, 2, -1, 4}, Rect{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Clip(10, 10); got != tt.want {
				t.Errorf("Clip = %v, want %v", got, tt.want)
			}
		})
	}
}
