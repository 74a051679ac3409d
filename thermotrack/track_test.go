// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermotrack

import "testing"

func newTestBlob(row, col float64, size int) *Blob {
	var b Blob
	r := int(row)
	c := int(col)
	b.addPixel(pixel{row: r, col: c, temperature: 30})
	for i := 1; i < size; i++ {
		b.addPixel(pixel{row: r, col: c + i, temperature: 30})
	}
	return &b
}

func TestNewTrackedBlob_initialState(t *testing.T) {
	cfg := DefaultConfig()
	b := newTestBlob(1, 8, 2)
	tb := newTrackedBlob(42, &cfg, b, 1000)

	if tb.ID != 42 {
		t.Fatalf("ID = %d, want 42", tb.ID)
	}
	if tb.PredictedRow != -1 || tb.PredictedCol != -1 {
		t.Fatalf("PredictedRow/Col = %v/%v, want -1/-1 before any update", tb.PredictedRow, tb.PredictedCol)
	}
	if tb.TimesUpdated != 0 {
		t.Fatalf("TimesUpdated = %d, want 0", tb.TimesUpdated)
	}
	if !tb.HasUpdated {
		t.Fatal("expected HasUpdated true on creation frame")
	}
	if tb.StartTimeMS != 1000 {
		t.Fatalf("StartTimeMS = %d, want 1000", tb.StartTimeMS)
	}
}

func TestTrackedBlob_touchesSide(t *testing.T) {
	cfg := DefaultConfig()
	b := newTestBlob(1, 0, 2) // touches the left edge
	tb := newTrackedBlob(1, &cfg, b, 0)
	if !tb.touchesSide() {
		t.Fatal("expected touchesSide true for a blob at the left edge")
	}
}

func TestTrackedBlob_updateBlob_accumulatesTravel(t *testing.T) {
	cfg := DefaultConfig()
	b1 := newTestBlob(1, 5, 1)
	tb := newTrackedBlob(1, &cfg, b1, 0)

	b2 := newTestBlob(1, 7, 1)
	tb.updateBlob(b2, 100)

	if tb.TravelX != 2 {
		t.Fatalf("TravelX = %v, want 2", tb.TravelX)
	}
	if tb.TimesUpdated != 1 {
		t.Fatalf("TimesUpdated = %d, want 1", tb.TimesUpdated)
	}
	if tb.NumDeadFrames != 0 {
		t.Fatalf("NumDeadFrames = %d, want 0 after a match", tb.NumDeadFrames)
	}
	if tb.EventDurationMS != 100 {
		t.Fatalf("EventDurationMS = %d, want 100", tb.EventDurationMS)
	}
	if tb.PredictedCol <= tb.CentroidCol {
		t.Fatalf("PredictedCol = %v, want greater than CentroidCol %v after rightward motion", tb.PredictedCol, tb.CentroidCol)
	}
}

func TestTrackedBlob_alive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDeadFrames = 2
	b := newTestBlob(0, 0, 1)
	tb := newTrackedBlob(1, &cfg, b, 0)

	tb.HasUpdated = false
	tb.NumDeadFrames = 1
	if !tb.alive() {
		t.Fatal("expected alive within MaxDeadFrames")
	}
	tb.NumDeadFrames = 2
	if tb.alive() {
		t.Fatal("expected dead once NumDeadFrames reaches MaxDeadFrames")
	}
	tb.HasUpdated = true
	if !tb.alive() {
		t.Fatal("expected alive when matched this frame regardless of NumDeadFrames")
	}
}

func TestTrackedBlob_difference_identicalBlobIsZero(t *testing.T) {
	cfg := DefaultConfig()
	b := newTestBlob(1, 8, 2)
	tb := newTrackedBlob(1, &cfg, b, 0)

	diff := tb.difference(b)
	if diff.total() != 0 {
		t.Fatalf("difference against an identical blob = %+v, want a zero total", diff)
	}
}

func TestSign(t *testing.T) {
	cases := []struct {
		x    float64
		want int
	}{{1, 1}, {-1, -1}, {0, 0}, {0.0001, 1}, {-0.0001, -1}}
	for _, tc := range cases {
		if got := sign(tc.x); got != tc.want {
			t.Errorf("sign(%v) = %d, want %d", tc.x, got, tc.want)
		}
	}
}
