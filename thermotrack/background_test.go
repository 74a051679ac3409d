// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermotrack

import (
	"math"
	"testing"
)

func flatFrame(x float64) Frame {
	var f Frame
	for r := 0; r < Height; r++ {
		for c := 0; c < Width; c++ {
			f[r][c] = x
		}
	}
	return f
}

func TestBackground_isReady(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RunningAverageSize = 3
	b := newBackground(&cfg)
	if b.isReady() {
		t.Fatal("ready before any frames")
	}
	f := flatFrame(20)
	b.addInitial(&f)
	b.addInitial(&f)
	if b.isReady() {
		t.Fatal("ready before RunningAverageSize frames")
	}
	b.addInitial(&f)
	if !b.isReady() {
		t.Fatal("not ready after RunningAverageSize frames")
	}
}

func TestBackground_addInitial_constantFrameZeroSigma(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RunningAverageSize = 10
	b := newBackground(&cfg)
	f := flatFrame(20)
	for i := 0; i < 10; i++ {
		b.addInitial(&f)
	}
	if b.mean[0][0] != 20 {
		t.Fatalf("mean = %v, want 20", b.mean[0][0])
	}
	if b.sigma[0][0] != 0 {
		t.Fatalf("sigma = %v, want 0 for a constant background", b.sigma[0][0])
	}
}

func TestBackground_reset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RunningAverageSize = 2
	b := newBackground(&cfg)
	f := flatFrame(20)
	b.addInitial(&f)
	b.addInitial(&f)
	if !b.isReady() {
		t.Fatal("expected ready")
	}
	b.reset()
	if b.isReady() {
		t.Fatal("expected not ready after reset")
	}
	if b.mean[0][0] != 0 {
		t.Fatalf("mean = %v, want 0 after reset", b.mean[0][0])
	}
}

func TestBackground_isActive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ActivePixelVarianceScalar = 4
	cfg.MinimumTemperatureDifferential = 0.5
	b := newBackground(&cfg)

	cases := []struct {
		name        string
		x, mean, sd float64
		want        bool
	}{
		{"within sigma gate", 20.2, 20, 1, false},
		{"beyond sigma gate", 25, 20, 1, true},
		{"beyond sigma but below absolute floor", 20.3, 20, 0.01, false},
		{"nan deviation", math.NaN(), 20, 1, false},
		{"inf deviation", math.Inf(1), 20, 1, false},
	}
	for _, tc := range cases {
		if got := b.isActive(tc.x, tc.mean, tc.sd); got != tc.want {
			t.Errorf("%s: isActive(%v, %v, %v) = %v, want %v", tc.name, tc.x, tc.mean, tc.sd, got, tc.want)
		}
	}
}

func TestBackground_addRolling_tracksSlowDrift(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RunningAverageSize = 100
	b := newBackground(&cfg)
	f := flatFrame(20)
	for i := 0; i < 100; i++ {
		b.addInitial(&f)
	}
	warmer := flatFrame(25)
	for i := 0; i < 1000; i++ {
		b.addRolling(&warmer)
	}
	if math.Abs(b.mean[0][0]-25) > 0.5 {
		t.Fatalf("mean = %v, want close to 25 after sustained drift", b.mean[0][0])
	}
}

func TestBackground_averageTemperature(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RunningAverageSize = 1
	b := newBackground(&cfg)
	f := flatFrame(18)
	b.addInitial(&f)
	if got := b.averageTemperature(); got != 18 {
		t.Fatalf("averageTemperature() = %v, want 18", got)
	}
}
