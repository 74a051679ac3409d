// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermotrack

import "testing"

func TestDefaultConfig_derivesDeadFramePenalty(t *testing.T) {
	c := DefaultConfig()
	want := c.MaxDifferenceThreshold / float64(c.MaxDeadFrames)
	if c.DeadFramePenalty != want {
		t.Fatalf("DeadFramePenalty = %v, want %v", c.DeadFramePenalty, want)
	}
}

func TestConfig_deadFramePenalty_explicitNotOverridden(t *testing.T) {
	c := DefaultConfig()
	c.DeadFramePenalty = 12
	c.deadFramePenalty()
	if c.DeadFramePenalty != 12 {
		t.Fatalf("DeadFramePenalty = %v, want 12 (explicit value preserved)", c.DeadFramePenalty)
	}
}

func TestConfig_deadFramePenalty_zeroMaxDeadFrames(t *testing.T) {
	c := DefaultConfig()
	c.MaxDeadFrames = 0
	c.DeadFramePenalty = 0
	c.deadFramePenalty()
	if c.DeadFramePenalty != 0 {
		t.Fatalf("DeadFramePenalty = %v, want 0 (division by zero avoided)", c.DeadFramePenalty)
	}
}
