// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermotrack

import "math"

// TrackStartObserver is invoked synchronously, once, the frame a track
// is promoted. The snapshot is by value; handlers must not call back
// into Tracker.Ingest.
type TrackStartObserver func(TrackedBlob)

// TrackEndObserver is invoked synchronously when a track dies, after
// its net travel has been classified. The snapshot is by value.
type TrackEndObserver func(TrackedBlob)

// classify determines the terminal Direction(s) of a dying track and
// folds them into counters. Both a horizontal and a vertical direction
// may fire for a diagonal crossing; if neither does, NoDirection fires
// exactly once.
func classify(t *TrackedBlob, cfg *Config, counters *[numDirections]int64) {
	fired := false
	if math.Abs(t.TravelX) > cfg.MinimumTravelThreshold {
		if t.TravelX < 0 {
			counters[Left]++
		} else {
			counters[Right]++
		}
		fired = true
	}
	if math.Abs(t.TravelY) > cfg.MinimumTravelThreshold {
		if t.TravelY > 0 {
			counters[Up]++
		} else {
			counters[Down]++
		}
		fired = true
	}
	if !fired {
		counters[NoDirection]++
	}
}
