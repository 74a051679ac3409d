// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermotrack

// Grid dimensions of the thermopile sensor. Fixed at compile time: the
// whole pipeline is sized off these two constants so it never allocates
// during steady-state operation.
const (
	Height = 4  // rows
	Width  = 16 // columns
)

// MaxBlobs is the maximum number of blobs the extractor will produce per
// frame, and also the maximum number of concurrently tracked blobs.
const MaxBlobs = 8

// Config holds the tunable parameters of a Tracker. All tracks held by a
// single Tracker score against the same Config; it is never mutated by
// the tracker itself after construction, so it is safe to share a
// pointer to it (e.g. for introspection) without locking.
type Config struct {
	// RunningAverageSize is the number of frames in the background
	// estimator's window: the length of the initial Welford build-up
	// phase, and the weight denominator (1/R) of the steady-state
	// exponential moving average. Default: 800.
	RunningAverageSize int

	// MinBlobSize is the minimum pixel count P a blob must have to
	// survive pruning. Default: 3.
	MinBlobSize int

	// MinimumTravelThreshold is the net pixel travel (per axis)
	// required for a terminated track to register a directional event
	// rather than NoDirection. Default: 4.
	MinimumTravelThreshold float64

	// MaxDifferenceThreshold is the upper bound on an acceptable
	// track/blob difference score; scores at or above it are treated
	// as "no match". Default: 400.
	MaxDifferenceThreshold float64

	// MinimumTemperatureDifferential is Δmin, the absolute floor (in
	// °C) a pixel must deviate from the background mean by, regardless
	// of σ, to be considered active. Default: 0.5.
	MinimumTemperatureDifferential float64

	// ActivePixelVarianceScalar is K, the multiple of σ a pixel must
	// deviate from the background mean by to be considered active.
	// Default: 4.
	ActivePixelVarianceScalar float64

	// MaxDeadFrames is the number of consecutive unmatched frames a
	// track tolerates before it is finalised. Zero is legal: tracks
	// die on the first miss. Default: 4.
	MaxDeadFrames int

	// AdjacencyFuzz loosens 8-connected adjacency: two pixels are
	// adjacent iff max(|Δrow|, |Δcol|) <= 1+AdjacencyFuzz. Default: 1.
	AdjacencyFuzz int

	// UnchangedFrameDelay is the number of consecutive frames with
	// active blobs after which the background update is forced
	// through anyway, so a long-static warm object doesn't lock the
	// background out forever. Default: 50.
	UnchangedFrameDelay int

	// Scoring weights. See TrackedBlob.difference.
	PositionPenalty    float64 // Default: 2.
	AreaPenalty        float64 // Default: 5.
	AspectRatioPenalty float64 // Default: 10.
	TemperaturePenalty float64 // Default: 10.
	DirectionPenalty   float64 // Default: 50.

	// DeadFramePenalty is recorded per track but, per the scoring
	// contract, does not enter the match score total. It is derived
	// from MaxDifferenceThreshold/MaxDeadFrames unless overridden.
	// Zero means "derive it".
	DeadFramePenalty float64
}

// DefaultConfig returns a Config populated with the tracker's factory
// defaults.
func DefaultConfig() Config {
	c := Config{
		RunningAverageSize:             800,
		MinBlobSize:                    3,
		MinimumTravelThreshold:         4,
		MaxDifferenceThreshold:         400,
		MinimumTemperatureDifferential: 0.5,
		ActivePixelVarianceScalar:      4,
		MaxDeadFrames:                  4,
		AdjacencyFuzz:                  1,
		UnchangedFrameDelay:            50,
		PositionPenalty:                2,
		AreaPenalty:                    5,
		AspectRatioPenalty:             10,
		TemperaturePenalty:             10,
		DirectionPenalty:               50,
	}
	c.deadFramePenalty()
	return c
}

// deadFramePenalty fills in DeadFramePenalty when left at zero. Called
// by DefaultConfig and by Tracker construction so a caller building a
// Config by hand doesn't need to know the derivation.
func (c *Config) deadFramePenalty() {
	if c.DeadFramePenalty == 0 && c.MaxDeadFrames != 0 {
		c.DeadFramePenalty = c.MaxDifferenceThreshold / float64(c.MaxDeadFrames)
	}
}
