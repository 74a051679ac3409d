// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermotrack

import "math"

// Tracker is the top-level, single-threaded pipeline: frame intake,
// background maintenance, blob extraction and multi-target tracking.
// Every call to Ingest processes exactly one frame to completion before
// returning; there is no internal concurrency and thus no locking.
//
// A Tracker must be constructed with New or NewWithClock; its zero
// value is not usable (the background model and per-track scoring both
// need a stable pointer to the Tracker's Config).
type Tracker struct {
	cfg   Config
	clock Clock
	bg    *background

	frame    Frame
	blobs    [MaxBlobs]Blob
	numBlobs int

	tracks   [MaxBlobs]TrackedBlob
	occupied [MaxBlobs]bool
	nextID   uint64

	movementCounters [numDirections]int64
	movementChanged  bool

	numUnchangedFrames int

	onTrackStart TrackStartObserver
	onTrackEnd   TrackEndObserver
}

// New returns a Tracker using cfg and the real monotonic clock, in the
// background-building state.
func New(cfg Config) *Tracker {
	return NewWithClock(cfg, NewRealClock())
}

// NewWithClock returns a Tracker using cfg and clock. Tests and demos
// that need deterministic timestamps supply their own Clock.
func NewWithClock(cfg Config, clock Clock) *Tracker {
	cfg.deadFramePenalty()
	t := &Tracker{cfg: cfg, clock: clock}
	t.bg = newBackground(&t.cfg)
	return t
}

// SetTrackStartObserver installs fn, invoked synchronously the frame a
// track is promoted from an unmatched blob. Pass nil to remove.
func (t *Tracker) SetTrackStartObserver(fn TrackStartObserver) {
	t.onTrackStart = fn
}

// SetTrackEndObserver installs fn, invoked synchronously once a dying
// track's net travel has been classified. Pass nil to remove.
func (t *Tracker) SetTrackEndObserver(fn TrackEndObserver) {
	t.onTrackEnd = fn
}

// IsBackgroundReady reports whether the background model has completed
// its initial build-up phase; tracking is suppressed until it has.
func (t *Tracker) IsBackgroundReady() bool {
	return t.bg.isReady()
}

// NumLastBlobs returns the number of blobs extracted on the most recent
// Ingest call (0 during the background-building phase).
func (t *Tracker) NumLastBlobs() int {
	return t.numBlobs
}

// BackgroundMean returns a copy of the background model's per-pixel
// mean.
func (t *Tracker) BackgroundMean() [Height][Width]float64 {
	return t.bg.mean
}

// BackgroundSigma returns a copy of the background model's per-pixel
// sigma.
func (t *Tracker) BackgroundSigma() [Height][Width]float64 {
	return t.bg.sigma
}

// AverageAmbientTemperature returns the mean of the background model's
// per-pixel mean, a coarse "how warm is the empty scene" reading.
func (t *Tracker) AverageAmbientTemperature() float64 {
	return t.bg.averageTemperature()
}

// HasNewMovements reports whether any direction counter has changed
// since the last ReadMovementCounters or ResetMovements call.
func (t *Tracker) HasNewMovements() bool {
	return t.movementChanged
}

// ReadMovementCounters copies the five direction counters (indexed per
// the Direction constants) into out and clears the "has new movements"
// flag. It does not reset the counters themselves; call
// ResetMovements for that.
func (t *Tracker) ReadMovementCounters(out *[numDirections]int64) {
	*out = t.movementCounters
	t.movementChanged = false
}

// ResetMovements zeroes the direction counters and clears the "has new
// movements" flag.
func (t *Tracker) ResetMovements() {
	t.movementCounters = [numDirections]int64{}
	t.movementChanged = false
}

// ResetBackground restarts the background model's build-up phase. It
// is the only state-altering call the host may make between Ingest
// calls.
func (t *Tracker) ResetBackground() {
	t.bg.reset()
}

// Ingest processes one frame to completion: background maintenance or
// extraction depending on phase, matching, aging, promotion and a
// background-update decision, in that exact order. It never blocks,
// never allocates beyond its fixed-size scratch, and never returns an
// error: every failure mode in the spec (NaN pixels, saturation,
// max_dead_frames=0) reduces to a bounded, defined no-op.
func (t *Tracker) Ingest(frame Frame) {
	t.frame = frame
	// Non-finite pixels are replaced by the background mean so they are
	// never active and never reach the background estimator.
	for r := 0; r < Height; r++ {
		for c := 0; c < Width; c++ {
			if x := t.frame[r][c]; math.IsNaN(x) || math.IsInf(x, 0) {
				t.frame[r][c] = t.bg.mean[r][c]
			}
		}
	}

	if !t.bg.isReady() {
		t.bg.addInitial(&t.frame)
		t.numBlobs = 0
		for i := range t.blobs {
			t.blobs[i].clear()
		}
		return
	}

	t.blobs, t.numBlobs = extractBlobs(&t.frame, t.bg, &t.cfg)

	t.match()
	t.age()
	t.promote()
	t.updateBackground()
}

// match builds the track/blob difference matrix and repeatedly assigns
// the global minimum below MaxDifferenceThreshold, per §4.5. Two
// tracks can never map to the same blob and vice versa: once a pair is
// chosen, its whole row and column are removed from contention.
func (t *Tracker) match() {
	for i := range t.tracks {
		t.tracks[i].HasUpdated = false
	}

	threshold := t.cfg.MaxDifferenceThreshold
	var m [MaxBlobs][MaxBlobs]float64
	for i := 0; i < MaxBlobs; i++ {
		for j := 0; j < MaxBlobs; j++ {
			if t.occupied[i] && j < t.numBlobs && t.blobs[j].IsActive() {
				m[i][j] = t.tracks[i].difference(&t.blobs[j]).total()
			} else {
				m[i][j] = threshold
			}
		}
	}

	for {
		bi, bj, min := -1, -1, threshold
		for i := 0; i < MaxBlobs; i++ {
			for j := 0; j < MaxBlobs; j++ {
				if m[i][j] < min {
					min = m[i][j]
					bi, bj = i, j
				}
			}
		}
		if bi < 0 {
			break
		}
		t.tracks[bi].updateBlob(&t.blobs[bj], t.clock.NowMS())
		t.blobs[bj].Assigned = true
		for j := 0; j < MaxBlobs; j++ {
			m[bi][j] = threshold
		}
		for i := 0; i < MaxBlobs; i++ {
			m[i][bj] = threshold
		}
	}
}

// age increments the dead-frame counter of every unmatched occupied
// track, finalises any that didn't survive, then compacts the slots.
func (t *Tracker) age() {
	for i := 0; i < MaxBlobs; i++ {
		if !t.occupied[i] {
			continue
		}
		if !t.tracks[i].HasUpdated {
			t.tracks[i].NumDeadFrames++
		}
		if !t.tracks[i].alive() {
			t.finalize(i)
		}
	}
	t.compact()
}

// finalize classifies a dying track's net travel, fires the track-end
// observer, then clears its slot.
func (t *Tracker) finalize(i int) {
	tb := t.tracks[i]
	classify(&tb, &t.cfg, &t.movementCounters)
	t.movementChanged = true
	if t.onTrackEnd != nil {
		t.onTrackEnd(tb)
	}
	t.occupied[i] = false
	t.tracks[i] = TrackedBlob{}
}

// compact moves surviving tracks toward the front of the slot array so
// occupied slots precede empty ones, preserving relative order.
func (t *Tracker) compact() {
	k := 0
	for i := 0; i < MaxBlobs; i++ {
		if !t.occupied[i] {
			continue
		}
		if k != i {
			t.tracks[k] = t.tracks[i]
			t.occupied[k] = true
			t.occupied[i] = false
			t.tracks[i] = TrackedBlob{}
		}
		k++
	}
}

// promote allocates a fresh track for every blob that matching left
// unassigned, using free slots only: once all MaxBlobs slots are
// occupied, excess blobs are silently dropped, preferring the tracks
// that already exist to survive over admitting new ones.
func (t *Tracker) promote() {
	for j := 0; j < t.numBlobs; j++ {
		if t.blobs[j].Assigned {
			continue
		}
		slot := -1
		for i := 0; i < MaxBlobs; i++ {
			if !t.occupied[i] {
				slot = i
				break
			}
		}
		if slot < 0 {
			break
		}
		id := t.nextID
		t.nextID++
		tb := newTrackedBlob(id, &t.cfg, &t.blobs[j], t.clock.NowMS())
		t.tracks[slot] = tb
		t.occupied[slot] = true
		if t.onTrackStart != nil {
			t.onTrackStart(tb)
		}
	}
}

// updateBackground decides whether to fold the current frame into the
// background model: always when the scene is quiet, and otherwise only
// once activity has persisted past UnchangedFrameDelay frames, so a
// long-static warm object doesn't lock the model out forever.
func (t *Tracker) updateBackground() {
	if t.numBlobs == 0 {
		t.numUnchangedFrames = 0
		t.bg.addRolling(&t.frame)
		return
	}
	t.numUnchangedFrames++
	if t.numUnchangedFrames > t.cfg.UnchangedFrameDelay {
		t.bg.addRolling(&t.frame)
	}
}
