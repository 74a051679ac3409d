// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermotrack

import "math"

// differences is the per-dimension breakdown of a TrackedBlob/Blob
// match score. DeadFrame is computed and recorded but, per the scoring
// contract (see TrackedBlob.difference), never enters the match total.
type differences struct {
	Position, Area, AspectRatio, Temperature, Direction float64
	EdgePenalty, DeadFrame                              float64
}

func (d differences) total() float64 {
	return d.Position + d.Area + d.AspectRatio + d.Temperature + d.Direction
}

// TrackedBlob is a blob identity persisting across frames: a snapshot
// of the last matched Blob plus the bookkeeping needed to score future
// candidates against it and to classify its eventual net travel.
//
// TrackedBlob holds no pointers of its own other than a shared,
// effectively-immutable *Config, so a plain struct copy (as handed to
// TrackStartObserver/TrackEndObserver) is a safe, independent snapshot.
type TrackedBlob struct {
	ID uint64

	// Snapshot of the last matched Blob.
	Size                     int
	Width, HeightPixels      int
	AspectRatio              float64
	AvgTemperature           float64
	CentroidRow, CentroidCol float64

	// PredictedRow/PredictedCol are the linear extrapolation of the
	// centroid from the previous match to this one. Negative means "no
	// prediction yet" (fewer than two matches so far).
	PredictedRow, PredictedCol float64

	// Cumulative displacement since creation. X is the column axis
	// (LEFT/RIGHT), Y is the row axis (UP/DOWN).
	TravelX, TravelY           float64
	TotalTravelX, TotalTravelY float64

	StartRow, StartCol float64
	StartTimeMS        int64
	EventDurationMS    int64

	TimesUpdated int

	MaxSize, MaxWidth, MaxHeight int

	NumDeadFrames, MaxNumDeadFrames int

	LastDiff differences
	AvgDiff  differences

	MaxDifference, AvgDifference float64

	// HasUpdated is true iff this track received a match in the
	// current frame. Reset to false at the start of each frame's
	// matching pass.
	HasUpdated bool

	cfg *Config
}

func newTrackedBlob(id uint64, cfg *Config, b *Blob, nowMS int64) TrackedBlob {
	row, col := b.Centroid()
	return TrackedBlob{
		ID:             id,
		Size:           b.NumPixels,
		Width:          b.Width(),
		HeightPixels:   b.Height(),
		AspectRatio:    b.AspectRatio(),
		AvgTemperature: b.AvgTemperature,
		CentroidRow:    row,
		CentroidCol:    col,
		PredictedRow:   -1,
		PredictedCol:   -1,
		StartRow:       row,
		StartCol:       col,
		StartTimeMS:    nowMS,
		MaxSize:        b.NumPixels,
		MaxWidth:       b.Width(),
		MaxHeight:      b.Height(),
		HasUpdated:     true,
		cfg:            cfg,
	}
}

// touchesSide reports whether the track touches a vertical frame edge.
// The right-side half of this check looks inverted (it compares against
// Width-1 using <= rather than >=) but matches tracks observed in
// practice, so it's kept as-is rather than "corrected".
func (t *TrackedBlob) touchesSide() bool {
	halfWidth := float64(t.Width) / 2
	return t.CentroidCol-halfWidth <= 1 || t.CentroidCol+halfWidth <= float64(Width-1)
}

// edgePenalty softens the match score when the track touches a side:
// 1 when it doesn't, otherwise a value in (0, 1] that shrinks as the
// candidate's centroid moves away from the frame's horizontal center.
func (t *TrackedBlob) edgePenalty(candCentroidCol float64) float64 {
	if !t.touchesSide() {
		return 1
	}
	halfW := float64(Width) / 2
	return 1 - math.Abs(halfW-candCentroidCol)/halfW
}

func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// difference scores cand against t: lower means more similar. The
// total (see differences.total) is what the tracker compares against
// MaxDifferenceThreshold; DeadFrame is informational only.
func (t *TrackedBlob) difference(cand *Blob) differences {
	candRow, candCol := cand.Centroid()
	ep := t.edgePenalty(candCol)

	predRow, predCol := t.PredictedRow, t.PredictedCol
	if predRow < 0 || predCol < 0 {
		predRow, predCol = t.CentroidRow, t.CentroidCol
	}

	pos := (math.Abs(predRow-candRow) + math.Abs(predCol-candCol)) * t.cfg.PositionPenalty * ep
	area := math.Abs(float64(t.Size-cand.NumPixels)) * t.cfg.AreaPenalty * ep
	ar := math.Abs(t.AspectRatio-cand.AspectRatio()) * t.cfg.AspectRatioPenalty * ep
	temp := math.Abs(t.AvgTemperature-cand.AvgTemperature) * t.cfg.TemperaturePenalty

	var dir float64
	latestDirection := predCol - t.CentroidCol
	if !t.touchesSide() && t.TimesUpdated > 1 && sign(latestDirection) != sign(t.TravelX) {
		dir = t.cfg.DirectionPenalty
	}

	deadFrame := float64(t.NumDeadFrames) * t.cfg.DeadFramePenalty

	return differences{
		Position:    pos,
		Area:        area,
		AspectRatio: ar,
		Temperature: temp,
		Direction:   dir,
		EdgePenalty: ep,
		DeadFrame:   deadFrame,
	}
}

// updateBlob folds a matched candidate into the track: records the
// difference breakdown and its running averages, advances the motion
// model, replaces the snapshot, and resets the dead-frame counter. It
// returns the total match score for the caller's bookkeeping.
func (t *TrackedBlob) updateBlob(cand *Blob, nowMS int64) float64 {
	diff := t.difference(cand)
	total := diff.total()

	n := float64(t.TimesUpdated)
	t.LastDiff = diff
	t.AvgDiff = differences{
		Position:    (t.AvgDiff.Position*n + diff.Position) / (n + 1),
		Area:        (t.AvgDiff.Area*n + diff.Area) / (n + 1),
		AspectRatio: (t.AvgDiff.AspectRatio*n + diff.AspectRatio) / (n + 1),
		Temperature: (t.AvgDiff.Temperature*n + diff.Temperature) / (n + 1),
		Direction:   (t.AvgDiff.Direction*n + diff.Direction) / (n + 1),
		EdgePenalty: (t.AvgDiff.EdgePenalty*n + diff.EdgePenalty) / (n + 1),
		DeadFrame:   (t.AvgDiff.DeadFrame*n + diff.DeadFrame) / (n + 1),
	}
	if total > t.MaxDifference {
		t.MaxDifference = total
	}
	t.AvgDifference = (t.AvgDifference*n + total) / (n + 1)

	candRow, candCol := cand.Centroid()
	moveRow := candRow - t.CentroidRow
	moveCol := candCol - t.CentroidCol
	t.PredictedRow = candRow + moveRow
	t.PredictedCol = candCol + moveCol
	t.TravelY += moveRow
	t.TravelX += moveCol
	t.TotalTravelY += math.Abs(moveRow)
	t.TotalTravelX += math.Abs(moveCol)

	t.CentroidRow, t.CentroidCol = candRow, candCol
	t.Size = cand.NumPixels
	t.Width = cand.Width()
	t.HeightPixels = cand.Height()
	t.AspectRatio = cand.AspectRatio()
	t.AvgTemperature = cand.AvgTemperature

	if cand.NumPixels > t.MaxSize {
		t.MaxSize = cand.NumPixels
	}
	if t.Width > t.MaxWidth {
		t.MaxWidth = t.Width
	}
	if t.HeightPixels > t.MaxHeight {
		t.MaxHeight = t.HeightPixels
	}

	t.EventDurationMS = nowMS - t.StartTimeMS
	t.HasUpdated = true
	if t.NumDeadFrames > t.MaxNumDeadFrames {
		t.MaxNumDeadFrames = t.NumDeadFrames
	}
	t.NumDeadFrames = 0
	t.TimesUpdated++
	return total
}

// alive reports whether the track should survive this frame, after
// aging (see Tracker.Ingest): either it was matched this frame, or it
// hasn't yet exhausted its dead-frame grace period.
func (t *TrackedBlob) alive() bool {
	return t.HasUpdated || t.NumDeadFrames < t.cfg.MaxDeadFrames
}
