// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package thermotrack ingests low-resolution thermal frames from an
// overhead thermopile sensor and emits labeled motion events.
//
// The package maintains an adaptive per-pixel background, detects
// foreground pixels against it, groups them into connected blobs, tracks
// those blobs across frames and, once a track dies, classifies its net
// travel as one of LEFT, RIGHT, UP, DOWN or NoDirection.
//
// This package is the core of the pipeline only: it has no opinion on
// where frames come from (see FrameProducer) or what wall clock is used
// (see Clock). Persistent storage and the web inspector live one layer
// up, in sibling packages; no thermopile driver is part of this module.
//
// References
//
// The scoring weights, background estimator and greedy matching
// algorithm are a direct port of a long-running embedded C++ tracker;
// see DESIGN.md at the repository root for the open questions preserved
// from that source.
package thermotrack
