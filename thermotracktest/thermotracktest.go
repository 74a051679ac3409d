// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package thermotracktest provides synthetic implementations of
// thermotrack.FrameProducer and thermotrack.Clock for tests and demos
// that don't have a physical thermopile sensor attached.
package thermotracktest

import (
	"math/rand"
	"time"

	"github.com/maruel/go-thermotrack/thermotrack"
)

// vector is one moving heat source. It bounces off the grid's edges
// rather than wrapping, so a demo run keeps producing track starts and
// ends instead of drifting off-frame forever.
type vector struct {
	intensity  float64
	row, col   float64
	drow, dcol float64
}

func (p *Producer) newVector() vector {
	return vector{
		intensity: 6 + p.rand.Float64()*6,
		row:       p.rand.Float64() * float64(thermotrack.Height-1),
		col:       p.rand.Float64() * float64(thermotrack.Width-1),
		drow:      (p.rand.Float64() - 0.5) * 0.6,
		dcol:      (p.rand.Float64() - 0.5) * 1.2,
	}
}

// Producer is a synthetic thermotrack.FrameProducer: a flat ambient
// floor with a handful of warm vectors drifting across it, rendered the
// same way frame after frame. Deterministic given a seed.
type Producer struct {
	rand    *rand.Rand
	ambient float64
	vectors []vector
	sleep   time.Duration
}

// Option configures a Producer.
type Option func(*Producer)

// WithAmbient sets the flat background temperature vectors are added
// on top of. Default: 22.
func WithAmbient(celsius float64) Option {
	return func(p *Producer) { p.ambient = celsius }
}

// WithSleep sets the delay ReadFrame sleeps before rendering, standing
// in for a hardware sensor's frame rate. Default: 111ms (~9Hz, matching
// a real thermal sensor's typical readout rate). Zero disables the
// sleep, for tests that want frames as fast as possible.
func WithSleep(d time.Duration) Option {
	return func(p *Producer) { p.sleep = d }
}

// New returns a Producer seeded deterministically and populated with
// numVectors moving heat sources.
func New(seed int64, numVectors int, opts ...Option) *Producer {
	p := &Producer{
		rand:    rand.New(rand.NewSource(seed)),
		ambient: 22,
		sleep:   111 * time.Millisecond,
	}
	for _, o := range opts {
		o(p)
	}
	p.vectors = make([]vector, numVectors)
	for i := range p.vectors {
		p.vectors[i] = p.newVector()
	}
	return p
}

// ReadFrame renders the current vector positions onto a grid, advances
// them, and bounces any that reached an edge.
func (p *Producer) ReadFrame() (thermotrack.Frame, error) {
	if p.sleep > 0 {
		time.Sleep(p.sleep)
	}

	var f thermotrack.Frame
	for r := 0; r < thermotrack.Height; r++ {
		for c := 0; c < thermotrack.Width; c++ {
			x := p.ambient
			for i := range p.vectors {
				v := &p.vectors[i]
				dr := float64(r) - v.row
				dc := float64(c) - v.col
				x += v.intensity / (dr*dr + dc*dc + 0.5)
			}
			f[r][c] = x
		}
	}

	for i := range p.vectors {
		v := &p.vectors[i]
		v.row += v.drow
		v.col += v.dcol
		if v.row < 0 || v.row > float64(thermotrack.Height-1) {
			v.drow = -v.drow
		}
		if v.col < 0 || v.col > float64(thermotrack.Width-1) {
			v.dcol = -v.dcol
		}
	}
	return f, nil
}

// FakeClock is a thermotrack.Clock a test drives explicitly instead of
// waiting on the wall clock.
type FakeClock struct {
	ms int64
}

// NewFakeClock returns a FakeClock starting at 0ms.
func NewFakeClock() *FakeClock {
	return &FakeClock{}
}

// NowMS implements thermotrack.Clock.
func (c *FakeClock) NowMS() int64 {
	return c.ms
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.ms += d.Milliseconds()
}
