// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermotrack

// adjacent reports whether two pixels are 8-connected, loosened by
// fuzz: max(|Δrow|, |Δcol|) <= 1+fuzz. Adjacency is symmetric by
// construction (both deltas are taken as absolute values), so two
// distinct blob seeds can never end up claiming the same pixel.
func adjacent(a, b pixel, fuzz int) bool {
	dr := a.row - b.row
	if dr < 0 {
		dr = -dr
	}
	dc := a.col - b.col
	if dc < 0 {
		dc = -dc
	}
	m := dr
	if dc > m {
		m = dc
	}
	return m <= 1+fuzz
}

// extractBlobs scans frame against the background model for active
// pixels, groups them into up to MaxBlobs connected blobs and prunes
// blobs smaller than cfg.MinBlobSize. bg must be ready (isReady()); the
// caller (Tracker.Ingest) enforces this by only extracting in steady
// state.
//
// The algorithm never allocates beyond the fixed scratch below: a
// Height*Width active-pixel buffer and a Height*Width sort-queue. It
// runs a single pass per blob: pixels adjacent to the blob's growing
// queue are moved in, the rest are compacted toward the front of the
// active buffer, and the queue is walked front to back until it catches
// its own tail.
func extractBlobs(frame *Frame, bg *background, cfg *Config) (blobs [MaxBlobs]Blob, numBlobs int) {
	var active [Height * Width]pixel
	remaining := 0
	for r := 0; r < Height; r++ {
		for c := 0; c < Width; c++ {
			x := frame[r][c]
			if bg.isActive(x, bg.mean[r][c], bg.sigma[r][c]) {
				active[remaining] = pixel{row: r, col: c, temperature: x}
				remaining++
			}
		}
	}

	var queue [Height * Width]pixel
	for remaining > 0 && numBlobs < MaxBlobs {
		b := &blobs[numBlobs]

		// Seed the queue with the lowest-index (row-major) remaining
		// pixel and compact it out of the active buffer.
		queue[0] = active[0]
		qLen := 1
		copy(active[0:remaining-1], active[1:remaining])
		remaining--

		for qHead := 0; qHead < qLen; qHead++ {
			cur := queue[qHead]
			b.addPixel(cur)

			newRemaining := 0
			for i := 0; i < remaining; i++ {
				if adjacent(cur, active[i], cfg.AdjacencyFuzz) {
					queue[qLen] = active[i]
					qLen++
				} else {
					active[newRemaining] = active[i]
					newRemaining++
				}
			}
			remaining = newRemaining
		}
		numBlobs++
	}

	// Prune small blobs and compact so the surviving blobs occupy
	// [0, k) and the rest of the array is zeroed.
	k := 0
	for i := 0; i < numBlobs; i++ {
		if blobs[i].NumPixels >= cfg.MinBlobSize {
			if k != i {
				blobs[k] = blobs[i]
			}
			k++
		}
	}
	for i := k; i < MaxBlobs; i++ {
		blobs[i].clear()
	}
	return blobs, k
}
