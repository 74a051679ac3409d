// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"html/template"
	"image"
	"image/color"
	"image/png"
	"log"
	"net"
	"net/http"
	"sync"

	"github.com/maruel/interrupt"
	"golang.org/x/net/websocket"

	"github.com/maruel/go-thermotrack/store"
	"github.com/maruel/go-thermotrack/thermotrack"
)

// snapshot is one rendered frame plus the tracker state a viewer cares
// about, broadcast to every WebSocket client.
type snapshot struct {
	Frame     thermotrack.Frame
	Counters  [5]int64
	NumBlobs  int
	Ready     bool
	Ambient   float64
	Sequence  int
}

// WebServer is the debug inspector: an HTTP page showing the current
// frame pseudo-colored, a WebSocket stream of raw snapshots, and
// (when a store is attached) the recent event log.
//
// Modeled on the original sensor daemon's ring-buffer + sync.Cond
// broadcast, generalized from raw sensor images to thermotrack
// snapshots.
type WebServer struct {
	cond     sync.Cond
	history  [90]snapshot // 10s worth at ~9Hz.
	lastIdx  int
	sequence int
	store    *store.Store
}

// StartWebServer starts listening on port and returns the WebServer so
// the caller can push snapshots to it as frames are ingested.
func StartWebServer(port int, tracker *thermotrack.Tracker, st *store.Store) *WebServer {
	w := &WebServer{
		cond:    *sync.NewCond(&sync.Mutex{}),
		lastIdx: -1,
		store:   st,
	}

	if st != nil {
		events := make(chan trackEndEvent, 64)
		tracker.SetTrackEndObserver(func(tb thermotrack.TrackedBlob) {
			select {
			case events <- trackEndEvent{tb, classifyLabel(tb)}:
			default:
				log.Printf("thermotrackd: event queue full, dropping track %d", tb.ID)
			}
		})
		go func() {
			for {
				select {
				case e := <-events:
					if _, err := st.Record(e.blob, e.direction); err != nil {
						log.Printf("thermotrackd: failed to record event: %s", err)
					}
				case <-interrupt.Channel:
					return
				}
			}
		}()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", w.root)
	mux.Handle("/stream", websocket.Handler(w.stream))
	mux.HandleFunc("/events", w.events)
	fmt.Printf("Listening on %d\n", port)
	go http.ListenAndServe(fmt.Sprintf(":%d", port), loggingHandler{mux})
	go func() {
		<-interrupt.Channel
		w.cond.Broadcast()
	}()
	return w
}

type trackEndEvent struct {
	blob      thermotrack.TrackedBlob
	direction string
}

// classifyLabel picks a single display label for a finalized track's
// event log row: whichever axis it traveled further along. The
// tracker's own counters stay the source of truth; this is cosmetic.
func classifyLabel(t thermotrack.TrackedBlob) string {
	ax, ay := t.TravelX, t.TravelY
	if ax < 0 {
		ax = -ax
	}
	if ay < 0 {
		ay = -ay
	}
	switch {
	case ax == 0 && ay == 0:
		return thermotrack.NoDirection.String()
	case ax >= ay && t.TravelX >= 0:
		return thermotrack.Right.String()
	case ax >= ay:
		return thermotrack.Left.String()
	case t.TravelY > 0:
		return thermotrack.Up.String()
	default:
		return thermotrack.Down.String()
	}
}

// publish pushes the current frame and tracker state into the history
// ring and wakes any waiting stream clients.
func (w *WebServer) publish(frame thermotrack.Frame, tracker *thermotrack.Tracker) {
	var counters [5]int64
	tracker.ReadMovementCounters(&counters)

	w.cond.L.Lock()
	w.lastIdx = (w.lastIdx + 1) % len(w.history)
	w.sequence++
	w.history[w.lastIdx] = snapshot{
		Frame:    frame,
		Counters: counters,
		NumBlobs: tracker.NumLastBlobs(),
		Ready:    tracker.IsBackgroundReady(),
		Ambient:  tracker.AverageAmbientTemperature(),
		Sequence: w.sequence,
	}
	w.cond.Broadcast()
	w.cond.L.Unlock()
}

var rootTmpl = template.Must(template.New("root").Parse(`
<html>
<head>
	<title>thermotrackd</title>
	<style>
		img.large { width: 480px; height: auto; image-rendering: pixelated; }
	</style>
	<script>
	function reload() {
		var img = document.getElementById("grid");
		img.src = "/grid.png#" + new Date().getTime();
		setTimeout(reload, 200);
	}
	window.onload = reload;
	</script>
</head>
<body>
	<img class="large" id="grid" src="/grid.png">
	<p>Events: <a href="/events">/events</a> &middot; Stream: <a href="/stream">/stream</a></p>
</body>
</html>`))

func (w *WebServer) root(rw http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/":
		rw.Header().Set("Content-Type", "text/html")
		if err := rootTmpl.Execute(rw, nil); err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)
		}
	case "/grid.png":
		w.grid(rw, r)
	default:
		http.NotFound(rw, r)
	}
}

// grid renders the most recent frame as a pseudo-colored PNG, one
// pixel per grid cell, adapted from the original sensor daemon's
// palette-based Gray14ToRGB but centered on the tracker's own ambient
// reading instead of a fixed hardware offset.
func (w *WebServer) grid(rw http.ResponseWriter, r *http.Request) {
	w.cond.L.Lock()
	s := snapshot{}
	if w.lastIdx >= 0 {
		s = w.history[w.lastIdx]
	}
	w.cond.L.Unlock()

	rw.Header().Set("Content-Type", "image/png")
	rw.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	img := image.NewNRGBA(image.Rect(0, 0, thermotrack.Width, thermotrack.Height))
	for row := 0; row < thermotrack.Height; row++ {
		for col := 0; col < thermotrack.Width; col++ {
			img.SetNRGBA(col, row, pseudoColor(s.Frame[row][col], s.Ambient))
		}
	}
	if err := png.Encode(rw, img); err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
	}
}

// pseudoColor maps a Celsius reading to a color, grayscale below
// ambient and warming through the palette above it. The scale (8°C
// spans the full range) is tuned for a small indoor scene, not a
// calibrated radiometric display.
func pseudoColor(celsius, ambient float64) color.NRGBA {
	const span = 8.0
	i := int((celsius - ambient) / span * 255)
	if i < 0 {
		if i < -255 {
			i = -255
		}
		y := uint8((255 + i + 2) * 2 / 3)
		r, g, b := color.YCbCrToRGB(y, 128, 128)
		return color.NRGBA{r, g, b, 255}
	}
	if i > 255 {
		i = 255
	}
	const base = 255 - (255+2)*2/3
	y := uint8((i+2)/3 + base)
	cb := uint8(i - 255)
	cr := uint8(255 - i)
	r, g, b := color.YCbCrToRGB(y, cb, cr)
	return color.NRGBA{r, g, b, 255}
}

// stream sends the most recent published snapshot as a WebSocket text
// frame of JSON each time it is woken by a broadcast. Snapshots
// published while a send is in progress are skipped; only the latest
// one is sent.
func (w *WebServer) stream(conn *websocket.Conn) {
	log.Printf("websocket %s connected", conn.Config().Origin)
	defer conn.Close()
	lastSeq := 0
	w.cond.L.Lock()
	defer w.cond.L.Unlock()
	var err error
	for !interrupt.IsSet() && err == nil {
		w.cond.Wait()
		for !interrupt.IsSet() && err == nil && w.lastIdx >= 0 && w.history[w.lastIdx].Sequence != lastSeq {
			s := w.history[w.lastIdx]
			lastSeq = s.Sequence
			w.cond.L.Unlock()
			err = json.NewEncoder(conn).Encode(&s)
			w.cond.L.Lock()
		}
	}
	if err != nil {
		log.Printf("websocket %s closed: %s", conn.Config().Origin, err)
	}
}

// events returns the most recently persisted track-end events as
// JSON. 404s when no store was configured.
func (w *WebServer) events(rw http.ResponseWriter, r *http.Request) {
	if w.store == nil {
		http.NotFound(rw, r)
		return
	}
	events, err := w.store.Recent(500)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	rw.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(rw).Encode(events); err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
	}
}

// Private details.

type loggingHandler struct {
	handler http.Handler
}

type loggingResponseWriter struct {
	http.ResponseWriter
	length int
	status int
}

func (l *loggingResponseWriter) Write(data []byte) (size int, err error) {
	size, err = l.ResponseWriter.Write(data)
	l.length += size
	return
}

func (l *loggingResponseWriter) WriteHeader(status int) {
	l.ResponseWriter.WriteHeader(status)
	l.status = status
}

// Hijack is needed for websocket.
func (l *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h := l.ResponseWriter.(http.Hijacker)
	return h.Hijack()
}

func (l loggingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	lrw := &loggingResponseWriter{ResponseWriter: w}
	l.handler.ServeHTTP(lrw, r)
	log.Printf("%s - %3d %6db %4s %s\n", r.RemoteAddr, lrw.status, lrw.length, r.Method, r.RequestURI)
}
