// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package store persists track-end events to a local sqlite database.
// It is purely an ambient, optional listener on
// thermotrack.Tracker.SetTrackEndObserver: the tracker never reads
// anything back from it and never blocks on it.
package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/maruel/go-thermotrack/thermotrack"
)

// Event is one recorded track-end, the storage-layer twin of a
// TrackedBlob. ID is a uuid assigned at insertion time, independent of
// the tracker's own advisory uint64 track id.
type Event struct {
	ID              uuid.UUID
	TrackID         uint64
	Direction       string
	TravelX         float64
	TravelY         float64
	TimesUpdated    int
	EventDurationMS int64
	MaxSize         int
	RecordedAt      string
}

// Store is a sqlite-backed event log.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) a sqlite database at path and ensures
// its schema exists.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			track_id BIGINT,
			direction TEXT,
			travel_x DOUBLE,
			travel_y DOUBLE,
			times_updated INTEGER,
			event_duration_ms BIGINT,
			max_size INTEGER,
			recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one event derived from a dying track and returns the
// id assigned to it.
func (s *Store) Record(t thermotrack.TrackedBlob, direction string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.db.Exec(
		`INSERT INTO events (id, track_id, direction, travel_x, travel_y, times_updated, event_duration_ms, max_size) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), t.ID, direction, t.TravelX, t.TravelY, t.TimesUpdated, t.EventDurationMS, t.MaxSize,
	)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Recent returns up to limit most recently recorded events, newest
// first.
func (s *Store) Recent(limit int) ([]Event, error) {
	rows, err := s.db.Query(
		`SELECT id, track_id, direction, travel_x, travel_y, times_updated, event_duration_ms, max_size, recorded_at
		 FROM events ORDER BY recorded_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var id string
		if err := rows.Scan(&id, &e.TrackID, &e.Direction, &e.TravelX, &e.TravelY, &e.TimesUpdated, &e.EventDurationMS, &e.MaxSize, &e.RecordedAt); err != nil {
			return nil, err
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("store: corrupt id %q: %w", id, err)
		}
		e.ID = parsed
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
