// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Command thermotrackd runs a Tracker against a synthetic sensor feed
// and exposes a small HTTP/WebSocket debug inspector. It's the demo
// host for package thermotrack: the production host is whatever binary
// wires an actual thermopile FrameProducer in.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/maruel/interrupt"

	"github.com/maruel/go-thermotrack/store"
	"github.com/maruel/go-thermotrack/thermotrack"
	"github.com/maruel/go-thermotrack/thermotracktest"
)

// config is round-tripped to ~/.config/thermotrackd/thermotrackd.json,
// following the same pattern as the original sensor daemon.
type config struct {
	Port       int
	DBPath     string
	NumSources int
}

func defaultConfig() config {
	return config{Port: 8011, DBPath: "", NumSources: 3}
}

func loadConfig(path string) (config, error) {
	c := defaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return c, err
	}
	defer f.Close()
	err = json.NewDecoder(f).Decode(&c)
	return c, err
}

func writeConfig(path string, c config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(&c, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0600)
}

func mainImpl() error {
	port := flag.Int("port", 0, "http port to listen on; 0 uses the config file's value")
	dbPath := flag.String("db", "", "sqlite path to persist track-end events to; empty disables persistence")
	watch := flag.Bool("watch", false, "exit as soon as the binary on disk changes, for a supervisor to restart")
	writeConfigFlag := flag.Bool("writeConfig", false, "write the current config (defaults when no file exists) to the config file and exit")
	flag.Parse()
	if len(flag.Args()) != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}

	usr, err := user.Current()
	if err != nil {
		return err
	}
	configDir := filepath.Join(usr.HomeDir, ".config", "thermotrackd")
	configPath := filepath.Join(configDir, "thermotrackd.json")

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if *writeConfigFlag {
		return writeConfig(configPath, cfg)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	interrupt.HandleCtrlC()

	var st *store.Store
	if cfg.DBPath != "" {
		st, err = store.New(cfg.DBPath)
		if err != nil {
			return err
		}
		defer st.Close()
	}

	tracker := thermotrack.New(thermotrack.DefaultConfig())
	web := StartWebServer(cfg.Port, tracker, st)

	// The synthetic producer doesn't pace itself; there's no physical
	// bus to stay in sync with, so a ticker stands in for the sensor's
	// frame rate.
	producer := thermotracktest.New(0, cfg.NumSources, thermotracktest.WithSleep(0))

	if *watch {
		go func() {
			if err := watchFile(); err != nil {
				log.Printf("watch: %s", err)
			}
			interrupt.Set()
		}()
	}

	fmt.Printf("Listening on %d\n", cfg.Port)
	ticker := time.NewTicker(111 * time.Millisecond)
	defer ticker.Stop()
	for !interrupt.IsSet() {
		select {
		case <-interrupt.Channel:
		case <-ticker.C:
			frame, err := producer.ReadFrame()
			if err != nil {
				return err
			}
			tracker.Ingest(frame)
			web.publish(frame, tracker)
		}
	}
	fmt.Print("\n")
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nthermotrackd: %s.\n", err)
		os.Exit(1)
	}
}
