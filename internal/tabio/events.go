// Package tabio loads event tables and writes trajectory tables. It is the
// boundary between the integration core and files on disk: the core only
// ever sees already-materialized schedules and hands back trajectories.
package tabio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/odelab/odesim/internal/events"
)

// ReadEvents loads an event table, dispatching on the file extension
// (.csv, .yaml, .yml). Row order is preserved.
func ReadEvents(path string) (events.Schedule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch ext := filepath.Ext(path); ext {
	case ".csv":
		return ReadEventsCSV(f)
	case ".yaml", ".yml":
		return ReadEventsYAML(f)
	default:
		return nil, fmt.Errorf("unsupported event table format %q", ext)
	}
}

// ReadEventsCSV parses rows of (time, component, value, method) under a
// mandatory header. Rows sharing a time stay in input order.
func ReadEventsCSV(r io.Reader) (events.Schedule, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("event table: %w", err)
	}
	want := []string{"time", "component", "value", "method"}
	if len(header) != len(want) {
		return nil, fmt.Errorf("event table: header %v, want %v", header, want)
	}
	for i, col := range header {
		if strings.TrimSpace(strings.ToLower(col)) != want[i] {
			return nil, fmt.Errorf("event table: header %v, want %v", header, want)
		}
	}

	var sched events.Schedule
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("event table line %d: %w", line, err)
		}

		t, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("event table line %d: bad time %q", line, rec[0])
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("event table line %d: bad value %q", line, rec[2])
		}
		op, err := events.ParseOp(strings.TrimSpace(rec[3]))
		if err != nil {
			return nil, fmt.Errorf("event table line %d: %w", line, err)
		}

		sched = append(sched, events.Event{
			Time:      t,
			Component: strings.TrimSpace(rec[1]),
			Op:        op,
			Value:     v,
		})
	}

	return sched, nil
}

type eventRow struct {
	Time      float64 `yaml:"time"`
	Component string  `yaml:"component"`
	Value     float64 `yaml:"value"`
	Method    string  `yaml:"method"`
}

type eventFile struct {
	Events []eventRow `yaml:"events"`
}

// ReadEventsYAML parses a YAML document with an `events` list of rows
// mirroring the CSV columns.
func ReadEventsYAML(r io.Reader) (events.Schedule, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var file eventFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("event table: %w", err)
	}

	sched := make(events.Schedule, 0, len(file.Events))
	for i, row := range file.Events {
		op, err := events.ParseOp(row.Method)
		if err != nil {
			return nil, fmt.Errorf("event table row %d: %w", i, err)
		}
		sched = append(sched, events.Event{
			Time:      row.Time,
			Component: row.Component,
			Op:        op,
			Value:     row.Value,
		})
	}

	return sched, nil
}
