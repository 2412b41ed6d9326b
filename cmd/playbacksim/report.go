// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ManuGH/playresilience/internal/plugins"
	"github.com/google/renameio/v2"
)

// Report is the JSON document written by -report.
type Report struct {
	StartedAt time.Time       `json:"startedAt"`
	EndedAt   time.Time       `json:"endedAt"`
	Outcomes  []Outcome       `json:"outcomes"`
	Events    []plugins.Event `json:"events"`
	Summary   Summary         `json:"summary"`
}

// Summary counts how the scenarios ended.
type Summary struct {
	Scenarios int            `json:"scenarios"`
	Fatal     int            `json:"fatal"`
	Errors    int            `json:"errors"`
	Events    map[string]int `json:"events"`
}

func summarize(outcomes []Outcome, events []plugins.Event) Summary {
	s := Summary{Scenarios: len(outcomes), Events: make(map[string]int)}
	for _, o := range outcomes {
		if o.Fatal != "" {
			s.Fatal++
		}
		if o.Error != "" {
			s.Errors++
		}
	}
	for _, ev := range events {
		s.Events[string(ev.Kind)]++
	}
	return s
}

// writeReport replaces path atomically with the JSON report.
func writeReport(path string, rep Report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := renameio.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
