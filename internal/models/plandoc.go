// Package models defines the JSON plan document format used for importing
// and exporting plan snapshots.
package models

import (
	"encoding/json"
	"fmt"
	"os"
)

// PlanDoc is a plan snapshot as serialized to JSON.
type PlanDoc struct {
	ID    string    `json:"id"`
	Name  string    `json:"name,omitempty"`
	Tasks []TaskDoc `json:"tasks"`
	Edges []EdgeDoc `json:"edges,omitempty"`
}

// TaskDoc is a task entry in a plan document. Zero values pick the engine
// defaults: pending state, executable, no owners.
type TaskDoc struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	Ancestry   []string       `json:"ancestry,omitempty"` // defaults to [model]
	State      string         `json:"state,omitempty"`    // defaults to pending
	Outcome    string         `json:"outcome,omitempty"`
	Abstract   bool           `json:"abstract,omitempty"`
	Executable *bool          `json:"executable,omitempty"` // defaults to true
	Mission    bool           `json:"mission,omitempty"`
	Permanent  bool           `json:"permanent,omitempty"`
	Owners     []string       `json:"owners,omitempty"`
	Arguments  map[string]any `json:"arguments,omitempty"`
}

// EdgeDoc is a relation edge in a plan document.
type EdgeDoc struct {
	Parent   string `json:"parent"`
	Child    string `json:"child"`
	Relation string `json:"relation"`
	Data     string `json:"data,omitempty"`
}

// ReadPlanDoc parses a plan document from a JSON file.
func ReadPlanDoc(path string) (*PlanDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan document: %w", err)
	}

	var doc PlanDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse plan document: %w", err)
	}
	if doc.ID == "" {
		return nil, fmt.Errorf("plan document %s has no id", path)
	}

	return &doc, nil
}

// WritePlanDoc writes a plan document as indented JSON.
func WritePlanDoc(path string, doc *PlanDoc) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal plan document: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write plan document: %w", err)
	}
	return nil
}
