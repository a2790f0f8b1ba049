// Package replay parses and executes recorded editing sessions. A script
// names a briefcase and a sequence of steps: enter a scope, save element
// changes, exit the scope. The replay command runs scripts against an
// in-process connection; the publish command turns them into feed events.
package replay

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tessera3d/tessera/pkg/changeset"
	"github.com/tessera3d/tessera/pkg/geometry"
)

// Script is one recorded editing session.
type Script struct {
	Briefcase string `yaml:"briefcase"`
	Steps     []Step `yaml:"steps"`
}

// Step is a single scripted action. Exactly one of the fields is set.
type Step struct {
	EnterScope bool        `yaml:"enter_scope,omitempty"`
	Save       []ModelSave `yaml:"save,omitempty"`
	ExitScope  bool        `yaml:"exit_scope,omitempty"`
}

// ModelSave is one model's share of a scripted save.
type ModelSave struct {
	Model    string        `yaml:"model"`
	Elements []ElementEdit `yaml:"elements"`
}

// ElementEdit is one scripted element change. Range is optional; edits
// without one contribute no extent, matching saves whose geometry is not
// known yet.
type ElementEdit struct {
	ID    string      `yaml:"id"`
	Op    string      `yaml:"op"`
	Range *[6]float32 `yaml:"range,omitempty"`
}

// Kind names the step's action for step-by-step output and errors.
func (s Step) Kind() string {
	switch {
	case s.EnterScope:
		return "enter_scope"
	case len(s.Save) > 0:
		return "save"
	case s.ExitScope:
		return "exit_scope"
	default:
		return "empty"
	}
}

// Validate performs strict validation on the script.
func (s *Script) Validate() error {
	if s.Briefcase == "" {
		return fmt.Errorf("briefcase is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("no steps defined")
	}

	for i, step := range s.Steps {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	return nil
}

// Validate checks that the step is exactly one well-formed action.
func (s Step) Validate() error {
	actions := 0
	if s.EnterScope {
		actions++
	}
	if len(s.Save) > 0 {
		actions++
	}
	if s.ExitScope {
		actions++
	}
	if actions != 1 {
		return fmt.Errorf("each step must be exactly one of enter_scope, save or exit_scope")
	}

	for _, ms := range s.Save {
		if err := changeset.ModelID(ms.Model).Validate(); err != nil {
			return fmt.Errorf("save for model %q: %w", ms.Model, err)
		}
		if len(ms.Elements) == 0 {
			return fmt.Errorf("save for model %q has no elements", ms.Model)
		}
		for _, e := range ms.Elements {
			if err := e.Validate(); err != nil {
				return fmt.Errorf("save for model %q: %w", ms.Model, err)
			}
		}
	}

	return nil
}

// Validate checks one scripted element change.
func (e ElementEdit) Validate() error {
	if err := changeset.ElementID(e.ID).Validate(); err != nil {
		return err
	}
	if err := changeset.Opcode(e.Op).Validate(); err != nil {
		return fmt.Errorf("element %q: %w", e.ID, err)
	}
	if e.Range != nil {
		for axis := 0; axis < 3; axis++ {
			if e.Range[axis] > e.Range[axis+3] {
				return fmt.Errorf("element %q: range min exceeds max on axis %d", e.ID, axis)
			}
		}
	}
	return nil
}

// Change converts the edit to a change record. Only valid after Validate.
func (e ElementEdit) Change() changeset.ElementChange {
	rec := changeset.ElementChange{
		ID: changeset.ElementID(e.ID),
		Op: changeset.Opcode(e.Op),
	}
	if e.Range != nil {
		r := geometry.NewRange3(
			geometry.V3(e.Range[0], e.Range[1], e.Range[2]),
			geometry.V3(e.Range[3], e.Range[4], e.Range[5]),
		)
		rec.Range = &r
	}
	return rec
}

// SaveModels converts a save step's payload to change records. Only valid
// after Validate.
func (s Step) SaveModels() []changeset.ModelChanges {
	out := make([]changeset.ModelChanges, 0, len(s.Save))
	for _, ms := range s.Save {
		mc := changeset.ModelChanges{Model: changeset.ModelID(ms.Model)}
		for _, e := range ms.Elements {
			mc.Elements = append(mc.Elements, e.Change())
		}
		out = append(out, mc)
	}
	return out
}

// LoadScript reads and validates an edit script from the specified path.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := script.Validate(); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}

	return &script, nil
}
