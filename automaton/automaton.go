// Package automaton turns detected business processes into finite-state
// automatons: one state per step plus initial and completed states, with
// sequential transitions. The resulting Contract aggregate is what the
// output serializer renders and downstream execution engines consume.
package automaton

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/brunobiangulo/clamba/graph"
	"github.com/brunobiangulo/clamba/process"
)

// Position locates a state on a rendering canvas.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// State is one automaton state.
type State struct {
	ID             string   `json:"id" yaml:"id"`
	Label          string   `json:"label" yaml:"label"`
	Position       Position `json:"position" yaml:"position"`
	Type           string   `json:"type" yaml:"type"`
	SourcePosition string   `json:"source_position" yaml:"source_position"`
	TargetPosition string   `json:"target_position" yaml:"target_position"`
}

// Transition is a directed edge between two states.
type Transition struct {
	ID           string   `json:"id" yaml:"id"`
	Source       string   `json:"source" yaml:"source"`
	Target       string   `json:"target" yaml:"target"`
	Label        string   `json:"label" yaml:"label"`
	MarkerEnd    string   `json:"marker_end" yaml:"marker_end"`
	Conditions   []string `json:"conditions" yaml:"conditions"`
	Dependencies []string `json:"automata_dependencies" yaml:"automata_dependencies"`
}

// Automate is the finite-state representation of one business process.
type Automate struct {
	ID           string       `json:"id" yaml:"id"`
	Name         string       `json:"name" yaml:"name"`
	Active       bool         `json:"active" yaml:"active"`
	ProcessType  process.Type `json:"process_type" yaml:"process_type"`
	States       []State      `json:"states" yaml:"states"`
	Transitions  []Transition `json:"transitions" yaml:"transitions"`
	Dependencies []string     `json:"automata_dependencies" yaml:"automata_dependencies"`
}

// Contract aggregates the automatons generated from one contract document.
type Contract struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Status      string            `json:"status" yaml:"status"`
	CreatedAt   time.Time         `json:"created_at" yaml:"created_at"`
	CreatedBy   string            `json:"created_by" yaml:"created_by"`
	Description string            `json:"description" yaml:"description"`
	Automates   []Automate        `json:"automates" yaml:"automates"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

const (
	stateInitial   = "state-initial"
	stateCompleted = "state-completed"
)

// FromProcess builds an automaton from one process and its resolved
// dependency list. When sanitize is false, ids are used as-is.
func FromProcess(p process.Process, dependencies []string, sanitize bool) Automate {
	ident := func(s string) string {
		if sanitize {
			return SanitizeID(s)
		}
		return s
	}

	deps := make([]string, len(dependencies))
	for i, d := range dependencies {
		deps[i] = ident(d)
	}

	return Automate{
		ID:           ident(p.ID),
		Name:         p.Name,
		Active:       false,
		ProcessType:  p.Type,
		States:       statesFromSteps(p.Steps, ident),
		Transitions:  transitionsFromSteps(p.Steps, deps, ident),
		Dependencies: deps,
	}
}

// statesFromSteps lays out initial, per-step, and completed states on a
// vertical canvas.
func statesFromSteps(steps []string, ident func(string) string) []State {
	states := make([]State, 0, len(steps)+2)

	states = append(states, State{
		ID:             stateInitial,
		Label:          "INITIAL",
		Position:       Position{X: 320, Y: 40},
		Type:           "input",
		SourcePosition: "bottom",
		TargetPosition: "top",
	})

	for i, step := range steps {
		states = append(states, State{
			ID:             "state-" + ident(step),
			Label:          titleLabel(step),
			Position:       Position{X: 80, Y: 180 + float64(i)*100},
			Type:           "default",
			SourcePosition: "bottom",
			TargetPosition: "top",
		})
	}

	states = append(states, State{
		ID:             stateCompleted,
		Label:          "COMPLETED",
		Position:       Position{X: 320, Y: 180 + float64(len(steps))*100},
		Type:           "output",
		SourcePosition: "bottom",
		TargetPosition: "top",
	})

	return states
}

// transitionsFromSteps chains the states sequentially. The initial
// transition carries the automaton's dependencies: it may only fire once
// those automatons have completed.
func transitionsFromSteps(steps []string, deps []string, ident func(string) string) []Transition {
	if len(steps) == 0 {
		return nil
	}

	transitions := make([]Transition, 0, len(steps)+1)

	first := ident(steps[0])
	transitions = append(transitions, Transition{
		ID:           fmt.Sprintf("edge-initial-to-%s", first),
		Source:       stateInitial,
		Target:       "state-" + first,
		Label:        "start",
		MarkerEnd:    "arrowclosed",
		Conditions:   []string{},
		Dependencies: deps,
	})

	for i := 0; i < len(steps)-1; i++ {
		from := ident(steps[i])
		to := ident(steps[i+1])
		transitions = append(transitions, Transition{
			ID:         fmt.Sprintf("edge-%s-to-%s", from, to),
			Source:     "state-" + from,
			Target:     "state-" + to,
			Label:      titleLabel(steps[i+1]),
			MarkerEnd:  "arrowclosed",
			Conditions: []string{},
		})
	}

	last := ident(steps[len(steps)-1])
	transitions = append(transitions, Transition{
		ID:         fmt.Sprintf("edge-%s-to-completed", last),
		Source:     "state-" + last,
		Target:     stateCompleted,
		Label:      "complete",
		MarkerEnd:  "arrowclosed",
		Conditions: []string{},
	})

	return transitions
}

// InitialState returns the automaton's initial state, if present.
func (a *Automate) InitialState() (State, bool) {
	for _, s := range a.States {
		if s.ID == stateInitial {
			return s, true
		}
	}
	return State{}, false
}

// StructuralErrors returns the automaton's structural violations: missing
// states, missing initial state, and transitions referencing unknown
// states. Empty means valid.
func (a *Automate) StructuralErrors() []string {
	var errs []string

	if len(a.States) == 0 {
		errs = append(errs, "automaton must have at least one state")
	}
	if _, ok := a.InitialState(); !ok {
		errs = append(errs, "automaton must have an initial state")
	}

	stateIDs := make(map[string]bool, len(a.States))
	for _, s := range a.States {
		stateIDs[s.ID] = true
	}
	for _, t := range a.Transitions {
		if !stateIDs[t.Source] {
			errs = append(errs, fmt.Sprintf("transition %s references unknown source state %s", t.ID, t.Source))
		}
		if !stateIDs[t.Target] {
			errs = append(errs, fmt.Sprintf("transition %s references unknown target state %s", t.ID, t.Target))
		}
	}

	return errs
}

// DependencyGraph returns the adjacency mapping over all automatons.
func (c *Contract) DependencyGraph() map[string][]string {
	deps := make(map[string][]string, len(c.Automates))
	for _, a := range c.Automates {
		deps[a.ID] = a.Dependencies
	}
	return deps
}

// AutomateByID looks up an automaton by its id.
func (c *Contract) AutomateByID(id string) (Automate, bool) {
	for _, a := range c.Automates {
		if a.ID == id {
			return a, true
		}
	}
	return Automate{}, false
}

// HasCycles reports whether the contract's dependency graph contains a
// directed cycle. Cycle resolution normally runs before automatons are
// built, so this only fires when resolution was disabled.
func (c *Contract) HasCycles() bool {
	return graph.HasCycles(c.DependencyGraph())
}

// ExecutionOrder returns the automatons' ids in a valid execution order.
// The ok result is false when the dependency graph is cyclic.
func (c *Contract) ExecutionOrder() ([]string, bool) {
	return graph.TopologicalSort(c.DependencyGraph())
}

// titleLabel turns a step token like "verification_documents" into a
// human-readable label.
func titleLabel(step string) string {
	words := strings.FieldsFunc(step, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
