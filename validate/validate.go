// Package validate performs final structural checks over an assembled
// contract. All violations are accumulated into human-readable messages;
// nothing here returns an error or panics, and an empty slice means the
// result is fully valid. Whether a non-empty list is fatal is the caller's
// policy.
package validate

import (
	"fmt"
	"strings"

	"github.com/brunobiangulo/clamba/automaton"
	"github.com/brunobiangulo/clamba/graph"
)

// Contract returns every structural violation found in c, including
// residual cycles in the dependency graph.
func Contract(c *automaton.Contract) []string {
	return check(c, false)
}

// ContractAllowingCycles is Contract without the acyclicity check, for
// configurations where cycle resolution is disabled and residual cycles
// are tolerated.
func ContractAllowingCycles(c *automaton.Contract) []string {
	return check(c, true)
}

func check(c *automaton.Contract, allowCycles bool) []string {
	var errs []string

	if c.ID == "" {
		errs = append(errs, "contract must have an ID")
	}
	if c.Name == "" {
		errs = append(errs, "contract must have a name")
	}
	if len(c.Automates) == 0 {
		errs = append(errs, "contract must have at least one automaton")
	}

	for i := range c.Automates {
		a := &c.Automates[i]
		for _, e := range a.StructuralErrors() {
			errs = append(errs, fmt.Sprintf("automaton %s: %s", a.ID, e))
		}
	}

	errs = append(errs, dependencyErrors(c)...)

	// Cycle resolution runs before automatons are built; the acyclicity
	// invariant is re-checked here rather than assumed.
	if !allowCycles {
		for _, cycle := range graph.FindCycles(c.DependencyGraph()) {
			errs = append(errs, fmt.Sprintf("dependency graph has a cycle: %s",
				strings.Join(cycle, " -> ")))
		}
	}

	return errs
}

// dependencyErrors reports automaton dependencies that reference unknown
// automatons.
func dependencyErrors(c *automaton.Contract) []string {
	ids := make(map[string]bool, len(c.Automates))
	for _, a := range c.Automates {
		ids[a.ID] = true
	}

	var errs []string
	for _, a := range c.Automates {
		for _, dep := range a.Dependencies {
			if !ids[dep] {
				errs = append(errs, fmt.Sprintf(
					"automaton %s depends on unknown automaton %s", a.ID, dep))
			}
		}
	}
	return errs
}
