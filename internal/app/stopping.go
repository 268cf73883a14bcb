package app

import (
	"strings"

	"github.com/nvandessel/farg/internal/constants"
	"github.com/nvandessel/farg/internal/stopping"
)

// ResolveStoppingCondition checks that a stopping condition is legal in
// mode and binds it. Interactive mode rejects any non-empty name, even
// "none". Otherwise an empty name or "none" binds stopping.None.
func ResolveStoppingCondition(mode constants.RunMode, name string, table *stopping.Table) (stopping.Binding, error) {
	if mode == constants.RunModeInteractive {
		if name != "" {
			return stopping.Binding{}, configErrorf(
				"stopping condition %q does not make sense with %s mode", name, mode)
		}
		return stopping.Binding{Name: stopping.None}, nil
	}

	if stopping.IsNoneName(name) {
		return stopping.Binding{Name: stopping.None}, nil
	}

	fn, ok := table.Lookup(name)
	if !ok {
		return stopping.Binding{}, configErrorf(
			"unknown stopping condition %q, use one of: %s", name, strings.Join(table.Names(), ", "))
	}
	return stopping.Binding{Name: name, Condition: fn}, nil
}
