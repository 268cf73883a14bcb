// Package stopping holds the named stopping conditions an app registers
// for non-interactive runs.
package stopping

import (
	"sort"
	"strings"

	"github.com/nvandessel/farg/internal/constants"
	"github.com/nvandessel/farg/internal/controller"
)

// None is the name bound when no stopping condition is in effect.
const None = ""

// Binding is a resolved stopping condition. The zero value is the explicit
// "no stopping condition" binding.
type Binding struct {
	Name      string
	Condition controller.StopFunc
}

// IsNone reports whether b stops nothing.
func (b Binding) IsNone() bool {
	return b.Name == None && b.Condition == nil
}

// IsNoneName reports whether name selects no stopping condition: it is
// empty or "none" in any case.
func IsNoneName(name string) bool {
	return name == None || strings.EqualFold(name, constants.NoStoppingCondition)
}

// Table maps names to stopping conditions. It is not modified after
// construction and is safe for concurrent reads.
type Table struct {
	conditions map[string]controller.StopFunc
	names      []string
}

// NewTable builds a table from conditions. The map is copied; nil
// conditions and names that select no condition are skipped.
func NewTable(conditions map[string]controller.StopFunc) *Table {
	t := &Table{conditions: make(map[string]controller.StopFunc, len(conditions))}
	for name, fn := range conditions {
		if fn == nil || IsNoneName(name) {
			continue
		}
		t.conditions[name] = fn
		t.names = append(t.names, name)
	}
	sort.Strings(t.names)
	return t
}

// Names returns the registered names in sorted order.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Lookup returns the condition registered under name.
func (t *Table) Lookup(name string) (controller.StopFunc, bool) {
	if t == nil {
		return nil, false
	}
	fn, ok := t.conditions[name]
	return fn, ok
}

// Len returns the number of registered conditions.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

// Defaults returns the conditions every coderack-based app can use.
func Defaults() map[string]controller.StopFunc {
	return map[string]controller.StopFunc{
		"coderack_empty": func(c controller.Controller) bool {
			return c.Status().Pending == 0
		},
		"halted": func(c controller.Controller) bool {
			return c.Status().Halted
		},
	}
}
