package stopping

import (
	"context"
	"reflect"
	"testing"

	"github.com/nvandessel/farg/internal/controller"
)

type fakeController struct {
	status controller.Status
}

func (f *fakeController) Step(context.Context) error { return nil }
func (f *fakeController) Status() controller.Status  { return f.status }
func (f *fakeController) Close() error               { return nil }

func TestIsNoneName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"", true},
		{"none", true},
		{"None", true},
		{"NONE", true},
		{"nothing", false},
		{"coderack_empty", false},
	}

	for _, tt := range tests {
		if got := IsNoneName(tt.name); got != tt.want {
			t.Errorf("IsNoneName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestBinding_IsNone(t *testing.T) {
	var zero Binding
	if !zero.IsNone() {
		t.Error("zero Binding should be none")
	}

	b := Binding{Name: "halted", Condition: func(controller.Controller) bool { return true }}
	if b.IsNone() {
		t.Error("bound condition reported as none")
	}
}

func TestNewTable_NamesSorted(t *testing.T) {
	always := func(controller.Controller) bool { return true }
	table := NewTable(map[string]controller.StopFunc{
		"zeta":  always,
		"alpha": always,
		"mid":   always,
		"none":  always,
		"nil":   nil,
	})

	want := []string{"alpha", "mid", "zeta"}
	if got := table.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if table.Len() != 3 {
		t.Errorf("Len() = %d, want 3", table.Len())
	}
}

func TestNewTable_CopiesInput(t *testing.T) {
	always := func(controller.Controller) bool { return true }
	input := map[string]controller.StopFunc{"a": always}
	table := NewTable(input)

	input["b"] = always
	if _, ok := table.Lookup("b"); ok {
		t.Error("table changed after input map was modified")
	}

	names := table.Names()
	names[0] = "changed"
	if table.Names()[0] != "a" {
		t.Error("Names() exposes internal slice")
	}
}

func TestTable_Lookup(t *testing.T) {
	table := NewTable(Defaults())

	if _, ok := table.Lookup("coderack_empty"); !ok {
		t.Error("coderack_empty not registered")
	}
	if _, ok := table.Lookup("unknown"); ok {
		t.Error("Lookup found unregistered name")
	}
}

func TestTable_NilSafe(t *testing.T) {
	var table *Table
	if table.Names() != nil || table.Len() != 0 {
		t.Error("nil table should be empty")
	}
	if _, ok := table.Lookup("halted"); ok {
		t.Error("nil table found a condition")
	}
}

func TestDefaults(t *testing.T) {
	defaults := Defaults()

	tests := []struct {
		condition string
		status    controller.Status
		want      bool
	}{
		{"coderack_empty", controller.Status{Pending: 0}, true},
		{"coderack_empty", controller.Status{Pending: 3}, false},
		{"halted", controller.Status{Halted: true}, true},
		{"halted", controller.Status{}, false},
	}

	for _, tt := range tests {
		fn := defaults[tt.condition]
		if fn == nil {
			t.Fatalf("default %q missing", tt.condition)
		}
		if got := fn(&fakeController{status: tt.status}); got != tt.want {
			t.Errorf("%s(%+v) = %v, want %v", tt.condition, tt.status, got, tt.want)
		}
	}
}
