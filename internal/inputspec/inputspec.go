// Package inputspec reads the files that list the runs of batch and
// side-by-side modes.
//
// A file holds a list of runs, each naming its controller options:
//
//	runs:
//	  - name: short
//	    flags:
//	      sequence: "1 2 3"
//	  - name: compare-seeds
//	    flags:
//	      sequence: "1 1 2 3 5"
//	    left:
//	      seed: "1"
//	    right:
//	      seed: "2"
package inputspec

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nvandessel/farg/internal/sanitize"
	"gopkg.in/yaml.v3"
)

// ErrNoRuns is returned when a file parses but lists no runs.
var ErrNoRuns = errors.New("input spec lists no runs")

// Spec is one entry of an input spec file.
type Spec struct {
	Name string `yaml:"name"`

	// Flags are controller options for the run. In side-by-side mode they
	// are shared by both sides.
	Flags map[string]string `yaml:"flags,omitempty"`

	// Left and Right are the per-side options of a side-by-side entry.
	Left  map[string]string `yaml:"left,omitempty"`
	Right map[string]string `yaml:"right,omitempty"`
}

// HasPair reports whether the entry carries both sides of a comparison.
func (s Spec) HasPair() bool {
	return s.Left != nil && s.Right != nil
}

// Options returns the run's options layered over base. Neither map is
// modified.
func (s Spec) Options(base map[string]string) map[string]string {
	return merge(base, s.Flags)
}

// Pair returns the left and right options of a side-by-side entry, each
// being base, then Flags, then the side's own options.
func (s Spec) Pair(base map[string]string) (left, right map[string]string) {
	shared := merge(base, s.Flags)
	return merge(shared, s.Left), merge(shared, s.Right)
}

func merge(layers ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}

// Reader reads an input spec file into its ordered list of runs.
type Reader interface {
	ReadFile(path string) ([]Spec, error)
}

// YAMLReader reads input spec files written in YAML.
type YAMLReader struct{}

type file struct {
	Runs []Spec `yaml:"runs"`
}

// ReadFile parses path. Entries without a name are named by position
// ("run-1", "run-2", ...).
func (YAMLReader) ReadFile(path string) ([]Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input spec: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML input spec data.
func Parse(data []byte) ([]Spec, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing input spec: %w", err)
	}
	if len(f.Runs) == 0 {
		return nil, ErrNoRuns
	}

	// Names become stats file names; no two may share one, ignoring case.
	files := make(map[string]string, len(f.Runs))
	for i := range f.Runs {
		name := f.Runs[i].Name
		if name == "" {
			name = "run-" + strconv.Itoa(i+1)
			f.Runs[i].Name = name
		}
		stem := strings.ToLower(sanitize.FileName(name))
		if prev, ok := files[stem]; ok {
			if prev == name {
				return nil, fmt.Errorf("parsing input spec: duplicate run name %q", name)
			}
			return nil, fmt.Errorf("parsing input spec: run names %q and %q share the stats file name %q", prev, name, stem)
		}
		files[stem] = name
	}
	return f.Runs, nil
}
