package constants

// RunMode selects one of the mutually exclusive top-level execution strategies.
type RunMode string

const (
	// RunModeInteractive drives the controller from an interactive display.
	RunModeInteractive RunMode = "interactive"

	// RunModeBatch runs every input spec entry non-interactively.
	RunModeBatch RunMode = "batch"

	// RunModeSideBySide runs two configurations per input spec entry and compares them.
	RunModeSideBySide RunMode = "side-by-side"

	// RunModeSingle runs once non-interactively.
	RunModeSingle RunMode = "single"
)

// RunModes lists every recognized mode in flag help order.
var RunModes = []RunMode{RunModeInteractive, RunModeBatch, RunModeSideBySide, RunModeSingle}

// runModeAliases maps older mode names to their current spelling.
var runModeAliases = map[string]RunMode{
	"gui": RunModeInteractive,
	"sxs": RunModeSideBySide,
}

// ParseRunMode normalizes a mode name, accepting the legacy "gui" and "sxs"
// spellings. The second result is false for unrecognized names.
func ParseRunMode(s string) (RunMode, bool) {
	if m, ok := runModeAliases[s]; ok {
		return m, true
	}
	m := RunMode(s)
	return m, m.Valid()
}

// Valid returns true if the mode is a recognized value.
func (m RunMode) Valid() bool {
	switch m {
	case RunModeInteractive, RunModeBatch, RunModeSideBySide, RunModeSingle:
		return true
	}
	return false
}

// NeedsInputSpec reports whether the mode reads an input spec file.
func (m RunMode) NeedsInputSpec() bool {
	return m == RunModeBatch || m == RunModeSideBySide
}

// String returns the string representation of the mode.
func (m RunMode) String() string {
	return string(m)
}
