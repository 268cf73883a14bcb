// Package constants provides named constants used throughout the farg codebase.
// This centralizes directory names and option defaults.
package constants

// Directory layout constants
const (
	// AppFamily names the per-user directory shared by every farg app:
	// <home>/.farg/<application-name>.
	AppFamily = "farg"

	// LTMSubdir is the directory under the persistent root holding LTM files.
	LTMSubdir = "ltm"

	// StatsSubdir is the directory under the persistent root holding batch statistics.
	StatsSubdir = "stats"

	// ConfigFileName is the optional YAML config file under <home>/.farg.
	ConfigFileName = "config.yaml"

	// LTMDatabaseName is the SQLite file inside the LTM directory.
	LTMDatabaseName = "ltm.db"

	// SnapshotSubdir is the directory under the LTM directory holding snapshots.
	SnapshotSubdir = "snapshots"

	// DefaultSnapshotsKept is how many snapshots "ltm backup" keeps.
	DefaultSnapshotsKept = 10
)

// Batch and side-by-side defaults
const (
	// DefaultNumIterations is how many times each input spec entry is run.
	DefaultNumIterations = 10

	// DefaultMaxSteps bounds the number of controller steps per run.
	DefaultMaxSteps = 1000
)

// NoStoppingCondition is the literal accepted as "no stopping condition".
// Matching is case-insensitive, so "None" also works.
const NoStoppingCondition = "none"
