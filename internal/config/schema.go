// Package config provides parsing and validation for kvload test
// configuration files.
//
// Configuration files use INI syntax: named [sections] of key=value pairs.
// A file describes the target store under [main], one scenario per
// [test_*] section, functional-test settings under [ftest], benchmark
// settings under [bench], and optional host sampling under [monitor].
//
// Example:
//
//	[main]
//	title = Sauropod load tests
//	url = http://localhost:8080
//	audience = http://localhost:8080
//	num_users = 10
//
//	[test_write_read_seq]
//	description = Sequential write/read of per-user keys.
//
//	[bench]
//	cycles = 1:5:10
//	duration = 30
//	startup_delay = 0.2
package config

import (
	"time"

	"gopkg.in/ini.v1"
)

// Config is the parsed representation of a kvload configuration file.
//
// The underlying INI file is retained so the configuration can be written
// back out without losing sections or keys the runner does not interpret.
type Config struct {
	// Main describes the test target and identity pool.
	Main MainConfig

	// Scenarios holds one entry per [test_*] section, in file order.
	Scenarios []*ScenarioConfig

	// FTest configures functional-test runs.
	FTest FTestConfig

	// Bench configures benchmark runs.
	Bench BenchConfig

	// Monitor configures host resource sampling during benchmarks.
	Monitor MonitorConfig

	file *ini.File
}

// MainConfig maps the [main] section.
type MainConfig struct {
	// Title of the test plan (used in reports).
	Title string

	// Description of the test plan (optional).
	Description string

	// URL is the base URL of the key/value store under test.
	URL string

	// Audience is the session audience passed to the store on login.
	// Defaults to the target URL when empty.
	Audience string

	// NumUsers is the size of the simulated user identity pool.
	NumUsers int
}

// ScenarioConfig maps a single [test_*] section.
type ScenarioConfig struct {
	// Section is the full section name, e.g. "test_write_read_seq".
	Section string

	// Name is the section name without the "test_" prefix.
	Name string

	// Description of the scenario.
	Description string

	// Key overrides the scenario's default key (contention scenario).
	Key string

	// ValueSize is the stored value size in bytes (0 means scenario default).
	ValueSize int

	// Iterations is the iteration count for functional-test runs.
	Iterations int

	// CheckSchema is a path to a JSON Schema file. When set, values are
	// written as JSON documents and read-backs are validated against the
	// schema in functional-test runs.
	CheckSchema string
}

// FTestConfig maps the [ftest] section.
type FTestConfig struct {
	// LogTo lists log sinks: "console", "file", or both.
	LogTo []string

	// LogPath is the log file path (required when LogTo includes "file").
	LogPath string

	// ResultPath is where the result document is written (empty disables it).
	ResultPath string

	// SleepMin and SleepMax bound the random think time between requests.
	SleepMin time.Duration
	SleepMax time.Duration
}

// BenchConfig maps the [bench] section.
type BenchConfig struct {
	// Cycles is the list of concurrent user counts, one benchmark cycle
	// per entry, parsed from the colon-separated "cycles" key.
	Cycles []int

	// Duration is how long each cycle runs.
	Duration time.Duration

	// StartupDelay is the stagger between virtual user starts.
	StartupDelay time.Duration

	// SleepTime is the fixed think time between iterations. Ignored when
	// SleepMin/SleepMax define a random range.
	SleepTime time.Duration

	// CycleTime is the pause between cycles.
	CycleTime time.Duration

	// SleepMin and SleepMax bound the random think time between iterations.
	SleepMin time.Duration
	SleepMax time.Duration

	// LogTo, LogPath and ResultPath mirror the ftest keys.
	LogTo      []string
	LogPath    string
	ResultPath string
}

// MonitorConfig maps the optional [monitor] section.
type MonitorConfig struct {
	// Enabled turns host sampling on during benchmark cycles.
	Enabled bool

	// Interval between samples.
	Interval time.Duration
}
