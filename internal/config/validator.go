package config

import (
	"net/url"
	"strings"
)

// ValidationError reports an invalid configuration value.
type ValidationError struct {
	Section string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "config: [" + e.Section + "] " + e.Field + ": " + e.Message
}

func invalid(section, field, message string) error {
	return &ValidationError{Section: section, Field: field, Message: message}
}

// Validate checks the configuration for values the runner cannot work with.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.Main.URL == "" {
		return invalid("main", "url", "target URL is required")
	}
	u, err := url.Parse(c.Main.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("main", "url", "not an absolute URL: "+c.Main.URL)
	}
	if c.Main.NumUsers < 1 {
		return invalid("main", "num_users", "must be >= 1")
	}

	if len(c.Scenarios) == 0 {
		return invalid("main", "", "no [test_*] scenario sections defined")
	}
	for _, sc := range c.Scenarios {
		if sc.ValueSize < 0 {
			return invalid(sc.Section, "value_size", "must be >= 0")
		}
		if sc.Iterations < 1 {
			return invalid(sc.Section, "iterations", "must be >= 1")
		}
	}

	if err := validateLogTo("ftest", c.FTest.LogTo, c.FTest.LogPath); err != nil {
		return err
	}
	if c.FTest.SleepMin < 0 || c.FTest.SleepMax < 0 {
		return invalid("ftest", "sleep_time_min", "sleep times must be >= 0")
	}
	if c.FTest.SleepMax > 0 && c.FTest.SleepMin > c.FTest.SleepMax {
		return invalid("ftest", "sleep_time_min", "must be <= sleep_time_max")
	}

	for _, n := range c.Bench.Cycles {
		if n < 1 {
			return invalid("bench", "cycles", "cycle user counts must be >= 1")
		}
	}
	if c.Bench.Duration <= 0 {
		return invalid("bench", "duration", "must be > 0")
	}
	if c.Bench.StartupDelay < 0 {
		return invalid("bench", "startup_delay", "must be >= 0")
	}
	if c.Bench.SleepTime < 0 {
		return invalid("bench", "sleep_time", "must be >= 0")
	}
	if c.Bench.CycleTime < 0 {
		return invalid("bench", "cycle_time", "must be >= 0")
	}
	if c.Bench.SleepMax > 0 && c.Bench.SleepMin > c.Bench.SleepMax {
		return invalid("bench", "sleep_time_min", "must be <= sleep_time_max")
	}
	if err := validateLogTo("bench", c.Bench.LogTo, c.Bench.LogPath); err != nil {
		return err
	}

	if c.Monitor.Enabled && c.Monitor.Interval <= 0 {
		return invalid("monitor", "interval", "must be > 0")
	}

	return nil
}

func validateLogTo(section string, sinks []string, logPath string) error {
	for _, s := range sinks {
		switch s {
		case "console", "file":
		default:
			return invalid(section, "log_to", "unknown sink "+s+" (want console or file)")
		}
		if s == "file" && logPath == "" {
			return invalid(section, "log_path", "required when log_to includes file")
		}
	}
	if len(sinks) != len(uniq(sinks)) {
		return invalid(section, "log_to", "duplicate sinks: "+strings.Join(sinks, " "))
	}
	return nil
}

func uniq(ss []string) []string {
	seen := make(map[string]struct{}, len(ss))
	out := ss[:0:0]
	for _, s := range ss {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
