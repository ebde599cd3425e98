package config

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// Defaults applied when keys are absent.
const (
	DefaultNumUsers     = 1
	DefaultDuration     = 10 * time.Second
	DefaultCycleTime    = time.Second
	DefaultIterations   = 20
	DefaultMonitorEvery = 5 * time.Second
)

// Load reads and parses a configuration file from disk.
func Load(path string) (*Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	return fromFile(f)
}

// Parse parses configuration data held in memory.
func Parse(data []byte) (*Config, error) {
	f, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return fromFile(f)
}

func fromFile(f *ini.File) (*Config, error) {
	cfg := &Config{file: f}

	main := f.Section("main")
	cfg.Main = MainConfig{
		Title:       main.Key("title").String(),
		Description: main.Key("description").String(),
		URL:         strings.TrimRight(main.Key("url").String(), "/"),
		Audience:    main.Key("audience").String(),
		NumUsers:    main.Key("num_users").MustInt(DefaultNumUsers),
	}
	if cfg.Main.Audience == "" {
		cfg.Main.Audience = cfg.Main.URL
	}

	for _, name := range f.SectionStrings() {
		if !strings.HasPrefix(name, "test_") {
			continue
		}
		sec := f.Section(name)
		cfg.Scenarios = append(cfg.Scenarios, &ScenarioConfig{
			Section:     name,
			Name:        strings.TrimPrefix(name, "test_"),
			Description: sec.Key("description").String(),
			Key:         sec.Key("key").String(),
			ValueSize:   sec.Key("value_size").MustInt(0),
			Iterations:  sec.Key("iterations").MustInt(DefaultIterations),
			CheckSchema: sec.Key("check_schema").String(),
		})
	}

	ftest := f.Section("ftest")
	cfg.FTest = FTestConfig{
		LogTo:      parseLogTo(ftest.Key("log_to").MustString("console")),
		LogPath:    ftest.Key("log_path").String(),
		ResultPath: ftest.Key("result_path").String(),
		SleepMin:   seconds(ftest, "sleep_time_min", 0),
		SleepMax:   seconds(ftest, "sleep_time_max", 0),
	}

	bench := f.Section("bench")
	cycles, err := ParseCycles(bench.Key("cycles").MustString("1"))
	if err != nil {
		return nil, fmt.Errorf("bench section: %w", err)
	}
	cfg.Bench = BenchConfig{
		Cycles:       cycles,
		Duration:     seconds(bench, "duration", DefaultDuration),
		StartupDelay: seconds(bench, "startup_delay", 0),
		SleepTime:    seconds(bench, "sleep_time", 0),
		CycleTime:    seconds(bench, "cycle_time", DefaultCycleTime),
		SleepMin:     seconds(bench, "sleep_time_min", 0),
		SleepMax:     seconds(bench, "sleep_time_max", 0),
		LogTo:        parseLogTo(bench.Key("log_to").MustString("console")),
		LogPath:      bench.Key("log_path").String(),
		ResultPath:   bench.Key("result_path").String(),
	}

	// Section() creates missing sections, so check presence first.
	hasMonitor := hasSection(f, "monitor")
	monitor := f.Section("monitor")
	cfg.Monitor = MonitorConfig{
		Enabled:  monitor.Key("enabled").MustBool(hasMonitor),
		Interval: seconds(monitor, "interval", DefaultMonitorEvery),
	}

	return cfg, nil
}

// WriteTo serializes the configuration back to INI text. Sections and keys
// the runner does not interpret are preserved verbatim.
func (c *Config) WriteTo(w io.Writer) (int64, error) {
	return c.file.WriteTo(w)
}

// Dump returns the serialized configuration as a string.
func (c *Config) Dump() (string, error) {
	var sb strings.Builder
	if _, err := c.WriteTo(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Scenario returns the scenario config for a full section name, or nil.
func (c *Config) Scenario(section string) *ScenarioConfig {
	for _, sc := range c.Scenarios {
		if sc.Section == section {
			return sc
		}
	}
	return nil
}

// TargetHost returns the host part of the target URL, for display.
func (c *Config) TargetHost() string {
	u, err := url.Parse(c.Main.URL)
	if err != nil {
		return c.Main.URL
	}
	return u.Host
}

// ParseCycles parses the colon-separated cycles grammar, e.g. "1:5:10".
// Each entry is the concurrent user count for one benchmark cycle.
func ParseCycles(s string) ([]int, error) {
	parts := strings.Split(s, ":")
	cycles := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid cycle count %q: %w", p, err)
		}
		cycles = append(cycles, n)
	}
	if len(cycles) == 0 {
		return nil, fmt.Errorf("cycles is empty")
	}
	return cycles, nil
}

// parseLogTo splits the space-separated log sink list ("console file").
func parseLogTo(s string) []string {
	return strings.Fields(s)
}

// seconds reads a key holding a duration expressed in seconds (floats are
// accepted, matching the configuration convention).
func seconds(sec *ini.Section, key string, def time.Duration) time.Duration {
	if !sec.HasKey(key) {
		return def
	}
	v, err := sec.Key(key).Float64()
	if err != nil {
		return def
	}
	return time.Duration(v * float64(time.Second))
}

func hasSection(f *ini.File, name string) bool {
	_, err := f.GetSection(name)
	return err == nil
}
