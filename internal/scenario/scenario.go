// Package scenario defines the test scenarios the runner can execute
// against a key/value store.
//
// Each [test_*] section of a configuration file names a scenario. A
// scenario describes what one virtual user does in one iteration; the
// runner decides how many users run it, for how long, and with what think
// time.
package scenario

import (
	"context"
	"fmt"

	"github.com/kvload/kvload/internal/config"
	"github.com/kvload/kvload/internal/kv"
)

// Scenario is one test case against the store.
//
// Iteration must be safe for concurrent calls with distinct vu numbers:
// the benchmark runner calls it from every virtual user goroutine.
type Scenario interface {
	// Name is the short scenario name ("write_read_seq").
	Name() string

	// Description is the operator-facing description from the config.
	Description() string

	// Setup runs once before any iterations, with a logged-in client.
	Setup(ctx context.Context, c *kv.Client) error

	// Iteration performs one pass for virtual user vu. It returns every
	// store operation performed, including failed ones, so the caller can
	// record latencies.
	Iteration(ctx context.Context, c *kv.Client, vu, iter int) ([]kv.Result, error)

	// Teardown runs once after all iterations.
	Teardown(ctx context.Context, c *kv.Client) error
}

// Factory builds a scenario from its config section. runID scopes the keys
// the scenario touches so concurrent runs do not collide.
type Factory func(runID string, cfg *config.ScenarioConfig) (Scenario, error)

var registry = map[string]Factory{
	"test_write_read_seq":            NewWriteReadSeq,
	"test_contention_for_single_key": NewContention,
}

// FromConfig resolves a [test_*] section to a scenario instance.
func FromConfig(runID string, cfg *config.ScenarioConfig) (Scenario, error) {
	factory, ok := registry[cfg.Section]
	if !ok {
		return nil, fmt.Errorf("scenario: no implementation for section [%s]", cfg.Section)
	}
	return factory(runID, cfg)
}

// VerificationError reports a value that did not read back as written.
type VerificationError struct {
	Key    string
	Reason string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("scenario: verification failed for key %q: %s", e.Key, e.Reason)
}
