// Package runner executes scenarios against the target store, either as a
// functional test (one user, fixed iterations) or as a benchmark (cycles
// of concurrent users).
package runner

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// maxRecordedFailures bounds how many failure messages a run keeps; the
// counters in the metrics engine stay exact regardless.
const maxRecordedFailures = 20

// userIdentity returns the email-style identity for virtual user vu, drawn
// from a pool of numUsers distinct identities.
func userIdentity(vu, numUsers int) string {
	if numUsers < 1 {
		numUsers = 1
	}
	return fmt.Sprintf("user%d@example.com", vu%numUsers)
}

// sleepCtx sleeps for d unless ctx ends first.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// thinkTime picks the pause before the next iteration: uniform random in
// [min, max] when a range is configured, otherwise the fixed value.
func thinkTime(rng *rand.Rand, fixed, min, max time.Duration) time.Duration {
	if max > 0 && max >= min {
		if max == min {
			return min
		}
		return min + time.Duration(rng.Int63n(int64(max-min)))
	}
	return fixed
}

// failureList collects failure messages from concurrent virtual users,
// keeping at most a fixed number of them.
type failureList struct {
	mu    sync.Mutex
	items []string
	total int
	limit int
}

func newFailureList(limit int) *failureList {
	return &failureList{limit: limit}
}

func (f *failureList) add(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.total++
	if len(f.items) < f.limit {
		f.items = append(f.items, message)
	}
}

func (f *failureList) empty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total == 0
}

func (f *failureList) list() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.items))
	copy(out, f.items)
	if f.total > len(f.items) {
		out = append(out, fmt.Sprintf("(and %d more)", f.total-len(f.items)))
	}
	return out
}
