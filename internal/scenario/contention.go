package scenario

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/kvload/kvload/internal/config"
	"github.com/kvload/kvload/internal/kv"
)

// Contention hammers one shared key from every virtual user: each iteration
// overwrites the key and reads it back. The read cannot expect its own
// write under concurrency; it verifies that whatever came back is a
// well-formed value written by this run.
type Contention struct {
	runID       string
	description string
	key         string
	valueSize   int
	schema      *jsonschema.Schema
}

// NewContention builds the scenario for the
// [test_contention_for_single_key] section.
func NewContention(runID string, cfg *config.ScenarioConfig) (Scenario, error) {
	s := &Contention{
		runID:       runID,
		description: cfg.Description,
		key:         cfg.Key,
		valueSize:   cfg.ValueSize,
	}
	if s.key == "" {
		s.key = "hot-" + runID
	}
	if s.valueSize == 0 {
		s.valueSize = defaultValueSize
	}
	if cfg.CheckSchema != "" {
		schema, err := jsonschema.Compile(cfg.CheckSchema)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: compiling schema: %w", cfg.Section, err)
		}
		s.schema = schema
	}
	return s, nil
}

func (s *Contention) Name() string        { return "contention_for_single_key" }
func (s *Contention) Description() string { return s.description }

// Setup seeds the shared key so the first readers never see a miss.
func (s *Contention) Setup(ctx context.Context, c *kv.Client) error {
	_, err := c.Put(ctx, s.key, buildValue(s.runID, 0, 0, s.valueSize, s.schema != nil))
	return err
}

func (s *Contention) Iteration(ctx context.Context, c *kv.Client, vu, iter int) ([]kv.Result, error) {
	value := buildValue(s.runID, vu, iter, s.valueSize, s.schema != nil)
	results := make([]kv.Result, 0, 2)

	putRes, err := c.Put(ctx, s.key, value)
	results = append(results, putRes)
	if err != nil {
		return results, fmt.Errorf("put %s: %w", s.key, err)
	}

	getRes, err := c.Get(ctx, s.key)
	results = append(results, getRes)
	if err != nil {
		return results, fmt.Errorf("get %s: %w", s.key, err)
	}

	if err := checkValue(s.runID, getRes.Value, s.schema != nil); err != nil {
		return results, &VerificationError{Key: s.key, Reason: err.Error()}
	}
	if s.schema != nil {
		var doc interface{}
		if err := json.Unmarshal(getRes.Value, &doc); err != nil {
			return results, &VerificationError{Key: s.key, Reason: "stored value is not JSON: " + err.Error()}
		}
		if err := s.schema.Validate(doc); err != nil {
			return results, &VerificationError{Key: s.key, Reason: "schema: " + err.Error()}
		}
	}
	return results, nil
}

// Teardown removes the shared key.
func (s *Contention) Teardown(ctx context.Context, c *kv.Client) error {
	_, err := c.Delete(ctx, s.key)
	if err == kv.ErrKeyNotFound {
		return nil
	}
	return err
}

var _ Scenario = (*Contention)(nil)
