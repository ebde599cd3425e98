package scenario_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvload/kvload/internal/config"
	"github.com/kvload/kvload/internal/kv"
	"github.com/kvload/kvload/internal/scenario"
)

// newStoreServer runs an in-memory Sauropod-style store without auth
// checks; the scenarios under test only exercise key operations.
func newStoreServer(t *testing.T) *httptest.Server {
	t.Helper()

	var mu sync.Mutex
	store := make(map[string][]byte)

	mux := http.NewServeMux()
	mux.HandleFunc("/session/start", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"session_id": "sess"}`)
	})
	mux.HandleFunc("/keys/", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/keys/")
		switch r.Method {
		case http.MethodGet:
			mu.Lock()
			value, ok := store[key]
			mu.Unlock()
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Write(value)
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			mu.Lock()
			store[key] = body
			mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		case http.MethodDelete:
			mu.Lock()
			_, ok := store[key]
			delete(store, key)
			mu.Unlock()
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFromConfig(t *testing.T) {
	scn, err := scenario.FromConfig("run1", &config.ScenarioConfig{Section: "test_write_read_seq"})
	require.NoError(t, err)
	assert.Equal(t, "write_read_seq", scn.Name())

	scn, err = scenario.FromConfig("run1", &config.ScenarioConfig{Section: "test_contention_for_single_key"})
	require.NoError(t, err)
	assert.Equal(t, "contention_for_single_key", scn.Name())

	_, err = scenario.FromConfig("run1", &config.ScenarioConfig{Section: "test_unknown"})
	assert.Error(t, err)
}

func TestWriteReadSeqIteration(t *testing.T) {
	srv := newStoreServer(t)
	c := kv.NewClient(srv.URL, "user0@example.com")

	scn, err := scenario.NewWriteReadSeq("run1", &config.ScenarioConfig{
		Section:     "test_write_read_seq",
		Description: "seq",
		ValueSize:   128,
	})
	require.NoError(t, err)
	require.NoError(t, scn.Setup(context.Background(), c))

	results, err := scn.Iteration(context.Background(), c, 2, 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, kv.OpPut, results[0].Op)
	assert.Equal(t, kv.OpGet, results[1].Op)
	assert.Contains(t, results[0].Key, "run1")

	require.NoError(t, scn.Teardown(context.Background(), c))
}

func TestWriteReadSeqDetectsCorruption(t *testing.T) {
	// A store that tampers with every value it returns.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			w.WriteHeader(http.StatusNoContent)
		case http.MethodGet:
			w.Write([]byte("garbage"))
		}
	}))
	defer srv.Close()

	c := kv.NewClient(srv.URL, "user0@example.com")
	scn, err := scenario.NewWriteReadSeq("run1", &config.ScenarioConfig{Section: "test_write_read_seq"})
	require.NoError(t, err)

	_, err = scn.Iteration(context.Background(), c, 0, 0)
	require.Error(t, err)

	var verr *scenario.VerificationError
	assert.ErrorAs(t, err, &verr)
}

func TestContentionIteration(t *testing.T) {
	srv := newStoreServer(t)
	c := kv.NewClient(srv.URL, "user0@example.com")

	scn, err := scenario.NewContention("run1", &config.ScenarioConfig{
		Section:     "test_contention_for_single_key",
		Description: "hot key",
	})
	require.NoError(t, err)
	require.NoError(t, scn.Setup(context.Background(), c))

	for iter := 0; iter < 3; iter++ {
		results, err := scn.Iteration(context.Background(), c, 0, iter)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, results[0].Key, results[1].Key, "all iterations share one key")
	}

	require.NoError(t, scn.Teardown(context.Background(), c))
	// Teardown twice: the second delete sees a missing key and is fine.
	require.NoError(t, scn.Teardown(context.Background(), c))
}

func TestContentionKeyOverride(t *testing.T) {
	srv := newStoreServer(t)
	c := kv.NewClient(srv.URL, "user0@example.com")

	scn, err := scenario.NewContention("run1", &config.ScenarioConfig{
		Section: "test_contention_for_single_key",
		Key:     "pinned",
	})
	require.NoError(t, err)
	require.NoError(t, scn.Setup(context.Background(), c))

	results, err := scn.Iteration(context.Background(), c, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "pinned", results[0].Key)
}

func TestSchemaValidation(t *testing.T) {
	srv := newStoreServer(t)
	c := kv.NewClient(srv.URL, "user0@example.com")

	schemaPath := filepath.Join(t.TempDir(), "value.schema.json")
	require.NoError(t, os.WriteFile(schemaPath, []byte(`{
		"type": "object",
		"required": ["run", "vu", "iter"]
	}`), 0644))

	scn, err := scenario.NewWriteReadSeq("run1", &config.ScenarioConfig{
		Section:     "test_write_read_seq",
		CheckSchema: schemaPath,
	})
	require.NoError(t, err)

	_, err = scn.Iteration(context.Background(), c, 0, 0)
	assert.NoError(t, err, "generated JSON values satisfy the schema")
}

func TestSchemaValidationFailure(t *testing.T) {
	srv := newStoreServer(t)
	c := kv.NewClient(srv.URL, "user0@example.com")

	schemaPath := filepath.Join(t.TempDir(), "value.schema.json")
	require.NoError(t, os.WriteFile(schemaPath, []byte(`{
		"type": "object",
		"required": ["nonexistent_field"]
	}`), 0644))

	scn, err := scenario.NewWriteReadSeq("run1", &config.ScenarioConfig{
		Section:     "test_write_read_seq",
		CheckSchema: schemaPath,
	})
	require.NoError(t, err)

	_, err = scn.Iteration(context.Background(), c, 0, 0)
	require.Error(t, err)

	var verr *scenario.VerificationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "schema")
}

func TestBadSchemaPath(t *testing.T) {
	_, err := scenario.NewWriteReadSeq("run1", &config.ScenarioConfig{
		Section:     "test_write_read_seq",
		CheckSchema: filepath.Join(t.TempDir(), "missing.json"),
	})
	assert.Error(t, err)
}
