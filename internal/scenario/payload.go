package scenario

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// buildValue produces the value written for (vu, iter). Values embed the
// run ID so a reader can tell whether what it got back was written by this
// run. asJSON switches to a JSON document (used when schema checking is on).
func buildValue(runID string, vu, iter, size int, asJSON bool) []byte {
	if asJSON {
		doc := map[string]interface{}{
			"run":  runID,
			"vu":   vu,
			"iter": iter,
			"pad":  padding(size),
		}
		data, _ := json.Marshal(doc)
		return data
	}
	head := fmt.Sprintf("run=%s;vu=%d;iter=%d;", runID, vu, iter)
	if len(head) >= size {
		return []byte(head)
	}
	return []byte(head + padding(size-len(head)))
}

// checkValue verifies that data is a well-formed value written by this run,
// without assuming which user or iteration wrote it.
func checkValue(runID string, data []byte, asJSON bool) error {
	if len(data) == 0 {
		return fmt.Errorf("empty value")
	}
	if asJSON {
		run := gjson.GetBytes(data, "run")
		if !run.Exists() {
			return fmt.Errorf("not a run document: %s", truncate(data, 64))
		}
		if run.String() != runID {
			return fmt.Errorf("value from foreign run %s", run.String())
		}
		return nil
	}
	if !strings.HasPrefix(string(data), "run="+runID+";") {
		return fmt.Errorf("unexpected value prefix: %s", truncate(data, 64))
	}
	return nil
}

func padding(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("x", n)
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
