package scenario

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildValueText(t *testing.T) {
	v := buildValue("run1", 3, 7, 64, false)
	assert.Len(t, v, 64)
	assert.NoError(t, checkValue("run1", v, false))
	assert.Error(t, checkValue("run2", v, false), "foreign run must be detected")
}

func TestBuildValueShorterThanHeader(t *testing.T) {
	v := buildValue("run1", 0, 0, 1, false)
	assert.NoError(t, checkValue("run1", v, false), "header is kept even when size is tiny")
}

func TestBuildValueJSON(t *testing.T) {
	v := buildValue("run1", 3, 7, 64, true)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(v, &doc))
	assert.Equal(t, "run1", doc["run"])
	assert.Equal(t, float64(3), doc["vu"])
	assert.Equal(t, float64(7), doc["iter"])

	assert.NoError(t, checkValue("run1", v, true))
	assert.Error(t, checkValue("other", v, true))
}

func TestCheckValueRejectsGarbage(t *testing.T) {
	assert.Error(t, checkValue("run1", nil, false))
	assert.Error(t, checkValue("run1", []byte("junk"), false))
	assert.Error(t, checkValue("run1", []byte("junk"), true))
}
