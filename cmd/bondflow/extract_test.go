package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jqliu/bondflow/internal/pattern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldSpecs(t *testing.T) {
	fields := parseFieldSpecs([]string{
		"股票代码",
		"isin=ISIN[：:]\\s*([A-Z0-9]{12})",
		"weird=a=b", // only the first '=' splits
	})

	require.Len(t, fields, 3)
	assert.Equal(t, pattern.Field{Key: "股票代码"}, fields[0])
	assert.Equal(t, pattern.Field{Key: "isin", Pattern: "ISIN[：:]\\s*([A-Z0-9]{12})"}, fields[1])
	assert.Equal(t, pattern.Field{Key: "weird", Pattern: "a=b"}, fields[2])
}

func TestWriteJSONResults(t *testing.T) {
	results := []pattern.Match{
		{Key: "股票代码", Values: []string{"600900.SH"}},
		{Key: "换股期限", Values: []string{"2023-06-02", "2027-06-01"}},
		{Key: "基金代码", Values: nil},
		{Key: "broken", Err: errors.New("invalid pattern")},
	}

	var buf bytes.Buffer
	require.NoError(t, writeJSONResults(&buf, results))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, "600900.SH", out["股票代码"])
	assert.Equal(t, []any{"2023-06-02", "2027-06-01"}, out["换股期限"])
	assert.Equal(t, "", out["基金代码"])
	assert.Equal(t, "", out["broken"], "fields with a bad pattern emit an empty value")
}
