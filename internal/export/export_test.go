package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/csheth/dailyfeed/internal/feed"
	"github.com/csheth/dailyfeed/internal/filter"
)

func sampleView() []filter.Entry {
	return []filter.Entry{
		{
			Paper: feed.Paper{
				ID: "2401.00001", Date: "2024-01-02", Title: "Robot Learning",
				Categories: []string{"cs.RO"}, Summary: "tl;dr",
				AI: feed.AIFields{TLDR: "tl;dr", Method: "RL"},
			},
			Matched: true,
			Reasons: []string{"keyword: robot"},
		},
		{Paper: feed.Paper{Date: "2024-01-01", Title: "Other", Categories: []string{"cs.AI"}, Summary: "s"}},
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "yaml", sampleView()))

	var got []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Robot Learning", got[0]["title"])
	assert.Equal(t, "RL", got[0]["method"])
	assert.Equal(t, true, got[0]["matched"])
	assert.Equal(t, []any{"keyword: robot"}, got[0]["reasons"])
	assert.NotContains(t, got[1], "reasons")
}

func TestWriteJSONKeepsOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "JSON", sampleView()))

	var got []Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Robot Learning", got[0].Title)
	assert.Equal(t, "Other", got[1].Title)
	assert.False(t, got[1].Matched)
}

func TestWriteRejectsUnknownFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, "csv", nil))
}
