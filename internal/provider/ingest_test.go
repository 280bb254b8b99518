package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument(t *testing.T) {
	data := []byte(`{
		"search_params": {"search_term": "pizza", "city": "Nashville", "state": "TN"},
		"config": {"search_term": "pizza", "grid_size": 3, "radius_miles": 5},
		"execution": {"successful": 2, "duration_seconds": 41.2},
		"target_business": {
			"name": "Joe's Pizza",
			"appearances": [0, 4],
			"ranks": [2, 1]
		},
		"raw_results": [
			{"point": {"lat": 36.1, "lng": -86.7, "grid_row": 0, "grid_col": 0}, "success": true, "results": [
				{"name": "Joe's Pizza", "rank": 2, "rating": 4.7}
			]},
			{"point": {"lat": 36.1, "lng": -86.6, "grid_row": 0, "grid_col": 1}, "success": false, "error": "timeout", "results": null}
		]
	}`)

	doc, err := ParseDocument(data)
	require.NoError(t, err)

	assert.Equal(t, "pizza", doc.SearchParams.SearchTerm)
	assert.Equal(t, 41.2, doc.Execution.DurationSeconds)
	require.NotNil(t, doc.TargetBusiness)
	assert.Equal(t, []int{0, 4}, doc.TargetBusiness.Appearances)

	require.Len(t, doc.RawResults, 2)
	assert.True(t, doc.RawResults[0].Success)
	assert.Equal(t, 2, doc.RawResults[0].Results[0].Rank)
	assert.False(t, doc.RawResults[1].Success)
	assert.Equal(t, "timeout", doc.RawResults[1].Error)
}

func TestParseDocument_DropsMalformedEntries(t *testing.T) {
	data := []byte(`{
		"raw_results": [
			{"point": {"grid_row": 0, "grid_col": 0}, "success": true, "results": []},
			{"success": true, "results": []},
			{"point": {"grid_row": 0, "grid_col": 1}, "success": true},
			"not an object",
			{"point": {"grid_row": 0, "grid_col": 2}, "success": false}
		]
	}`)

	doc, err := ParseDocument(data)
	require.NoError(t, err)

	// Kept: the well-formed success and the failure entry. Dropped: no
	// point, success without results, undecodable.
	require.Len(t, doc.RawResults, 2)
	assert.Equal(t, 0, doc.RawResults[0].Point.Col)
	assert.Equal(t, 2, doc.RawResults[1].Point.Col)
}

func TestParseDocument_DropsMismatchedTargetObservations(t *testing.T) {
	data := []byte(`{
		"target_business": {"name": "Joe's Pizza", "appearances": [0, 4], "ranks": [2]},
		"raw_results": []
	}`)

	doc, err := ParseDocument(data)
	require.NoError(t, err)
	assert.Nil(t, doc.TargetBusiness)
}

func TestParseDocument_InvalidJSON(t *testing.T) {
	_, err := ParseDocument([]byte("log line, not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode results document")
}
