package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rankgrid/internal/model"
)

func TestBuildGridPreview(t *testing.T) {
	out, err := buildGridPreview(36.17, -86.78, 5, 3)
	require.NoError(t, err)

	assert.Len(t, out.Points, 9)
	assert.Equal(t, 5.0, out.RadiusMiles)
	assert.Equal(t, 12, out.ZoomLevel)
	assert.Greater(t, out.North, out.South)
	assert.Greater(t, out.East, out.West)
}

func TestBuildGridPreview_ClampsRadius(t *testing.T) {
	// The preview caps the radius the same way a real run does.
	out, err := buildGridPreview(36.17, -86.78, 100, 3)
	require.NoError(t, err)

	assert.Equal(t, model.MaxRadiusMiles, out.RadiusMiles)
	assert.Equal(t, model.MaxRadiusMiles*2*model.MaxRadiusMiles*2, out.CoverageArea)
}

func TestBuildGridPreview_InvalidInput(t *testing.T) {
	_, err := buildGridPreview(36.17, -86.78, 5, 0)
	assert.Error(t, err)
}
