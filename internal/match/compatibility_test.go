package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShapeCompatibility_String(t *testing.T) {
	tests := []struct {
		compat   ShapeCompatibility
		expected string
	}{
		{ShapeIdentical, "identical"},
		{ShapeDepthShifted, "depth_shifted"},
		{ShapeIncompatible, "incompatible"},
		{ShapeCompatibility(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.compat.String(); got != tt.expected {
				t.Errorf("ShapeCompatibility.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestShapeCompatibility_Weight(t *testing.T) {
	assert.Less(t, ShapeIncompatible.Weight(), ShapeDepthShifted.Weight())
	assert.Less(t, ShapeDepthShifted.Weight(), ShapeIdentical.Weight())
	assert.Equal(t, 1.0, ShapeIdentical.Weight())
}

func TestScoreShape(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Shape
		expected ShapeCompatibility
	}{
		{"same top level", Shape{}, Shape{}, ShapeIdentical},
		{"same nested", Shape{Depth: 2}, Shape{Depth: 2}, ShapeIdentical},
		{"depth differs", Shape{Depth: 0}, Shape{Depth: 1}, ShapeDepthShifted},
		{"array vs object", Shape{Depth: 1, InArray: true}, Shape{Depth: 1}, ShapeIncompatible},
		{"both in arrays", Shape{Depth: 1, InArray: true}, Shape{Depth: 2, InArray: true}, ShapeDepthShifted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ScoreShape(tt.a, tt.b))
			assert.Equal(t, tt.expected, ScoreShape(tt.b, tt.a), "must be symmetric")
		})
	}
}
