package match

import "schema-atlas/internal/common"

// Shape is the structural position of a field inside its schema.
type Shape struct {
	Depth   int  // Container nesting depth, 0 for top-level properties
	InArray bool // True if any enclosing container is an array
}

// ShapeCompatibility describes how well two matched fields agree structurally.
type ShapeCompatibility int

const (
	// ShapeIncompatible means one field lives inside an array and the other does not.
	ShapeIncompatible ShapeCompatibility = iota
	// ShapeDepthShifted means the container kind agrees but the nesting depth differs.
	ShapeDepthShifted
	// ShapeIdentical means depth and container kind agree.
	ShapeIdentical
)

const (
	VerdictIncompatible  = "incompatible"
	VerdictDepthShifted  = "depth_shifted"
	VerdictShapeIdentity = "identical"
)

// String returns a human-readable name for the compatibility level.
func (c ShapeCompatibility) String() string {
	switch c {
	case ShapeIdentical:
		return VerdictShapeIdentity
	case ShapeDepthShifted:
		return VerdictDepthShifted
	case ShapeIncompatible:
		return VerdictIncompatible
	default:
		return common.UnknownStr
	}
}

// Weight returns the contribution of this level to the structural bonus, in [0,1].
func (c ShapeCompatibility) Weight() float64 {
	switch c {
	case ShapeIdentical:
		return 1.0
	case ShapeDepthShifted:
		return 0.5
	default:
		return 0.0
	}
}

// ScoreShape compares the structural positions of two fields. It is symmetric.
func ScoreShape(a, b Shape) ShapeCompatibility {
	if a.InArray != b.InArray {
		return ShapeIncompatible
	}

	if a.Depth != b.Depth {
		return ShapeDepthShifted
	}

	return ShapeIdentical
}
