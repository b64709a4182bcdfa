// Package geometry computes eye-openness metrics from facial landmarks.
package geometry

import (
	"errors"
	"math"
)

// EyePoints is the number of landmarks in an eye contour.
const EyePoints = 6

var (
	// ErrInvalidContour is returned when a contour does not have exactly six points.
	ErrInvalidContour = errors.New("geometry: eye contour must have 6 points")

	// ErrDegenerateContour is returned when the eye corners coincide.
	ErrDegenerateContour = errors.New("geometry: eye corners coincide")
)

// Point is a 2-D landmark coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Dist returns the Euclidean distance between two points.
func Dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// EyeContour is an ordered eye outline:
// outer corner, two upper-lid points, inner corner, two lower-lid points.
type EyeContour []Point

// Valid reports whether the contour has exactly six points.
func (c EyeContour) Valid() bool {
	return len(c) == EyePoints
}

// EyeAspectRatio returns (|p1-p5| + |p2-p4|) / (2 * |p0-p3|).
// Smaller values mean a more closed eye. Malformed contours yield 0 and an error.
func EyeAspectRatio(c EyeContour) (float64, error) {
	if !c.Valid() {
		return 0, ErrInvalidContour
	}

	width := Dist(c[0], c[3])
	if width == 0 {
		return 0, ErrDegenerateContour
	}

	a := Dist(c[1], c[5])
	b := Dist(c[2], c[4])
	return (a + b) / (2 * width), nil
}

// AverageRatio returns the mean eye aspect ratio of both eyes.
// ok is false if either contour is malformed.
func AverageRatio(left, right EyeContour) (avg float64, ok bool) {
	l, err := EyeAspectRatio(left)
	if err != nil {
		return 0, false
	}
	r, err := EyeAspectRatio(right)
	if err != nil {
		return 0, false
	}
	return (l + r) / 2, true
}

// SyntheticEye builds a contour of the given width whose aspect ratio is exactly ratio.
// The lower lid lies on the corner line and the upper lid is raised by ratio*width.
func SyntheticEye(originX, originY, width, ratio float64) EyeContour {
	h := ratio * width
	return EyeContour{
		Pt(originX, originY),
		Pt(originX+width/3, originY-h),
		Pt(originX+2*width/3, originY-h),
		Pt(originX+width, originY),
		Pt(originX+2*width/3, originY),
		Pt(originX+width/3, originY),
	}
}
