package model

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// Location is a point on the integer dispatch grid.
type Location struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Loc is shorthand for Location{X: x, Y: y}.
func Loc(x, y int) Location { return Location{X: x, Y: y} }

// DistanceTo returns the Euclidean distance between l and other.
func (l Location) DistanceTo(other Location) float64 {
	return r2.Norm(r2.Sub(l.vec(), other.vec()))
}

func (l Location) vec() r2.Vec {
	return r2.Vec{X: float64(l.X), Y: float64(l.Y)}
}

// String renders the location as "(x, y)".
func (l Location) String() string {
	return fmt.Sprintf("(%d, %d)", l.X, l.Y)
}
