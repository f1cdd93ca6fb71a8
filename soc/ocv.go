package soc

import (
	"sort"
)

// Anchor is a single open-circuit voltage point of a discharge curve.
type Anchor struct {
	CellVoltage float64
	Percent     float64
}

// Curve is a piecewise linear OCV table ordered by strictly decreasing voltage.
type Curve []Anchor

// LiPoCurve is the resting voltage curve of a single lithium polymer cell.
var LiPoCurve = Curve{
	{4.20, 100},
	{4.15, 95},
	{4.11, 90},
	{4.08, 85},
	{4.02, 80},
	{3.98, 75},
	{3.95, 70},
	{3.91, 65},
	{3.87, 60},
	{3.85, 55},
	{3.84, 50},
	{3.82, 45},
	{3.80, 40},
	{3.79, 35},
	{3.77, 30},
	{3.75, 25},
	{3.73, 20},
	{3.71, 15},
	{3.69, 10},
	{3.61, 5},
	{3.30, 0},
}

// Lookup returns the state of charge for a per-cell voltage.
func (c Curve) Lookup(v float64) float64 {
	if len(c) == 0 {
		return 0
	}
	if v >= c[0].CellVoltage {
		return c[0].Percent
	}
	// first anchor at or below v
	i := sort.Search(len(c), func(i int) bool {
		return c[i].CellVoltage <= v
	})
	if i == len(c) {
		return 0
	}
	high, low := c[i-1], c[i]
	return low.Percent + (v-low.CellVoltage)/(high.CellVoltage-low.CellVoltage)*(high.Percent-low.Percent)
}

// CellCount infers how many cells in series make up a pack from its voltage.
func CellCount(voltage float64) int {
	switch {
	case voltage >= 10.0:
		return 3
	case voltage >= 6.0:
		return 2
	default:
		return 1
	}
}
