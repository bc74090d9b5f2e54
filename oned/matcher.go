// Package oned implements run-length matchers and encoders for 1D
// barcode symbologies. Importing it (usually blank) registers every
// matcher with the grayscan registry.
package oned

import (
	"math"

	"github.com/emarkov/grayscan/scanline"
)

// patternVariance measures how closely a window of runs matches a
// pattern of module multiples. The unit width is derived from the
// window itself (total pixels / total modules), so each window is
// self-calibrating. The return value is total deviation divided by
// total pixels; +Inf when the window is narrower than the pattern or
// any single run deviates by more than maxIndividual module units.
//
// Only the first len(runs) entries of pattern are considered, which
// lets a 6-run window be held against Code 128's 7-element stop
// pattern the same way the full patterns are.
func patternVariance(runs []scanline.Run, pattern []int, maxIndividual float64) float64 {
	total := 0
	patternLength := 0
	for i, r := range runs {
		total += r.Width
		patternLength += pattern[i]
	}
	if total < patternLength {
		return math.Inf(1)
	}

	unit := float64(total) / float64(patternLength)
	maxIndividual *= unit

	variance := 0.0
	for i, r := range runs {
		scaled := float64(pattern[i]) * unit
		d := float64(r.Width) - scaled
		if d < 0 {
			d = -d
		}
		if d > maxIndividual {
			return math.Inf(1)
		}
		variance += d
	}
	return variance / float64(total)
}

// bestPattern returns the index of the pattern in table that matches
// the run window with the lowest variance below maxAvg, or -1.
func bestPattern(runs []scanline.Run, table [][]int, maxAvg, maxIndividual float64) (idx int, variance float64) {
	best := -1
	bestVar := maxAvg
	for i, pattern := range table {
		v := patternVariance(runs, pattern, maxIndividual)
		if v < bestVar {
			bestVar = v
			best = i
		}
	}
	return best, bestVar
}

// window returns runs[at:at+n] when it exists and starts with the
// requested polarity.
func window(runs []scanline.Run, at, n int, bar bool) ([]scanline.Run, bool) {
	if at < 0 || at+n > len(runs) {
		return nil, false
	}
	if runs[at].Bar != bar {
		return nil, false
	}
	return runs[at : at+n], true
}

// pixelWidth sums the pixel widths of a run window.
func pixelWidth(runs []scanline.Run) int {
	total := 0
	for _, r := range runs {
		total += r.Width
	}
	return total
}

// quietBefore reports whether the run preceding index at provides a
// quiet zone of at least minPixels light pixels. The start of the row
// never counts as quiet; a symbol must be preceded by actual white.
func quietBefore(runs []scanline.Run, at, minPixels int) bool {
	if at == 0 {
		return false
	}
	prev := runs[at-1]
	return !prev.Bar && prev.Width >= minPixels
}

// quietAfter reports whether the run following the window ending just
// before index at provides a quiet zone of at least minPixels, or the
// row simply ends there.
func quietAfter(runs []scanline.Run, at, minPixels int) bool {
	if at >= len(runs) {
		return true
	}
	next := runs[at]
	return !next.Bar && next.Width >= minPixels
}

// varianceTracker accumulates per-group variances to derive a
// confidence score for the finished symbol.
type varianceTracker struct {
	sum    float64
	groups int
}

func (v *varianceTracker) add(variance float64) {
	v.sum += variance
	v.groups++
}

// confidence maps accumulated variance to (0, 1]: a pixel-exact match
// scores 1.0 and noisier matches degrade toward zero.
func (v *varianceTracker) confidence() float32 {
	if v.groups == 0 {
		return 0
	}
	c := 1 - v.sum/float64(v.groups)
	if c < 0 {
		c = 0
	}
	return float32(c)
}
