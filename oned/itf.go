package oned

import (
	"fmt"
	"strings"

	grayscan "github.com/emarkov/grayscan"
	"github.com/emarkov/grayscan/scanline"
)

// ITF encodes digit pairs: the first digit of each pair lives in the
// five bars, the second in the five interleaved spaces.

const (
	itfMaxAvgVariance          = 0.38
	itfMaxIndividualVariance2x = 0.5
	itfMaxIndividualVariance3x = 0.75

	// Quiet zones are 10 narrow line widths on both sides.
	itfQuietNarrowLines = 10
)

// itfPatterns holds narrow/wide widths for digits 0-9, once with wide
// ratio 2 (indices 0-9) and once with ratio 3 (indices 10-19).
var itfPatterns = [20][5]int{
	{1, 1, 2, 2, 1}, // 0 (2x)
	{2, 1, 1, 1, 2}, // 1
	{1, 2, 1, 1, 2}, // 2
	{2, 2, 1, 1, 1}, // 3
	{1, 1, 2, 1, 2}, // 4
	{2, 1, 2, 1, 1}, // 5
	{1, 2, 2, 1, 1}, // 6
	{1, 1, 1, 2, 2}, // 7
	{2, 1, 1, 2, 1}, // 8
	{1, 2, 1, 2, 1}, // 9
	{1, 1, 3, 3, 1}, // 0 (3x)
	{3, 1, 1, 1, 3}, // 1
	{1, 3, 1, 1, 3}, // 2
	{3, 3, 1, 1, 1}, // 3
	{1, 1, 3, 1, 3}, // 4
	{3, 1, 3, 1, 1}, // 5
	{1, 3, 3, 1, 1}, // 6
	{1, 1, 1, 3, 3}, // 7
	{3, 1, 1, 3, 1}, // 8
	{1, 3, 1, 3, 1}, // 9
}

var (
	itfStartPattern = []int{1, 1, 1, 1}
	itfEndPatterns  = [2][]int{
		{3, 1, 1},
		{2, 1, 1},
	}
)

// itfAllowedLengths are the standard ITF payload lengths; anything
// longer than the largest is also accepted.
var itfAllowedLengths = []int{6, 8, 10, 12, 14}

// itfMatcher decodes ITF (Interleaved 2 of 5) symbols. ITF carries no
// mandatory checksum, so decoded symbols always report ChecksumOK.
type itfMatcher struct{}

func newITFMatcher(*grayscan.DecodeOptions) grayscan.RunMatcher {
	return itfMatcher{}
}

func (itfMatcher) Format() grayscan.Format { return grayscan.FormatITF }

func (m itfMatcher) MatchRuns(rowNumber int, runs []scanline.Run, opts *grayscan.DecodeOptions) (*grayscan.DecodedSymbol, error) {
	// Start guard, one digit pair, end guard: 4+10+3 runs.
	if len(runs) < 17 {
		return nil, grayscan.ErrNoSignal
	}
	var track varianceTracker

	start := findITFStart(runs, &track)
	if start < 0 {
		return nil, grayscan.ErrNoGuard
	}
	narrow := pixelWidth(runs[start:start+4]) / 4
	if narrow < 1 {
		narrow = 1
	}

	end := findITFEnd(runs, start+4, narrow, &track)
	if end < 0 {
		return nil, grayscan.ErrEndGuard
	}

	var result strings.Builder
	var bars, spaces [5]scanline.Run
	for idx := start + 4; idx < end; idx += 10 {
		w, ok := window(runs, idx, 10, true)
		if !ok || idx+10 > end {
			return nil, grayscan.ErrDigitDecode
		}
		for k := 0; k < 5; k++ {
			bars[k] = w[2*k]
			spaces[k] = w[2*k+1]
		}
		d1, v1 := decodeITFDigit(bars[:])
		if d1 < 0 {
			return nil, grayscan.ErrDigitDecode
		}
		d2, v2 := decodeITFDigit(spaces[:])
		if d2 < 0 {
			return nil, grayscan.ErrDigitDecode
		}
		track.add(v1)
		track.add(v2)
		result.WriteByte('0' + byte(d1))
		result.WriteByte('0' + byte(d2))
	}

	text := result.String()
	if !itfLengthAllowed(len(text)) {
		return nil, grayscan.ErrFormat
	}

	return &grayscan.DecodedSymbol{
		Format:     grayscan.FormatITF,
		Text:       text,
		ChecksumOK: true,
		Row:        rowNumber,
		Confidence: track.confidence(),
	}, nil
}

// findITFStart locates the narrow 1:1:1:1 start guard with a quiet
// zone of 10 narrow line widths before it.
func findITFStart(runs []scanline.Run, track *varianceTracker) int {
	for i := 0; i+4 <= len(runs); i++ {
		if !runs[i].Bar {
			continue
		}
		w := runs[i : i+4]
		v := patternVariance(w, itfStartPattern, itfMaxIndividualVariance2x)
		if v >= itfMaxAvgVariance {
			continue
		}
		narrow := pixelWidth(w) / 4
		if narrow < 1 {
			narrow = 1
		}
		if !quietBefore(runs, i, itfQuietNarrowLines*narrow) {
			continue
		}
		track.add(v)
		return i
	}
	return -1
}

// findITFEnd scans from the right for the wide-narrow-narrow end guard
// (3:1:1, or 2:1:1 for narrow symbols) followed by a quiet zone.
func findITFEnd(runs []scanline.Run, after, narrow int, track *varianceTracker) int {
	for i := len(runs) - 3; i >= after; i-- {
		if !runs[i].Bar {
			continue
		}
		w := runs[i : i+3]
		matched := false
		var v float64
		for _, pattern := range itfEndPatterns {
			v = patternVariance(w, pattern, itfMaxIndividualVariance2x)
			if v < itfMaxAvgVariance {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		if !quietAfter(runs, i+3, itfQuietNarrowLines*narrow) {
			continue
		}
		track.add(v)
		return i
	}
	return -1
}

// decodeITFDigit matches five widths against both the 2x and 3x digit
// tables, rejecting ambiguous ties.
func decodeITFDigit(runs []scanline.Run) (digit int, variance float64) {
	bestVariance := itfMaxAvgVariance
	best := -1
	for i := 0; i < 20; i++ {
		maxInd := itfMaxIndividualVariance2x
		if i > 9 {
			maxInd = itfMaxIndividualVariance3x
		}
		v := patternVariance(runs, itfPatterns[i][:], maxInd)
		if v < bestVariance {
			bestVariance = v
			best = i
		} else if v == bestVariance {
			best = -1
		}
	}
	if best < 0 {
		return -1, 0
	}
	return best % 10, bestVariance
}

func itfLengthAllowed(n int) bool {
	maxAllowed := 0
	for _, length := range itfAllowedLengths {
		if n == length {
			return true
		}
		if length > maxAllowed {
			maxAllowed = length
		}
	}
	return n > maxAllowed
}

// EncodeITF encodes an even number of digits into an ITF module
// pattern with wide ratio 3.
func EncodeITF(contents string) ([]bool, error) {
	for i := 0; i < len(contents); i++ {
		if contents[i] < '0' || contents[i] > '9' {
			return nil, fmt.Errorf("%w: non-digit character %q", grayscan.ErrFormat, contents[i])
		}
	}
	if len(contents)%2 != 0 {
		return nil, fmt.Errorf("%w: ITF needs an even number of digits, got %d", grayscan.ErrFormat, len(contents))
	}

	totalWidth := 4 + 5 // start + end guards
	for i := 0; i < len(contents); i += 2 {
		d1 := contents[i] - '0' + 10
		d2 := contents[i+1] - '0' + 10
		for j := 0; j < 5; j++ {
			totalWidth += itfPatterns[d1][j] + itfPatterns[d2][j]
		}
	}

	result := make([]bool, totalWidth)
	pos := appendPattern(result, 0, itfStartPattern, true)

	var encoding [10]int
	for i := 0; i < len(contents); i += 2 {
		d1 := contents[i] - '0' + 10
		d2 := contents[i+1] - '0' + 10
		for j := 0; j < 5; j++ {
			encoding[2*j] = itfPatterns[d1][j]
			encoding[2*j+1] = itfPatterns[d2][j]
		}
		pos += appendPattern(result, pos, encoding[:], true)
	}
	appendPattern(result, pos, itfEndPatterns[0], true)
	return result, nil
}
