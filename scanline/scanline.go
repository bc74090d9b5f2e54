// Package scanline turns a row of grayscale pixels into a sequence of
// bar/space runs. It is the hot path of the decoding engine: every
// function writes into caller-provided storage (see Buffers) and
// allocates only when that storage needs to grow.
package scanline

// Run is a maximal sequence of same-polarity pixels on a scanline.
// Consecutive runs strictly alternate polarity.
type Run struct {
	// Width is the run length in pixels.
	Width int

	// Bar is true for dark (bar) runs, false for light (space) runs.
	Bar bool
}

// Threshold computes a global threshold for a row as the average of the
// row mean and the min/max midpoint. ok is false when the row has no
// contrast at all (min == max), in which case no runs are recoverable.
func Threshold(row []byte) (t byte, ok bool) {
	if len(row) == 0 {
		return 0, false
	}
	minV := byte(0xFF)
	maxV := byte(0)
	var sum uint64
	for _, v := range row {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
		sum += uint64(v)
	}
	if minV == maxV {
		return 0, false
	}
	mean := byte(sum / uint64(len(row)))
	mid := byte((uint16(minV) + uint16(maxV)) / 2)
	return byte((uint16(mean) + uint16(mid)) / 2), true
}

// BinarizeGlobal classifies each pixel against a single row-wide
// threshold. dst is reused when large enough. ok is false when the row
// has no contrast.
func BinarizeGlobal(row []byte, dst []bool) (bits []bool, ok bool) {
	t, ok := Threshold(row)
	if !ok {
		return nil, false
	}
	bits = grow(dst, len(row))
	for i, v := range row {
		bits[i] = v < t
	}
	return bits, true
}

const (
	adaptiveMinWindow = 8
	adaptiveMaxWindow = 64
	adaptiveBias      = 5
)

// BinarizeAdaptive classifies each pixel against the mean of a sliding
// window (half-width between 8 and 64 pixels, derived from the row
// length), shifted by a small bias toward white. The local window makes
// the result stable under monotonic brightness drift across the row.
// prefix and dst are reused when large enough.
func BinarizeAdaptive(row []byte, prefix []uint32, dst []bool) (bits []bool, prefixOut []uint32) {
	n := len(row)
	if n == 0 {
		return dst[:0], prefix
	}

	win := n / 32
	if win < adaptiveMinWindow {
		win = adaptiveMinWindow
	}
	if win > adaptiveMaxWindow {
		win = adaptiveMaxWindow
	}

	prefix = growU32(prefix, n+1)
	prefix[0] = 0
	for i, v := range row {
		prefix[i+1] = prefix[i] + uint32(v)
	}

	bits = grow(dst, n)
	for i := 0; i < n; i++ {
		left := i - win
		if left < 0 {
			left = 0
		}
		right := i + win
		if right > n-1 {
			right = n - 1
		}
		sum := prefix[right+1] - prefix[left]
		mean := int(sum) / (right - left + 1)
		bits[i] = int(row[i]) < mean-adaptiveBias
	}
	return bits, prefix
}

// AppendRuns collapses a binarized row into alternating runs, appending
// to dst (which is truncated first and reused when large enough).
func AppendRuns(bits []bool, dst []Run) []Run {
	dst = dst[:0]
	if len(bits) == 0 {
		return dst
	}
	cur := bits[0]
	width := 1
	for _, b := range bits[1:] {
		if b == cur {
			width++
			continue
		}
		dst = append(dst, Run{Width: width, Bar: cur})
		cur = b
		width = 1
	}
	return append(dst, Run{Width: width, Bar: cur})
}

func grow(s []bool, n int) []bool {
	if cap(s) < n {
		return make([]bool, n)
	}
	return s[:n]
}

func growU32(s []uint32, n int) []uint32 {
	if cap(s) < n {
		return make([]uint32, n)
	}
	return s[:n]
}
