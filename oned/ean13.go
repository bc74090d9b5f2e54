package oned

import (
	"fmt"

	grayscan "github.com/emarkov/grayscan"
	"github.com/emarkov/grayscan/scanline"
)

const upceanMaxAvgVariance = 0.48

// UPC/EAN guard patterns, in module units.
var (
	upceanStartEndGuard = []int{1, 1, 1}
	upceanMiddleGuard   = []int{1, 1, 1, 1, 1}
)

// lPatterns holds the "L" (odd parity) run widths for digits 0-9. Each
// left-hand digit occupies 7 modules split across 4 runs; a left digit
// starts on a space, a right digit on a bar, but the widths coincide,
// so the same table serves both sides.
var lPatterns = [][]int{
	{3, 2, 1, 1}, // 0
	{2, 2, 2, 1}, // 1
	{2, 1, 2, 2}, // 2
	{1, 4, 1, 1}, // 3
	{1, 1, 3, 2}, // 4
	{1, 2, 3, 1}, // 5
	{1, 1, 1, 4}, // 6
	{1, 3, 1, 2}, // 7
	{1, 2, 1, 3}, // 8
	{3, 1, 1, 2}, // 9
}

// lgPatterns is lPatterns followed by the "G" (even parity) patterns,
// which are the L patterns reversed. Index % 10 gives the digit, index
// >= 10 means G parity.
var lgPatterns [][]int

func init() {
	lgPatterns = make([][]int, 20)
	copy(lgPatterns, lPatterns)
	for i := 10; i < 20; i++ {
		widths := lPatterns[i-10]
		reversed := make([]int, len(widths))
		for j := range widths {
			reversed[j] = widths[len(widths)-1-j]
		}
		lgPatterns[i] = reversed
	}
}

// ean13FirstDigitEncodings maps the first digit to the parity pattern
// of the six left-hand digits. Bit 5-x set means digit x uses G parity.
var ean13FirstDigitEncodings = [10]int{
	0x00, 0x0B, 0x0D, 0x0E, 0x13, 0x19, 0x1C, 0x15, 0x16, 0x1A,
}

// ean13Matcher decodes EAN-13 and UPC-A symbols from a run sequence.
// UPC-A is EAN-13 with an implicit leading zero; symbols whose first
// digit is zero are reported as UPC-A when that format is enabled.
type ean13Matcher struct{}

func newEAN13Matcher(*grayscan.DecodeOptions) grayscan.RunMatcher {
	return ean13Matcher{}
}

// Format returns FormatEAN13, the matcher's primary format.
func (ean13Matcher) Format() grayscan.Format { return grayscan.FormatEAN13 }

// MatchRuns walks the run sequence through the EAN-13 state machine:
// start guard, six L/G digits, middle guard, six R digits, end guard,
// trailing quiet zone, checksum.
func (m ean13Matcher) MatchRuns(rowNumber int, runs []scanline.Run, opts *grayscan.DecodeOptions) (*grayscan.DecodedSymbol, error) {
	// 3 + 24 + 5 + 24 + 3 runs, guards and digit groups.
	if len(runs) < 59 {
		return nil, grayscan.ErrNoSignal
	}
	tol := opts.Tolerance
	var track varianceTracker

	start := findEANStartGuard(runs, tol, &track)
	if start < 0 {
		return nil, grayscan.ErrNoGuard
	}
	idx := start + 3

	var digits [13]byte
	parity := 0
	for d := 0; d < 6; d++ {
		w, ok := window(runs, idx, 4, false)
		if !ok {
			return nil, grayscan.ErrFormat
		}
		best, v := bestPattern(w, lgPatterns, upceanMaxAvgVariance, tol)
		if best < 0 {
			return nil, grayscan.ErrDigitDecode
		}
		track.add(v)
		digits[1+d] = byte(best % 10)
		if best >= 10 {
			parity |= 1 << uint(5-d)
		}
		idx += 4
	}

	first := -1
	for d, enc := range ean13FirstDigitEncodings {
		if parity == enc {
			first = d
			break
		}
	}
	if first < 0 {
		return nil, grayscan.ErrDigitDecode
	}
	digits[0] = byte(first)

	w, ok := window(runs, idx, 5, false)
	if !ok {
		return nil, grayscan.ErrMiddleGuard
	}
	if v := patternVariance(w, upceanMiddleGuard, tol); v >= upceanMaxAvgVariance {
		return nil, grayscan.ErrMiddleGuard
	} else {
		track.add(v)
	}
	idx += 5

	for d := 0; d < 6; d++ {
		w, ok := window(runs, idx, 4, true)
		if !ok {
			return nil, grayscan.ErrFormat
		}
		best, v := bestPattern(w, lPatterns, upceanMaxAvgVariance, tol)
		if best < 0 {
			return nil, grayscan.ErrDigitDecode
		}
		track.add(v)
		digits[7+d] = byte(best)
		idx += 4
	}

	w, ok = window(runs, idx, 3, true)
	if !ok {
		return nil, grayscan.ErrEndGuard
	}
	v := patternVariance(w, upceanStartEndGuard, tol)
	if v >= upceanMaxAvgVariance {
		return nil, grayscan.ErrEndGuard
	}
	track.add(v)
	if !quietAfter(runs, idx+3, pixelWidth(w)) {
		return nil, grayscan.ErrEndGuard
	}

	sym := grayscan.DecodedSymbol{
		Row:        rowNumber,
		ChecksumOK: ean13ChecksumOK(digits),
		Confidence: track.confidence(),
	}
	switch {
	case digits[0] == 0 && opts.FormatEnabled(grayscan.FormatUPCA):
		sym.Format = grayscan.FormatUPCA
		sym.Text = digitsToText(digits[1:])
	case opts.FormatEnabled(grayscan.FormatEAN13):
		sym.Format = grayscan.FormatEAN13
		sym.Text = digitsToText(digits[:])
	default:
		return nil, grayscan.ErrFormat
	}
	return &sym, nil
}

// findEANStartGuard scans for a bar-space-bar triple in 1:1:1 ratio
// preceded by a quiet zone at least as wide as the guard itself.
func findEANStartGuard(runs []scanline.Run, tol float64, track *varianceTracker) int {
	for i := 0; i+3 <= len(runs); i++ {
		if !runs[i].Bar {
			continue
		}
		w := runs[i : i+3]
		v := patternVariance(w, upceanStartEndGuard, tol)
		if v >= upceanMaxAvgVariance {
			continue
		}
		if !quietBefore(runs, i, pixelWidth(w)) {
			continue
		}
		track.add(v)
		return i
	}
	return -1
}

func digitsToText(digits []byte) string {
	text := make([]byte, len(digits))
	for i, d := range digits {
		text[i] = '0' + d
	}
	return string(text)
}

// ean13ChecksumOK verifies the mod-10 checksum with alternating 1/3
// weights over the first 12 digits against the 13th.
func ean13ChecksumOK(digits [13]byte) bool {
	sum := 0
	for i := 0; i < 12; i++ {
		w := 1
		if i%2 == 1 {
			w = 3
		}
		sum += int(digits[i]) * w
	}
	return (10-sum%10)%10 == int(digits[12])
}

// ComputeEANChecksum returns the check digit for a string of digits
// (without the check digit itself), or -1 when s contains a non-digit.
func ComputeEANChecksum(s string) int {
	sum := 0
	for i := len(s) - 1; i >= 0; i -= 2 {
		d := int(s[i] - '0')
		if d < 0 || d > 9 {
			return -1
		}
		sum += d
	}
	sum *= 3
	for i := len(s) - 2; i >= 0; i -= 2 {
		d := int(s[i] - '0')
		if d < 0 || d > 9 {
			return -1
		}
		sum += d
	}
	return (1000 - sum) % 10
}

const ean13CodeWidth = 3 + 7*6 + 5 + 7*6 + 3 // 95 modules

// EncodeEAN13 encodes 12 or 13 digits into a module pattern (true =
// bar). With 12 digits the check digit is computed; with 13 it is
// validated.
func EncodeEAN13(contents string) ([]bool, error) {
	contents, err := normalizeEANContents(contents, 12, 13)
	if err != nil {
		return nil, err
	}

	parities := ean13FirstDigitEncodings[contents[0]-'0']
	result := make([]bool, ean13CodeWidth)
	pos := 0

	pos += appendPattern(result, pos, upceanStartEndGuard, true)
	for i := 1; i <= 6; i++ {
		digit := int(contents[i] - '0')
		if (parities>>(6-i))&1 == 1 {
			digit += 10
		}
		pos += appendPattern(result, pos, lgPatterns[digit], false)
	}
	pos += appendPattern(result, pos, upceanMiddleGuard, false)
	for i := 7; i <= 12; i++ {
		pos += appendPattern(result, pos, lPatterns[contents[i]-'0'], true)
	}
	appendPattern(result, pos, upceanStartEndGuard, true)
	return result, nil
}

// EncodeUPCA encodes 11 or 12 digits as UPC-A, which renders as EAN-13
// with a leading zero.
func EncodeUPCA(contents string) ([]bool, error) {
	if len(contents) != 11 && len(contents) != 12 {
		return nil, fmt.Errorf("%w: UPC-A needs 11 or 12 digits, got %d",
			grayscan.ErrFormat, len(contents))
	}
	return EncodeEAN13("0" + contents)
}

// normalizeEANContents validates digits and the length, appending the
// computed check digit when it is absent.
func normalizeEANContents(contents string, withoutCheck, withCheck int) (string, error) {
	for i := 0; i < len(contents); i++ {
		if contents[i] < '0' || contents[i] > '9' {
			return "", fmt.Errorf("%w: non-digit character %q", grayscan.ErrFormat, contents[i])
		}
	}
	switch len(contents) {
	case withoutCheck:
		check := ComputeEANChecksum(contents)
		if check < 0 {
			return "", grayscan.ErrFormat
		}
		return contents + string(rune('0'+check)), nil
	case withCheck:
		var digits [13]byte
		for i := 0; i < len(contents); i++ {
			digits[i] = contents[i] - '0'
		}
		if withCheck == 13 && !ean13ChecksumOK(digits) {
			return "", grayscan.ErrChecksum
		}
		return contents, nil
	default:
		return "", fmt.Errorf("%w: want %d or %d digits, got %d",
			grayscan.ErrFormat, withoutCheck, withCheck, len(contents))
	}
}
