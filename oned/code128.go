package oned

import (
	"fmt"
	"strconv"
	"strings"

	grayscan "github.com/emarkov/grayscan"
	"github.com/emarkov/grayscan/scanline"
)

const (
	code128MaxAvgVariance = 0.25

	// Individual run tolerance relative to the caller-facing tolerance.
	// Code 128 modules span 1 to 4 units, so a per-run slack of twice
	// the base tolerance still separates adjacent widths.
	code128IndividualFactor = 2

	code128Shift  = 98
	code128CodeC  = 99
	code128CodeB  = 100
	code128CodeA  = 101
	code128FNC1   = 102
	code128FNC2   = 97
	code128FNC3   = 96
	code128FNC4A  = 101
	code128FNC4B  = 100
	code128StartA = 103
	code128StartB = 104
	code128StartC = 105
	code128Stop   = 106
)

// code128Patterns holds the run widths for all 107 Code 128 symbols.
// Every symbol is 6 runs starting on a bar; the stop symbol carries a
// seventh run, the 2-module terminating bar.
var code128Patterns = [107][]int{
	{2, 1, 2, 2, 2, 2}, // 0
	{2, 2, 2, 1, 2, 2},
	{2, 2, 2, 2, 2, 1},
	{1, 2, 1, 2, 2, 3},
	{1, 2, 1, 3, 2, 2},
	{1, 3, 1, 2, 2, 2}, // 5
	{1, 2, 2, 2, 1, 3},
	{1, 2, 2, 3, 1, 2},
	{1, 3, 2, 2, 1, 2},
	{2, 2, 1, 2, 1, 3},
	{2, 2, 1, 3, 1, 2}, // 10
	{2, 3, 1, 2, 1, 2},
	{1, 1, 2, 2, 3, 2},
	{1, 2, 2, 1, 3, 2},
	{1, 2, 2, 2, 3, 1},
	{1, 1, 3, 2, 2, 2}, // 15
	{1, 2, 3, 1, 2, 2},
	{1, 2, 3, 2, 2, 1},
	{2, 2, 3, 2, 1, 1},
	{2, 2, 1, 1, 3, 2},
	{2, 2, 1, 2, 3, 1}, // 20
	{2, 1, 3, 2, 1, 2},
	{2, 2, 3, 1, 1, 2},
	{3, 1, 2, 1, 3, 1},
	{3, 1, 1, 2, 2, 2},
	{3, 2, 1, 1, 2, 2}, // 25
	{3, 2, 1, 2, 2, 1},
	{3, 1, 2, 2, 1, 2},
	{3, 2, 2, 1, 1, 2},
	{3, 2, 2, 2, 1, 1},
	{2, 1, 2, 1, 2, 3}, // 30
	{2, 1, 2, 3, 2, 1},
	{2, 3, 2, 1, 2, 1},
	{1, 1, 1, 3, 2, 3},
	{1, 3, 1, 1, 2, 3},
	{1, 3, 1, 3, 2, 1}, // 35
	{1, 1, 2, 3, 1, 3},
	{1, 3, 2, 1, 1, 3},
	{1, 3, 2, 3, 1, 1},
	{2, 1, 1, 3, 1, 3},
	{2, 3, 1, 1, 1, 3}, // 40
	{2, 3, 1, 3, 1, 1},
	{1, 1, 2, 1, 3, 3},
	{1, 1, 2, 3, 3, 1},
	{1, 3, 2, 1, 3, 1},
	{1, 1, 3, 1, 2, 3}, // 45
	{1, 1, 3, 3, 2, 1},
	{1, 3, 3, 1, 2, 1},
	{3, 1, 3, 1, 2, 1},
	{2, 1, 1, 3, 3, 1},
	{2, 3, 1, 1, 3, 1}, // 50
	{2, 1, 3, 1, 1, 3},
	{2, 1, 3, 3, 1, 1},
	{2, 1, 3, 1, 3, 1},
	{3, 1, 1, 1, 2, 3},
	{3, 1, 1, 3, 2, 1}, // 55
	{3, 3, 1, 1, 2, 1},
	{3, 1, 2, 1, 1, 3},
	{3, 1, 2, 3, 1, 1},
	{3, 3, 2, 1, 1, 1},
	{3, 1, 4, 1, 1, 1}, // 60
	{2, 2, 1, 4, 1, 1},
	{4, 3, 1, 1, 1, 1},
	{1, 1, 1, 2, 2, 4},
	{1, 1, 1, 4, 2, 2},
	{1, 2, 1, 1, 2, 4}, // 65
	{1, 2, 1, 4, 2, 1},
	{1, 4, 1, 1, 2, 2},
	{1, 4, 1, 2, 2, 1},
	{1, 1, 2, 2, 1, 4},
	{1, 1, 2, 4, 1, 2}, // 70
	{1, 2, 2, 1, 1, 4},
	{1, 2, 2, 4, 1, 1},
	{1, 4, 2, 1, 1, 2},
	{1, 4, 2, 2, 1, 1},
	{2, 4, 1, 2, 1, 1}, // 75
	{2, 2, 1, 1, 1, 4},
	{4, 1, 3, 1, 1, 1},
	{2, 4, 1, 1, 1, 2},
	{1, 3, 4, 1, 1, 1},
	{1, 1, 1, 2, 4, 2}, // 80
	{1, 2, 1, 1, 4, 2},
	{1, 2, 1, 2, 4, 1},
	{1, 1, 4, 2, 1, 2},
	{1, 2, 4, 1, 1, 2},
	{1, 2, 4, 2, 1, 1}, // 85
	{4, 1, 1, 2, 1, 2},
	{4, 2, 1, 1, 1, 2},
	{4, 2, 1, 2, 1, 1},
	{2, 1, 2, 1, 4, 1},
	{2, 1, 4, 1, 2, 1}, // 90
	{4, 1, 2, 1, 2, 1},
	{1, 1, 1, 1, 4, 3},
	{1, 1, 1, 3, 4, 1},
	{1, 3, 1, 1, 4, 1},
	{1, 1, 4, 1, 1, 3}, // 95
	{1, 1, 4, 3, 1, 1},
	{4, 1, 1, 1, 1, 3},
	{4, 1, 1, 3, 1, 1},
	{1, 1, 3, 1, 4, 1},
	{1, 1, 4, 1, 3, 1}, // 100
	{3, 1, 1, 1, 4, 1},
	{4, 1, 1, 1, 3, 1},
	{2, 1, 1, 4, 1, 2},    // START_A
	{2, 1, 1, 2, 1, 4},    // START_B
	{2, 1, 1, 2, 3, 2},    // START_C
	{2, 3, 3, 1, 1, 1, 2}, // STOP
}

// code128Matcher decodes Code 128 symbols, covering code sets A, B and
// C with Shift and FNC handling.
type code128Matcher struct{}

func newCode128Matcher(*grayscan.DecodeOptions) grayscan.RunMatcher {
	return code128Matcher{}
}

func (code128Matcher) Format() grayscan.Format { return grayscan.FormatCode128 }

func (m code128Matcher) MatchRuns(rowNumber int, runs []scanline.Run, opts *grayscan.DecodeOptions) (*grayscan.DecodedSymbol, error) {
	// Start, one data symbol, check symbol and stop: 6+6+6+7 runs.
	if len(runs) < 25 {
		return nil, grayscan.ErrNoSignal
	}
	maxInd := code128IndividualFactor * opts.Tolerance
	var track varianceTracker

	start, startCode := findCode128Start(runs, maxInd, &track)
	if start < 0 {
		return nil, grayscan.ErrNoGuard
	}

	var codeSet int
	switch startCode {
	case code128StartA:
		codeSet = code128CodeA
	case code128StartB:
		codeSet = code128CodeB
	case code128StartC:
		codeSet = code128CodeC
	}

	idx := start + 6
	var result strings.Builder
	checksumTotal := startCode
	multiplier := 0
	lastCode := 0
	code := -1
	done := false
	isNextShifted := false
	lastCharacterWasPrintable := true
	upperMode := false
	shiftUpperMode := false

	for !done {
		unshift := isNextShifted
		isNextShifted = false
		lastCode = code

		w, ok := window(runs, idx, 6, true)
		if !ok {
			return nil, grayscan.ErrEndGuard
		}
		var v float64
		code, v = bestPattern(w, code128Patterns[:], code128MaxAvgVariance, maxInd)
		if code < 0 {
			return nil, grayscan.ErrDigitDecode
		}
		track.add(v)
		idx += 6

		switch code {
		case code128StartA, code128StartB, code128StartC:
			return nil, grayscan.ErrFormat
		}
		if code != code128Stop {
			lastCharacterWasPrintable = true
			multiplier++
			checksumTotal += multiplier * code
		}

		switch codeSet {
		case code128CodeA:
			if code < 64 {
				writeCode128Char(&result, byte(' '+code), upperMode != shiftUpperMode)
				shiftUpperMode = false
			} else if code < 96 {
				writeCode128Char(&result, byte(code-64), upperMode != shiftUpperMode)
				shiftUpperMode = false
			} else {
				if code != code128Stop {
					lastCharacterWasPrintable = false
				}
				switch code {
				case code128FNC1, code128FNC2, code128FNC3:
					// control function, no text
				case code128FNC4A:
					upperMode, shiftUpperMode = toggleCode128Upper(upperMode, shiftUpperMode)
				case code128Shift:
					isNextShifted = true
					codeSet = code128CodeB
				case code128CodeB:
					codeSet = code128CodeB
				case code128CodeC:
					codeSet = code128CodeC
				case code128Stop:
					done = true
				}
			}
		case code128CodeB:
			if code < 96 {
				writeCode128Char(&result, byte(' '+code), upperMode != shiftUpperMode)
				shiftUpperMode = false
			} else {
				if code != code128Stop {
					lastCharacterWasPrintable = false
				}
				switch code {
				case code128FNC1, code128FNC2, code128FNC3:
					// control function, no text
				case code128FNC4B:
					upperMode, shiftUpperMode = toggleCode128Upper(upperMode, shiftUpperMode)
				case code128Shift:
					isNextShifted = true
					codeSet = code128CodeA
				case code128CodeA:
					codeSet = code128CodeA
				case code128CodeC:
					codeSet = code128CodeC
				case code128Stop:
					done = true
				}
			}
		case code128CodeC:
			if code < 100 {
				if code < 10 {
					result.WriteByte('0')
				}
				result.WriteString(strconv.Itoa(code))
			} else {
				if code != code128Stop {
					lastCharacterWasPrintable = false
				}
				switch code {
				case code128FNC1:
					// control function, no text
				case code128CodeA:
					codeSet = code128CodeA
				case code128CodeB:
					codeSet = code128CodeB
				case code128Stop:
					done = true
				}
			}
		}

		if unshift {
			if codeSet == code128CodeA {
				codeSet = code128CodeB
			} else {
				codeSet = code128CodeA
			}
		}
	}

	// The stop symbol's terminating bar, then a quiet zone at least
	// half the symbol width.
	tail, ok := window(runs, idx, 1, true)
	if !ok {
		return nil, grayscan.ErrEndGuard
	}
	if !quietAfter(runs, idx+1, (pixelWidth(runs[idx-6:idx])+tail[0].Width)/2) {
		return nil, grayscan.ErrEndGuard
	}

	checksumTotal -= multiplier * lastCode
	checksumOK := checksumTotal%103 == lastCode

	text := result.String()
	if len(text) == 0 {
		return nil, grayscan.ErrDigitDecode
	}
	if lastCharacterWasPrintable {
		// The check symbol decoded as text; strip it.
		if codeSet == code128CodeC {
			text = text[:len(text)-2]
		} else {
			text = text[:len(text)-1]
		}
	}

	return &grayscan.DecodedSymbol{
		Format:     grayscan.FormatCode128,
		Text:       text,
		ChecksumOK: checksumOK,
		Row:        rowNumber,
		Confidence: track.confidence(),
	}, nil
}

// findCode128Start locates the best-matching start symbol (A, B or C)
// preceded by a quiet zone of at least half the symbol width. It
// returns the run index and the start code, or -1.
func findCode128Start(runs []scanline.Run, maxInd float64, track *varianceTracker) (at, startCode int) {
	for i := 0; i+6 <= len(runs); i++ {
		if !runs[i].Bar {
			continue
		}
		w := runs[i : i+6]
		bestVariance := code128MaxAvgVariance
		best := -1
		for code := code128StartA; code <= code128StartC; code++ {
			v := patternVariance(w, code128Patterns[code], maxInd)
			if v < bestVariance {
				bestVariance = v
				best = code
			}
		}
		if best < 0 {
			continue
		}
		if !quietBefore(runs, i, pixelWidth(w)/2) {
			continue
		}
		track.add(bestVariance)
		return i, best
	}
	return -1, -1
}

func writeCode128Char(b *strings.Builder, ch byte, upper bool) {
	if upper {
		ch += 128
	}
	b.WriteByte(ch)
}

func toggleCode128Upper(upperMode, shiftUpperMode bool) (bool, bool) {
	if shiftUpperMode {
		return !upperMode, false
	}
	return upperMode, true
}

// Escape characters for requesting FNC codes in Code 128 input.
const (
	Code128EscapeFNC1 = 'ñ'
	Code128EscapeFNC2 = 'ò'
	Code128EscapeFNC3 = 'ó'
	Code128EscapeFNC4 = 'ô'
)

// EncodeCode128 encodes contents into a Code 128 module pattern,
// choosing code sets with the standard minimal-length lookahead.
func EncodeCode128(contents string) ([]bool, error) {
	if err := checkCode128Contents(contents); err != nil {
		return nil, err
	}

	length := len(contents)
	var patterns [][]int
	checkSum := 0
	checkWeight := 1
	codeSet := 0
	position := 0

	for position < length {
		newCodeSet := chooseCode128(contents, position, codeSet)

		var patternIndex int
		if newCodeSet == codeSet {
			c := rune(contents[position])
			switch c {
			case Code128EscapeFNC1:
				patternIndex = code128FNC1
			case Code128EscapeFNC2:
				patternIndex = code128FNC2
			case Code128EscapeFNC3:
				patternIndex = code128FNC3
			case Code128EscapeFNC4:
				if codeSet == code128CodeA {
					patternIndex = code128FNC4A
				} else {
					patternIndex = code128FNC4B
				}
			default:
				switch codeSet {
				case code128CodeA:
					patternIndex = int(c) - ' '
					if patternIndex < 0 {
						patternIndex += '`'
					}
				case code128CodeB:
					patternIndex = int(c) - ' '
				default: // code set C
					if position+1 == length {
						return nil, fmt.Errorf("%w: odd trailing digit in code set C", grayscan.ErrFormat)
					}
					val, err := strconv.Atoi(contents[position : position+2])
					if err != nil {
						return nil, fmt.Errorf("%w: %v", grayscan.ErrFormat, err)
					}
					patternIndex = val
					position++
				}
			}
			position++
		} else {
			if codeSet == 0 {
				switch newCodeSet {
				case code128CodeA:
					patternIndex = code128StartA
				case code128CodeB:
					patternIndex = code128StartB
				default:
					patternIndex = code128StartC
				}
			} else {
				patternIndex = newCodeSet
			}
			codeSet = newCodeSet
		}

		patterns = append(patterns, code128Patterns[patternIndex])
		checkSum += patternIndex * checkWeight
		if position != 0 {
			checkWeight++
		}
	}

	checkSum %= 103
	patterns = append(patterns, code128Patterns[checkSum])
	patterns = append(patterns, code128Patterns[code128Stop])

	codeWidth := 0
	for _, pattern := range patterns {
		for _, w := range pattern {
			codeWidth += w
		}
	}
	result := make([]bool, codeWidth)
	pos := 0
	for _, pattern := range patterns {
		pos += appendPattern(result, pos, pattern, true)
	}
	return result, nil
}

func checkCode128Contents(contents string) error {
	for i := 0; i < len(contents); i++ {
		c := rune(contents[i])
		switch c {
		case Code128EscapeFNC1, Code128EscapeFNC2, Code128EscapeFNC3, Code128EscapeFNC4:
		default:
			if c > 127 {
				return fmt.Errorf("%w: character %d not encodable in Code 128", grayscan.ErrFormat, c)
			}
		}
	}
	return nil
}

// code128CType classifies characters for the code set C lookahead.
type code128CType int

const (
	code128Uncodable code128CType = iota
	code128OneDigit
	code128TwoDigits
	code128FNC1Found
)

func findCode128CType(value string, start int) code128CType {
	if start >= len(value) {
		return code128Uncodable
	}
	c := rune(value[start])
	if c == Code128EscapeFNC1 {
		return code128FNC1Found
	}
	if c < '0' || c > '9' {
		return code128Uncodable
	}
	if start+1 >= len(value) {
		return code128OneDigit
	}
	c = rune(value[start+1])
	if c < '0' || c > '9' {
		return code128OneDigit
	}
	return code128TwoDigits
}

func chooseCode128(value string, start, oldCode int) int {
	lookahead := findCode128CType(value, start)
	if lookahead == code128OneDigit {
		if oldCode == code128CodeA {
			return code128CodeA
		}
		return code128CodeB
	}
	if lookahead == code128Uncodable {
		if start < len(value) {
			c := rune(value[start])
			if c < ' ' || (oldCode == code128CodeA && (c < '`' || (c >= Code128EscapeFNC1 && c <= Code128EscapeFNC4))) {
				return code128CodeA
			}
		}
		return code128CodeB
	}
	if oldCode == code128CodeA && lookahead == code128FNC1Found {
		return code128CodeA
	}
	if oldCode == code128CodeC {
		return code128CodeC
	}
	if oldCode == code128CodeB {
		if lookahead == code128FNC1Found {
			return code128CodeB
		}
		lookahead = findCode128CType(value, start+2)
		if lookahead == code128Uncodable || lookahead == code128OneDigit {
			return code128CodeB
		}
		if lookahead == code128FNC1Found {
			lookahead = findCode128CType(value, start+3)
			if lookahead == code128TwoDigits {
				return code128CodeC
			}
			return code128CodeB
		}
		index := start + 4
		for findCode128CType(value, index) == code128TwoDigits {
			index += 2
		}
		if findCode128CType(value, index) == code128OneDigit {
			return code128CodeB
		}
		return code128CodeC
	}
	if lookahead == code128FNC1Found {
		lookahead = findCode128CType(value, start+1)
	}
	if lookahead == code128TwoDigits {
		return code128CodeC
	}
	return code128CodeB
}
