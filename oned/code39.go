package oned

import (
	"fmt"
	"math"
	"strings"

	grayscan "github.com/emarkov/grayscan"
	"github.com/emarkov/grayscan/scanline"
)

const code39Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ-. $/+%"

// code39CharacterEncodings maps alphabet positions to 9-bit narrow/wide
// patterns, most significant bit first, bit set = wide.
var code39CharacterEncodings = [43]int{
	0x034, 0x121, 0x061, 0x160, 0x031, 0x130, 0x070, 0x025, 0x124, 0x064, // 0-9
	0x109, 0x049, 0x148, 0x019, 0x118, 0x058, 0x00D, 0x10C, 0x04C, 0x01C, // A-J
	0x103, 0x043, 0x142, 0x013, 0x112, 0x052, 0x007, 0x106, 0x046, 0x016, // K-T
	0x181, 0x0C1, 0x1C0, 0x091, 0x190, 0x0D0, 0x085, 0x184, 0x0C4, 0x0A8, // U-$
	0x0A2, 0x08A, 0x02A, // /-%
}

const code39AsteriskEncoding = 0x094

// code39Matcher decodes Code 39 symbols. Code 39 has no mandatory
// checksum, so decoded symbols always report ChecksumOK.
type code39Matcher struct{}

func newCode39Matcher(*grayscan.DecodeOptions) grayscan.RunMatcher {
	return code39Matcher{}
}

func (code39Matcher) Format() grayscan.Format { return grayscan.FormatCode39 }

func (m code39Matcher) MatchRuns(rowNumber int, runs []scanline.Run, opts *grayscan.DecodeOptions) (*grayscan.DecodedSymbol, error) {
	// Two asterisks around one character, with separators: 9+1+9+1+9.
	if len(runs) < 29 {
		return nil, grayscan.ErrNoSignal
	}
	var track varianceTracker
	var widths [9]int

	start := findCode39Asterisk(runs)
	if start < 0 {
		return nil, grayscan.ErrNoGuard
	}
	trackCode39Variance(&track, runs[start:start+9], &widths, code39AsteriskEncoding)

	var result strings.Builder
	idx := start + 10
	var last []scanline.Run
	for {
		w, ok := window(runs, idx, 9, true)
		if !ok {
			return nil, grayscan.ErrEndGuard
		}
		pattern := toCode39NarrowWide(w)
		if pattern < 0 {
			return nil, grayscan.ErrDigitDecode
		}
		ch, ok := code39PatternToChar(pattern)
		if !ok {
			return nil, grayscan.ErrDigitDecode
		}
		trackCode39Variance(&track, w, &widths, pattern)
		last = w
		idx += 10
		if ch == '*' {
			break
		}
		result.WriteByte(ch)
	}

	// idx overshoots by the separator after the closing asterisk; the
	// quiet zone must be at least half the asterisk width.
	if !quietAfter(runs, idx-1, pixelWidth(last)/2) {
		return nil, grayscan.ErrEndGuard
	}

	text := result.String()
	if len(text) == 0 {
		return nil, grayscan.ErrDigitDecode
	}

	return &grayscan.DecodedSymbol{
		Format:     grayscan.FormatCode39,
		Text:       text,
		ChecksumOK: true,
		Row:        rowNumber,
		Confidence: track.confidence(),
	}, nil
}

// findCode39Asterisk locates the opening asterisk: 9 runs starting on a
// bar whose narrow/wide pattern matches, preceded by a quiet zone of at
// least half the asterisk width.
func findCode39Asterisk(runs []scanline.Run) int {
	for i := 0; i+9 <= len(runs); i++ {
		if !runs[i].Bar {
			continue
		}
		w := runs[i : i+9]
		if toCode39NarrowWide(w) != code39AsteriskEncoding {
			continue
		}
		if !quietBefore(runs, i, pixelWidth(w)/2) {
			continue
		}
		return i
	}
	return -1
}

// toCode39NarrowWide classifies 9 runs into a narrow/wide bit pattern.
// It lowers the narrow/wide cutoff until exactly 3 runs qualify as
// wide, then rejects the window when any single wide run hogs half the
// total wide width.
func toCode39NarrowWide(runs []scanline.Run) int {
	maxNarrow := 0
	for {
		minWide := math.MaxInt
		for _, r := range runs {
			if r.Width < minWide && r.Width > maxNarrow {
				minWide = r.Width
			}
		}
		maxNarrow = minWide
		wide := 0
		totalWideWidth := 0
		pattern := 0
		for i, r := range runs {
			if r.Width > maxNarrow {
				pattern |= 1 << uint(len(runs)-1-i)
				wide++
				totalWideWidth += r.Width
			}
		}
		if wide == 3 {
			for _, r := range runs {
				if r.Width > maxNarrow && r.Width*2 >= totalWideWidth {
					return -1
				}
			}
			return pattern
		}
		if wide < 3 {
			return -1
		}
	}
}

func code39PatternToChar(pattern int) (byte, bool) {
	for i, enc := range code39CharacterEncodings {
		if enc == pattern {
			return code39Alphabet[i], true
		}
	}
	if pattern == code39AsteriskEncoding {
		return '*', true
	}
	return 0, false
}

// trackCode39Variance records how far a matched character's runs sit
// from the ideal 1:2 narrow/wide widths, for confidence scoring only.
func trackCode39Variance(track *varianceTracker, runs []scanline.Run, widths *[9]int, pattern int) {
	code39ToWidths(pattern, widths[:])
	v := patternVariance(runs, widths[:], math.Inf(1))
	if !math.IsInf(v, 1) {
		track.add(v)
	}
}

func code39ToWidths(pattern int, widths []int) {
	for i := 0; i < 9; i++ {
		if pattern&(1<<uint(8-i)) != 0 {
			widths[i] = 2
		} else {
			widths[i] = 1
		}
	}
}

// EncodeCode39 encodes contents into a Code 39 module pattern with
// asterisk framing. Characters outside the Code 39 alphabet are
// escaped with the extended-mode shift sequences; DecodeCode39Extended
// reverses that escaping on decoded text.
func EncodeCode39(contents string) ([]bool, error) {
	if len(contents) > 80 {
		return nil, fmt.Errorf("%w: contents longer than 80 characters", grayscan.ErrFormat)
	}

	needsExtended := false
	for i := 0; i < len(contents); i++ {
		if strings.IndexByte(code39Alphabet, contents[i]) < 0 {
			needsExtended = true
			break
		}
	}
	if needsExtended {
		contents = convertToCode39Extended(contents)
		if len(contents) > 80 {
			return nil, fmt.Errorf("%w: contents longer than 80 characters after extended escaping", grayscan.ErrFormat)
		}
	}

	length := len(contents)
	var widths [9]int
	codeWidth := 24 + 1 + 13*length
	result := make([]bool, codeWidth)

	code39ToWidths(code39AsteriskEncoding, widths[:])
	pos := appendPattern(result, 0, widths[:], true)
	narrowWhite := []int{1}
	pos += appendPattern(result, pos, narrowWhite, false)

	for i := 0; i < length; i++ {
		idx := strings.IndexByte(code39Alphabet, contents[i])
		code39ToWidths(code39CharacterEncodings[idx], widths[:])
		pos += appendPattern(result, pos, widths[:], true)
		pos += appendPattern(result, pos, narrowWhite, false)
	}
	code39ToWidths(code39AsteriskEncoding, widths[:])
	appendPattern(result, pos, widths[:], true)
	return result, nil
}

func convertToCode39Extended(contents string) string {
	var ext strings.Builder
	for i := 0; i < len(contents); i++ {
		c := contents[i]
		switch {
		case c == 0:
			ext.WriteString("%U")
		case c == ' ' || c == '-' || c == '.':
			ext.WriteByte(c)
		case c == '@':
			ext.WriteString("%V")
		case c == '`':
			ext.WriteString("%W")
		case c <= 26:
			ext.WriteByte('$')
			ext.WriteByte('A' + c - 1)
		case c < ' ':
			ext.WriteByte('%')
			ext.WriteByte('A' + c - 27)
		case c <= ',' || c == '/' || c == ':':
			ext.WriteByte('/')
			ext.WriteByte('A' + c - 33)
		case c <= '9':
			ext.WriteByte('0' + c - 48)
		case c <= '?':
			ext.WriteByte('%')
			ext.WriteByte('F' + c - 59)
		case c <= 'Z':
			ext.WriteByte('A' + c - 65)
		case c <= '_':
			ext.WriteByte('%')
			ext.WriteByte('K' + c - 91)
		case c <= 'z':
			ext.WriteByte('+')
			ext.WriteByte('A' + c - 97)
		case c <= 127:
			ext.WriteByte('%')
			ext.WriteByte('P' + c - 123)
		}
	}
	return ext.String()
}

// DecodeCode39Extended expands extended-mode shift sequences ($X, %X,
// /X, +X) in decoded Code 39 text into the full ASCII characters they
// stand for.
func DecodeCode39Extended(encoded string) (string, error) {
	var decoded strings.Builder
	for i := 0; i < len(encoded); i++ {
		c := encoded[i]
		if c != '+' && c != '$' && c != '%' && c != '/' {
			decoded.WriteByte(c)
			continue
		}
		if i+1 >= len(encoded) {
			return "", grayscan.ErrFormat
		}
		next := encoded[i+1]
		var ch byte
		switch c {
		case '+':
			if next < 'A' || next > 'Z' {
				return "", grayscan.ErrFormat
			}
			ch = next + 32
		case '$':
			if next < 'A' || next > 'Z' {
				return "", grayscan.ErrFormat
			}
			ch = next - 64
		case '%':
			switch {
			case next >= 'A' && next <= 'E':
				ch = next - 38
			case next >= 'F' && next <= 'J':
				ch = next - 11
			case next >= 'K' && next <= 'O':
				ch = next + 16
			case next >= 'P' && next <= 'T':
				ch = next + 43
			case next == 'U':
				ch = 0
			case next == 'V':
				ch = '@'
			case next == 'W':
				ch = '`'
			case next == 'X' || next == 'Y' || next == 'Z':
				ch = 127
			default:
				return "", grayscan.ErrFormat
			}
		case '/':
			switch {
			case next >= 'A' && next <= 'O':
				ch = next - 32
			case next == 'Z':
				ch = ':'
			default:
				return "", grayscan.ErrFormat
			}
		}
		decoded.WriteByte(ch)
		i++
	}
	return decoded.String(), nil
}
