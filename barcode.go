// Package grayscan decodes 1D barcodes from raw grayscale pixel buffers.
//
// The engine operates on a non-owning GrayImage view of a row-major,
// 8-bit-per-pixel buffer. DecodeAny samples a configurable number of
// horizontal scanlines, binarizes each one with an adaptive threshold,
// extracts bar/space run lengths and hands the run sequence to every
// enabled symbology matcher. Matchers live in the oned subpackage and
// register themselves at init time, so callers enable them with a blank
// import:
//
//	import _ "github.com/emarkov/grayscan/oned"
//
// The core is pure computation: no I/O, no goroutines, and no
// dependencies beyond the standard library.
package grayscan

// Format identifies a barcode symbology.
type Format int

const (
	FormatEAN13 Format = iota
	FormatUPCA
	FormatCode128
	FormatCode39
	FormatITF
)

// String returns the name of the barcode format.
func (f Format) String() string {
	switch f {
	case FormatEAN13:
		return "EAN_13"
	case FormatUPCA:
		return "UPC_A"
	case FormatCode128:
		return "CODE_128"
	case FormatCode39:
		return "CODE_39"
	case FormatITF:
		return "ITF"
	default:
		return "UNKNOWN"
	}
}

// AllFormats lists every format the engine knows about, in the order
// matchers are tried when DecodeOptions.Formats is empty.
func AllFormats() []Format {
	return []Format{FormatEAN13, FormatUPCA, FormatCode128, FormatCode39, FormatITF}
}

// ParseFormat converts a format name back to a Format. Matching is
// case-insensitive and treats "-" and "_" alike, so "ean13", "EAN-13"
// and "EAN_13" all parse.
func ParseFormat(name string) (Format, bool) {
	norm := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
			c -= 'a' - 'A'
		case c == '-':
			c = '_'
		}
		if c == '_' {
			continue
		}
		norm = append(norm, c)
	}
	switch string(norm) {
	case "EAN13":
		return FormatEAN13, true
	case "UPCA":
		return FormatUPCA, true
	case "CODE128":
		return FormatCode128, true
	case "CODE39":
		return FormatCode39, true
	case "ITF", "I2OF5":
		return FormatITF, true
	}
	return 0, false
}

// DecodedSymbol is one successfully decoded barcode. Symbols are
// immutable once produced; DecodeAny returns them by value.
type DecodedSymbol struct {
	// Format is the symbology the symbol was decoded as.
	Format Format

	// Text is the decoded payload. For EAN-13 this includes the check
	// digit; for UPC-A it is the 12-digit form without the implicit
	// leading zero.
	Text string

	// ChecksumOK reports whether the symbology's checksum matched.
	// Formats without a mandatory checksum (Code 39, ITF) report true
	// on structural success.
	ChecksumOK bool

	// Row is the scanline the symbol was first decoded on.
	Row int

	// Confidence is a heuristic in (0,1]: 1 minus the average deviation
	// of the observed run widths from the matched patterns.
	Confidence float32
}
