package grayscan

import "errors"

var (
	// ErrInvalidInput is returned when a GrayImage or DecodeOptions value
	// is malformed. It is the only error DecodeAny returns.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoSignal means a scanline has no usable contrast.
	ErrNoSignal = errors.New("no signal on scanline")

	// ErrNoGuard means no start guard pattern was found on a scanline.
	ErrNoGuard = errors.New("guard pattern not found")

	// ErrDigitDecode means a run group matched no digit pattern.
	ErrDigitDecode = errors.New("digit pattern not recognized")

	// ErrMiddleGuard means the middle guard pattern did not match.
	ErrMiddleGuard = errors.New("middle guard mismatch")

	// ErrEndGuard means the trailing guard pattern did not match.
	ErrEndGuard = errors.New("end guard mismatch")

	// ErrChecksum is returned when a matcher rejects a symbol on checksum
	// grounds. Matchers normally record checksum failures in
	// DecodedSymbol.ChecksumOK instead; see DecodeOptions.RequireChecksum.
	ErrChecksum = errors.New("checksum error")

	// ErrFormat means the decoded structure is not valid for the
	// symbology (bad length, unexpected code word, truncated symbol).
	ErrFormat = errors.New("format error")
)
