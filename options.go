package grayscan

const (
	// DefaultScanRows is the number of scanlines sampled when
	// DecodeOptions.ScanRows is zero.
	DefaultScanRows = 15

	// DefaultTolerance is the maximum deviation of a single run from its
	// expected width, as a fraction of the module unit, accepted during
	// pattern matching.
	DefaultTolerance = 0.35
)

// DecodeOptions configures DecodeAny. The zero value (or a nil pointer)
// selects the defaults: 15 scan rows, all registered formats, tolerance
// 0.35, checksum failures reported but not dropped. Options are read
// only for the duration of one call.
type DecodeOptions struct {
	// ScanRows is the number of evenly spaced horizontal scanlines to
	// sample. Zero selects DefaultScanRows; negative is invalid.
	ScanRows int

	// Formats limits which symbologies are tried. Empty means every
	// registered format.
	Formats []Format

	// Tolerance is the maximum per-run deviation in module units before
	// a match attempt is abandoned. Zero selects DefaultTolerance; values
	// outside (0, 1) are invalid.
	Tolerance float64

	// RequireChecksum drops symbols whose checksum failed instead of
	// returning them with ChecksumOK=false.
	RequireChecksum bool
}

// withDefaults returns a copy with zero fields resolved, so matchers can
// read every field without re-checking.
func (o *DecodeOptions) withDefaults() DecodeOptions {
	var out DecodeOptions
	if o != nil {
		out = *o
	}
	if out.ScanRows == 0 {
		out.ScanRows = DefaultScanRows
	}
	if out.Tolerance == 0 {
		out.Tolerance = DefaultTolerance
	}
	return out
}

func (o *DecodeOptions) validate() error {
	if o == nil {
		return nil
	}
	if o.ScanRows < 0 {
		return ErrInvalidInput
	}
	if o.Tolerance < 0 || o.Tolerance >= 1 {
		return ErrInvalidInput
	}
	return nil
}

// FormatEnabled reports whether f should be attempted under these
// options. An empty Formats list enables everything.
func (o *DecodeOptions) FormatEnabled(f Format) bool {
	if len(o.Formats) == 0 {
		return true
	}
	for _, have := range o.Formats {
		if have == f {
			return true
		}
	}
	return false
}
