package grayscan

import (
	"sort"

	"github.com/emarkov/grayscan/scanline"
)

// RunMatcher decodes one symbology from a scanline's run sequence.
// Implementations must treat the run slice as read-only and must not
// retain it after returning. A failed attempt returns one of the
// sentinel errors (ErrNoGuard, ErrDigitDecode, ...); the orchestrator
// swallows those and moves on.
type RunMatcher interface {
	// Format is the primary format the matcher produces. Matchers that
	// cover several formats (EAN-13 also yields UPC-A) report the
	// broadest one here and tag individual symbols as appropriate.
	Format() Format

	// MatchRuns attempts a decode on one scanline.
	MatchRuns(rowNumber int, runs []scanline.Run, opts *DecodeOptions) (*DecodedSymbol, error)
}

// ImageMatcher is the contract a future 2D decoder (QR and friends)
// will satisfy: whole-image detection instead of per-row run matching.
// There are no implementations yet; the type exists so the 2D extension
// slots in next to RunMatcher without touching DecodeAny's callers.
type ImageMatcher interface {
	Format() Format
	MatchImage(img GrayImage, opts *DecodeOptions) (*DecodedSymbol, error)
}

// MatcherFactory creates a RunMatcher configured for one decode call.
type MatcherFactory func(opts *DecodeOptions) RunMatcher

var matcherFactories = map[Format]MatcherFactory{}

// RegisterMatcher registers a matcher factory for a format. Format
// packages call this from init(); registering the same factory under
// several formats is fine, the orchestrator instantiates it once.
func RegisterMatcher(f Format, factory MatcherFactory) {
	matcherFactories[f] = factory
}

// buildMatchers instantiates one matcher per enabled primary format, in
// a stable order.
func buildMatchers(opts *DecodeOptions) []RunMatcher {
	formats := make([]Format, 0, len(matcherFactories))
	for f := range matcherFactories {
		if opts.FormatEnabled(f) {
			formats = append(formats, f)
		}
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })

	var matchers []RunMatcher
	seen := map[Format]bool{}
	for _, f := range formats {
		m := matcherFactories[f](opts)
		if m == nil || seen[m.Format()] {
			continue
		}
		seen[m.Format()] = true
		matchers = append(matchers, m)
	}
	return matchers
}

// A scanline whose adaptive binarization yields fewer runs than this is
// re-binarized with the global threshold before matching. 40 runs is
// well below a complete EAN-13 (59 runs) but enough to tell "sparse but
// plausible" from "the adaptive window swallowed the symbol".
const adaptiveRunFloor = 40

// minRuns is the smallest run count any supported symbology can occupy
// (ITF "00": start 4 + one pair 10 + end 3).
const minRuns = 17

// DecodeAny scans the image for barcodes of every enabled format and
// returns the deduplicated results in the order first encountered.
//
// It samples opts.ScanRows evenly spaced rows, binarizes each row,
// extracts bar/space runs and offers them to every enabled matcher,
// first forward and then mirrored. Two detections with equal format and text are
// the same physical symbol; the one with higher confidence is kept.
//
// DecodeAny is a pure function: it never mutates the image, holds no
// state between calls, and is safe to call concurrently from multiple
// goroutines, including on the same image. The only error it returns is
// ErrInvalidInput; a clean image with no barcodes yields an empty, nil
// result with a nil error.
func DecodeAny(img GrayImage, opts *DecodeOptions) ([]DecodedSymbol, error) {
	if !img.valid() {
		return nil, ErrInvalidInput
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	o := opts.withDefaults()

	matchers := buildMatchers(&o)
	if len(matchers) == 0 {
		return nil, nil
	}

	rows := o.ScanRows
	if rows > img.Height {
		rows = img.Height
	}
	step := 1
	if rows > 1 {
		step = rows - 1
	}

	var (
		bufs    scanline.Buffers
		results []DecodedSymbol
		index   = map[dedupKey]int{}
	)

	for i := 0; i < rows; i++ {
		y := i * (img.Height - 1) / step
		runs := scanRow(&bufs, img.Row(y))
		if len(runs) < minRuns {
			continue
		}

		for attempt := 0; attempt < 2; attempt++ {
			if attempt == 1 {
				runs = bufs.Reverse(runs)
			}
			for _, m := range matchers {
				sym, err := m.MatchRuns(y, runs, &o)
				if err != nil || sym == nil {
					continue
				}
				if o.RequireChecksum && !sym.ChecksumOK {
					continue
				}
				key := dedupKey{format: sym.Format, text: sym.Text}
				if at, dup := index[key]; dup {
					if sym.Confidence > results[at].Confidence {
						results[at] = *sym
					}
					continue
				}
				index[key] = len(results)
				results = append(results, *sym)
			}
		}
	}
	return results, nil
}

type dedupKey struct {
	format Format
	text   string
}

// scanRow binarizes one row and returns its runs, preferring the
// adaptive threshold and falling back to the global one when the
// adaptive pass produced too few runs to hold a symbol.
func scanRow(bufs *scanline.Buffers, row []byte) []scanline.Run {
	runs := bufs.ScanAdaptive(row)
	if len(runs) >= adaptiveRunFloor {
		return runs
	}
	if global, ok := bufs.ScanGlobal(row); ok && len(global) > len(runs) {
		return global
	}
	return runs
}
