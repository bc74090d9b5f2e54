package scanline

// Buffers is the reusable scratch storage for scanning one image. It is
// owned by a single decode call and reused across that call's scanlines;
// it must not be shared between concurrent calls. After the first few
// rows the buffers reach steady state and row scanning stops allocating.
type Buffers struct {
	bits   []bool
	prefix []uint32
	runs   []Run
	gruns  []Run
	rev    []Run
}

// ScanAdaptive binarizes a row with the sliding-window threshold and
// returns its runs. The returned slice is valid until the next Scan*
// call on the same Buffers.
func (b *Buffers) ScanAdaptive(row []byte) []Run {
	bits, prefix := BinarizeAdaptive(row, b.prefix, b.bits)
	b.bits, b.prefix = bits, prefix
	b.runs = AppendRuns(bits, b.runs)
	return b.runs
}

// ScanGlobal binarizes a row with a single global threshold and returns
// its runs. ok is false when the row has no contrast. The result uses
// storage separate from ScanAdaptive's, so the two can be compared.
func (b *Buffers) ScanGlobal(row []byte) (runs []Run, ok bool) {
	bits, ok := BinarizeGlobal(row, b.bits)
	if !ok {
		return nil, false
	}
	b.bits = bits
	b.gruns = AppendRuns(bits, b.gruns)
	return b.gruns, true
}

// Reverse returns the run sequence mirrored, as if the row had been
// scanned right to left. The result shares no storage with runs and is
// valid until the next Reverse call.
func (b *Buffers) Reverse(runs []Run) []Run {
	if cap(b.rev) < len(runs) {
		b.rev = make([]Run, len(runs))
	}
	b.rev = b.rev[:len(runs)]
	for i, r := range runs {
		b.rev[len(runs)-1-i] = r
	}
	return b.rev
}
