package oned

import (
	"errors"
	"testing"

	grayscan "github.com/emarkov/grayscan"
	"github.com/emarkov/grayscan/scanline"
)

func defaultOpts() *grayscan.DecodeOptions {
	return &grayscan.DecodeOptions{
		ScanRows:  grayscan.DefaultScanRows,
		Tolerance: grayscan.DefaultTolerance,
	}
}

// runsForModules renders a module pattern and extracts its runs, the
// same shape a matcher sees from the scanline pipeline.
func runsForModules(t *testing.T, modules []bool, unit, quiet int) []scanline.Run {
	t.Helper()
	row := RenderRow(modules, unit, quiet)
	bits := make([]bool, len(row))
	for i, v := range row {
		bits[i] = v < 0x80
	}
	return scanline.AppendRuns(bits, nil)
}

func TestEAN13RoundTrip(t *testing.T) {
	tests := []struct {
		contents string
		want     string
	}{
		{"4006381333931", "4006381333931"},
		{"5901234123457", "5901234123457"},
		{"9780201379624", "9780201379624"},
		// 12 digits: check digit is computed.
		{"400638133393", "4006381333931"},
	}
	for _, tt := range tests {
		modules, err := EncodeEAN13(tt.contents)
		if err != nil {
			t.Fatalf("EncodeEAN13(%q): %v", tt.contents, err)
		}
		runs := runsForModules(t, modules, 3, 12)
		sym, err := ean13Matcher{}.MatchRuns(0, runs, defaultOpts())
		if err != nil {
			t.Fatalf("MatchRuns(%q): %v", tt.contents, err)
		}
		if sym.Text != tt.want {
			t.Errorf("decoded %q, want %q", sym.Text, tt.want)
		}
		if sym.Format != grayscan.FormatEAN13 {
			t.Errorf("format = %s, want EAN_13", sym.Format)
		}
		if !sym.ChecksumOK {
			t.Errorf("ChecksumOK = false for %q", tt.contents)
		}
		if sym.Confidence <= 0 || sym.Confidence > 1 {
			t.Errorf("confidence %v out of range", sym.Confidence)
		}
	}
}

func TestUPCARoundTrip(t *testing.T) {
	modules, err := EncodeUPCA("03600029145")
	if err != nil {
		t.Fatal(err)
	}
	runs := runsForModules(t, modules, 3, 12)

	sym, err := ean13Matcher{}.MatchRuns(0, runs, defaultOpts())
	if err != nil {
		t.Fatal(err)
	}
	if sym.Format != grayscan.FormatUPCA {
		t.Errorf("format = %s, want UPC_A", sym.Format)
	}
	if sym.Text != "036000291452" {
		t.Errorf("decoded %q, want 036000291452", sym.Text)
	}

	// With UPC-A disabled the same symbol reads as EAN-13.
	opts := defaultOpts()
	opts.Formats = []grayscan.Format{grayscan.FormatEAN13}
	sym, err = ean13Matcher{}.MatchRuns(0, runs, opts)
	if err != nil {
		t.Fatal(err)
	}
	if sym.Format != grayscan.FormatEAN13 || sym.Text != "0036000291452" {
		t.Errorf("got %s %q, want EAN_13 0036000291452", sym.Format, sym.Text)
	}
}

// tamperLastEANDigit rewrites the final digit's 7 modules (85-91) to
// encode a different digit, breaking the checksum.
func tamperLastEANDigit(modules []bool, digit int) {
	seg := make([]bool, 7)
	appendPattern(seg, 0, lPatterns[digit], true)
	copy(modules[85:92], seg)
}

func TestEAN13ChecksumFlag(t *testing.T) {
	modules, err := EncodeEAN13("4006381333931")
	if err != nil {
		t.Fatal(err)
	}
	tamperLastEANDigit(modules, 5)

	runs := runsForModules(t, modules, 3, 12)
	sym, err := ean13Matcher{}.MatchRuns(0, runs, defaultOpts())
	if err != nil {
		t.Fatal(err)
	}
	if sym.ChecksumOK {
		t.Error("ChecksumOK = true for tampered symbol")
	}
	if sym.Text != "4006381333935" {
		t.Errorf("decoded %q, want 4006381333935", sym.Text)
	}
}

func TestEAN13RequireChecksumDropsTampered(t *testing.T) {
	modules, err := EncodeEAN13("4006381333931")
	if err != nil {
		t.Fatal(err)
	}
	tamperLastEANDigit(modules, 5)

	img := RenderImage(modules, 3, 12, 40)
	res, err := grayscan.DecodeAny(img, &grayscan.DecodeOptions{RequireChecksum: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 0 {
		t.Fatalf("got %d results, want 0", len(res))
	}

	res, err = grayscan.DecodeAny(img, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0].ChecksumOK {
		t.Fatalf("got %+v, want one result with failed checksum", res)
	}
}

func TestEAN13NoQuietZone(t *testing.T) {
	modules, err := EncodeEAN13("4006381333931")
	if err != nil {
		t.Fatal(err)
	}
	// Without the quiet zone the true start guard is rejected; a fake
	// guard may still be tried deeper in the symbol, so any decode
	// error is acceptable as long as nothing is returned.
	runs := runsForModules(t, modules, 3, 0)
	if sym, err := (ean13Matcher{}).MatchRuns(0, runs, defaultOpts()); err == nil {
		t.Errorf("decoded %+v without a quiet zone", sym)
	}
}

func TestEAN13Truncated(t *testing.T) {
	modules, err := EncodeEAN13("4006381333931")
	if err != nil {
		t.Fatal(err)
	}
	runs := runsForModules(t, modules, 3, 12)
	if _, err := (ean13Matcher{}).MatchRuns(0, runs[:40], defaultOpts()); err == nil {
		t.Error("expected error on truncated runs")
	}
}

func TestEAN13Tolerance(t *testing.T) {
	modules, err := EncodeEAN13("4006381333931")
	if err != nil {
		t.Fatal(err)
	}
	runs := runsForModules(t, modules, 4, 12)

	// One pixel of jitter on a 4-pixel module stays within tolerance.
	jittered := append([]scanline.Run(nil), runs...)
	jittered[5].Width++
	jittered[9].Width--
	sym, err := ean13Matcher{}.MatchRuns(0, jittered, defaultOpts())
	if err != nil {
		t.Fatalf("jittered decode: %v", err)
	}
	if sym.Text != "4006381333931" {
		t.Errorf("decoded %q, want 4006381333931", sym.Text)
	}

	// A full-module error on a digit run must not survive as a clean
	// decode of the same text.
	broken := append([]scanline.Run(nil), runs...)
	broken[5].Width += 4
	sym, err = ean13Matcher{}.MatchRuns(0, broken, defaultOpts())
	if err == nil && sym.Text == "4006381333931" && sym.ChecksumOK {
		t.Error("full-module corruption decoded as clean original")
	}
}

func TestCode128RoundTrip(t *testing.T) {
	tests := []string{
		"ABC-1234",
		"hello world!",
		"1234567890",
		"X",
	}
	for _, contents := range tests {
		modules, err := EncodeCode128(contents)
		if err != nil {
			t.Fatalf("EncodeCode128(%q): %v", contents, err)
		}
		runs := runsForModules(t, modules, 3, 12)
		sym, err := code128Matcher{}.MatchRuns(0, runs, defaultOpts())
		if err != nil {
			t.Fatalf("MatchRuns(%q): %v", contents, err)
		}
		if sym.Text != contents {
			t.Errorf("decoded %q, want %q", sym.Text, contents)
		}
		if !sym.ChecksumOK {
			t.Errorf("ChecksumOK = false for %q", contents)
		}
	}
}

func TestCode128RejectsNonASCII(t *testing.T) {
	if _, err := EncodeCode128("héllo"); err == nil {
		t.Error("expected error for non-ASCII contents")
	}
}

func TestCode39RoundTrip(t *testing.T) {
	tests := []string{
		"HELLO WORLD",
		"CODE-39.TEST",
		"0123456789",
	}
	for _, contents := range tests {
		modules, err := EncodeCode39(contents)
		if err != nil {
			t.Fatalf("EncodeCode39(%q): %v", contents, err)
		}
		runs := runsForModules(t, modules, 3, 12)
		sym, err := code39Matcher{}.MatchRuns(0, runs, defaultOpts())
		if err != nil {
			t.Fatalf("MatchRuns(%q): %v", contents, err)
		}
		if sym.Text != contents {
			t.Errorf("decoded %q, want %q", sym.Text, contents)
		}
		if !sym.ChecksumOK {
			t.Errorf("ChecksumOK = false for %q", contents)
		}
	}
}

func TestCode39Extended(t *testing.T) {
	modules, err := EncodeCode39("Go1")
	if err != nil {
		t.Fatal(err)
	}
	runs := runsForModules(t, modules, 3, 12)
	sym, err := code39Matcher{}.MatchRuns(0, runs, defaultOpts())
	if err != nil {
		t.Fatal(err)
	}
	if sym.Text != "G+O1" {
		t.Fatalf("decoded %q, want G+O1", sym.Text)
	}
	plain, err := DecodeCode39Extended(sym.Text)
	if err != nil {
		t.Fatal(err)
	}
	if plain != "Go1" {
		t.Errorf("extended decode %q, want Go1", plain)
	}
}

func TestITFRoundTrip(t *testing.T) {
	tests := []string{
		"123456",
		"12345670",
		"00123456789012",
	}
	for _, contents := range tests {
		modules, err := EncodeITF(contents)
		if err != nil {
			t.Fatalf("EncodeITF(%q): %v", contents, err)
		}
		runs := runsForModules(t, modules, 3, 12)
		sym, err := itfMatcher{}.MatchRuns(0, runs, defaultOpts())
		if err != nil {
			t.Fatalf("MatchRuns(%q): %v", contents, err)
		}
		if sym.Text != contents {
			t.Errorf("decoded %q, want %q", sym.Text, contents)
		}
	}
}

func TestITFLengthRejected(t *testing.T) {
	modules, err := EncodeITF("1234")
	if err != nil {
		t.Fatal(err)
	}
	runs := runsForModules(t, modules, 3, 12)
	if _, err := (itfMatcher{}).MatchRuns(0, runs, defaultOpts()); !errors.Is(err, grayscan.ErrFormat) {
		t.Errorf("err = %v, want ErrFormat", err)
	}
}

func TestEncodeErrors(t *testing.T) {
	if _, err := EncodeEAN13("40063813339"); err == nil {
		t.Error("EncodeEAN13 accepted 11 digits")
	}
	if _, err := EncodeEAN13("40063813339ab"); err == nil {
		t.Error("EncodeEAN13 accepted non-digits")
	}
	// Wrong check digit on 13-digit input.
	if _, err := EncodeEAN13("4006381333932"); !errors.Is(err, grayscan.ErrChecksum) {
		t.Errorf("EncodeEAN13 bad check digit: err = %v, want ErrChecksum", err)
	}
	if _, err := EncodeUPCA("123"); err == nil {
		t.Error("EncodeUPCA accepted 3 digits")
	}
	if _, err := EncodeITF("123"); err == nil {
		t.Error("EncodeITF accepted odd length")
	}
	if _, err := EncodeITF("12a4"); err == nil {
		t.Error("EncodeITF accepted non-digits")
	}
}

func TestComputeEANChecksum(t *testing.T) {
	tests := []struct {
		digits string
		want   int
	}{
		{"400638133393", 1},
		{"590123412345", 7},
		{"036000291452"[:11], 2},
	}
	for _, tt := range tests {
		if got := ComputeEANChecksum(tt.digits); got != tt.want {
			t.Errorf("ComputeEANChecksum(%q) = %d, want %d", tt.digits, got, tt.want)
		}
	}
}
