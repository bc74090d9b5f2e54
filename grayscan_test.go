package grayscan_test

import (
	"errors"
	"reflect"
	"testing"

	grayscan "github.com/emarkov/grayscan"
	"github.com/emarkov/grayscan/oned"
)

func ean13Image(t *testing.T, contents string) grayscan.GrayImage {
	t.Helper()
	modules, err := oned.EncodeEAN13(contents)
	if err != nil {
		t.Fatal(err)
	}
	return oned.RenderImage(modules, 3, 12, 50)
}

func TestDecodeAnyEAN13(t *testing.T) {
	img := ean13Image(t, "4006381333931")

	res, err := grayscan.DecodeAny(img, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 {
		t.Fatalf("got %d results, want 1 (deduplicated): %+v", len(res), res)
	}
	sym := res[0]
	if sym.Format != grayscan.FormatEAN13 {
		t.Errorf("format = %s, want EAN_13", sym.Format)
	}
	if sym.Text != "4006381333931" {
		t.Errorf("text = %q, want 4006381333931", sym.Text)
	}
	if !sym.ChecksumOK {
		t.Error("ChecksumOK = false")
	}
	if sym.Confidence <= 0 || sym.Confidence > 1 {
		t.Errorf("confidence %v out of range", sym.Confidence)
	}
}

func TestDecodeAnyUPCA(t *testing.T) {
	modules, err := oned.EncodeUPCA("036000291452")
	if err != nil {
		t.Fatal(err)
	}
	img := oned.RenderImage(modules, 3, 12, 50)

	res, err := grayscan.DecodeAny(img, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0].Format != grayscan.FormatUPCA || res[0].Text != "036000291452" {
		t.Fatalf("got %+v, want one UPC_A 036000291452", res)
	}
}

func TestDecodeAnyCode128(t *testing.T) {
	modules, err := oned.EncodeCode128("GRAY-128 demo")
	if err != nil {
		t.Fatal(err)
	}
	img := oned.RenderImage(modules, 3, 12, 50)

	res, err := grayscan.DecodeAny(img, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0].Format != grayscan.FormatCode128 || res[0].Text != "GRAY-128 demo" {
		t.Fatalf("got %+v, want one CODE_128 result", res)
	}
}

func TestDecodeAnyITF(t *testing.T) {
	modules, err := oned.EncodeITF("12345670")
	if err != nil {
		t.Fatal(err)
	}
	img := oned.RenderImage(modules, 3, 14, 50)

	res, err := grayscan.DecodeAny(img, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0].Format != grayscan.FormatITF || res[0].Text != "12345670" {
		t.Fatalf("got %+v, want one ITF result", res)
	}
}

func TestDecodeAnyMirrored(t *testing.T) {
	modules, err := oned.EncodeEAN13("4006381333931")
	if err != nil {
		t.Fatal(err)
	}
	for i, j := 0, len(modules)-1; i < j; i, j = i+1, j-1 {
		modules[i], modules[j] = modules[j], modules[i]
	}
	img := oned.RenderImage(modules, 3, 12, 50)

	res, err := grayscan.DecodeAny(img, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0].Text != "4006381333931" {
		t.Fatalf("got %+v, want the mirrored symbol decoded", res)
	}
}

func TestDecodeAnyTwoStackedSymbols(t *testing.T) {
	ean, err := oned.EncodeEAN13("4006381333931")
	if err != nil {
		t.Fatal(err)
	}
	c39, err := oned.EncodeCode39("GRAY-1")
	if err != nil {
		t.Fatal(err)
	}
	top := oned.RenderImage(ean, 3, 12, 40)
	bottom := oned.RenderImage(c39, 3, 12, 40)

	width := top.Width
	if bottom.Width > width {
		width = bottom.Width
	}
	pix := make([]byte, width*(top.Height+bottom.Height))
	for i := range pix {
		pix[i] = 0xFF
	}
	for y := 0; y < top.Height; y++ {
		copy(pix[y*width:], top.Row(y))
	}
	for y := 0; y < bottom.Height; y++ {
		copy(pix[(top.Height+y)*width:], bottom.Row(y))
	}
	img, err := grayscan.NewGrayImage(pix, width, top.Height+bottom.Height)
	if err != nil {
		t.Fatal(err)
	}

	res, err := grayscan.DecodeAny(img, nil)
	if err != nil {
		t.Fatal(err)
	}
	found := map[string]grayscan.Format{}
	for _, sym := range res {
		found[sym.Text] = sym.Format
	}
	if found["4006381333931"] != grayscan.FormatEAN13 {
		t.Errorf("EAN-13 symbol missing from %+v", res)
	}
	if f, ok := found["GRAY-1"]; !ok || f != grayscan.FormatCode39 {
		t.Errorf("Code 39 symbol missing from %+v", res)
	}
}

func TestDecodeAnyUniformImage(t *testing.T) {
	pix := make([]byte, 200*50)
	for i := range pix {
		pix[i] = 127
	}
	img, err := grayscan.NewGrayImage(pix, 200, 50)
	if err != nil {
		t.Fatal(err)
	}
	res, err := grayscan.DecodeAny(img, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 0 {
		t.Errorf("got %d results from uniform image, want 0", len(res))
	}
}

func TestDecodeAnyInvalidImage(t *testing.T) {
	bad := grayscan.GrayImage{Pix: make([]byte, 10), Width: 4, Height: 4}
	if _, err := grayscan.DecodeAny(bad, nil); !errors.Is(err, grayscan.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestDecodeAnyInvalidOptions(t *testing.T) {
	img := ean13Image(t, "4006381333931")
	for _, opts := range []*grayscan.DecodeOptions{
		{ScanRows: -1},
		{Tolerance: -0.1},
		{Tolerance: 1.5},
	} {
		if _, err := grayscan.DecodeAny(img, opts); !errors.Is(err, grayscan.ErrInvalidInput) {
			t.Errorf("opts %+v: err = %v, want ErrInvalidInput", opts, err)
		}
	}
}

func TestDecodeAnyFormatFilter(t *testing.T) {
	img := ean13Image(t, "4006381333931")
	res, err := grayscan.DecodeAny(img, &grayscan.DecodeOptions{
		Formats: []grayscan.Format{grayscan.FormatCode39},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 0 {
		t.Errorf("got %d results with EAN-13 disabled, want 0", len(res))
	}
}

func TestDecodeAnyDeterministic(t *testing.T) {
	img := ean13Image(t, "5901234123457")
	first, err := grayscan.DecodeAny(img, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := grayscan.DecodeAny(img, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ between runs: %+v vs %+v", first, second)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name string
		want grayscan.Format
		ok   bool
	}{
		{"EAN_13", grayscan.FormatEAN13, true},
		{"ean-13", grayscan.FormatEAN13, true},
		{"upca", grayscan.FormatUPCA, true},
		{"Code128", grayscan.FormatCode128, true},
		{"i2of5", grayscan.FormatITF, true},
		{"qr", 0, false},
	}
	for _, tt := range tests {
		got, ok := grayscan.ParseFormat(tt.name)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseFormat(%q) = %v, %v; want %v, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func BenchmarkDecodeAny(b *testing.B) {
	modules, err := oned.EncodeEAN13("4006381333931")
	if err != nil {
		b.Fatal(err)
	}
	img := oned.RenderImage(modules, 3, 12, 50)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := grayscan.DecodeAny(img, nil); err != nil {
			b.Fatal(err)
		}
	}
}
